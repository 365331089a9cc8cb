// Package logging provides the colored, prefix-tagged logger used by
// every component. Each component gets its own prefix and color so
// interleaved output stays readable.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/adaptivemaze/amaze-api/service/i"
)

// Logger tags each line with a colored component prefix and a level.
type Logger struct {
	prefix string
	color  string
	out    *log.Logger
}

var _ i.Logger = &Logger{}

// New creates a logger writing to w. The color wraps only the prefix,
// levels carry their own colors.
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if prefix == "" {
		return nil, errors.New("logger prefix is required")
	}
	return &Logger{
		prefix: prefix,
		color:  color,
		out:    log.New(w, "", log.LstdFlags),
	}, nil
}

func (l *Logger) print(levelColor, level, msg string) {
	l.out.Printf("%s[%s]%s %s[%s]%s %s",
		l.color, l.prefix, LogColorReset,
		levelColor, level, LogColorReset, msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.print(LogInfoColor, "INFO", msg)
}

// Warning logs a warning.
func (l *Logger) Warning(msg string) {
	l.print(LogWarnColor, "WARN", msg)
}

// Error logs an error.
func (l *Logger) Error(msg string) {
	l.print(LogErrorColor, "ERROR", msg)
}

// Infof is Info with formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warningf is Warning with formatting.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// Errorf is Error with formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
