package i

// Logger is the leveled logger used across services. Implementations
// tag every line with a component prefix.
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}
