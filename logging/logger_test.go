package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresPrefix(t *testing.T) {
	_, err := New("", ColorGreen, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestOutputCarriesPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("GAME", ColorCyan, &buf)
	require.NoError(t, err)

	logger.Info("maze ready")
	logger.Warning("slow tick")
	logger.Errorf("solve failed after %d steps", 42)

	out := buf.String()
	assert.Contains(t, out, ColorCyan+"[GAME]"+LogColorReset)
	assert.Contains(t, out, "[INFO]"+LogColorReset+" maze ready")
	assert.Contains(t, out, "[WARN]"+LogColorReset+" slow tick")
	assert.Contains(t, out, "[ERROR]"+LogColorReset+" solve failed after 42 steps")
}
