package obslog

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: zerolog.WarnLevel, Pretty: false, Output: &buf})

	logger.Info().Msg("should be filtered")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestDefaultConfig_UsesInfoLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, DefaultConfig().Level)
}
