package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json")
	l.Info().Str("session", "s-1").Msg("session created")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "s-1", line["session"])
	assert.Equal(t, "session created", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console")
	l.Warn().Msg("too slow")

	assert.Contains(t, buf.String(), "too slow")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSetup_BadLevel(t *testing.T) {
	_, err := Setup("loud", "json")
	assert.Error(t, err)
}
