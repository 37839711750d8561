package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", "INFO")
	require.NoError(t, err)
	l.Debug().Msg("hidden")
	l.Info().Int("scans", 3).Msg("opened")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "opened", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, float64(3), rec["scans"])
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "", "debug")
	require.NoError(t, err)
	l.Debug().Msg("indexed")
	assert.Contains(t, buf.String(), "indexed")
	assert.Contains(t, buf.String(), "DBG")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"Debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)
}
