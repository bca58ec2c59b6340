package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestInit_FileOutputIsJSON(t *testing.T) {
	prev := zlog.Logger
	t.Cleanup(func() { zlog.Logger = prev })

	path := filepath.Join(t.TempDir(), "muse.log")
	require.NoError(t, Init(Config{Output: "file", Level: "info", File: path}))

	l := For("monitor")
	l.Info().Msg("monitor: started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"monitor"`)
	assert.Contains(t, string(data), `"message":"monitor: started"`)
}

func TestFor(t *testing.T) {
	prev := zlog.Logger
	t.Cleanup(func() { zlog.Logger = prev })

	var buf bytes.Buffer
	zlog.Logger = zerolog.New(&buf)

	l := For("dispatch")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"dispatch"`)
}

func TestForSession(t *testing.T) {
	prev := zlog.Logger
	t.Cleanup(func() { zlog.Logger = prev })

	var buf bytes.Buffer
	zlog.Logger = zerolog.New(&buf)

	l := ForSession("monitor", "s-1")
	l.Info().Msg("tick")
	assert.Contains(t, buf.String(), `"component":"monitor"`)
	assert.Contains(t, buf.String(), `"session_id":"s-1"`)
}

func TestInit_UnwritableFile(t *testing.T) {
	prev := zlog.Logger
	t.Cleanup(func() { zlog.Logger = prev })

	path := filepath.Join(t.TempDir(), "missing", "dir", "muse.log")
	assert.Error(t, Init(Config{Output: path, File: path}))
}
