package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFallback(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New("info", "", &buf)
	require.NoError(t, err)
	defer closer()

	l.Debug().Msg("hidden")
	l.Info().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "time")
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	l, closer, err := New("debug", path, nil)
	require.NoError(t, err)

	l.Debug().Msg("to file")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("loud", "", nil)
	assert.Error(t, err)
}

func TestDefaultLogFile_UsesStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/state", "reviewdesk", "reviewdesk.log"), DefaultLogFile())
}
