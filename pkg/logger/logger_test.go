package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake_WritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New().FromWriter(&buf).Level("info").Make()
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("table", "shapes").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"table":"shapes"`)
	assert.Contains(t, out, `"time"`)
}

func TestMake_UnknownLevelKeepsWarn(t *testing.T) {
	var buf bytes.Buffer
	log, err := New().FromWriter(&buf).Level("loud").Make()
	require.NoError(t, err)

	log.Info().Msg("info")
	log.Warn().Msg("warn")

	assert.NotContains(t, buf.String(), `"message":"info"`)
	assert.Contains(t, buf.String(), `"message":"warn"`)
}

func TestMake_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcel.log")
	log, err := New().FromPath(path).Make()
	require.NoError(t, err)

	log.Error().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
