package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomload/internal/logging"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	log, err := logging.New(logging.Options{Level: "info", OutputPath: path})
	require.NoError(t, err)

	log.Info("Room ROOM01 → Player1 → Latencia: 12.00 ms (VU 1)")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Room ROOM01 → Player1 → Latencia: 12.00 ms (VU 1)")
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)

	_, err = logging.New(logging.Options{Encoding: "xml"})
	assert.Error(t, err)
}
