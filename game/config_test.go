package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fishtris.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
width: 10
speed:
  min: 0.2
max_frame_delta: 250ms
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
	assert.Equal(t, 0.6, cfg.Speed.Start)
	assert.Equal(t, 0.2, cfg.Speed.Min)
	assert.Equal(t, 250*time.Millisecond, cfg.MaxFrameDelta)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"small.yaml": "width: 2\n",
		"speed.yaml": "speed:\n  start: 0.05\n",
		"queue.yaml": "max_pending_actions: 0\n",
		"parse.yaml": "width: [\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err, name)
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
