package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stratastor/burrow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerFor(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logs.Output = "stdout"

	name, args, err := viewerFor(cfg, 50, true)
	require.NoError(t, err)
	assert.Equal(t, "journalctl", name)
	assert.Equal(t, []string{"-u", journalUnit, "-n", "50", "--no-pager", "-f"}, args)

	logPath := filepath.Join(t.TempDir(), "burrow.log")
	cfg.Logs.Output = "file"
	cfg.Logs.Path = logPath
	_, _, err = viewerFor(cfg, 10, false)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(logPath, []byte("line\n"), 0644))
	name, args, err = viewerFor(cfg, 10, false)
	require.NoError(t, err)
	assert.Equal(t, "tail", name)
	assert.Equal(t, []string{"-n", "10", logPath}, args)

	_, _, err = viewerFor(nil, 10, false)
	assert.Error(t, err)
}
