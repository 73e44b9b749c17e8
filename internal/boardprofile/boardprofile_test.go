package boardprofile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/boardprofile"
)

func TestLoad_ValidProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: greenhouse-mini
restricted_pins: [0, 1, 3]
max_sensors: 8
max_actuators: 8
safe_state_convention: pulldown
`), 0o644))

	p, err := boardprofile.Load(path)
	require.NoError(t, err)
	require.Equal(t, "greenhouse-mini", p.Name)
	require.True(t, p.IsRestrictedPin(3))
	require.False(t, p.IsRestrictedPin(4))
}

func TestLoad_RejectsInvalidCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bad
max_sensors: 0
max_actuators: 8
safe_state_convention: pulldown
`), 0o644))

	_, err := boardprofile.Load(path)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	require.NoError(t, boardprofile.Full.Validate())
	require.NoError(t, boardprofile.Restricted.Validate())
	require.Equal(t, 10, boardprofile.Full.MaxSensors)
	require.Equal(t, 8, boardprofile.Restricted.MaxSensors)
}
