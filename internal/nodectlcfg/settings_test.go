package nodectlcfg_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/nodectlcfg"
)

func TestLoadFrom_MissingFileReturnsEmpty(t *testing.T) {
	s, err := nodectlcfg.LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, nodectlcfg.DefaultRedisAddr, s.GetRedisAddr())
}

func TestSaveTo_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := &nodectlcfg.Settings{DefaultRedisAddr: "10.0.0.9:6379", DefaultNodeID: "ESP_ABCDEF"}
	require.NoError(t, s.SaveTo(path))

	loaded, err := nodectlcfg.LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.9:6379", loaded.GetRedisAddr())
	require.Equal(t, "ESP_ABCDEF", loaded.DefaultNodeID)
}
