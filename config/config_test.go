package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := Parse("")
		require.NoError(t, err)
		require.Equal(t, Default(), c)
		require.Empty(t, c.LedgerOptions())
	})

	t.Run("overrides", func(t *testing.T) {
		c, err := Parse(`
log_level = "debug"
verifier_cache_size = 0
require_cid_handles = true
snapshot_path = "/tmp/ledger.car"
`)
		require.NoError(t, err)
		require.Equal(t, "debug", c.LogLevel)
		require.Zero(t, c.VerifierCacheSize)
		require.True(t, c.RequireCIDHandles)
		require.Equal(t, "/tmp/ledger.car", c.SnapshotPath)
		require.Len(t, c.LedgerOptions(), 1)
		require.Len(t, c.AttestOptions(), 1)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse(`log_levle = "debug"`)
		require.ErrorContains(t, err, "log_levle")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := Parse(`log_level = "chatty"`)
		require.Error(t, err)
	})

	t.Run("negative cache", func(t *testing.T) {
		_, err := Parse(`verifier_cache_size = -1`)
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esign.toml")
	c := Default()
	c.LogLevel = "warn"
	c.RequireCIDHandles = true
	require.NoError(t, c.WriteTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c, loaded)
	require.NoError(t, loaded.ApplyLogging())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
