package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644))
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	t.Setenv(EnvPath, "")
	md, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), md)
}

func TestLoadDirTopLevel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `{"is_competition": true, "zone": 2}`)
	md, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, Metadata{IsCompetition: true, Zone: 2}, md)
}

func TestLoadDirSearchesChildren(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "usb0"), `{"is_competition": true, "zone": 3}`)
	md, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 3, md.Zone)
}

func TestLoadDirPrefersTopLevel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `{"zone": 1}`)
	writeFile(t, filepath.Join(dir, "usb0"), `{"zone": 2}`)
	md, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 1, md.Zone)
}

func TestLoadDirMissingFileFails(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
}

func TestLoadDirBadJSONFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `{`)
	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestStoreGatesAccess(t *testing.T) {
	var s Store
	_, err := s.Get()
	require.ErrorIs(t, err, ErrNotReady)

	s.Set(Metadata{IsCompetition: true, Zone: 1})
	md, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, 1, md.Zone)
	require.True(t, md.IsCompetition)
}
