package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/blitz/internal/testing/fake"
)

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	count := 0
	generate := func() ([]byte, error) {
		count++
		return []byte{0xa, 0xb}, nil
	}

	data, err := LoadOrCreate(path, generate)
	require.NoError(t, err)
	require.Equal(t, []byte{0xa, 0xb}, data)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0a0b\n", string(raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0400), info.Mode().Perm())

	data, err = LoadOrCreate(path, generate)
	require.NoError(t, err)
	require.Equal(t, []byte{0xa, 0xb}, data)
	require.Equal(t, 1, count)
}

func TestLoadOrCreate_Failures(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "private.key")
	_, err := LoadOrCreate(path, func() ([]byte, error) { return nil, fake.GetError() })
	require.EqualError(t, err, fake.Err("failed to generate key"))
	require.NoFileExists(t, path)

	path = filepath.Join(dir, "missing", "private.key")
	_, err = LoadOrCreate(path, func() ([]byte, error) { return []byte{1}, nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create "+path)

	_, err = LoadOrCreate(dir, func() ([]byte, error) { return []byte{1}, nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read "+dir)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "private.key")
	require.NoError(t, os.WriteFile(path, []byte(" 0102 \n"), 0600))

	data, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, data)

	require.NoError(t, os.WriteFile(path, []byte("xyz"), 0600))
	_, err = Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed key in "+path)

	_, err = Load(filepath.Join(dir, "unknown.key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read ")
}
