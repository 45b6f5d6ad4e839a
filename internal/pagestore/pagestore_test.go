package pagestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOpenReadWrite(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "t1.page")

	require.NoError(t, CreatePageFile(name))

	f, err := OpenPageFile(name)
	require.NoError(t, err)
	defer f.ClosePageFile()

	require.Equal(t, 1, f.TotalNumPages())

	buf := make([]byte, PageSize)
	require.NoError(t, f.ReadBlock(0, buf))
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}

	for i := range buf {
		buf[i] = 0xAB
	}
	require.NoError(t, f.WriteBlock(0, buf))

	roundTrip := make([]byte, PageSize)
	require.NoError(t, f.ReadBlock(0, roundTrip))
	require.Equal(t, buf, roundTrip)
}

func TestReadBlockOutOfRange(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "t2.page")
	require.NoError(t, CreatePageFile(name))

	f, err := OpenPageFile(name)
	require.NoError(t, err)
	defer f.ClosePageFile()

	buf := make([]byte, PageSize)
	err = f.ReadBlock(5, buf)
	require.ErrorIs(t, err, ErrNoSuchPage)
}

func TestAppendEmptyBlockAndEnsureCapacity(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "t3.page")
	require.NoError(t, CreatePageFile(name))

	f, err := OpenPageFile(name)
	require.NoError(t, err)
	defer f.ClosePageFile()

	pageNum, err := f.AppendEmptyBlock()
	require.NoError(t, err)
	require.Equal(t, 1, pageNum)
	require.Equal(t, 2, f.TotalNumPages())

	require.NoError(t, f.EnsureCapacity(5))
	require.Equal(t, 5, f.TotalNumPages())

	// EnsureCapacity below the current count is a no-op.
	require.NoError(t, f.EnsureCapacity(2))
	require.Equal(t, 5, f.TotalNumPages())
}

func TestOpenMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenPageFile(filepath.Join(dir, "missing.page"))
	require.ErrorIs(t, err, ErrFileNotFound)
}
