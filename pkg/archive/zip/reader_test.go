package zip_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archivezip "github.com/beatmaplib/assetstore/pkg/archive/zip"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpenBytesListsFilenames(t *testing.T) {
	data := buildZip(t, map[string]string{
		"Set/diff.osu": "osu file format v14",
		"Set/bg.jpg":   "not a real image",
	})

	r, err := archivezip.OpenBytes(data, "My Archive")
	require.NoError(t, err)
	assert.Equal(t, "My Archive", r.Name())
	assert.ElementsMatch(t, []string{"Set/diff.osu", "Set/bg.jpg"}, r.Filenames())
}

func TestGetStreamReturnsSeekableContent(t *testing.T) {
	data := buildZip(t, map[string]string{"Set/diff.osu": "hello world"})
	r, err := archivezip.OpenBytes(data, "archive")
	require.NoError(t, err)

	stream, err := r.GetStream("Set/diff.osu")
	require.NoError(t, err)

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	_, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	again, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(again))
}

func TestGetStreamMissingEntry(t *testing.T) {
	data := buildZip(t, map[string]string{"Set/diff.osu": "x"})
	r, err := archivezip.OpenBytes(data, "archive")
	require.NoError(t, err)

	_, err = r.GetStream("Set/missing.osu")
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.ErrNotFound))
}

func TestOpenSkipsDirectoryEntries(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err := w.Create("Set/")
	require.NoError(t, err)
	fw, err := w.Create("Set/diff.osu")
	require.NoError(t, err)
	_, err = fw.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := archivezip.OpenBytes(buf.Bytes(), "archive")
	require.NoError(t, err)
	assert.Equal(t, []string{"Set/diff.osu"}, r.Filenames())
}

func TestOpenFromDisk(t *testing.T) {
	data := buildZip(t, map[string]string{"Set/diff.osu": "on disk"})
	path := filepath.Join(t.TempDir(), "archive.osz")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := archivezip.Open(path, "archive")
	require.NoError(t, err)
	assert.Equal(t, []string{"Set/diff.osu"}, r.Filenames())

	stream, err := r.GetStream("Set/diff.osu")
	require.NoError(t, err)
	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "on disk", string(content))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := archivezip.Open(filepath.Join(t.TempDir(), "missing.osz"), "archive")
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.ErrIOFailure))
}
