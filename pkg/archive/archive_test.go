package archive_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/zipkit/pkg/archive"
)

func TestFacadeRoundTrip(t *testing.T) {
	reg := archive.New(archive.Options{})
	path := filepath.Join(t.TempDir(), "facade.zip")

	w, err := reg.Create(path)
	require.NoError(t, err)
	require.NoError(t, reg.AddEntry(w, "doc.txt", []byte("through the facade"), 6))
	require.NoError(t, reg.Finalize(w))

	rd, err := reg.Open(path)
	require.NoError(t, err)
	defer reg.Close(rd)

	idx, err := reg.LocateEntry(rd, "doc.txt")
	require.NoError(t, err)
	got, err := reg.ExtractEntry(rd, idx)
	require.NoError(t, err)
	require.Equal(t, []byte("through the facade"), got)
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := archive.New(archive.Options{})
	b := archive.New(archive.Options{})

	w, err := a.CreateInMemory()
	require.NoError(t, err)

	// The same numeric handle means nothing to another registry.
	require.ErrorIs(t, b.AddEntry(w, "x.txt", []byte("x"), 6), archive.ErrBadHandle)
	require.NoError(t, a.AddEntry(w, "x.txt", []byte("x"), 6))
}

func TestModeStrings(t *testing.T) {
	require.Equal(t, "writer", archive.ModeWriter.String())
	require.Equal(t, "reader", archive.ModeReader.String())
	require.Equal(t, "file", archive.BackingFile.String())
	require.Equal(t, "memory", archive.BackingMemory.String())
}
