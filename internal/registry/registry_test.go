package registry

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/zipkit/pkg/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(types.Options{})
}

func TestFileRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	path := filepath.Join(t.TempDir(), "out.zip")

	entries := []struct {
		name string
		data []byte
	}{
		{"a.txt", []byte("alpha")},
		{"b/b.txt", []byte("beta beta beta")},
		{"empty.txt", nil},
	}

	w, err := r.Create(path)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, r.AddEntry(w, e.name, e.data, 6))
	}
	require.NoError(t, r.Finalize(w))

	rd, err := r.Open(path)
	require.NoError(t, err)

	count, err := r.EntryCount(rd)
	require.NoError(t, err)
	require.Equal(t, len(entries), count)

	for i, e := range entries {
		info, err := r.StatEntry(rd, i)
		require.NoError(t, err)
		require.Equal(t, e.name, info.Name)
		require.Equal(t, uint64(len(e.data)), info.UncompressedSize)

		got, err := r.ExtractEntry(rd, i)
		require.NoError(t, err)
		if len(e.data) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, e.data, got)
		}
	}
	require.NoError(t, r.Close(rd))
}

func TestMemoryRoundTripByName(t *testing.T) {
	r := newTestRegistry(t)
	payload := []byte("hello")

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "a.txt", payload, 6))

	buf := make([]byte, 4096)
	n, err := r.FinalizeToBuffer(w, buf)
	require.NoError(t, err)
	require.Positive(t, n)
	require.LessOrEqual(t, n, len(buf))

	rd, err := r.OpenBytes(buf[:n])
	require.NoError(t, err)

	count, err := r.EntryCount(rd)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	info, err := r.StatEntry(rd, 0)
	require.NoError(t, err)
	require.Equal(t, "a.txt", info.Name)

	got, err := r.ExtractEntryByName(rd, "a.txt")
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.NoError(t, r.Close(rd))
}

func TestCloseAndFinalizeAreExactlyOnce(t *testing.T) {
	r := newTestRegistry(t)
	path := filepath.Join(t.TempDir(), "out.zip")

	w, err := r.Create(path)
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "a.txt", []byte("x"), 6))
	require.NoError(t, r.Finalize(w))
	require.ErrorIs(t, r.Finalize(w), types.ErrBadHandle)
	require.ErrorIs(t, r.AddEntry(w, "b.txt", []byte("y"), 6), types.ErrBadHandle)

	rd, err := r.Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close(rd))
	require.ErrorIs(t, r.Close(rd), types.ErrBadHandle)
	_, err = r.EntryCount(rd)
	require.ErrorIs(t, err, types.ErrBadHandle)
}

func TestHandleSpaceExhaustion(t *testing.T) {
	r := New(types.Options{MaxHandles: 3, PoolSize: 2})

	for i := 0; i < 3; i++ {
		_, err := r.CreateInMemory()
		require.NoError(t, err, "handle %d", i)
	}
	_, err := r.CreateInMemory()
	require.ErrorIs(t, err, types.ErrNoCapacity)
	_, err = r.OpenBytes([]byte("irrelevant"))
	require.ErrorIs(t, err, types.ErrNoCapacity)
}

func TestHandlesAreNeverRecycled(t *testing.T) {
	r := New(types.Options{MaxHandles: 4})

	w0, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.Finalize(w0))

	// Closing w0 must not make its id valid again, and the next handle
	// continues the monotonic sequence.
	w1, err := r.CreateInMemory()
	require.NoError(t, err)
	require.Greater(t, w1, w0)
	require.ErrorIs(t, r.AddEntry(w0, "a.txt", []byte("x"), 6), types.ErrBadHandle)

	// Exhaust the counter; closed handles do not restore capacity.
	_, err = r.CreateInMemory()
	require.NoError(t, err)
	_, err = r.CreateInMemory()
	require.NoError(t, err)
	_, err = r.CreateInMemory()
	require.ErrorIs(t, err, types.ErrNoCapacity)
}

func TestModeEnforcement(t *testing.T) {
	r := newTestRegistry(t)

	w, err := r.CreateInMemory()
	require.NoError(t, err)

	_, err = r.EntryCount(w)
	require.ErrorIs(t, err, types.ErrWrongMode)
	_, err = r.StatEntry(w, 0)
	require.ErrorIs(t, err, types.ErrWrongMode)
	_, err = r.ExtractEntry(w, 0)
	require.ErrorIs(t, err, types.ErrWrongMode)
	require.ErrorIs(t, r.Close(w), types.ErrWrongMode)

	require.NoError(t, r.AddEntry(w, "a.txt", []byte("x"), 6))
	buf := make([]byte, 4096)
	n, err := r.FinalizeToBuffer(w, buf)
	require.NoError(t, err)

	rd, err := r.OpenBytes(buf[:n])
	require.NoError(t, err)
	require.ErrorIs(t, r.AddEntry(rd, "b.txt", []byte("y"), 6), types.ErrWrongMode)
	require.ErrorIs(t, r.Finalize(rd), types.ErrWrongMode)
	_, err = r.FinalizeToBuffer(rd, buf)
	require.ErrorIs(t, err, types.ErrWrongMode)
}

func TestBadHandleIDs(t *testing.T) {
	r := newTestRegistry(t)

	for _, h := range []types.Handle{-1, 0, 7, 99, 100, 1 << 20} {
		_, err := r.EntryCount(h)
		require.ErrorIs(t, err, types.ErrBadHandle, "handle %d", h)
	}
}

func TestAddEntryFailureLeavesWriterUsable(t *testing.T) {
	r := newTestRegistry(t)

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.ErrorIs(t, r.AddEntry(w, "a.txt", []byte("x"), 42), types.ErrInvalidLevel)

	// The writer is still open and accepts further entries.
	require.NoError(t, r.AddEntry(w, "a.txt", []byte("x"), 6))
	require.NoError(t, r.Finalize(w))
}

func TestFinalizeToBufferRetry(t *testing.T) {
	r := newTestRegistry(t)
	payload := []byte("hello")

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "a.txt", payload, 6))

	// Probe with a buffer that cannot hold any zip container.
	small := make([]byte, 8)
	n, err := r.FinalizeToBuffer(w, small)
	require.ErrorIs(t, err, types.ErrBufferTooSmall)
	require.Zero(t, n)

	// The handle survived the probe; retry with room to spare.
	big := make([]byte, 4096)
	n, err = r.FinalizeToBuffer(w, big)
	require.NoError(t, err)
	require.Positive(t, n)

	// Success tore the handle down.
	_, err = r.FinalizeToBuffer(w, big)
	require.ErrorIs(t, err, types.ErrBadHandle)

	// The probed-then-retried bytes are a valid archive.
	rd, err := r.OpenBytes(big[:n])
	require.NoError(t, err)
	got, err := r.ExtractEntryByName(rd, "a.txt")
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.NoError(t, r.Close(rd))
}

func TestFinalizeToBufferRequiresMemoryBacking(t *testing.T) {
	r := newTestRegistry(t)
	path := filepath.Join(t.TempDir(), "out.zip")

	w, err := r.Create(path)
	require.NoError(t, err)
	_, err = r.FinalizeToBuffer(w, make([]byte, 4096))
	var terr *types.Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, types.ErrKindValidation, terr.Kind)

	// The handle is untouched by the rejection.
	require.NoError(t, r.AddEntry(w, "a.txt", []byte("x"), 6))
	require.NoError(t, r.Finalize(w))
}

func TestLocateMissingIsNotFound(t *testing.T) {
	r := newTestRegistry(t)

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "present.txt", []byte("x"), 6))
	buf := make([]byte, 4096)
	n, err := r.FinalizeToBuffer(w, buf)
	require.NoError(t, err)

	rd, err := r.OpenBytes(buf[:n])
	require.NoError(t, err)

	idx, err := r.LocateEntry(rd, "present.txt")
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	_, err = r.LocateEntry(rd, "missing.txt")
	require.ErrorIs(t, err, types.ErrNotFound)
	require.NotErrorIs(t, err, types.ErrBadHandle)

	_, err = r.ExtractEntryByName(rd, "missing.txt")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestExtractEntryIntoBounds(t *testing.T) {
	r := newTestRegistry(t)
	payload := []byte("bounded payload bytes")

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "a.bin", payload, 6))
	buf := make([]byte, 4096)
	n, err := r.FinalizeToBuffer(w, buf)
	require.NoError(t, err)

	rd, err := r.OpenBytes(buf[:n])
	require.NoError(t, err)

	out := make([]byte, len(payload))
	m, err := r.ExtractEntryInto(rd, 0, out)
	require.NoError(t, err)
	require.Equal(t, len(payload), m)
	require.Equal(t, payload, out)

	small := make([]byte, 4)
	m, err = r.ExtractEntryInto(rd, 0, small)
	require.ErrorIs(t, err, types.ErrBufferTooSmall)
	require.Zero(t, m)
	require.Equal(t, []byte{0, 0, 0, 0}, small, "failed extraction must not write")

	// The handle remains valid after a too-small buffer.
	count, err := r.EntryCount(rd)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestFailedCreateConsumesNothing(t *testing.T) {
	r := New(types.Options{MaxHandles: 2})

	_, err := r.Create(filepath.Join(t.TempDir(), "no-such-dir", "x.zip"))
	require.Error(t, err)
	require.Zero(t, r.LiveHandles())

	_, err = r.OpenBytes([]byte("not a zip"))
	require.Error(t, err)

	// Both failures left handle ids unconsumed: two creates still fit.
	_, err = r.CreateInMemory()
	require.NoError(t, err)
	_, err = r.CreateInMemory()
	require.NoError(t, err)
}

func TestPoolOverflowUsesHeap(t *testing.T) {
	r := New(types.Options{MaxHandles: 16, PoolSize: 2})

	handles := make([]types.Handle, 0, 6)
	for i := 0; i < 6; i++ {
		w, err := r.CreateInMemory()
		require.NoError(t, err)
		require.NoError(t, r.AddEntry(w, fmt.Sprintf("f%d.txt", i), []byte{byte(i)}, 6))
		handles = append(handles, w)
	}
	require.Equal(t, 6, r.LiveHandles())

	// All six archives are independent and finalize cleanly.
	buf := make([]byte, 4096)
	for _, h := range handles {
		n, err := r.FinalizeToBuffer(h, buf)
		require.NoError(t, err)
		require.Positive(t, n)
	}
	require.Zero(t, r.LiveHandles())
}

func TestLiveHandles(t *testing.T) {
	r := newTestRegistry(t)
	require.Zero(t, r.LiveHandles())

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.Equal(t, 1, r.LiveHandles())

	require.NoError(t, r.Finalize(w))
	require.Zero(t, r.LiveHandles())
}

func TestScenarioSmallArchive(t *testing.T) {
	// Build, finalize to a buffer, reopen, and verify the single entry.
	r := newTestRegistry(t)

	w, err := r.CreateInMemory()
	require.NoError(t, err)
	require.NoError(t, r.AddEntry(w, "a.txt", []byte("hello"), 6))

	buf := make([]byte, 512)
	n, err := r.FinalizeToBuffer(w, buf)
	require.NoError(t, err)
	require.LessOrEqual(t, n, 512)

	rd, err := r.OpenBytes(buf[:n])
	require.NoError(t, err)

	count, err := r.EntryCount(rd)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	info, err := r.StatEntry(rd, 0)
	require.NoError(t, err)
	require.Equal(t, "a.txt", info.Name)

	got, err := r.ExtractEntry(rd, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	require.NoError(t, r.Close(rd))
}
