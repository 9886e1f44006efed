// Package registry provides the concrete types.Registry implementation: a
// table of handle slots backed by the arena allocator, a monotonic handle
// counter, and the mode/lifecycle checks that run before any codec call.
package registry

import (
	"sync"

	"github.com/joshuapare/zipkit/internal/arena"
	"github.com/joshuapare/zipkit/internal/codec"
	"github.com/joshuapare/zipkit/pkg/types"
)

// archiveState is one open archive. Exactly one of writer/reader is set,
// matching mode; the codec session is exclusively owned by this state.
type archiveState struct {
	mode    types.Mode
	backing types.Backing
	writer  types.WriterSession
	reader  types.ReaderSession
}

type slotEntry struct {
	ref  arena.Ref[archiveState]
	live bool
}

// Registry implements types.Registry. One mutex guards the slot table, the
// arena, and the counter; codec calls run under it, so every operation is a
// bounded synchronous unit of work.
type Registry struct {
	mu    sync.Mutex
	arena *arena.Arena[archiveState]
	slots []slotEntry
	next  int
	live  int
}

// New creates a registry with the given capacity options. Zero option
// values select the package defaults.
func New(opts types.Options) *Registry {
	maxHandles := opts.MaxHandles
	if maxHandles <= 0 {
		maxHandles = types.DefaultMaxHandles
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = types.DefaultPoolSize
	}
	return &Registry{
		arena: arena.New[archiveState](poolSize),
		slots: make([]slotEntry, maxHandles),
	}
}

// allocate acquires a slot, runs open to populate it, and only then consumes
// a handle id. A failed open releases the slot and leaves the counter
// untouched, so probing failures never burn handle space.
// Callers hold r.mu.
func (r *Registry) allocate(open func(st *archiveState) error) (types.Handle, error) {
	if r.next >= len(r.slots) {
		return -1, types.ErrNoCapacity
	}
	ref := r.arena.Acquire()
	if err := open(ref.Value()); err != nil {
		_ = r.arena.Release(ref)
		return -1, err
	}
	id := r.next
	r.next++
	r.slots[id] = slotEntry{ref: ref, live: true}
	r.live++
	return types.Handle(id), nil
}

// state validates handle range, liveness, and mode, in that order. Callers
// hold r.mu.
func (r *Registry) state(h types.Handle, mode types.Mode) (*archiveState, error) {
	if h < 0 || int(h) >= len(r.slots) || !r.slots[h].live {
		return nil, types.ErrBadHandle
	}
	st := r.slots[h].ref.Value()
	if st.mode != mode {
		return nil, types.ErrWrongMode
	}
	return st, nil
}

// drop revokes the handle and returns its slot. The counter is deliberately
// not decremented: ids are never recycled. Callers hold r.mu and must not
// touch the state pointer afterwards.
func (r *Registry) drop(h types.Handle) {
	entry := &r.slots[h]
	entry.live = false
	_ = r.arena.Release(entry.ref)
	entry.ref = arena.Ref[archiveState]{}
	r.live--
}

// Create opens a writer-mode archive at path.
func (r *Registry) Create(path string) (types.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(func(st *archiveState) error {
		ws, err := codec.NewFileWriter(path)
		if err != nil {
			return err
		}
		st.mode = types.ModeWriter
		st.backing = types.BackingFile
		st.writer = ws
		return nil
	})
}

// CreateInMemory opens a memory-backed writer-mode archive.
func (r *Registry) CreateInMemory() (types.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(func(st *archiveState) error {
		ws, err := codec.NewMemWriter()
		if err != nil {
			return err
		}
		st.mode = types.ModeWriter
		st.backing = types.BackingMemory
		st.writer = ws
		return nil
	})
}

// AddEntry appends a member to a writer archive. A codec failure leaves the
// handle open and valid for further attempts.
func (r *Registry) AddEntry(h types.Handle, name string, data []byte, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeWriter)
	if err != nil {
		return err
	}
	return st.writer.AddEntry(name, data, level)
}

// Finalize completes a writer archive. The session is closed and the handle
// revoked unconditionally, even when the codec reports failure, so a
// half-finalized writer can never be retried into a resource leak.
func (r *Registry) Finalize(h types.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeWriter)
	if err != nil {
		return err
	}
	_, ferr := st.writer.Finalize()
	_ = st.writer.Close()
	r.drop(h)
	return ferr
}

// FinalizeToBuffer completes a memory-backed writer archive into buf.
// Teardown happens on success and on hard failure; a too-small buffer keeps
// the handle valid so the caller can size-probe and retry.
func (r *Registry) FinalizeToBuffer(h types.Handle, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeWriter)
	if err != nil {
		return 0, err
	}
	if st.backing != types.BackingMemory {
		return 0, &types.Error{
			Kind: types.ErrKindValidation,
			Msg:  "finalize to buffer requires a memory-backed writer",
		}
	}
	out, ferr := st.writer.Finalize()
	if ferr != nil {
		_ = st.writer.Close()
		r.drop(h)
		return 0, ferr
	}
	if len(out) > len(buf) {
		return 0, types.ErrBufferTooSmall
	}
	n := copy(buf, out)
	_ = st.writer.Close()
	r.drop(h)
	return n, nil
}

// Open opens a reader-mode archive from path.
func (r *Registry) Open(path string) (types.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(func(st *archiveState) error {
		rs, err := codec.OpenFile(path)
		if err != nil {
			return err
		}
		st.mode = types.ModeReader
		st.backing = types.BackingFile
		st.reader = rs
		return nil
	})
}

// OpenBytes opens a reader-mode archive over caller memory.
func (r *Registry) OpenBytes(data []byte) (types.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(func(st *archiveState) error {
		rs, err := codec.OpenBytes(data)
		if err != nil {
			return err
		}
		st.mode = types.ModeReader
		st.backing = types.BackingMemory
		st.reader = rs
		return nil
	})
}

// EntryCount returns the number of members in a reader archive.
func (r *Registry) EntryCount(h types.Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return -1, err
	}
	return st.reader.EntryCount(), nil
}

// StatEntry describes the member at index.
func (r *Registry) StatEntry(h types.Handle, index int) (types.EntryInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return types.EntryInfo{}, err
	}
	return st.reader.Stat(index)
}

// LocateEntry finds a member by exact name. ErrNotFound is a normal
// outcome, distinct from handle validation failures.
func (r *Registry) LocateEntry(h types.Handle, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return -1, err
	}
	return st.reader.Locate(name)
}

// ExtractEntry decompresses the member at index into a new caller-owned
// slice.
func (r *Registry) ExtractEntry(h types.Handle, index int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return nil, err
	}
	return st.reader.Extract(index)
}

// ExtractEntryByName locates and extracts in one step. A missing name
// reports ErrNotFound; extraction problems report codec errors.
func (r *Registry) ExtractEntryByName(h types.Handle, name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return nil, err
	}
	index, err := st.reader.Locate(name)
	if err != nil {
		return nil, err
	}
	return st.reader.Extract(index)
}

// ExtractEntryInto decompresses the member at index into buf, returning the
// byte count actually copied.
func (r *Registry) ExtractEntryInto(h types.Handle, index int, buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return 0, err
	}
	return st.reader.ExtractInto(index, buf)
}

// Close releases a reader archive. Teardown is unconditional, mirroring
// Finalize.
func (r *Registry) Close(h types.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, err := r.state(h, types.ModeReader)
	if err != nil {
		return err
	}
	cerr := st.reader.Close()
	r.drop(h)
	return cerr
}

// LiveHandles reports how many handles are currently open.
func (r *Registry) LiveHandles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
