package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindValidation ErrKind = iota // bad handle id, wrong mode, dead handle
	ErrKindCapacity                  // handle-id space or slot space exhausted
	ErrKindCodec                     // underlying container/compression failure
	ErrKindTooSmall                  // caller-supplied buffer is too small
	ErrKindNotFound                  // named entry does not exist
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels commonly returned by implementations.
var (
	// ErrBadHandle indicates the handle id is out of range or no longer live.
	ErrBadHandle = &Error{Kind: ErrKindValidation, Msg: "invalid archive handle"}
	// ErrWrongMode indicates a writer operation on a reader handle or vice versa.
	ErrWrongMode = &Error{Kind: ErrKindValidation, Msg: "operation not allowed in this mode"}
	// ErrNoCapacity indicates the handle-id space is exhausted.
	ErrNoCapacity = &Error{Kind: ErrKindCapacity, Msg: "handle space exhausted"}
	// ErrBufferTooSmall indicates the caller buffer cannot hold the result.
	ErrBufferTooSmall = &Error{Kind: ErrKindTooSmall, Msg: "destination buffer too small"}
	// ErrNotFound indicates a missing entry name.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "entry not found"}
	// ErrInvalidLevel indicates an unsupported compression level.
	ErrInvalidLevel = &Error{Kind: ErrKindCodec, Msg: "invalid compression level"}
)

// -----------------------------------------------------------------------------
// Core Identifiers & Metadata
// -----------------------------------------------------------------------------

// Handle is a small, copyable reference to one live archive inside a Registry.
// Handles are assigned monotonically from [0, MaxHandles) and are never reused
// for the lifetime of the registry, so a stale handle always fails validation
// instead of aliasing a newer archive.
type Handle int32

// Mode describes the single capability of an open archive.
type Mode uint8

const (
	// ModeWriter archives accept entries and are consumed by finalize.
	ModeWriter Mode = iota + 1
	// ModeReader archives answer queries and extractions until closed.
	ModeReader
)

// String implements the Stringer interface for Mode.
func (m Mode) String() string {
	switch m {
	case ModeWriter:
		return "writer"
	case ModeReader:
		return "reader"
	default:
		return "unknown"
	}
}

// Backing records where the archive bytes live. It is informational; the
// codec session already encodes the distinction.
type Backing uint8

const (
	BackingFile Backing = iota + 1
	BackingMemory
)

// String implements the Stringer interface for Backing.
func (b Backing) String() string {
	switch b {
	case BackingFile:
		return "file"
	case BackingMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// MaxNameLen bounds the Name and Comment fields of EntryInfo, measured in
// runes. Longer source records are truncated, never overrun.
const MaxNameLen = 255

// EntryInfo is a read-only snapshot of one archive member. It is a value
// produced on demand; it has no lifecycle of its own and stays valid after
// the source handle is closed.
type EntryInfo struct {
	Name             string // entry name, truncated to MaxNameLen runes
	Comment          string // entry comment, same truncation rule
	UncompressedSize uint64
	CompressedSize   uint64
	IsDirectory      bool
	IsEncrypted      bool
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Default capacity parameters. MaxHandles bounds the monotonic handle
// counter; PoolSize is the number of pre-sized archive slots kept for reuse
// before falling back to individual heap allocations.
const (
	DefaultMaxHandles = 100
	DefaultPoolSize   = 20
)

// Options controls registry capacity. Zero values select the defaults above.
type Options struct {
	// MaxHandles caps the total number of handles ever issued by one
	// registry. Once the counter reaches it, no archive can be created or
	// opened even if earlier handles have been closed. This trades handle
	// space for the guarantee that ids are never recycled.
	MaxHandles int

	// PoolSize is the pre-sized slot pool capacity of the slot allocator.
	PoolSize int
}

// -----------------------------------------------------------------------------
// Registry (complete public surface)
// -----------------------------------------------------------------------------

// Registry maps handles to open archives and enforces all lifecycle and mode
// invariants. Implementations must validate the handle (range, liveness,
// mode) before any codec call, and must be safe for concurrent use.
type Registry interface {
	// Create opens a writer-mode archive bound to a filesystem path.
	// On codec failure no slot or handle id is consumed.
	Create(path string) (Handle, error)

	// CreateInMemory opens a writer-mode archive backed by memory.
	CreateInMemory() (Handle, error)

	// AddEntry appends a named entry to a writer archive. level 0 stores the
	// bytes uncompressed; 1..9 select DEFLATE levels. Failure leaves the
	// archive open and usable for further calls.
	AddEntry(h Handle, name string, data []byte, level int) error

	// Finalize completes a writer archive. The codec session is always
	// closed and the handle invalidated, even when finalization fails.
	Finalize(h Handle) error

	// FinalizeToBuffer completes a memory-backed writer archive and copies
	// the produced container into buf, returning the byte count. If buf is
	// too small it fails with ErrBufferTooSmall and the handle remains valid
	// so the caller can retry with a larger buffer; on success or any other
	// failure the handle is torn down exactly like Finalize.
	FinalizeToBuffer(h Handle, buf []byte) (int, error)

	// Open opens a reader-mode archive from a filesystem path.
	Open(path string) (Handle, error)

	// OpenBytes opens a reader-mode archive over the provided bytes. The
	// buffer must not be mutated while the handle is live.
	OpenBytes(data []byte) (Handle, error)

	// EntryCount returns the number of members in a reader archive.
	EntryCount(h Handle) (int, error)

	// StatEntry describes the member at index. An out-of-range index is a
	// codec-level failure, not a fault.
	StatEntry(h Handle, index int) (EntryInfo, error)

	// LocateEntry finds a member by exact name. A missing name reports
	// ErrNotFound, which is distinct from handle validation failures.
	LocateEntry(h Handle, name string) (int, error)

	// ExtractEntry decompresses the member at index into a newly allocated
	// slice owned by the caller.
	ExtractEntry(h Handle, index int) ([]byte, error)

	// ExtractEntryByName locates and extracts in one step. A missing name
	// reports ErrNotFound; extraction problems report a codec error.
	ExtractEntryByName(h Handle, name string) ([]byte, error)

	// ExtractEntryInto decompresses the member at index into buf and returns
	// the number of bytes actually copied. If the member's uncompressed size
	// exceeds len(buf) it fails with ErrBufferTooSmall and writes nothing.
	ExtractEntryInto(h Handle, index int, buf []byte) (int, error)

	// Close releases a reader archive. The codec session is always closed
	// and the handle invalidated, even when the codec reports failure.
	Close(h Handle) error

	// LiveHandles reports how many handles are currently open.
	LiveHandles() int
}

// -----------------------------------------------------------------------------
// Codec collaborator (container + DEFLATE delegation seam)
// -----------------------------------------------------------------------------

// WriterSession is one archive being built. Exactly one handle owns a
// session; sessions are not safe for concurrent use.
type WriterSession interface {
	// AddEntry appends a named member compressed at the given level.
	AddEntry(name string, data []byte, level int) error

	// Finalize writes the central directory and completes the container.
	// Memory-backed sessions return the produced bytes and may be called
	// again to re-read them; file-backed sessions return nil bytes.
	Finalize() ([]byte, error)

	// Close releases session resources. Idempotent.
	Close() error
}

// ReaderSession is one archive being read.
type ReaderSession interface {
	EntryCount() int
	Stat(index int) (EntryInfo, error)
	Locate(name string) (int, error)
	Extract(index int) ([]byte, error)
	ExtractInto(index int, buf []byte) (int, error)

	// Close releases session resources (unmaps file-backed archives).
	// Idempotent.
	Close() error
}
