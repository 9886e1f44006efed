package codec

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/joshuapare/zipkit/pkg/types"
)

// codecErr wraps an underlying container/compression failure.
func codecErr(msg string, err error) error {
	return &types.Error{Kind: types.ErrKindCodec, Msg: msg, Err: err}
}

// writerCore holds the container writer shared by the file and memory
// sessions. The registered compressor closure reads the current level, so
// each entry can pick its own DEFLATE level.
type writerCore struct {
	zw    *zip.Writer
	level int
}

func newWriterCore(dst io.Writer) *writerCore {
	c := &writerCore{
		zw:    zip.NewWriter(dst),
		level: flate.DefaultCompression,
	}
	c.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, c.level)
	})
	return c
}

// addEntry appends one member. Level 0 stores the bytes uncompressed;
// levels 1..9 select DEFLATE. Names ending in "/" become directory entries
// and must carry no data.
func (c *writerCore) addEntry(name string, data []byte, level int) error {
	if name == "" {
		return codecErr("entry name is empty", nil)
	}
	hdr := &zip.FileHeader{
		Name:     name,
		Modified: time.Now(),
	}
	switch {
	case level == 0:
		hdr.Method = zip.Store
	case level >= 1 && level <= 9:
		hdr.Method = zip.Deflate
		c.level = level
	default:
		return types.ErrInvalidLevel
	}
	w, err := c.zw.CreateHeader(hdr)
	if err != nil {
		return codecErr("add entry "+name, err)
	}
	if strings.HasSuffix(name, "/") {
		if len(data) > 0 {
			return codecErr("directory entry "+name+" carries data", nil)
		}
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return codecErr("write entry "+name, err)
	}
	return nil
}

// fileWriter streams the container to a temp file next to the destination
// and renames it into place on Finalize, so a crashed or abandoned writer
// never leaves a half-written archive at the target path.
type fileWriter struct {
	core      *writerCore
	tmp       *os.File
	tmpPath   string
	path      string
	finalized bool
	closed    bool
}

// NewFileWriter opens a writer session bound to path.
func NewFileWriter(path string) (types.WriterSession, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".zipkit-tmp-*")
	if err != nil {
		return nil, codecErr("create archive "+path, err)
	}
	return &fileWriter{
		core:    newWriterCore(tmp),
		tmp:     tmp,
		tmpPath: tmp.Name(),
		path:    path,
	}, nil
}

func (w *fileWriter) AddEntry(name string, data []byte, level int) error {
	if w.finalized || w.closed {
		return codecErr("writer session is closed", nil)
	}
	return w.core.addEntry(name, data, level)
}

// Finalize writes the central directory, syncs, and atomically renames the
// temp file to the destination path. File-backed sessions return nil bytes.
func (w *fileWriter) Finalize() ([]byte, error) {
	if w.finalized || w.closed {
		return nil, codecErr("writer session is closed", nil)
	}
	w.finalized = true
	if err := w.core.zw.Close(); err != nil {
		return nil, codecErr("finalize archive", err)
	}
	if err := w.tmp.Sync(); err != nil {
		return nil, codecErr("sync archive", err)
	}
	if err := w.tmp.Close(); err != nil {
		return nil, codecErr("close archive", err)
	}
	w.tmp = nil
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return nil, codecErr("rename archive", err)
	}
	return nil, nil
}

// Close releases the session. After a successful Finalize this is a no-op;
// otherwise the temp file is removed so aborted writers leave nothing behind.
func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.tmp != nil {
		_ = w.tmp.Close()
		_ = os.Remove(w.tmpPath)
		w.tmp = nil
	}
	return nil
}

// memWriter builds the container in memory. Finalize is idempotent: the
// first call completes the container and caches the bytes, later calls
// return the cache. That property is what lets the registry keep a handle
// alive across a too-small FinalizeToBuffer probe.
type memWriter struct {
	core   *writerCore
	buf    bytes.Buffer
	out    []byte
	done   bool
	closed bool
}

// NewMemWriter opens a memory-backed writer session.
func NewMemWriter() (types.WriterSession, error) {
	w := &memWriter{}
	w.core = newWriterCore(&w.buf)
	return w, nil
}

func (w *memWriter) AddEntry(name string, data []byte, level int) error {
	if w.done || w.closed {
		return codecErr("writer session is closed", nil)
	}
	return w.core.addEntry(name, data, level)
}

func (w *memWriter) Finalize() ([]byte, error) {
	if w.closed {
		return nil, codecErr("writer session is closed", nil)
	}
	if !w.done {
		w.done = true
		if err := w.core.zw.Close(); err != nil {
			return nil, codecErr("finalize archive", err)
		}
		w.out = w.buf.Bytes()
	}
	if w.out == nil {
		return nil, codecErr("finalize archive failed previously", nil)
	}
	return w.out, nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}
