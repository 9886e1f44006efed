package codec

import (
	"archive/zip"
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/zipkit/internal/mmfile"
	"github.com/joshuapare/zipkit/pkg/types"
)

// readerSession is one archive being read. File-backed sessions keep the
// source mapped until Close.
type readerSession struct {
	zr     *zip.Reader
	unmap  func() error
	closed bool
}

// OpenFile maps the archive at path read-only and parses the container.
func OpenFile(path string) (types.ReaderSession, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, codecErr("open archive "+path, err)
	}
	s, err := newReader(data, unmap)
	if err != nil {
		if unmap != nil {
			_ = unmap()
		}
		return nil, err
	}
	return s, nil
}

// OpenBytes parses a container held in caller memory. The buffer must stay
// immutable while the session is live.
func OpenBytes(data []byte) (types.ReaderSession, error) {
	return newReader(data, nil)
}

func newReader(data []byte, unmap func() error) (*readerSession, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, codecErr("parse archive", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return &readerSession{zr: zr, unmap: unmap}, nil
}

func (s *readerSession) file(index int) (*zip.File, error) {
	if s.closed {
		return nil, &types.Error{Kind: types.ErrKindValidation, Msg: "reader session is closed"}
	}
	if index < 0 || index >= len(s.zr.File) {
		return nil, &types.Error{Kind: types.ErrKindValidation, Msg: "entry index out of range"}
	}
	return s.zr.File[index], nil
}

func (s *readerSession) EntryCount() int {
	if s.closed {
		return 0
	}
	return len(s.zr.File)
}

// Stat builds a snapshot of the member at index. Names and comments without
// the UTF-8 flag are decoded from CP437 and both fields are truncated to
// MaxNameLen runes.
func (s *readerSession) Stat(index int) (types.EntryInfo, error) {
	f, err := s.file(index)
	if err != nil {
		return types.EntryInfo{}, err
	}
	return types.EntryInfo{
		Name:             truncateField(decodeField(f.Name, f.NonUTF8)),
		Comment:          truncateField(decodeField(f.Comment, f.NonUTF8)),
		UncompressedSize: f.UncompressedSize64,
		CompressedSize:   f.CompressedSize64,
		IsDirectory:      f.FileInfo().IsDir(),
		IsEncrypted:      f.Flags&0x1 != 0,
	}, nil
}

// Locate finds a member by exact decoded name.
func (s *readerSession) Locate(name string) (int, error) {
	if s.closed {
		return -1, &types.Error{Kind: types.ErrKindValidation, Msg: "reader session is closed"}
	}
	for i, f := range s.zr.File {
		if f.Name == name || decodeField(f.Name, f.NonUTF8) == name {
			return i, nil
		}
	}
	return -1, types.ErrNotFound
}

// Extract decompresses the member at index into a new slice. The container
// reader verifies the CRC as the stream drains.
func (s *readerSession) Extract(index int) ([]byte, error) {
	f, err := s.file(index)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, codecErr("open entry", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, codecErr("extract entry", err)
	}
	return data, nil
}

// ExtractInto decompresses the member at index into buf. If the member's
// recorded uncompressed size exceeds the buffer, nothing is written and the
// call fails with ErrBufferTooSmall. The return value is the count actually
// copied, never the bare stat size: after the copy the stream must be at
// EOF, so a member whose data disagrees with its record fails instead of
// reporting an unverified size.
func (s *readerSession) ExtractInto(index int, buf []byte) (int, error) {
	f, err := s.file(index)
	if err != nil {
		return 0, err
	}
	size := f.UncompressedSize64
	if size > uint64(len(buf)) {
		return 0, types.ErrBufferTooSmall
	}
	rc, err := f.Open()
	if err != nil {
		return 0, codecErr("open entry", err)
	}
	defer rc.Close()
	n, err := io.ReadFull(rc, buf[:size])
	if err != nil {
		return n, codecErr("extract entry", err)
	}
	// Drain to EOF: triggers the CRC check and catches members longer than
	// their stat record claims.
	extra, err := io.CopyN(io.Discard, rc, 1)
	if extra != 0 {
		return n, codecErr("entry larger than recorded size", nil)
	}
	if err != io.EOF {
		return n, codecErr("verify entry", err)
	}
	return n, nil
}

// Close releases the session and unmaps file-backed archives. Idempotent.
func (s *readerSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.unmap != nil {
		if err := s.unmap(); err != nil {
			return codecErr("close archive", err)
		}
	}
	return nil
}

// decodeField converts a raw header field to UTF-8. Entries written without
// the UTF-8 flag carry CP437 bytes; anything that fails to decode is kept
// as-is rather than dropped.
func decodeField(raw string, nonUTF8 bool) string {
	if !nonUTF8 || raw == "" || utf8.ValidString(raw) {
		return raw
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// truncateField bounds a field to MaxNameLen runes without splitting one.
func truncateField(s string) string {
	if utf8.RuneCountInString(s) <= types.MaxNameLen {
		return s
	}
	seen := 0
	for i := range s {
		if seen == types.MaxNameLen {
			return s[:i]
		}
		seen++
	}
	return s
}
