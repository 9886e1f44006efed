// Package archive is the public entry point for zipkit. It re-exports the
// core types from pkg/types and constructs registries, so users only need
// one import.
//
// Example:
//
//	reg := archive.New(archive.Options{})
//	w, err := reg.CreateInMemory()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg.AddEntry(w, "a.txt", []byte("hello"), 6)
//	buf := make([]byte, 4096)
//	n, _ := reg.FinalizeToBuffer(w, buf)
//
//	rd, _ := reg.OpenBytes(buf[:n])
//	defer reg.Close(rd)
//	data, _ := reg.ExtractEntryByName(rd, "a.txt")
package archive

import (
	"github.com/joshuapare/zipkit/internal/registry"
	"github.com/joshuapare/zipkit/pkg/types"
)

// Re-export commonly used types from pkg/types so users only need to import
// pkg/archive.

// Core types.
type (
	Handle    = types.Handle
	Mode      = types.Mode
	Backing   = types.Backing
	EntryInfo = types.EntryInfo
	Options   = types.Options
	Registry  = types.Registry
)

// Mode and backing constants.
const (
	ModeWriter    = types.ModeWriter
	ModeReader    = types.ModeReader
	BackingFile   = types.BackingFile
	BackingMemory = types.BackingMemory
)

// Capacity defaults and field bounds.
const (
	DefaultMaxHandles = types.DefaultMaxHandles
	DefaultPoolSize   = types.DefaultPoolSize
	MaxNameLen        = types.MaxNameLen
)

// Error types.
type (
	Error   = types.Error
	ErrKind = types.ErrKind
)

// Error kind constants.
const (
	ErrKindValidation = types.ErrKindValidation
	ErrKindCapacity   = types.ErrKindCapacity
	ErrKindCodec      = types.ErrKindCodec
	ErrKindTooSmall   = types.ErrKindTooSmall
	ErrKindNotFound   = types.ErrKindNotFound
)

// Common error sentinels.
var (
	ErrBadHandle      = types.ErrBadHandle
	ErrWrongMode      = types.ErrWrongMode
	ErrNoCapacity     = types.ErrNoCapacity
	ErrBufferTooSmall = types.ErrBufferTooSmall
	ErrNotFound       = types.ErrNotFound
	ErrInvalidLevel   = types.ErrInvalidLevel
)

// New creates a Registry with the given capacity options. Zero option
// values select the defaults. Each registry is fully isolated: handles from
// one registry mean nothing to another.
func New(opts Options) Registry {
	return registry.New(opts)
}
