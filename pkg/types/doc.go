// Package types defines the public API for zipkit: a handle-based layer for
// creating, populating, finalizing, and reading zip archive containers.
//
// Callers never hold archive state directly. Instead a Registry hands out
// small integer Handles and enforces every lifecycle and mode rule: a handle
// is valid exactly while its archive is open, writer and reader capabilities
// are mutually exclusive, and close/finalize revoke the handle exactly once.
//
// Design goals:
//   - Handles instead of object graphs; using a dead handle is a typed error,
//     never a memory fault.
//   - Typed errors with stable categories (validation/capacity/codec/...).
//   - All byte-level DEFLATE and container work is delegated to the codec
//     sessions; this package only exposes interfaces and core types.
//
// This package has no dependencies beyond the standard library.
package types
