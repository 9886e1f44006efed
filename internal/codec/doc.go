// Package codec implements the container collaborator for zipkit: one
// session per open archive, writer or reader, built on archive/zip with
// github.com/klauspost/compress supplying the DEFLATE implementation on both
// paths. The registry owns session lifecycles; sessions never validate
// handles and are not safe for concurrent use.
package codec
