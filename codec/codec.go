// Package codec serializes values for byte-oriented stores. recache uses
// these for hot-tier payloads; the backend encodings (JSON document /
// field hash) are fixed by the cache's Encoding and do not go through a
// Codec.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
