// Package recache implements a typed read-through cache in front of an
// authoritative remote data source. Records are stored under one of two
// physical encodings, optionally covered by a backend-maintained secondary
// index for reverse field lookup, and expired by a per-cache TTL. Backend
// failures never reach the caller as errors: reads degrade to a miss,
// writes are logged and dropped.
//
// Components:
//   - Backend: the storage/index protocol (document + field-map put/get with
//     TTL, index create/drop, equality/text/sorted search). Redis with the
//     JSON and Search modules is the shipped implementation.
//   - Cache[V]: the typed engine. Bound at construction to a key prefix, a
//     TTL, one Encoding and (optionally) one secondary index.
//   - ReadThrough[V]: miss -> fetch from Source -> populate -> return, with
//     an optional in-process hot tier in front of the backend.
//   - Source[V]: the authoritative-source contract (source.HTTP talks to a
//     REST endpoint with a bearer token).
//
// Keys are KeyPrefix+id. An Encoding cannot be mixed within one prefix:
//
//	EncodingDocument  - one self-describing JSON document per record
//	EncodingFieldMap  - one flat hash of stringified scalar fields
//
// Record types carry `json` tags for EncodingDocument and `redis` tags for
// EncodingFieldMap; types used with both encodings carry both.
package recache
