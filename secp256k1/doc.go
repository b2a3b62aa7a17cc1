// Package secp256k1 provides a secp256k1 implementation of the [group.Group]
// interface for use with FROST threshold signatures.
//
// This package wraps the secp256k1 implementation from decred's dcrd,
// the same arithmetic used across the Bitcoin and Decred ecosystems.
//
// # Encodings
//
// Scalars are 32-byte big-endian integers. SetBytes rejects values that are
// not fully reduced modulo the group order n.
//
// Points are 33-byte SEC1 compressed encodings. The identity element has no
// SEC1 compressed form; Bytes returns 33 zero bytes for it and SetBytes
// rejects that encoding, so the identity can never be decoded from the wire.
//
// # Security
//
// Scalar field arithmetic (ModNScalar) is constant time, with the exception of
// inversion, which is only applied to public values (participant identifiers
// in Lagrange interpolation). Point scalar multiplication in the backing
// library is variable time.
package secp256k1
