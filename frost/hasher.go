package frost

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/bytemare/hash2curve"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	"github.com/f3rmion/tsig/group"
)

// Hasher defines the hash operations required by FROST.
// Different implementations can provide different hash functions
// and domain separation schemes.
//
// H1, H2, H3 and HID hash the concatenation of their data arguments.
type Hasher interface {
	// H1 computes the binding factor for a signer.
	H1(g group.Group, data ...[]byte) group.Scalar

	// H2 computes the Schnorr challenge from R, the group key and the message.
	H2(g group.Group, data ...[]byte) group.Scalar

	// H3 derives a nonce from fresh randomness and the signing share.
	H3(g group.Group, data ...[]byte) group.Scalar

	// H4 hashes a message for signing.
	H4(g group.Group, msg []byte) []byte

	// H5 hashes the encoded commitment list.
	H5(g group.Group, encCommitList []byte) []byte

	// HID derives a participant identifier from arbitrary bytes.
	HID(g group.Group, data []byte) group.Scalar
}

// toScalar reduces hash output into the scalar field. Every hasher here
// produces at most 64 bytes, which all groups accept.
func toScalar(g group.Group, digest []byte) group.Scalar {
	s, err := g.ScalarFromUniformBytes(digest)
	if err != nil {
		panic(fmt.Sprintf("frost: reducing %d-byte digest: %v", len(digest), err))
	}
	return s
}

// RFC9591Hasher implements the SHA-256 hash functions of RFC 9591.
// H1, H2, H3 and HID use hash_to_field with expand_message_xmd
// (RFC 9380) and DST = Context || tag. H4 and H5 are plain SHA-256 over
// Context || tag || input.
type RFC9591Hasher struct {
	// Context is the ciphersuite context string, for example
	// "FROST-secp256k1-SHA256-v1".
	Context string
}

// NewRFC9591Hasher returns the hasher with context string
// "FROST-<group name>-SHA256-v1".
func NewRFC9591Hasher(g group.Group) *RFC9591Hasher {
	return &RFC9591Hasher{Context: "FROST-" + g.Name() + "-SHA256-v1"}
}

// hashToFieldLength is L from RFC 9380 for a 256-bit order at 128-bit security.
const hashToFieldLength = 48

func (h *RFC9591Hasher) hashToField(g group.Group, tag string, data ...[]byte) group.Scalar {
	uniform, err := expandMessageXMD(data, []byte(h.Context+tag), hashToFieldLength)
	if err != nil {
		panic(err)
	}
	return toScalar(g, uniform)
}

func (h *RFC9591Hasher) hash(tag string, data []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte(h.Context))
	hasher.Write([]byte(tag))
	hasher.Write(data)
	return hasher.Sum(nil)
}

// H1 implements Hasher.H1.
func (h *RFC9591Hasher) H1(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToField(g, "rho", data...)
}

// H2 implements Hasher.H2.
func (h *RFC9591Hasher) H2(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToField(g, "chal", data...)
}

// H3 implements Hasher.H3.
func (h *RFC9591Hasher) H3(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToField(g, "nonce", data...)
}

// H4 implements Hasher.H4.
func (h *RFC9591Hasher) H4(_ group.Group, msg []byte) []byte {
	return h.hash("msg", msg)
}

// H5 implements Hasher.H5.
func (h *RFC9591Hasher) H5(_ group.Group, encCommitList []byte) []byte {
	return h.hash("com", encCommitList)
}

// HID implements Hasher.HID.
func (h *RFC9591Hasher) HID(g group.Group, data []byte) group.Scalar {
	return h.hashToField(g, "id", data)
}

var errXMDLength = errors.New("frost: expand_message_xmd output too long")

// expandMessageXMD is expand_message_xmd from RFC 9380 section 5.3.1
// instantiated with SHA-256 over the concatenation of msg.
func expandMessageXMD(msg [][]byte, dst []byte, length int) ([]byte, error) {
	if length <= 0 || length > 255*sha256.Size {
		return nil, errXMDLength
	}
	return hash2curve.ExpandXMD(crypto.SHA256, bytes.Join(msg, nil), dst, uint(length)), nil
}

// Blake2bHasher implements Hasher using Blake2b-512 with domain separation.
// This is compatible with Ledger/iden3 FROST implementations.
//
// Domain separation format: prefix + tag + input
// Output is interpreted as little-endian before reducing mod curve order.
type Blake2bHasher struct {
	// Prefix is the domain separation prefix.
	// Default: "FROST-EDBABYJUJUB-BLAKE512-v1"
	Prefix string
}

// NewBlake2bHasher creates a Blake2bHasher with the Ledger-compatible prefix.
func NewBlake2bHasher() *Blake2bHasher {
	return &Blake2bHasher{
		Prefix: "FROST-EDBABYJUJUB-BLAKE512-v1",
	}
}

func (h *Blake2bHasher) hash(tag string, data ...[]byte) []byte {
	hasher, _ := blake2b.New512(nil)
	hasher.Write([]byte(h.Prefix))
	hasher.Write([]byte(tag))
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher.Sum(nil)
}

// hashToScalar hashes data and converts to a scalar.
// The 64-byte output is interpreted as little-endian before reducing mod order.
func (h *Blake2bHasher) hashToScalar(g group.Group, tag string, data ...[]byte) group.Scalar {
	hash := h.hash(tag, data...)

	reversed := make([]byte, len(hash))
	for i := range hash {
		reversed[i] = hash[len(hash)-1-i]
	}
	return toScalar(g, reversed)
}

// H1 implements Hasher.H1 (binding factor computation).
func (h *Blake2bHasher) H1(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "rho", data...)
}

// H2 implements Hasher.H2 (Schnorr challenge).
func (h *Blake2bHasher) H2(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "chal", data...)
}

// H3 implements Hasher.H3 (nonce generation).
func (h *Blake2bHasher) H3(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "nonce", data...)
}

// H4 implements Hasher.H4 (message hashing).
func (h *Blake2bHasher) H4(_ group.Group, msg []byte) []byte {
	return h.hash("msg", msg)
}

// H5 implements Hasher.H5 (commitment list hashing).
func (h *Blake2bHasher) H5(_ group.Group, encCommitList []byte) []byte {
	return h.hash("com", encCommitList)
}

// HID implements Hasher.HID (identifier derivation).
func (h *Blake2bHasher) HID(g group.Group, data []byte) group.Scalar {
	return h.hashToScalar(g, "id", data)
}

// Blake3Hasher implements Hasher with BLAKE3 in key derivation mode.
// Each function uses the context string Prefix + tag, and scalars are
// reduced from 64 bytes of extended output.
type Blake3Hasher struct {
	Prefix string
}

// NewBlake3Hasher returns a Blake3Hasher with prefix "FROST-<group name>-BLAKE3-v1".
func NewBlake3Hasher(g group.Group) *Blake3Hasher {
	return &Blake3Hasher{Prefix: "FROST-" + g.Name() + "-BLAKE3-v1"}
}

func (h *Blake3Hasher) hasher(tag string, data ...[]byte) *blake3.Hasher {
	hasher := blake3.NewDeriveKey(h.Prefix + tag)
	for _, d := range data {
		hasher.Write(d)
	}
	return hasher
}

func (h *Blake3Hasher) hashToScalar(g group.Group, tag string, data ...[]byte) group.Scalar {
	var wide [64]byte
	if _, err := io.ReadFull(h.hasher(tag, data...).Digest(), wide[:]); err != nil {
		panic(err)
	}
	return toScalar(g, wide[:])
}

// H1 implements Hasher.H1.
func (h *Blake3Hasher) H1(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "rho", data...)
}

// H2 implements Hasher.H2.
func (h *Blake3Hasher) H2(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "chal", data...)
}

// H3 implements Hasher.H3.
func (h *Blake3Hasher) H3(g group.Group, data ...[]byte) group.Scalar {
	return h.hashToScalar(g, "nonce", data...)
}

// H4 implements Hasher.H4.
func (h *Blake3Hasher) H4(_ group.Group, msg []byte) []byte {
	return h.hasher("msg", msg).Sum(nil)
}

// H5 implements Hasher.H5.
func (h *Blake3Hasher) H5(_ group.Group, encCommitList []byte) []byte {
	return h.hasher("com", encCommitList).Sum(nil)
}

// HID implements Hasher.HID.
func (h *Blake3Hasher) HID(g group.Group, data []byte) group.Scalar {
	return h.hashToScalar(g, "id", data)
}
