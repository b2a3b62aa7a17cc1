// Package rng provides the explicit randomness sources passed to the
// protocol operations in package frost.
//
// Production callers pass crypto/rand.Reader. Tests and reproducible
// benchmark runs use [NewSeeded], which expands a seed into a ChaCha20
// keystream. A single reader shared by several goroutines must be wrapped
// with [Locked].
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

const seedInfo = "tsig-rng-chacha20-v1"

// Seeded is a deterministic stream of pseudo-random bytes. It is not safe
// for concurrent use.
type Seeded struct {
	cipher *chacha20.Cipher
}

// NewSeeded returns a reader whose output is fully determined by seed.
func NewSeeded(seed uint64) *Seeded {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)
	s, err := NewSeededFromBytes(buf[:])
	if err != nil {
		// Key and nonce sizes are fixed, so this cannot happen.
		panic(err)
	}
	return s
}

// NewSeededFromBytes returns a reader whose output is fully determined by seed.
// The seed is stretched into a ChaCha20 key and nonce with HKDF-SHA256.
func NewSeededFromBytes(seed []byte) (*Seeded, error) {
	material := make([]byte, chacha20.KeySize+chacha20.NonceSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte(seedInfo)), material); err != nil {
		return nil, fmt.Errorf("rng: deriving key: %w", err)
	}
	defer clear(material)

	c, err := chacha20.NewUnauthenticatedCipher(material[:chacha20.KeySize], material[chacha20.KeySize:])
	if err != nil {
		return nil, fmt.Errorf("rng: %w", err)
	}
	return &Seeded{cipher: c}, nil
}

// Read fills p with keystream bytes. It never fails.
func (s *Seeded) Read(p []byte) (int, error) {
	clear(p)
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}

type locked struct {
	mu sync.Mutex
	r  io.Reader
}

// Locked returns a reader that serializes calls to r.
func Locked(r io.Reader) io.Reader {
	return &locked{r: r}
}

func (l *locked) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
