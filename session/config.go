package session

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/f3rmion/tsig/bjj"
	"github.com/f3rmion/tsig/frost"
	"github.com/f3rmion/tsig/group"
	"github.com/f3rmion/tsig/rng"
	"github.com/f3rmion/tsig/secp256k1"
)

// Curve and hasher names accepted in a Config.
const (
	CurveSecp256k1 = "secp256k1"
	CurveBJJ       = "bjj"

	HasherSHA256  = "sha256"
	HasherBlake2b = "blake2b"
	HasherBlake3  = "blake3"
)

// Config describes a threshold setup.
type Config struct {
	Curve     string `json:"curve"`
	Hasher    string `json:"hasher"`
	Threshold int    `json:"threshold"`
	Total     int    `json:"total"`

	// Signers is how many participants take part in a signing run.
	// Zero means all of them.
	Signers int `json:"signers,omitempty"`

	// VerifyShares controls per-share verification during aggregation.
	// Unset means enabled.
	VerifyShares *bool `json:"verify_shares,omitempty"`

	// Seed makes all randomness deterministic. Leave unset outside of tests
	// and benchmarks.
	Seed *uint64 `json:"seed,omitempty"`
}

// DefaultConfig returns a 2-of-3 secp256k1 setup with the RFC 9591 hasher.
func DefaultConfig() *Config {
	return &Config{
		Curve:     CurveSecp256k1,
		Hasher:    HasherSHA256,
		Threshold: 2,
		Total:     3,
	}
}

// LoadConfig reads and parses a JSON configuration file. Fields missing from
// the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs sanity checks on the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if _, err := c.Group(); err != nil {
		return err
	}
	switch c.Hasher {
	case HasherSHA256, HasherBlake2b, HasherBlake3:
	default:
		return fmt.Errorf("unknown hasher %q", c.Hasher)
	}
	if c.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be at least 1, got %d", frost.ErrInvalidParameters, c.Threshold)
	}
	if c.Total < c.Threshold {
		return fmt.Errorf("%w: total %d is below threshold %d", frost.ErrInvalidParameters, c.Total, c.Threshold)
	}
	if c.Signers != 0 && (c.Signers < c.Threshold || c.Signers > c.Total) {
		return fmt.Errorf("%w: signers %d outside [%d, %d]", frost.ErrInvalidParameters, c.Signers, c.Threshold, c.Total)
	}
	return nil
}

// SignerCount returns the number of participants that sign in a run.
func (c *Config) SignerCount() int {
	if c.Signers == 0 {
		return c.Total
	}
	return c.Signers
}

// Group returns the configured curve.
func (c *Config) Group() (group.Group, error) {
	switch c.Curve {
	case CurveSecp256k1:
		return secp256k1.New(), nil
	case CurveBJJ:
		return &bjj.BJJ{}, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", c.Curve)
	}
}

// Build validates the configuration and returns the FROST instance it describes.
// Extra options are applied after the configured ones.
func (c *Config) Build(logger *slog.Logger, opts ...frost.Option) (*frost.FROST, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	g, _ := c.Group()

	var h frost.Hasher
	switch c.Hasher {
	case HasherSHA256:
		h = frost.NewRFC9591Hasher(g)
	case HasherBlake2b:
		h = frost.NewBlake2bHasher()
	case HasherBlake3:
		h = frost.NewBlake3Hasher(g)
	}

	all := []frost.Option{frost.WithHasher(h), frost.WithLogger(logger)}
	if c.VerifyShares != nil && !*c.VerifyShares {
		all = append(all, frost.WithoutShareVerification())
	}
	return frost.New(g, c.Threshold, c.Total, append(all, opts...)...)
}

// Rand returns the randomness source the configuration asks for: a seeded
// stream when Seed is set, crypto/rand otherwise. Both are safe to share
// between goroutines.
func (c *Config) Rand() io.Reader {
	if c.Seed != nil {
		return rng.Locked(rng.NewSeeded(*c.Seed))
	}
	return rand.Reader
}
