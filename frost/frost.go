package frost

import (
	"fmt"
	"log/slog"

	"github.com/f3rmion/tsig/group"
)

// FROST holds the group, hasher and threshold parameters.
type FROST struct {
	group        group.Group
	hasher       Hasher
	threshold    int // t - minimum signers needed
	total        int // n - total participants
	verifyShares bool
	log          *slog.Logger
}

// Option configures a FROST instance.
type Option func(*FROST)

// WithHasher replaces the default RFC 9591 hasher.
func WithHasher(h Hasher) Option {
	return func(f *FROST) {
		if h != nil {
			f.hasher = h
		}
	}
}

// WithLogger sets the logger used to report misbehaving participants.
func WithLogger(l *slog.Logger) Option {
	return func(f *FROST) {
		if l != nil {
			f.log = l
		}
	}
}

// WithoutShareVerification makes [FROST.Aggregate] skip the per-share check.
// A bad share then only shows up as an invalid final signature, with no
// indication of who produced it.
func WithoutShareVerification() Option {
	return func(f *FROST) {
		f.verifyShares = false
	}
}

// New creates a FROST instance with the given group and threshold parameters.
// threshold is the minimum number of signers required (t).
// total is the total number of participants (n).
func New(g group.Group, threshold, total int, opts ...Option) (*FROST, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil group", ErrInvalidParameters)
	}
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold must be at least 1", ErrInvalidParameters)
	}
	if total < threshold {
		return nil, fmt.Errorf("%w: total must be >= threshold", ErrInvalidParameters)
	}

	f := &FROST{
		group:        g,
		threshold:    threshold,
		total:        total,
		verifyShares: true,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.hasher == nil {
		f.hasher = NewRFC9591Hasher(g)
	}
	return f, nil
}

// NewWithHasher is shorthand for New(g, threshold, total, WithHasher(h)).
func NewWithHasher(g group.Group, threshold, total int, h Hasher) (*FROST, error) {
	return New(g, threshold, total, WithHasher(h))
}

// Group returns the underlying group.
func (f *FROST) Group() group.Group { return f.group }

// Hasher returns the hasher in use.
func (f *FROST) Hasher() Hasher { return f.hasher }

// Threshold returns t.
func (f *FROST) Threshold() int { return f.threshold }

// Total returns n.
func (f *FROST) Total() int { return f.total }

func (f *FROST) evalPolynomial(coeffs []group.Scalar, x group.Scalar) group.Scalar {
	result := f.group.NewScalar().Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, coeffs[i])
	}
	return result
}

// lagrangeCoefficient returns the coefficient of id when interpolating at
// zero over the set ids.
func (f *FROST) lagrangeCoefficient(id Identifier, ids []Identifier) (group.Scalar, error) {
	x := f.idScalar(id)
	num := f.scalarFromUint64(1)
	den := f.scalarFromUint64(1)
	found := false

	for _, other := range ids {
		if other == id {
			found = true
			continue
		}
		xj := f.idScalar(other)
		num.Mul(num, xj)
		den.Mul(den, f.group.NewScalar().Sub(xj, x))
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, id)
	}

	denInv, err := f.group.NewScalar().Invert(den)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateIdentifier, err)
	}
	return num.Mul(num, denInv), nil
}

func (f *FROST) zero(scalars ...group.Scalar) {
	z := f.group.NewScalar()
	for _, s := range scalars {
		if s != nil {
			s.Set(z)
		}
	}
}
