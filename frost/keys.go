package frost

import (
	"fmt"
	"io"

	"github.com/f3rmion/tsig/group"
)

// VSSCommitment holds the commitments a_k*G to the dealer's polynomial
// coefficients. Element 0 is the group public key.
type VSSCommitment []group.Point

// GroupKey returns the commitment to the constant term.
func (c VSSCommitment) GroupKey() group.Point {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// SecretShare is the dealer's output for a single participant. It must be
// delivered to that participant over a confidential channel.
type SecretShare struct {
	ID         Identifier
	Value      group.Scalar
	Commitment VSSCommitment
}

// KeyPackage is everything a participant needs to sign.
type KeyPackage struct {
	ID             Identifier
	SigningShare   group.Scalar // secret, never leaves the participant
	VerifyingShare group.Point  // SigningShare * G
	GroupKey       group.Point
	MinSigners     int
}

// PublicKeyPackage is the public key material needed to aggregate and verify.
type PublicKeyPackage struct {
	VerifyingShares map[Identifier]group.Point
	GroupKey        group.Point
}

// GenerateWithDealer samples a group secret key and splits it among the
// participants named by ids. The secret itself is discarded.
//
// The dealer learns every share and is trusted not to sign on its own.
func (f *FROST) GenerateWithDealer(r io.Reader, ids IdentifierList) (map[Identifier]*SecretShare, *PublicKeyPackage, error) {
	secret, err := f.group.RandomScalar(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.zero(secret)

	return f.SplitSecret(r, secret, ids)
}

// SplitSecret splits an existing secret key with Shamir secret sharing and
// returns the shares together with the public key package.
func (f *FROST) SplitSecret(r io.Reader, secret group.Scalar, ids IdentifierList) (map[Identifier]*SecretShare, *PublicKeyPackage, error) {
	if secret == nil || secret.IsZero() {
		return nil, nil, fmt.Errorf("%w: zero secret", ErrInvalidParameters)
	}
	if ids == nil {
		ids = DefaultIdentifiers()
	}
	list, err := ids.resolve(f)
	if err != nil {
		return nil, nil, err
	}

	// Random polynomial of degree t-1 with the secret as constant term.
	coeffs := make([]group.Scalar, f.threshold)
	coeffs[0] = f.group.NewScalar().Set(secret)
	for i := 1; i < f.threshold; i++ {
		c, err := f.group.RandomScalar(r)
		if err != nil {
			f.zero(coeffs...)
			return nil, nil, err
		}
		coeffs[i] = c
	}
	defer f.zero(coeffs...)

	// C_k = coeffs[k] * G
	commitment := make(VSSCommitment, f.threshold)
	for i, c := range coeffs {
		commitment[i] = f.group.NewPoint().ScalarMult(c, f.group.Generator())
	}

	shares := make(map[Identifier]*SecretShare, len(list))
	pub := &PublicKeyPackage{
		VerifyingShares: make(map[Identifier]group.Point, len(list)),
		GroupKey:        commitment[0],
	}
	for _, id := range list {
		value := f.evalPolynomial(coeffs, f.idScalar(id))
		shares[id] = &SecretShare{
			ID:         id,
			Value:      value,
			Commitment: commitment,
		}
		pub.VerifyingShares[id] = f.group.NewPoint().ScalarMult(value, f.group.Generator())
	}
	return shares, pub, nil
}

// VerifySecretShare checks a share against the dealer's VSS commitment:
// Value*G == sum(C_k * ID^k).
func (f *FROST) VerifySecretShare(share *SecretShare) error {
	if share == nil || share.Value == nil {
		return fmt.Errorf("%w: missing share", ErrInvalidSecretShare)
	}
	if err := f.checkIdentifier(share.ID); err != nil {
		return err
	}
	if len(share.Commitment) != f.threshold {
		return fmt.Errorf("%w: commitment has %d coefficients, want %d",
			ErrInvalidSecretShare, len(share.Commitment), f.threshold)
	}

	lhs := f.group.NewPoint().ScalarMult(share.Value, f.group.Generator())

	x := f.idScalar(share.ID)
	rhs := f.group.NewPoint()
	xPower := f.scalarFromUint64(1)
	for _, commit := range share.Commitment {
		if commit == nil {
			return fmt.Errorf("%w: missing coefficient commitment", ErrInvalidSecretShare)
		}
		term := f.group.NewPoint().ScalarMult(xPower, commit)
		rhs.Add(rhs, term)
		xPower.Mul(xPower, x)
	}

	if !lhs.Equal(rhs) {
		return fmt.Errorf("%w: participant %s", ErrInvalidSecretShare, share.ID)
	}
	return nil
}

// NewKeyPackage verifies a secret share and turns it into a key package.
func (f *FROST) NewKeyPackage(share *SecretShare) (*KeyPackage, error) {
	if err := f.VerifySecretShare(share); err != nil {
		return nil, err
	}
	return &KeyPackage{
		ID:             share.ID,
		SigningShare:   f.group.NewScalar().Set(share.Value),
		VerifyingShare: f.group.NewPoint().ScalarMult(share.Value, f.group.Generator()),
		GroupKey:       f.group.NewPoint().Set(share.Commitment.GroupKey()),
		MinSigners:     f.threshold,
	}, nil
}

// Reconstruct recovers the group secret key from at least t key packages.
// It exists for recovery and testing; a normal deployment never
// reassembles the secret.
func (f *FROST) Reconstruct(packages []*KeyPackage) (group.Scalar, error) {
	if len(packages) < f.threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(packages), f.threshold)
	}

	ids := make([]Identifier, 0, len(packages))
	seen := make(map[Identifier]bool, len(packages))
	for _, kp := range packages {
		if kp == nil || kp.SigningShare == nil {
			return nil, fmt.Errorf("%w: missing key package", ErrInvalidParameters)
		}
		if err := f.checkIdentifier(kp.ID); err != nil {
			return nil, err
		}
		if seen[kp.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, kp.ID)
		}
		seen[kp.ID] = true
		ids = append(ids, kp.ID)
	}

	secret := f.group.NewScalar()
	for _, kp := range packages {
		lambda, err := f.lagrangeCoefficient(kp.ID, ids)
		if err != nil {
			return nil, err
		}
		secret.Add(secret, lambda.Mul(lambda, kp.SigningShare))
	}
	return secret, nil
}
