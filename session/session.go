package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/f3rmion/tsig/frost"
)

var (
	// ErrSessionConsumed is returned when a signing session is used twice.
	ErrSessionConsumed = errors.New("session already consumed: nonce reuse prevented")
	// ErrNoKeyPackage is returned when a participant has no key material yet.
	ErrNoKeyPackage = errors.New("participant has no key package")
	// ErrPackageFrozen is returned when commitments arrive after the
	// signing package was built.
	ErrPackageFrozen = errors.New("signing package already built")
	// ErrPackageNotReady is returned when shares arrive before the signing
	// package was built.
	ErrPackageNotReady = errors.New("signing package not built yet")
)

// Participant holds a single participant's key material for signing
// ceremonies. Create instances with [NewParticipant], [Deal] or
// [RestoreParticipant].
type Participant struct {
	frost      *frost.FROST
	keyPackage *frost.KeyPackage
}

// NewParticipant verifies the share received from the dealer and returns
// the participant that owns it.
func NewParticipant(f *frost.FROST, share *frost.SecretShare) (*Participant, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil FROST instance", frost.ErrInvalidParameters)
	}
	kp, err := f.NewKeyPackage(share)
	if err != nil {
		return nil, fmt.Errorf("failed to verify secret share: %w", err)
	}
	return &Participant{frost: f, keyPackage: kp}, nil
}

// RestoreParticipant recreates a participant from a previously saved key package.
func RestoreParticipant(f *frost.FROST, kp *frost.KeyPackage) (*Participant, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil FROST instance", frost.ErrInvalidParameters)
	}
	if kp == nil || kp.SigningShare == nil || kp.GroupKey == nil {
		return nil, ErrNoKeyPackage
	}
	return &Participant{frost: f, keyPackage: kp}, nil
}

// ID returns this participant's identifier.
func (p *Participant) ID() frost.Identifier {
	return p.keyPackage.ID
}

// KeyPackage returns this participant's key package.
func (p *Participant) KeyPackage() *frost.KeyPackage {
	return p.keyPackage
}

// FROST returns the underlying FROST instance for advanced use cases.
func (p *Participant) FROST() *frost.FROST {
	return p.frost
}

// DealResult is the output of a trusted-dealer ceremony run in one process.
type DealResult struct {
	// Participants are sorted by identifier.
	Participants []*Participant

	// PublicKeyPackage holds the group key and every verifying share.
	// It is public and needed by whoever aggregates.
	PublicKeyPackage *frost.PublicKeyPackage
}

// Deal generates a fresh group key and hands every participant its verified
// share. A nil ids selects the identifiers 1..n.
func Deal(f *frost.FROST, r io.Reader, ids frost.IdentifierList) (*DealResult, error) {
	if ids == nil {
		ids = frost.DefaultIdentifiers()
	}
	shares, pub, err := f.GenerateWithDealer(r, ids)
	if err != nil {
		return nil, fmt.Errorf("dealer key generation failed: %w", err)
	}

	res := &DealResult{
		Participants:     make([]*Participant, 0, len(shares)),
		PublicKeyPackage: pub,
	}
	for _, share := range shares {
		p, err := NewParticipant(f, share)
		if err != nil {
			return nil, err
		}
		res.Participants = append(res.Participants, p)
	}
	sortParticipants(res.Participants)
	return res, nil
}
