package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/f3rmion/tsig/frost"
	"github.com/f3rmion/tsig/logging"
)

// Coordinator collects round 1 commitments, publishes the signing package
// and aggregates the signature shares of one signing operation.
//
// A Coordinator is safe for concurrent use. Once [Coordinator.SigningPackage]
// has been called the set of signers is frozen.
type Coordinator struct {
	mu          sync.Mutex
	frost       *frost.FROST
	pub         *frost.PublicKeyPackage
	message     []byte
	commitments map[frost.Identifier]*frost.SigningCommitments
	pkg         *frost.SigningPackage
	shares      map[frost.Identifier]*frost.SignatureShare
	log         logging.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger for round progress. The default discards.
func WithLogger(l logging.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCoordinator starts a signing operation for message.
func NewCoordinator(f *frost.FROST, pub *frost.PublicKeyPackage, message []byte, opts ...CoordinatorOption) (*Coordinator, error) {
	if f == nil || pub == nil || pub.GroupKey == nil {
		return nil, fmt.Errorf("%w: coordinator needs a FROST instance and public key package", frost.ErrInvalidParameters)
	}
	c := &Coordinator{
		frost:       f,
		pub:         pub,
		message:     bytes.Clone(message),
		commitments: make(map[frost.Identifier]*frost.SigningCommitments),
		shares:      make(map[frost.Identifier]*frost.SignatureShare),
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "coordinator")
	return c, nil
}

// AddCommitments records a signer's round 1 commitments.
func (c *Coordinator) AddCommitments(ctx context.Context, id frost.Identifier, comm *frost.SigningCommitments) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pkg != nil {
		return ErrPackageFrozen
	}
	if _, ok := c.pub.VerifyingShares[id]; !ok {
		return fmt.Errorf("%w: %s", frost.ErrUnknownIdentifier, id)
	}
	if _, dup := c.commitments[id]; dup {
		return fmt.Errorf("%w: %s", frost.ErrDuplicateIdentifier, id)
	}
	if comm == nil {
		return fmt.Errorf("%w: participant %s", frost.ErrInvalidCommitment, id)
	}
	c.commitments[id] = comm
	c.log.Debug(ctx, "commitments received", "participant", id.String(), "count", len(c.commitments))
	return nil
}

// SigningPackage builds the signing package from the commitments received
// so far and freezes the signer set. Later calls return the same package.
func (c *Coordinator) SigningPackage(ctx context.Context) (*frost.SigningPackage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pkg != nil {
		return c.pkg, nil
	}
	pkg, err := c.frost.NewSigningPackage(c.commitments, c.message)
	if err != nil {
		return nil, err
	}
	c.pkg = pkg
	c.log.Info(ctx, "signing package built", "signers", pkg.Len())
	return pkg, nil
}

// AddSignatureShare records a signer's round 2 output.
func (c *Coordinator) AddSignatureShare(ctx context.Context, share *frost.SignatureShare) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pkg == nil {
		return ErrPackageNotReady
	}
	if share == nil {
		return fmt.Errorf("%w: nil share", frost.ErrInvalidSignatureShare)
	}
	if _, ok := c.pkg.Commitments(share.ID); !ok {
		return fmt.Errorf("%w: %s", frost.ErrUnknownIdentifier, share.ID)
	}
	if _, dup := c.shares[share.ID]; dup {
		return fmt.Errorf("%w: %s", frost.ErrDuplicateIdentifier, share.ID)
	}
	c.shares[share.ID] = share
	c.log.Debug(ctx, "signature share received", "participant", share.ID.String(), "count", len(c.shares))
	return nil
}

// Ready reports whether every signer in the package has sent its share.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pkg != nil && len(c.shares) == c.pkg.Len()
}

// Aggregate produces the final signature from the collected shares.
func (c *Coordinator) Aggregate(ctx context.Context) (*frost.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pkg == nil {
		return nil, ErrPackageNotReady
	}
	sig, err := c.frost.Aggregate(c.pkg, c.shares, c.pub)
	if err != nil {
		c.log.Warn(ctx, "aggregation failed", "error", err)
		return nil, err
	}
	c.log.Info(ctx, "signature aggregated", "signers", c.pkg.Len())
	return sig, nil
}
