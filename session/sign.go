package session

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/f3rmion/tsig/frost"
	"github.com/f3rmion/tsig/group"
)

// SigningSession manages a single signing operation with built-in nonce safety.
// Each session can only be used once; attempting to sign twice returns an error.
//
// Create sessions using [Participant.NewSigningSession].
type SigningSession struct {
	mu          sync.Mutex
	frost       *frost.FROST
	keyPackage  *frost.KeyPackage
	nonces      *frost.SigningNonces
	commitments *frost.SigningCommitments
	consumed    bool
}

// NewSigningSession runs round 1 and returns a session holding the fresh
// nonces. The session must be used exactly once.
func (p *Participant) NewSigningSession(r io.Reader) (*SigningSession, error) {
	if p.keyPackage == nil {
		return nil, ErrNoKeyPackage
	}

	nonces, commitments, err := p.frost.SignRound1(r, p.keyPackage.SigningShare)
	if err != nil {
		return nil, err
	}

	return &SigningSession{
		frost:       p.frost,
		keyPackage:  p.keyPackage,
		nonces:      nonces,
		commitments: commitments,
	}, nil
}

// ID returns the identifier of the participant that owns the session.
func (s *SigningSession) ID() frost.Identifier {
	return s.keyPackage.ID
}

// Commitments returns the public commitments that must be sent to the coordinator.
func (s *SigningSession) Commitments() *frost.SigningCommitments {
	return s.commitments
}

// Sign produces a signature share for the signing package.
//
// This method consumes the session. Calling Sign a second time returns
// ErrSessionConsumed. After Sign returns, successfully or not, the nonces
// are spent.
func (s *SigningSession) Sign(pkg *frost.SigningPackage) (*frost.SignatureShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return nil, ErrSessionConsumed
	}

	// Mark as consumed immediately, before any operations that might fail
	s.consumed = true
	nonces := s.nonces
	s.nonces = nil

	if pkg == nil {
		return nil, fmt.Errorf("%w: nil signing package", frost.ErrInvalidParameters)
	}
	if _, ok := pkg.Commitments(s.keyPackage.ID); !ok {
		return nil, fmt.Errorf("own commitment not found in signing package: %w", frost.ErrMissingParticipant)
	}

	return s.frost.SignRound2(pkg, nonces, s.keyPackage)
}

// IsConsumed returns true if this session has already been used for signing.
func (s *SigningSession) IsConsumed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}

// Aggregate combines a list of signature shares into a final signature.
//
// This is a convenience over [frost.FROST.Aggregate] for callers that
// collect shares in a slice.
func Aggregate(
	f *frost.FROST,
	pkg *frost.SigningPackage,
	shares []*frost.SignatureShare,
	pub *frost.PublicKeyPackage,
) (*frost.Signature, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("no signature shares provided: %w", frost.ErrInsufficientShares)
	}

	byID := make(map[frost.Identifier]*frost.SignatureShare, len(shares))
	for _, s := range shares {
		if s == nil {
			return nil, fmt.Errorf("%w: nil share", frost.ErrInvalidSignatureShare)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: %s", frost.ErrDuplicateIdentifier, s.ID)
		}
		byID[s.ID] = s
	}
	return f.Aggregate(pkg, byID, pub)
}

// Verify checks whether a signature is valid for the given message and group key.
//
// Returns nil if the signature is valid, or an error describing why it's invalid.
func Verify(f *frost.FROST, message []byte, sig *frost.Signature, groupKey group.Point) error {
	if err := f.VerifySignature(message, sig, groupKey); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// QuickSign performs a complete signing operation when all key packages are local.
//
// Round 1 draws randomness from r one signer at a time in identifier order,
// so a seeded reader gives reproducible signatures. Round 2 runs the signers
// in parallel. The result is verified before it is returned.
//
// This is useful for testing or single-machine threshold setups. For
// distributed signing, use [SigningSession] and [Coordinator] instead.
func QuickSign(
	ctx context.Context,
	f *frost.FROST,
	r io.Reader,
	signers []*Participant,
	pub *frost.PublicKeyPackage,
	message []byte,
) (*frost.Signature, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("no signers provided: %w", frost.ErrInsufficientCommitments)
	}
	if pub == nil {
		return nil, fmt.Errorf("%w: nil public key package", frost.ErrInvalidParameters)
	}

	ordered := slices.Clone(signers)
	sortParticipants(ordered)

	// Round 1: Generate nonces and commitments
	sessions := make([]*SigningSession, len(ordered))
	commitments := make(map[frost.Identifier]*frost.SigningCommitments, len(ordered))
	for i, p := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sess, err := p.NewSigningSession(r)
		if err != nil {
			return nil, fmt.Errorf("round 1 for participant %s: %w", p.ID(), err)
		}
		if _, dup := commitments[p.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", frost.ErrDuplicateIdentifier, p.ID())
		}
		sessions[i] = sess
		commitments[p.ID()] = sess.Commitments()
	}

	pkg, err := f.NewSigningPackage(commitments, message)
	if err != nil {
		return nil, err
	}

	// Round 2: Generate signature shares
	shares := make([]*frost.SignatureShare, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	for i, sess := range sessions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			share, err := sess.Sign(pkg)
			if err != nil {
				return fmt.Errorf("round 2 for participant %s: %w", sess.ID(), err)
			}
			shares[i] = share
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sig, err := Aggregate(f, pkg, shares, pub)
	if err != nil {
		return nil, err
	}
	if err := Verify(f, message, sig, pub.GroupKey); err != nil {
		return nil, err
	}
	return sig, nil
}

func sortParticipants(ps []*Participant) {
	slices.SortFunc(ps, func(a, b *Participant) int {
		return a.ID().Compare(b.ID())
	})
}

