// Package session provides a high-level API for FROST threshold signature
// ceremonies. It wraps the low-level primitives in the [frost] package with
// a simpler interface that handles round management and prevents common
// mistakes like nonce reuse.
//
// The session package is designed for application developers who want to
// integrate FROST without understanding every protocol detail. For full
// control over the protocol, use the [frost] package directly.
//
// # Key Generation
//
// A trusted dealer creates the key shares:
//
//	f, err := session.DefaultConfig().Build(nil)
//	if err != nil {
//		return err
//	}
//	deal, err := session.Deal(f, rand.Reader, nil)
//	if err != nil {
//		return err
//	}
//
// In a distributed deployment the dealer sends each [frost.SecretShare] to
// its owner, who calls [NewParticipant] to verify it.
//
// # Signing
//
// Signing uses a session-based API that ensures nonces are never reused:
//
//	// Each signer creates a session (generates nonces internally)
//	sess, err := p.NewSigningSession(rand.Reader)
//	if err != nil {
//		return err
//	}
//
//	// The coordinator collects commitments and publishes the package
//	coord, _ := session.NewCoordinator(f, deal.PublicKeyPackage, message)
//	_ = coord.AddCommitments(ctx, sess.ID(), sess.Commitments())
//	pkg, _ := coord.SigningPackage(ctx)
//
//	// Produce signature share (consumes the session)
//	share, err := sess.Sign(pkg)
//	if err != nil {
//		return err
//	}
//
//	// Coordinator aggregates shares
//	_ = coord.AddSignatureShare(ctx, share)
//	sig, err := coord.Aggregate(ctx)
//
// The SigningSession is designed to be used exactly once. Calling Sign a
// second time returns [ErrSessionConsumed].
//
// When every key package lives in one process, [QuickSign] runs both rounds
// and aggregation in a single call.
//
// # Transport Agnostic
//
// This package does not handle network communication. You are responsible
// for distributing messages between participants using your preferred
// transport (TCP, HTTP, libp2p, etc.). The encode and decode methods on
// [frost.FROST] give a deterministic CBOR form for every message.
package session
