package session

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/f3rmion/tsig/bjj"
	"github.com/f3rmion/tsig/frost"
	"github.com/f3rmion/tsig/rng"
	"github.com/f3rmion/tsig/secp256k1"
)

func newDeal(t *testing.T, threshold, total int) (*frost.FROST, *DealResult) {
	t.Helper()
	f, err := frost.New(secp256k1.New(), threshold, total)
	if err != nil {
		t.Fatal(err)
	}
	deal, err := Deal(f, rand.Reader, nil)
	if err != nil {
		t.Fatal(err)
	}
	return f, deal
}

func TestDealAndSign(t *testing.T) {
	threshold := 2
	total := 3
	f, deal := newDeal(t, threshold, total)

	if len(deal.Participants) != total {
		t.Fatalf("got %d participants, want %d", len(deal.Participants), total)
	}
	for i := 1; i < total; i++ {
		if deal.Participants[i-1].ID().Compare(deal.Participants[i].ID()) >= 0 {
			t.Error("participants are not sorted by identifier")
		}
		if !deal.Participants[i].KeyPackage().GroupKey.Equal(deal.PublicKeyPackage.GroupKey) {
			t.Error("participants have different group keys")
		}
	}

	t.Run("Signing", func(t *testing.T) {
		ctx := context.Background()
		message := []byte("hello session API")
		signers := deal.Participants[:threshold]

		coord, err := NewCoordinator(f, deal.PublicKeyPackage, message)
		if err != nil {
			t.Fatal(err)
		}

		sessions := make([]*SigningSession, threshold)
		for i, p := range signers {
			sess, err := p.NewSigningSession(rand.Reader)
			if err != nil {
				t.Fatalf("signer %d failed to create session: %v", i+1, err)
			}
			if err := coord.AddCommitments(ctx, sess.ID(), sess.Commitments()); err != nil {
				t.Fatal(err)
			}
			sessions[i] = sess
		}

		pkg, err := coord.SigningPackage(ctx)
		if err != nil {
			t.Fatal(err)
		}

		for i, sess := range sessions {
			share, err := sess.Sign(pkg)
			if err != nil {
				t.Fatalf("signer %d failed to sign: %v", i+1, err)
			}
			if err := coord.AddSignatureShare(ctx, share); err != nil {
				t.Fatal(err)
			}
		}
		if !coord.Ready() {
			t.Fatal("coordinator should be ready")
		}

		sig, err := coord.Aggregate(ctx)
		if err != nil {
			t.Fatalf("failed to aggregate: %v", err)
		}

		if err := Verify(f, message, sig, deal.PublicKeyPackage.GroupKey); err != nil {
			t.Errorf("signature verification failed: %v", err)
		}

		err = Verify(f, []byte("wrong message"), sig, deal.PublicKeyPackage.GroupKey)
		if !errors.Is(err, frost.ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})
}

func TestNonceReusePrevention(t *testing.T) {
	f, deal := newDeal(t, 2, 3)
	signers := deal.Participants[:2]

	sessions := make([]*SigningSession, 2)
	commitments := make(map[frost.Identifier]*frost.SigningCommitments)
	for i, p := range signers {
		sess, err := p.NewSigningSession(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		sessions[i] = sess
		commitments[p.ID()] = sess.Commitments()
	}
	pkg, err := f.NewSigningPackage(commitments, []byte("test nonce reuse"))
	if err != nil {
		t.Fatal(err)
	}

	// First sign should succeed
	if _, err := sessions[0].Sign(pkg); err != nil {
		t.Fatalf("first sign failed: %v", err)
	}

	// Second sign should fail (nonce reuse prevention)
	_, err = sessions[0].Sign(pkg)
	if !errors.Is(err, ErrSessionConsumed) {
		t.Errorf("expected ErrSessionConsumed, got %v", err)
	}

	if !sessions[0].IsConsumed() {
		t.Error("session should be marked as consumed")
	}
	if sessions[1].IsConsumed() {
		t.Error("unused session should not be consumed")
	}
}

func TestMissingOwnCommitment(t *testing.T) {
	f, deal := newDeal(t, 2, 3)

	sessions := make([]*SigningSession, 3)
	for i, p := range deal.Participants {
		sess, err := p.NewSigningSession(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		sessions[i] = sess
	}

	// Package built without participant 3.
	pkg, err := f.NewSigningPackage(map[frost.Identifier]*frost.SigningCommitments{
		sessions[0].ID(): sessions[0].Commitments(),
		sessions[1].ID(): sessions[1].Commitments(),
	}, []byte("msg"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = sessions[2].Sign(pkg)
	if !errors.Is(err, frost.ErrMissingParticipant) {
		t.Errorf("expected ErrMissingParticipant, got %v", err)
	}
	// The session is spent even though signing failed.
	if !sessions[2].IsConsumed() {
		t.Error("session should be consumed after a failed sign")
	}
}

func TestNewParticipantRejectsBadShare(t *testing.T) {
	f, err := frost.New(secp256k1.New(), 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	shares, _, err := f.GenerateWithDealer(rand.Reader, frost.DefaultIdentifiers())
	if err != nil {
		t.Fatal(err)
	}
	id, _ := f.NewIdentifier(1)
	bad := *shares[id]
	bad.Value = f.Group().NewScalar().Add(bad.Value, bad.Value)

	_, err = NewParticipant(f, &bad)
	if !errors.Is(err, frost.ErrInvalidSecretShare) {
		t.Errorf("expected ErrInvalidSecretShare, got %v", err)
	}

	if _, err := NewParticipant(nil, shares[id]); !errors.Is(err, frost.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRestoreParticipant(t *testing.T) {
	f, deal := newDeal(t, 2, 3)

	// Round trip the key packages through their wire form, as a
	// participant restarting from storage would.
	restored := make([]*Participant, 2)
	for i, p := range deal.Participants[:2] {
		enc, err := f.EncodeKeyPackage(p.KeyPackage())
		if err != nil {
			t.Fatal(err)
		}
		kp, err := f.DecodeKeyPackage(enc)
		if err != nil {
			t.Fatal(err)
		}
		restored[i], err = RestoreParticipant(f, kp)
		if err != nil {
			t.Fatal(err)
		}
	}

	message := []byte("after restore")
	sig, err := QuickSign(context.Background(), f, rand.Reader, restored, deal.PublicKeyPackage, message)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Verify(message, sig, deal.PublicKeyPackage.GroupKey) {
		t.Error("signature from restored participants failed to verify")
	}

	if _, err := RestoreParticipant(f, nil); !errors.Is(err, ErrNoKeyPackage) {
		t.Errorf("expected ErrNoKeyPackage, got %v", err)
	}
}

func TestQuickSign(t *testing.T) {
	ctx := context.Background()

	t.Run("Curves", func(t *testing.T) {
		for _, curve := range []string{CurveSecp256k1, CurveBJJ} {
			cfg := DefaultConfig()
			cfg.Curve = curve
			f, err := cfg.Build(nil)
			if err != nil {
				t.Fatal(err)
			}
			deal, err := Deal(f, rand.Reader, nil)
			if err != nil {
				t.Fatal(err)
			}
			message := []byte("quick sign on " + curve)
			sig, err := QuickSign(ctx, f, rand.Reader, deal.Participants[1:], deal.PublicKeyPackage, message)
			if err != nil {
				t.Fatalf("%s: %v", curve, err)
			}
			if !f.Verify(message, sig, deal.PublicKeyPackage.GroupKey) {
				t.Errorf("%s: signature failed to verify", curve)
			}
		}
	})

	t.Run("InsufficientSigners", func(t *testing.T) {
		f, deal := newDeal(t, 3, 5)
		_, err := QuickSign(ctx, f, rand.Reader, deal.Participants[:2], deal.PublicKeyPackage, []byte("m"))
		if !errors.Is(err, frost.ErrInsufficientCommitments) {
			t.Errorf("expected ErrInsufficientCommitments, got %v", err)
		}
	})

	t.Run("NoSigners", func(t *testing.T) {
		f, deal := newDeal(t, 2, 3)
		_, err := QuickSign(ctx, f, rand.Reader, nil, deal.PublicKeyPackage, []byte("m"))
		if err == nil {
			t.Error("expected error with no signers")
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		f, deal := newDeal(t, 2, 3)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := QuickSign(cctx, f, rand.Reader, deal.Participants, deal.PublicKeyPackage, []byte("m"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Seeded", func(t *testing.T) {
		run := func() []byte {
			f, err := frost.New(secp256k1.New(), 3, 5)
			if err != nil {
				t.Fatal(err)
			}
			r := rng.NewSeeded(42)
			deal, err := Deal(f, r, nil)
			if err != nil {
				t.Fatal(err)
			}
			// Signer order must not matter.
			signers := []*Participant{deal.Participants[4], deal.Participants[0], deal.Participants[2]}
			sig, err := QuickSign(ctx, f, r, signers, deal.PublicKeyPackage, []byte("reproducible"))
			if err != nil {
				t.Fatal(err)
			}
			return sig.Bytes()
		}
		if string(run()) != string(run()) {
			t.Error("seeded QuickSign is not reproducible")
		}
	})
}

func TestAggregateValidation(t *testing.T) {
	f, deal := newDeal(t, 2, 3)
	signers := deal.Participants[:2]

	commitments := make(map[frost.Identifier]*frost.SigningCommitments)
	sessions := make([]*SigningSession, len(signers))
	for i, p := range signers {
		sess, _ := p.NewSigningSession(rand.Reader)
		sessions[i] = sess
		commitments[p.ID()] = sess.Commitments()
	}
	pkg, _ := f.NewSigningPackage(commitments, []byte("msg"))

	shares := make([]*frost.SignatureShare, len(sessions))
	for i, sess := range sessions {
		shares[i], _ = sess.Sign(pkg)
	}

	t.Run("Empty", func(t *testing.T) {
		_, err := Aggregate(f, pkg, nil, deal.PublicKeyPackage)
		if !errors.Is(err, frost.ErrInsufficientShares) {
			t.Errorf("expected ErrInsufficientShares, got %v", err)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := Aggregate(f, pkg, []*frost.SignatureShare{shares[0], shares[0]}, deal.PublicKeyPackage)
		if !errors.Is(err, frost.ErrDuplicateIdentifier) {
			t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
		}
	})

	t.Run("Valid", func(t *testing.T) {
		sig, err := Aggregate(f, pkg, shares, deal.PublicKeyPackage)
		if err != nil {
			t.Fatal(err)
		}
		if err := Verify(f, []byte("msg"), sig, deal.PublicKeyPackage.GroupKey); err != nil {
			t.Error(err)
		}
	})
}

func TestSigningWithDifferentSubsets(t *testing.T) {
	f, err := frost.New(&bjj.BJJ{}, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	deal, err := Deal(f, rand.Reader, nil)
	if err != nil {
		t.Fatal(err)
	}
	ps := deal.Participants
	message := []byte("subset test")

	subsets := map[string][]*Participant{
		"1_2_3":     {ps[0], ps[1], ps[2]},
		"3_4_5":     {ps[2], ps[3], ps[4]},
		"1_3_5":     {ps[0], ps[2], ps[4]},
		"1_2_3_4_5": ps,
	}
	for name, signers := range subsets {
		t.Run(name, func(t *testing.T) {
			sig, err := QuickSign(context.Background(), f, rand.Reader, signers, deal.PublicKeyPackage, message)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Verify(message, sig, deal.PublicKeyPackage.GroupKey) {
				t.Error("signature verification failed")
			}
		})
	}
}
