package frost

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/f3rmion/tsig/bjj"
	"github.com/f3rmion/tsig/group"
	"github.com/f3rmion/tsig/rng"
	"github.com/f3rmion/tsig/secp256k1"
)

// dealKeys runs the trusted dealer and returns the verified key packages
// in identifier order.
func dealKeys(t *testing.T, f *FROST, r io.Reader) ([]*KeyPackage, *PublicKeyPackage) {
	t.Helper()

	shares, pub, err := f.GenerateWithDealer(r, DefaultIdentifiers())
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != f.Total() {
		t.Fatalf("got %d shares, want %d", len(shares), f.Total())
	}

	kps := make([]*KeyPackage, f.Total())
	for i := range kps {
		id, err := f.NewIdentifier(uint64(i + 1))
		if err != nil {
			t.Fatal(err)
		}
		kp, err := f.NewKeyPackage(shares[id])
		if err != nil {
			t.Fatalf("participant %d: %v", i+1, err)
		}
		kps[i] = kp
	}
	return kps, pub
}

// sign runs both rounds for the given signers and aggregates the result.
func sign(f *FROST, r io.Reader, signers []*KeyPackage, pub *PublicKeyPackage, message []byte) (*Signature, error) {
	nonces := make(map[Identifier]*SigningNonces, len(signers))
	commitments := make(map[Identifier]*SigningCommitments, len(signers))
	for _, kp := range signers {
		n, c, err := f.SignRound1(r, kp.SigningShare)
		if err != nil {
			return nil, err
		}
		nonces[kp.ID] = n
		commitments[kp.ID] = c
	}

	pkg, err := f.NewSigningPackage(commitments, message)
	if err != nil {
		return nil, err
	}

	shares := make(map[Identifier]*SignatureShare, len(signers))
	for _, kp := range signers {
		ss, err := f.SignRound2(pkg, nonces[kp.ID], kp)
		if err != nil {
			return nil, err
		}
		shares[kp.ID] = ss
	}
	return f.Aggregate(pkg, shares, pub)
}

func groups() map[string]group.Group {
	return map[string]group.Group{
		"secp256k1": secp256k1.New(),
		"bjj":       &bjj.BJJ{},
	}
}

func TestDealerAndSign(t *testing.T) {
	for name, g := range groups() {
		t.Run(name, func(t *testing.T) {
			threshold := 2
			total := 3

			f, err := New(g, threshold, total)
			if err != nil {
				t.Fatal(err)
			}

			kps, pub := dealKeys(t, f, rand.Reader)

			// Verify all participants have the same group key
			for i := range kps {
				if !kps[i].GroupKey.Equal(pub.GroupKey) {
					t.Error("participants have different group keys")
				}
				if !pub.VerifyingShares[kps[i].ID].Equal(kps[i].VerifyingShare) {
					t.Error("verifying share mismatch")
				}
			}

			message := []byte("hello FROST")
			sig, err := sign(f, rand.Reader, kps[:threshold], pub, message)
			if err != nil {
				t.Fatalf("signing failed: %v", err)
			}

			if !f.Verify(message, sig, pub.GroupKey) {
				t.Error("signature verification failed")
			}
			if f.Verify([]byte("wrong message"), sig, pub.GroupKey) {
				t.Error("signature should not verify with wrong message")
			}
		})
	}
}

func TestSigningWithDifferentSignerSubsets(t *testing.T) {
	g := secp256k1.New()
	threshold := 2
	total := 4

	f, err := New(g, threshold, total)
	if err != nil {
		t.Fatal(err)
	}
	kps, pub := dealKeys(t, f, rand.Reader)

	message := []byte("test message")

	subsets := [][]int{
		{0, 1},       // participants 1 and 2
		{0, 2},       // participants 1 and 3
		{0, 3},       // participants 1 and 4
		{1, 2},       // participants 2 and 3
		{1, 3},       // participants 2 and 4
		{2, 3},       // participants 3 and 4
		{0, 1, 2},    // participants 1, 2, and 3
		{0, 1, 2, 3}, // all participants
	}

	for _, subset := range subsets {
		t.Run(subsetName(subset), func(t *testing.T) {
			signers := make([]*KeyPackage, len(subset))
			for i, idx := range subset {
				signers[i] = kps[idx]
			}

			sig, err := sign(f, rand.Reader, signers, pub, message)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Verify(message, sig, pub.GroupKey) {
				t.Error("signature verification failed")
			}
		})
	}
}

func subsetName(subset []int) string {
	name := "signers"
	for _, idx := range subset {
		name += fmt.Sprintf("_%d", idx+1)
	}
	return name
}

func TestSigningWithDifferentThresholds(t *testing.T) {
	g := secp256k1.New()

	configs := []struct {
		threshold int
		total     int
	}{
		{1, 1},
		{1, 3},
		{2, 2},
		{2, 3},
		{2, 5},
		{3, 5},
		{3, 7},
		{5, 5},
	}

	for _, cfg := range configs {
		name := fmt.Sprintf("%d_of_%d", cfg.threshold, cfg.total)
		t.Run(name, func(t *testing.T) {
			f, err := New(g, cfg.threshold, cfg.total)
			if err != nil {
				t.Fatal(err)
			}
			kps, pub := dealKeys(t, f, rand.Reader)

			message := []byte("threshold test")

			// The first t signers and the last t signers.
			for _, signers := range [][]*KeyPackage{kps[:cfg.threshold], kps[cfg.total-cfg.threshold:]} {
				sig, err := sign(f, rand.Reader, signers, pub, message)
				if err != nil {
					t.Fatal(err)
				}
				if !f.Verify(message, sig, pub.GroupKey) {
					t.Error("signature verification failed")
				}
			}

			// Fewer than t commitments never produce a package.
			if cfg.threshold > 1 {
				_, err := sign(f, rand.Reader, kps[:cfg.threshold-1], pub, message)
				if !errors.Is(err, ErrInsufficientCommitments) {
					t.Errorf("expected ErrInsufficientCommitments, got %v", err)
				}
			}
		})
	}
}

func TestSignatureVerificationFailures(t *testing.T) {
	g := secp256k1.New()
	f, _ := New(g, 2, 3)
	kps, pub := dealKeys(t, f, rand.Reader)

	// Create a valid signature
	message := []byte("original message")
	signers := kps[:2]

	sig, err := sign(f, rand.Reader, signers, pub, message)
	if err != nil {
		t.Fatal(err)
	}

	// Verify the valid signature works
	if err := f.VerifySignature(message, sig, pub.GroupKey); err != nil {
		t.Fatalf("valid signature should verify: %v", err)
	}

	t.Run("WrongMessage", func(t *testing.T) {
		if f.Verify([]byte("wrong message"), sig, pub.GroupKey) {
			t.Error("signature should not verify with wrong message")
		}
	})

	t.Run("FlippedMessageBit", func(t *testing.T) {
		flipped := []byte("original message")
		flipped[0] ^= 0x01
		if err := f.VerifySignature(flipped, sig, pub.GroupKey); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("WrongGroupKey", func(t *testing.T) {
		_, otherPub, err := f.GenerateWithDealer(rand.Reader, DefaultIdentifiers())
		if err != nil {
			t.Fatal(err)
		}
		if f.Verify(message, sig, otherPub.GroupKey) {
			t.Error("signature should not verify with wrong group key")
		}
	})

	t.Run("TamperedSignatureR", func(t *testing.T) {
		tamperedR := g.NewPoint().Add(sig.R, g.Generator())
		tamperedSig := &Signature{R: tamperedR, Z: sig.Z}

		if f.Verify(message, tamperedSig, pub.GroupKey) {
			t.Error("signature should not verify with tampered R")
		}
	})

	t.Run("TamperedSignatureZ", func(t *testing.T) {
		one := f.scalarFromUint64(1)
		tamperedZ := g.NewScalar().Add(sig.Z, one)
		tamperedSig := &Signature{R: sig.R, Z: tamperedZ}

		if f.Verify(message, tamperedSig, pub.GroupKey) {
			t.Error("signature should not verify with tampered Z")
		}
	})

	t.Run("EmptyMessage", func(t *testing.T) {
		emptyMsg := []byte{}

		emptySig, err := sign(f, rand.Reader, signers, pub, emptyMsg)
		if err != nil {
			t.Fatal(err)
		}
		if !f.Verify(emptyMsg, emptySig, pub.GroupKey) {
			t.Error("empty message signature should verify")
		}

		// But original sig should not verify with empty message
		if f.Verify(emptyMsg, sig, pub.GroupKey) {
			t.Error("original signature should not verify with empty message")
		}
	})

	t.Run("NilSignature", func(t *testing.T) {
		if f.Verify(message, nil, pub.GroupKey) {
			t.Error("nil signature should not verify")
		}
	})
}

func TestThresholdValidation(t *testing.T) {
	g := secp256k1.New()

	t.Run("ZeroThreshold", func(t *testing.T) {
		_, err := New(g, 0, 3)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("expected ErrInvalidParameters, got %v", err)
		}
	})

	t.Run("ZeroTotal", func(t *testing.T) {
		_, err := New(g, 1, 0)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("expected ErrInvalidParameters, got %v", err)
		}
	})

	t.Run("TotalLessThanThreshold", func(t *testing.T) {
		_, err := New(g, 3, 2)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("expected ErrInvalidParameters, got %v", err)
		}
	})

	t.Run("NilGroup", func(t *testing.T) {
		_, err := New(nil, 2, 3)
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("expected ErrInvalidParameters, got %v", err)
		}
	})
}

func TestHashers(t *testing.T) {
	g := &bjj.BJJ{}
	threshold := 2
	total := 3

	hashers := map[string]Hasher{
		"rfc9591": NewRFC9591Hasher(g),
		"blake2b": NewBlake2bHasher(),
		"blake3":  NewBlake3Hasher(g),
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			f, err := NewWithHasher(g, threshold, total, h)
			if err != nil {
				t.Fatal(err)
			}
			kps, pub := dealKeys(t, f, rand.Reader)

			message := []byte("test message with " + name)
			sig, err := sign(f, rand.Reader, kps[:threshold], pub, message)
			if err != nil {
				t.Fatal(err)
			}

			if !f.Verify(message, sig, pub.GroupKey) {
				t.Errorf("signature verification failed with %s hasher", name)
			}
			if f.Verify([]byte("wrong message"), sig, pub.GroupKey) {
				t.Error("signature should not verify with wrong message")
			}

			// A signature made under one hasher does not verify under another.
			for other, oh := range hashers {
				if other == name {
					continue
				}
				f2, _ := NewWithHasher(g, threshold, total, oh)
				if f2.Verify(message, sig, pub.GroupKey) {
					t.Errorf("%s signature should not verify with %s hasher", name, other)
				}
			}
		})
	}
}

func TestSeededRunsAreReproducible(t *testing.T) {
	type result struct {
		groupKey  []byte
		keyShares [][]byte
		sigShares [][]byte
		sig       []byte
	}

	run := func() result {
		f, err := New(secp256k1.New(), 3, 5)
		if err != nil {
			t.Fatal(err)
		}
		r := rng.NewSeeded(42)
		kps, pub := dealKeys(t, f, r)

		message := make([]byte, 32)
		if _, err := io.ReadFull(r, message); err != nil {
			t.Fatal(err)
		}

		var res result
		res.groupKey = pub.GroupKey.Bytes()
		for _, kp := range kps {
			res.keyShares = append(res.keyShares, kp.SigningShare.Bytes())
		}

		signers := kps[:3]
		nonces := make(map[Identifier]*SigningNonces)
		commitments := make(map[Identifier]*SigningCommitments)
		for _, kp := range signers {
			n, c, err := f.SignRound1(r, kp.SigningShare)
			if err != nil {
				t.Fatal(err)
			}
			nonces[kp.ID], commitments[kp.ID] = n, c
		}
		pkg, err := f.NewSigningPackage(commitments, message)
		if err != nil {
			t.Fatal(err)
		}
		shares := make(map[Identifier]*SignatureShare)
		for _, kp := range signers {
			ss, err := f.SignRound2(pkg, nonces[kp.ID], kp)
			if err != nil {
				t.Fatal(err)
			}
			shares[kp.ID] = ss
			res.sigShares = append(res.sigShares, ss.Z.Bytes())
		}
		sig, err := f.Aggregate(pkg, shares, pub)
		if err != nil {
			t.Fatal(err)
		}
		if !f.Verify(message, sig, pub.GroupKey) {
			t.Fatal("seeded signature failed to verify")
		}
		res.sig = sig.Bytes()
		return res
	}

	a, b := run(), run()

	if !bytes.Equal(a.groupKey, b.groupKey) {
		t.Error("group keys differ between seeded runs")
	}
	for i := range a.keyShares {
		if !bytes.Equal(a.keyShares[i], b.keyShares[i]) {
			t.Errorf("key share %d differs between seeded runs", i+1)
		}
	}
	for i := range a.sigShares {
		if !bytes.Equal(a.sigShares[i], b.sigShares[i]) {
			t.Errorf("signature share %d differs between seeded runs", i+1)
		}
	}
	if !bytes.Equal(a.sig, b.sig) {
		t.Error("signatures differ between seeded runs")
	}
}
