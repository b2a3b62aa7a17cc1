// Package frost implements the FROST (Flexible Round-Optimized Schnorr Threshold)
// signature scheme over an arbitrary elliptic curve group.
//
// FROST is a threshold signature scheme that allows t-of-n participants to
// collaboratively generate a Schnorr signature without any single participant
// knowing the full private key. With the default hasher and the secp256k1
// group the protocol follows the FROST-secp256k1-SHA256-v1 ciphersuite of
// RFC 9591.
//
// # Key Generation
//
// Keys are produced by a trusted dealer:
//
//  1. [FROST.GenerateWithDealer] samples a secret, splits it with Shamir
//     secret sharing and commits to the polynomial (Feldman VSS).
//  2. Each participant checks its share with [FROST.NewKeyPackage], which
//     verifies it against the commitment.
//
// The dealer knows the group secret key. It must be trusted to forget it.
//
// # Threshold Signing
//
// Any t participants can then sign a message:
//
//  1. Each signer generates nonces and commitments using [FROST.SignRound1].
//  2. The coordinator collects the commitments into a [SigningPackage] with
//     [FROST.NewSigningPackage].
//  3. Each signer computes their signature share using [FROST.SignRound2].
//  4. Signature shares are aggregated into a final signature using
//     [FROST.Aggregate], which also checks every share and names the culprit
//     of a bad one.
//  5. Anyone can verify the signature using [FROST.Verify].
//
// # Example
//
// Basic usage with 2-of-3 threshold:
//
//	f, _ := frost.New(secp256k1.New(), 2, 3)
//
//	shares, pub, _ := f.GenerateWithDealer(rand.Reader, frost.DefaultIdentifiers())
//	id1, _ := f.NewIdentifier(1)
//	id2, _ := f.NewIdentifier(2)
//	kp1, _ := f.NewKeyPackage(shares[id1])
//	kp2, _ := f.NewKeyPackage(shares[id2])
//
//	message := []byte("hello")
//	nonces1, commit1, _ := f.SignRound1(rand.Reader, kp1.SigningShare)
//	nonces2, commit2, _ := f.SignRound1(rand.Reader, kp2.SigningShare)
//	pkg, _ := f.NewSigningPackage(map[frost.Identifier]*frost.SigningCommitments{
//	    id1: commit1,
//	    id2: commit2,
//	}, message)
//
//	share1, _ := f.SignRound2(pkg, nonces1, kp1)
//	share2, _ := f.SignRound2(pkg, nonces2, kp2)
//
//	sig, _ := f.Aggregate(pkg, map[frost.Identifier]*frost.SignatureShare{
//	    id1: share1,
//	    id2: share2,
//	}, pub)
//
//	valid := f.Verify(message, sig, pub.GroupKey)
//
// # Security Considerations
//
// Nonces generated in [FROST.SignRound1] must never be reused. A
// [SigningNonces] value is spent by its first use in [FROST.SignRound2],
// including through copies; later uses fail with [ErrNonceReuse].
//
// Randomness is always taken from an explicit io.Reader. Pass
// crypto/rand.Reader outside of tests.
//
// Scalar arithmetic on secp256k1 is constant time, but point multiplication
// in the underlying library is not.
package frost
