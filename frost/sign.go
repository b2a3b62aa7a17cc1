package frost

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/f3rmion/tsig/group"
)

// SigningNonces holds a participant's secret nonce pair from round 1.
//
// The secrets live behind a shared pointer, so a copy of SigningNonces
// refers to the same state: once any copy has been used in round 2 all of
// them are spent.
type SigningNonces struct {
	state       *nonceState
	commitments SigningCommitments
}

type nonceState struct {
	mu      sync.Mutex
	hiding  group.Scalar // d
	binding group.Scalar // e
	used    bool
}

// Commitments returns the public commitments matching the nonces.
func (n *SigningNonces) Commitments() *SigningCommitments {
	c := n.commitments
	return &c
}

// Used reports whether the nonces have been consumed.
func (n *SigningNonces) Used() bool {
	if n.state == nil {
		return true
	}
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	return n.state.used
}

// take hands out copies of the secret nonces exactly once and wipes the stored values.
func (n *SigningNonces) take(g group.Group) (group.Scalar, group.Scalar, error) {
	if n.state == nil {
		return nil, nil, fmt.Errorf("%w: empty nonces", ErrInvalidParameters)
	}
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	if n.state.used {
		return nil, nil, ErrNonceReuse
	}
	n.state.used = true

	d := g.NewScalar().Set(n.state.hiding)
	e := g.NewScalar().Set(n.state.binding)
	zero := g.NewScalar()
	n.state.hiding.Set(zero)
	n.state.binding.Set(zero)
	return d, e, nil
}

// SigningCommitments is broadcast in round 1 of signing.
type SigningCommitments struct {
	Hiding  group.Point // D = d * G
	Binding group.Point // E = e * G
}

// Equal reports whether both commitments match.
func (c *SigningCommitments) Equal(o *SigningCommitments) bool {
	if c == nil || o == nil || c.Hiding == nil || c.Binding == nil || o.Hiding == nil || o.Binding == nil {
		return false
	}
	return c.Hiding.Equal(o.Hiding) && c.Binding.Equal(o.Binding)
}

func (c *SigningCommitments) valid() bool {
	return c != nil && c.Hiding != nil && c.Binding != nil &&
		!c.Hiding.IsIdentity() && !c.Binding.IsIdentity()
}

// CommitmentEntry pairs a participant with its round 1 commitments.
type CommitmentEntry struct {
	ID          Identifier
	Commitments *SigningCommitments
}

// SigningPackage is the coordinator's round 1 output: the commitments of
// every chosen signer and the message. It is immutable once built.
type SigningPackage struct {
	ids         []Identifier // ascending
	commitments map[Identifier]*SigningCommitments
	message     []byte
}

// Message returns a copy of the message being signed.
func (p *SigningPackage) Message() []byte {
	return bytes.Clone(p.message)
}

// Identifiers returns the signers in ascending order.
func (p *SigningPackage) Identifiers() []Identifier {
	return slices.Clone(p.ids)
}

// Commitments returns the commitments of the given signer.
func (p *SigningPackage) Commitments(id Identifier) (*SigningCommitments, bool) {
	c, ok := p.commitments[id]
	if !ok {
		return nil, false
	}
	out := *c
	return &out, true
}

// Len returns the number of signers.
func (p *SigningPackage) Len() int {
	return len(p.ids)
}

// SignatureShare is a participant's share of the signature.
type SignatureShare struct {
	ID Identifier
	Z  group.Scalar
}

// Signature is a Schnorr signature.
type Signature struct {
	R group.Point
	Z group.Scalar
}

// Bytes returns the encoding R || Z.
func (s *Signature) Bytes() []byte {
	return append(s.R.Bytes(), s.Z.Bytes()...)
}

// SignRound1 generates nonces and commitments for signing. Each nonce is
// H3(32 random bytes || signingShare), so a weak random source alone does
// not expose the nonces.
func (f *FROST) SignRound1(r io.Reader, signingShare group.Scalar) (*SigningNonces, *SigningCommitments, error) {
	if signingShare == nil {
		return nil, nil, fmt.Errorf("%w: missing signing share", ErrInvalidParameters)
	}
	d, err := f.generateNonce(r, signingShare)
	if err != nil {
		return nil, nil, err
	}
	e, err := f.generateNonce(r, signingShare)
	if err != nil {
		f.zero(d)
		return nil, nil, err
	}

	commitments := SigningCommitments{
		Hiding:  f.group.NewPoint().ScalarMult(d, f.group.Generator()),
		Binding: f.group.NewPoint().ScalarMult(e, f.group.Generator()),
	}
	nonces := &SigningNonces{
		state:       &nonceState{hiding: d, binding: e},
		commitments: commitments,
	}
	return nonces, nonces.Commitments(), nil
}

func (f *FROST) generateNonce(r io.Reader, secret group.Scalar) (group.Scalar, error) {
	var seed [32]byte
	defer clear(seed[:])
	enc := secret.Bytes()
	defer clear(enc)

	for {
		if _, err := io.ReadFull(r, seed[:]); err != nil {
			return nil, fmt.Errorf("frost: reading randomness: %w", err)
		}
		if k := f.hasher.H3(f.group, seed[:], enc); !k.IsZero() {
			return k, nil
		}
	}
}

// NewSigningPackage builds the signing package from the commitments of the
// chosen signers. At least t signers are required.
func (f *FROST) NewSigningPackage(commitments map[Identifier]*SigningCommitments, message []byte) (*SigningPackage, error) {
	if len(commitments) < f.threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCommitments, len(commitments), f.threshold)
	}

	pkg := &SigningPackage{
		ids:         slices.Collect(maps.Keys(commitments)),
		commitments: make(map[Identifier]*SigningCommitments, len(commitments)),
		message:     bytes.Clone(message),
	}
	if pkg.message == nil {
		pkg.message = []byte{}
	}
	sortIdentifiers(pkg.ids)

	for _, id := range pkg.ids {
		if err := f.checkIdentifier(id); err != nil {
			return nil, err
		}
		c := commitments[id]
		if !c.valid() {
			return nil, fmt.Errorf("%w: participant %s", ErrInvalidCommitment, id)
		}
		pkg.commitments[id] = &SigningCommitments{
			Hiding:  f.group.NewPoint().Set(c.Hiding),
			Binding: f.group.NewPoint().Set(c.Binding),
		}
	}
	return pkg, nil
}

// NewSigningPackageFromList is like NewSigningPackage but takes a list,
// rejecting repeated identifiers.
func (f *FROST) NewSigningPackageFromList(entries []CommitmentEntry, message []byte) (*SigningPackage, error) {
	commitments := make(map[Identifier]*SigningCommitments, len(entries))
	for _, e := range entries {
		if _, dup := commitments[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, e.ID)
		}
		commitments[e.ID] = e.Commitments
	}
	return f.NewSigningPackage(commitments, message)
}

// SignRound2 generates a signature share. The nonces are consumed even if
// a later step fails.
func (f *FROST) SignRound2(pkg *SigningPackage, nonces *SigningNonces, kp *KeyPackage) (*SignatureShare, error) {
	if pkg == nil || nonces == nil || kp == nil || kp.SigningShare == nil || kp.GroupKey == nil {
		return nil, fmt.Errorf("%w: missing input", ErrInvalidParameters)
	}
	own, ok := pkg.commitments[kp.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParticipant, kp.ID)
	}
	if !own.Equal(&nonces.commitments) {
		return nil, fmt.Errorf("%w: participant %s", ErrIncorrectCommitment, kp.ID)
	}

	d, e, err := nonces.take(f.group)
	if err != nil {
		return nil, err
	}
	defer f.zero(d, e)

	rhos := f.bindingFactors(kp.GroupKey, pkg)
	R, err := f.groupCommitment(pkg, rhos)
	if err != nil {
		return nil, err
	}
	c := f.challenge(R, kp.GroupKey, pkg.message)

	lambda, err := f.lagrangeCoefficient(kp.ID, pkg.ids)
	if err != nil {
		return nil, err
	}

	// z_i = d + rho*e + lambda*s*c
	z := f.group.NewScalar().Mul(rhos[kp.ID], e)
	z.Add(d, z)
	lambdaSC := f.group.NewScalar().Mul(lambda, kp.SigningShare)
	lambdaSC.Mul(lambdaSC, c)
	z.Add(z, lambdaSC)
	f.zero(lambdaSC)

	return &SignatureShare{ID: kp.ID, Z: z}, nil
}

// Aggregate combines signature shares into a final signature. Unless share
// verification is disabled, every share is checked first and the first bad
// one is reported as a *ShareError.
func (f *FROST) Aggregate(pkg *SigningPackage, shares map[Identifier]*SignatureShare, pub *PublicKeyPackage) (*Signature, error) {
	if pkg == nil || pub == nil || pub.GroupKey == nil {
		return nil, fmt.Errorf("%w: missing input", ErrInvalidParameters)
	}
	if len(shares) < f.threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(shares), f.threshold)
	}
	if len(shares) != pkg.Len() {
		return nil, fmt.Errorf("%w: have %d, package has %d", ErrIncorrectNumberOfShares, len(shares), pkg.Len())
	}
	for id, share := range shares {
		if _, ok := pkg.commitments[id]; !ok {
			return nil, fmt.Errorf("%w: share from %s", ErrUnknownIdentifier, id)
		}
		if share == nil || share.Z == nil || share.ID != id {
			return nil, &ShareError{ID: id}
		}
	}
	for _, id := range pkg.ids {
		if _, ok := pub.VerifyingShares[id]; !ok {
			return nil, fmt.Errorf("%w: no verifying share for %s", ErrUnknownIdentifier, id)
		}
	}

	rhos := f.bindingFactors(pub.GroupKey, pkg)
	R, err := f.groupCommitment(pkg, rhos)
	if err != nil {
		return nil, err
	}

	if f.verifyShares {
		c := f.challenge(R, pub.GroupKey, pkg.message)
		for _, id := range pkg.ids {
			err := f.verifyShare(shares[id], pkg, rhos[id], c, pub.VerifyingShares[id])
			if err != nil {
				f.log.Warn("signature share verification failed", "participant", id.String())
				return nil, err
			}
		}
	}

	z := f.group.NewScalar()
	for _, id := range pkg.ids {
		z.Add(z, shares[id].Z)
	}
	return &Signature{R: R, Z: z}, nil
}

// VerifySignatureShare checks a single signature share against the signer's
// verifying share:
// z_i*G == D_i + rho_i*E_i + c*lambda_i*Y_i.
func (f *FROST) VerifySignatureShare(share *SignatureShare, pkg *SigningPackage, pub *PublicKeyPackage) error {
	if share == nil || pkg == nil || pub == nil || pub.GroupKey == nil {
		return fmt.Errorf("%w: missing input", ErrInvalidParameters)
	}
	if _, ok := pkg.commitments[share.ID]; !ok {
		return fmt.Errorf("%w: share from %s", ErrUnknownIdentifier, share.ID)
	}
	Y, ok := pub.VerifyingShares[share.ID]
	if !ok {
		return fmt.Errorf("%w: no verifying share for %s", ErrUnknownIdentifier, share.ID)
	}

	rhos := f.bindingFactors(pub.GroupKey, pkg)
	R, err := f.groupCommitment(pkg, rhos)
	if err != nil {
		return err
	}
	c := f.challenge(R, pub.GroupKey, pkg.message)
	return f.verifyShare(share, pkg, rhos[share.ID], c, Y)
}

func (f *FROST) verifyShare(share *SignatureShare, pkg *SigningPackage, rho, c group.Scalar, Y group.Point) error {
	if share.Z == nil {
		return &ShareError{ID: share.ID}
	}
	comm := pkg.commitments[share.ID]
	lambda, err := f.lagrangeCoefficient(share.ID, pkg.ids)
	if err != nil {
		return err
	}

	lhs := f.group.NewPoint().ScalarMult(share.Z, f.group.Generator())

	rhs := f.group.NewPoint().ScalarMult(rho, comm.Binding)
	rhs.Add(comm.Hiding, rhs)
	cLambda := f.group.NewScalar().Mul(c, lambda)
	rhs.Add(rhs, f.group.NewPoint().ScalarMult(cLambda, Y))

	if !lhs.Equal(rhs) {
		return &ShareError{ID: share.ID}
	}
	return nil
}

// Verify checks a FROST signature.
func (f *FROST) Verify(message []byte, sig *Signature, groupKey group.Point) bool {
	return f.VerifySignature(message, sig, groupKey) == nil
}

// VerifySignature checks a FROST signature and returns ErrInvalidSignature
// if it does not hold.
func (f *FROST) VerifySignature(message []byte, sig *Signature, groupKey group.Point) error {
	if sig == nil || sig.R == nil || sig.Z == nil || groupKey == nil {
		return fmt.Errorf("%w: missing input", ErrInvalidSignature)
	}

	c := f.challenge(sig.R, groupKey, message)

	// Check: z*G == R + c*Y
	lhs := f.group.NewPoint().ScalarMult(sig.Z, f.group.Generator())
	rhs := f.group.NewPoint().ScalarMult(c, groupKey)
	rhs.Add(sig.R, rhs)

	if !lhs.Equal(rhs) {
		return ErrInvalidSignature
	}
	return nil
}

// encodeCommitmentList serializes ID || D || E for each signer in ascending order.
func (f *FROST) encodeCommitmentList(pkg *SigningPackage) []byte {
	var out []byte
	for _, id := range pkg.ids {
		c := pkg.commitments[id]
		out = append(out, id.Bytes()...)
		out = append(out, c.Hiding.Bytes()...)
		out = append(out, c.Binding.Bytes()...)
	}
	return out
}

// bindingFactors computes rho_i = H1(Y || H4(msg) || H5(commitments) || ID_i)
// for every signer in the package.
func (f *FROST) bindingFactors(groupKey group.Point, pkg *SigningPackage) map[Identifier]group.Scalar {
	prefix := groupKey.Bytes()
	prefix = append(prefix, f.hasher.H4(f.group, pkg.message)...)
	prefix = append(prefix, f.hasher.H5(f.group, f.encodeCommitmentList(pkg))...)

	factors := make(map[Identifier]group.Scalar, len(pkg.ids))
	for _, id := range pkg.ids {
		factors[id] = f.hasher.H1(f.group, prefix, id.Bytes())
	}
	return factors
}

// groupCommitment computes R = sum(D_i + rho_i * E_i).
func (f *FROST) groupCommitment(pkg *SigningPackage, rhos map[Identifier]group.Scalar) (group.Point, error) {
	R := f.group.NewPoint()
	for _, id := range pkg.ids {
		c := pkg.commitments[id]
		term := f.group.NewPoint().ScalarMult(rhos[id], c.Binding)
		term.Add(c.Hiding, term)
		R.Add(R, term)
	}
	if R.IsIdentity() {
		return nil, fmt.Errorf("%w: group commitment is the identity", ErrInvalidCommitment)
	}
	return R, nil
}

// challenge computes c = H2(R || Y || msg).
func (f *FROST) challenge(R, groupKey group.Point, message []byte) group.Scalar {
	return f.hasher.H2(f.group, R.Bytes(), groupKey.Bytes(), message)
}

// ParseSignature decodes R || Z.
func (f *FROST) ParseSignature(data []byte) (*Signature, error) {
	pointLen := len(f.group.Generator().Bytes())
	scalarLen := len(f.group.NewScalar().Bytes())
	if len(data) != pointLen+scalarLen {
		return nil, fmt.Errorf("%w: signature length %d", ErrMalformed, len(data))
	}
	R, err := f.decodePoint(data[:pointLen])
	if err != nil {
		return nil, err
	}
	Z, err := f.decodeScalar(data[pointLen:])
	if err != nil {
		return nil, err
	}
	return &Signature{R: R, Z: Z}, nil
}
