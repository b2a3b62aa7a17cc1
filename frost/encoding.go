package frost

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/f3rmion/tsig/group"
)

// Transport encodings use deterministic CBOR so that equal values always
// produce identical bytes. Only public values and the data a participant
// receives from the dealer are encodable.

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(err)
	}
}

type commitmentsWire struct {
	Hiding  []byte `cbor:"1,keyasint"`
	Binding []byte `cbor:"2,keyasint"`
}

type commitmentEntryWire struct {
	ID      []byte `cbor:"1,keyasint"`
	Hiding  []byte `cbor:"2,keyasint"`
	Binding []byte `cbor:"3,keyasint"`
}

type signingPackageWire struct {
	Commitments []commitmentEntryWire `cbor:"1,keyasint"`
	Message     []byte                `cbor:"2,keyasint"`
}

type signatureShareWire struct {
	ID []byte `cbor:"1,keyasint"`
	Z  []byte `cbor:"2,keyasint"`
}

type secretShareWire struct {
	ID         []byte   `cbor:"1,keyasint"`
	Value      []byte   `cbor:"2,keyasint"`
	Commitment [][]byte `cbor:"3,keyasint"`
}

type keyPackageWire struct {
	ID             []byte `cbor:"1,keyasint"`
	SigningShare   []byte `cbor:"2,keyasint"`
	VerifyingShare []byte `cbor:"3,keyasint"`
	GroupKey       []byte `cbor:"4,keyasint"`
	MinSigners     int    `cbor:"5,keyasint"`
}

type verifyingShareWire struct {
	ID    []byte `cbor:"1,keyasint"`
	Share []byte `cbor:"2,keyasint"`
}

type publicKeyPackageWire struct {
	VerifyingShares []verifyingShareWire `cbor:"1,keyasint"`
	GroupKey        []byte               `cbor:"2,keyasint"`
}

func unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// decodeScalar parses a scalar and rejects non-canonical encodings.
func (f *FROST) decodeScalar(data []byte) (group.Scalar, error) {
	s, err := f.group.NewScalar().SetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: scalar: %v", ErrMalformed, err)
	}
	if !bytes.Equal(s.Bytes(), data) {
		return nil, fmt.Errorf("%w: non-canonical scalar", ErrMalformed)
	}
	return s, nil
}

// decodePoint parses a point and rejects the identity.
func (f *FROST) decodePoint(data []byte) (group.Point, error) {
	p, err := f.group.NewPoint().SetBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: point: %v", ErrMalformed, err)
	}
	if p.IsIdentity() {
		return nil, fmt.Errorf("%w: identity point", ErrMalformed)
	}
	return p, nil
}

func (f *FROST) decodeIdentifier(data []byte) (Identifier, error) {
	id, err := f.ParseIdentifier(data)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id, nil
}

// EncodeSigningCommitments serializes round 1 commitments.
func (f *FROST) EncodeSigningCommitments(c *SigningCommitments) ([]byte, error) {
	if !c.valid() {
		return nil, ErrInvalidCommitment
	}
	return encMode.Marshal(commitmentsWire{Hiding: c.Hiding.Bytes(), Binding: c.Binding.Bytes()})
}

// DecodeSigningCommitments parses round 1 commitments.
func (f *FROST) DecodeSigningCommitments(data []byte) (*SigningCommitments, error) {
	var w commitmentsWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	hiding, err := f.decodePoint(w.Hiding)
	if err != nil {
		return nil, err
	}
	binding, err := f.decodePoint(w.Binding)
	if err != nil {
		return nil, err
	}
	return &SigningCommitments{Hiding: hiding, Binding: binding}, nil
}

// EncodeSigningPackage serializes a signing package.
func (f *FROST) EncodeSigningPackage(p *SigningPackage) ([]byte, error) {
	if p == nil {
		return nil, ErrInvalidParameters
	}
	w := signingPackageWire{
		Commitments: make([]commitmentEntryWire, 0, len(p.ids)),
		Message:     p.message,
	}
	for _, id := range p.ids {
		c := p.commitments[id]
		w.Commitments = append(w.Commitments, commitmentEntryWire{
			ID:      id.Bytes(),
			Hiding:  c.Hiding.Bytes(),
			Binding: c.Binding.Bytes(),
		})
	}
	return encMode.Marshal(w)
}

// DecodeSigningPackage parses a signing package and validates it like
// NewSigningPackageFromList.
func (f *FROST) DecodeSigningPackage(data []byte) (*SigningPackage, error) {
	var w signingPackageWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	entries := make([]CommitmentEntry, 0, len(w.Commitments))
	for _, e := range w.Commitments {
		id, err := f.decodeIdentifier(e.ID)
		if err != nil {
			return nil, err
		}
		hiding, err := f.decodePoint(e.Hiding)
		if err != nil {
			return nil, err
		}
		binding, err := f.decodePoint(e.Binding)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CommitmentEntry{
			ID:          id,
			Commitments: &SigningCommitments{Hiding: hiding, Binding: binding},
		})
	}
	return f.NewSigningPackageFromList(entries, w.Message)
}

// EncodeSignatureShare serializes a signature share.
func (f *FROST) EncodeSignatureShare(s *SignatureShare) ([]byte, error) {
	if s == nil || s.Z == nil {
		return nil, ErrInvalidSignatureShare
	}
	return encMode.Marshal(signatureShareWire{ID: s.ID.Bytes(), Z: s.Z.Bytes()})
}

// DecodeSignatureShare parses a signature share.
func (f *FROST) DecodeSignatureShare(data []byte) (*SignatureShare, error) {
	var w signatureShareWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	id, err := f.decodeIdentifier(w.ID)
	if err != nil {
		return nil, err
	}
	z, err := f.decodeScalar(w.Z)
	if err != nil {
		return nil, err
	}
	return &SignatureShare{ID: id, Z: z}, nil
}

// EncodeSecretShare serializes a dealer share for delivery to its owner.
// The output contains secret material.
func (f *FROST) EncodeSecretShare(s *SecretShare) ([]byte, error) {
	if s == nil || s.Value == nil {
		return nil, ErrInvalidSecretShare
	}
	w := secretShareWire{
		ID:         s.ID.Bytes(),
		Value:      s.Value.Bytes(),
		Commitment: make([][]byte, len(s.Commitment)),
	}
	for i, c := range s.Commitment {
		w.Commitment[i] = c.Bytes()
	}
	return encMode.Marshal(w)
}

// DecodeSecretShare parses a dealer share. The share is not checked against
// its commitment; NewKeyPackage does that.
func (f *FROST) DecodeSecretShare(data []byte) (*SecretShare, error) {
	var w secretShareWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	id, err := f.decodeIdentifier(w.ID)
	if err != nil {
		return nil, err
	}
	value, err := f.decodeScalar(w.Value)
	if err != nil {
		return nil, err
	}
	commitment := make(VSSCommitment, len(w.Commitment))
	for i, c := range w.Commitment {
		if commitment[i], err = f.decodePoint(c); err != nil {
			return nil, err
		}
	}
	return &SecretShare{ID: id, Value: value, Commitment: commitment}, nil
}

// EncodeKeyPackage serializes a key package. The output contains secret material.
func (f *FROST) EncodeKeyPackage(kp *KeyPackage) ([]byte, error) {
	if kp == nil || kp.SigningShare == nil || kp.VerifyingShare == nil || kp.GroupKey == nil {
		return nil, ErrInvalidParameters
	}
	return encMode.Marshal(keyPackageWire{
		ID:             kp.ID.Bytes(),
		SigningShare:   kp.SigningShare.Bytes(),
		VerifyingShare: kp.VerifyingShare.Bytes(),
		GroupKey:       kp.GroupKey.Bytes(),
		MinSigners:     kp.MinSigners,
	})
}

// DecodeKeyPackage parses a key package and checks that the verifying share
// matches the signing share.
func (f *FROST) DecodeKeyPackage(data []byte) (*KeyPackage, error) {
	var w keyPackageWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	id, err := f.decodeIdentifier(w.ID)
	if err != nil {
		return nil, err
	}
	share, err := f.decodeScalar(w.SigningShare)
	if err != nil {
		return nil, err
	}
	verifying, err := f.decodePoint(w.VerifyingShare)
	if err != nil {
		return nil, err
	}
	groupKey, err := f.decodePoint(w.GroupKey)
	if err != nil {
		return nil, err
	}
	if !f.group.NewPoint().ScalarMult(share, f.group.Generator()).Equal(verifying) {
		return nil, fmt.Errorf("%w: verifying share does not match signing share", ErrMalformed)
	}
	if w.MinSigners < 1 {
		return nil, fmt.Errorf("%w: min signers %d", ErrMalformed, w.MinSigners)
	}
	return &KeyPackage{
		ID:             id,
		SigningShare:   share,
		VerifyingShare: verifying,
		GroupKey:       groupKey,
		MinSigners:     w.MinSigners,
	}, nil
}

// EncodePublicKeyPackage serializes a public key package.
func (f *FROST) EncodePublicKeyPackage(pub *PublicKeyPackage) ([]byte, error) {
	if pub == nil || pub.GroupKey == nil {
		return nil, ErrInvalidParameters
	}
	ids := make([]Identifier, 0, len(pub.VerifyingShares))
	for id, share := range pub.VerifyingShares {
		if share == nil {
			return nil, fmt.Errorf("%w: missing verifying share for %s", ErrInvalidParameters, id)
		}
		ids = append(ids, id)
	}
	sortIdentifiers(ids)

	w := publicKeyPackageWire{
		VerifyingShares: make([]verifyingShareWire, len(ids)),
		GroupKey:        pub.GroupKey.Bytes(),
	}
	for i, id := range ids {
		w.VerifyingShares[i] = verifyingShareWire{ID: id.Bytes(), Share: pub.VerifyingShares[id].Bytes()}
	}
	return encMode.Marshal(w)
}

// DecodePublicKeyPackage parses a public key package.
func (f *FROST) DecodePublicKeyPackage(data []byte) (*PublicKeyPackage, error) {
	var w publicKeyPackageWire
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	groupKey, err := f.decodePoint(w.GroupKey)
	if err != nil {
		return nil, err
	}
	pub := &PublicKeyPackage{
		VerifyingShares: make(map[Identifier]group.Point, len(w.VerifyingShares)),
		GroupKey:        groupKey,
	}
	for _, vs := range w.VerifyingShares {
		id, err := f.decodeIdentifier(vs.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := pub.VerifyingShares[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
		}
		if pub.VerifyingShares[id], err = f.decodePoint(vs.Share); err != nil {
			return nil, err
		}
	}
	return pub, nil
}
