package secp256k1

import (
	"errors"
	"fmt"
	"io"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/f3rmion/tsig/group"
)

const (
	// ScalarLength is the byte length of an encoded scalar.
	ScalarLength = 32
	// PointLength is the byte length of an encoded (compressed) point.
	PointLength = 33

	maxUniformLength = 2 * ScalarLength
)

var (
	errScalarLength = errors.New("secp256k1: invalid scalar length")
	errScalarRange  = errors.New("secp256k1: scalar is not reduced modulo the group order")
	errPointLength  = errors.New("secp256k1: invalid point length")
	errIdentity     = errors.New("secp256k1: identity point has no encoding")
	errInvertZero   = errors.New("secp256k1: cannot invert zero scalar")
)

// twoPow256ModN is 2^256 mod n, used to fold the high part of wide inputs.
var twoPow256ModN = func() secp.ModNScalar {
	var s secp.ModNScalar
	b := [32]byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x45, 0x51, 0x23, 0x19, 0x50, 0xb7, 0x5f, 0xc4,
		0x40, 0x2d, 0xa1, 0x73, 0x2f, 0xc9, 0xbe, 0xbf,
	}
	s.SetBytes(&b)
	return s
}()

// Scalar represents an element of the secp256k1 scalar field.
// It implements [group.Scalar] on top of dcrd's constant-time ModNScalar.
type Scalar struct {
	inner secp.ModNScalar
}

func castScalar(s group.Scalar) *Scalar {
	out, ok := s.(*Scalar)
	if !ok {
		panic(fmt.Sprintf("secp256k1: incompatible scalar type %T", s))
	}
	return out
}

// Add sets s to a + b (mod n) and returns s.
func (s *Scalar) Add(a, b group.Scalar) group.Scalar {
	x, y := castScalar(a).inner, castScalar(b).inner
	s.inner.Add2(&x, &y)
	return s
}

// Sub sets s to a - b (mod n) and returns s.
func (s *Scalar) Sub(a, b group.Scalar) group.Scalar {
	x := castScalar(a).inner
	var negY secp.ModNScalar
	negY.NegateVal(&castScalar(b).inner)
	s.inner.Add2(&x, &negY)
	return s
}

// Mul sets s to a * b (mod n) and returns s.
func (s *Scalar) Mul(a, b group.Scalar) group.Scalar {
	x, y := castScalar(a).inner, castScalar(b).inner
	s.inner.Mul2(&x, &y)
	return s
}

// Negate sets s to -a (mod n) and returns s.
func (s *Scalar) Negate(a group.Scalar) group.Scalar {
	x := castScalar(a).inner
	s.inner.NegateVal(&x)
	return s
}

// Invert sets s to a^(-1) (mod n) and returns s.
// Returns an error if a is zero.
func (s *Scalar) Invert(a group.Scalar) (group.Scalar, error) {
	x := castScalar(a).inner
	if x.IsZero() {
		return nil, errInvertZero
	}
	s.inner.InverseValNonConst(&x)
	return s, nil
}

// Set copies the value of a into s and returns s.
func (s *Scalar) Set(a group.Scalar) group.Scalar {
	s.inner.Set(&castScalar(a).inner)
	return s
}

// Bytes returns the scalar as a 32-byte big-endian representation.
func (s *Scalar) Bytes() []byte {
	b := s.inner.Bytes()
	return b[:]
}

// SetBytes sets s from a 32-byte big-endian encoding and returns s.
// Values greater than or equal to the group order are rejected.
func (s *Scalar) SetBytes(data []byte) (group.Scalar, error) {
	if len(data) != ScalarLength {
		return nil, fmt.Errorf("%w: got %d bytes", errScalarLength, len(data))
	}
	var buf [ScalarLength]byte
	copy(buf[:], data)
	var v secp.ModNScalar
	if overflow := v.SetBytes(&buf); overflow != 0 {
		return nil, errScalarRange
	}
	s.inner.Set(&v)
	return s, nil
}

// Equal reports whether s and b represent the same scalar value, in constant time.
func (s *Scalar) Equal(b group.Scalar) bool {
	return s.inner.Equals(&castScalar(b).inner)
}

// IsZero reports whether s is the zero scalar.
func (s *Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Point represents a point on secp256k1 in Jacobian coordinates.
// The zero value is the point at infinity.
type Point struct {
	inner secp.JacobianPoint
}

func castPoint(p group.Point) *Point {
	out, ok := p.(*Point)
	if !ok {
		panic(fmt.Sprintf("secp256k1: incompatible point type %T", p))
	}
	return out
}

// affine returns a normalized affine copy of p.
func (p *Point) affine() secp.JacobianPoint {
	var a secp.JacobianPoint
	a.Set(&p.inner)
	a.ToAffine()
	return a
}

// Add sets p to a + b and returns p.
func (p *Point) Add(a, b group.Point) group.Point {
	var out secp.JacobianPoint
	secp.AddNonConst(&castPoint(a).inner, &castPoint(b).inner, &out)
	p.inner.Set(&out)
	return p
}

// Sub sets p to a - b and returns p.
func (p *Point) Sub(a, b group.Point) group.Point {
	var negB Point
	negB.Negate(b)
	return p.Add(a, &negB)
}

// Negate sets p to -a and returns p.
func (p *Point) Negate(a group.Point) group.Point {
	out := castPoint(a).affine()
	out.Y.Negate(1).Normalize()
	p.inner.Set(&out)
	return p
}

// ScalarMult sets p to s * q and returns p.
func (p *Point) ScalarMult(s group.Scalar, q group.Point) group.Point {
	var out secp.JacobianPoint
	secp.ScalarMultNonConst(&castScalar(s).inner, &castPoint(q).inner, &out)
	p.inner.Set(&out)
	return p
}

// Set copies the value of a into p and returns p.
func (p *Point) Set(a group.Point) group.Point {
	p.inner.Set(&castPoint(a).inner)
	return p
}

// Bytes returns the 33-byte SEC1 compressed encoding of p, or 33 zero bytes
// for the identity.
func (p *Point) Bytes() []byte {
	a := p.affine()
	if isInfinity(&a) {
		return make([]byte, PointLength)
	}
	return secp.NewPublicKey(&a.X, &a.Y).SerializeCompressed()
}

// SetBytes sets p from a 33-byte SEC1 compressed encoding and returns p.
// Returns an error if the data does not represent a valid curve point.
func (p *Point) SetBytes(data []byte) (group.Point, error) {
	if len(data) != PointLength {
		return nil, fmt.Errorf("%w: got %d bytes", errPointLength, len(data))
	}
	if isAllZero(data) {
		return nil, errIdentity
	}
	pub, err := secp.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("secp256k1: %w", err)
	}
	pub.AsJacobian(&p.inner)
	return p, nil
}

// Equal reports whether p and b represent the same curve point.
func (p *Point) Equal(b group.Point) bool {
	x, y := p.affine(), castPoint(b).affine()
	return x.X.Equals(&y.X) && x.Y.Equals(&y.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	a := p.affine()
	return isInfinity(&a)
}

// isInfinity expects a point normalized by ToAffine.
func isInfinity(a *secp.JacobianPoint) bool {
	return a.X.IsZero() && a.Y.IsZero()
}

func isAllZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}

// Curve implements [group.Group] for secp256k1.
//
// Curve is a zero-sized type; create an instance with [New] or &Curve{}.
type Curve struct{}

// New returns the secp256k1 group.
func New() *Curve {
	return &Curve{}
}

// Name returns "secp256k1".
func (g *Curve) Name() string {
	return "secp256k1"
}

// NewScalar returns a new scalar initialized to zero.
func (g *Curve) NewScalar() group.Scalar {
	return new(Scalar)
}

// NewPoint returns a new point initialized to the identity.
func (g *Curve) NewPoint() group.Point {
	return new(Point)
}

// Generator returns the standard base point G.
func (g *Curve) Generator() group.Point {
	var one secp.ModNScalar
	one.SetInt(1)
	p := new(Point)
	secp.ScalarBaseMultNonConst(&one, &p.inner)
	return p
}

// RandomScalar reads 32-byte candidates from r until one is a canonical,
// non-zero scalar.
func (g *Curve) RandomScalar(r io.Reader) (group.Scalar, error) {
	var buf [ScalarLength]byte
	defer clear(buf[:])
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("secp256k1: reading randomness: %w", err)
		}
		s := new(Scalar)
		if overflow := s.inner.SetBytes(&buf); overflow == 0 && !s.inner.IsZero() {
			return s, nil
		}
	}
}

// ScalarFromUniformBytes reduces a big-endian integer of at most 64 bytes
// modulo n. Inputs wider than 32 bytes are split as hi*2^256 + lo and folded
// with ModNScalar arithmetic so the reduction stays constant time.
func (g *Curve) ScalarFromUniformBytes(data []byte) (group.Scalar, error) {
	if len(data) > maxUniformLength {
		return nil, fmt.Errorf("%w: uniform input of %d bytes exceeds %d", errScalarLength, len(data), maxUniformLength)
	}
	s := new(Scalar)
	if len(data) <= ScalarLength {
		s.inner.SetByteSlice(data)
		return s, nil
	}

	split := len(data) - ScalarLength
	var hi, lo secp.ModNScalar
	hi.SetByteSlice(data[:split])
	lo.SetByteSlice(data[split:])
	hi.Mul(&twoPow256ModN)
	s.inner.Add2(&hi, &lo)
	return s, nil
}
