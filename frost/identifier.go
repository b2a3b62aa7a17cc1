package frost

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/f3rmion/tsig/group"
)

// Identifier names a participant. It holds the canonical encoding of a
// non-zero scalar, so it is comparable and can be used as a map key.
// The zero value is not a valid identifier.
type Identifier struct {
	enc string
}

// Bytes returns the canonical scalar encoding of the identifier.
func (id Identifier) Bytes() []byte {
	return []byte(id.enc)
}

// IsZero reports whether id is the zero value.
func (id Identifier) IsZero() bool {
	return id.enc == ""
}

// Compare orders identifiers by their numeric value.
func (id Identifier) Compare(other Identifier) int {
	// Encodings are fixed-length big-endian, so byte order is numeric order.
	return strings.Compare(id.enc, other.enc)
}

func (id Identifier) String() string {
	if id.IsZero() {
		return "<nil>"
	}
	return new(big.Int).SetBytes([]byte(id.enc)).String()
}

func sortIdentifiers(ids []Identifier) {
	slices.SortFunc(ids, Identifier.Compare)
}

// NewIdentifier returns the identifier for the integer n, which must be non-zero.
func (f *FROST) NewIdentifier(n uint64) (Identifier, error) {
	if n == 0 {
		return Identifier{}, fmt.Errorf("%w: zero", ErrInvalidIdentifier)
	}
	return f.identifierFromScalar(f.scalarFromUint64(n)), nil
}

// DeriveIdentifier maps arbitrary bytes, such as a participant name, to an
// identifier using the hasher's HID function.
func (f *FROST) DeriveIdentifier(data []byte) (Identifier, error) {
	s := f.hasher.HID(f.group, data)
	if s.IsZero() {
		return Identifier{}, fmt.Errorf("%w: derived zero", ErrInvalidIdentifier)
	}
	return f.identifierFromScalar(s), nil
}

// ParseIdentifier decodes a canonical scalar encoding into an identifier.
func (f *FROST) ParseIdentifier(data []byte) (Identifier, error) {
	s, err := f.group.NewScalar().SetBytes(data)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	if s.IsZero() {
		return Identifier{}, fmt.Errorf("%w: zero", ErrInvalidIdentifier)
	}
	id := f.identifierFromScalar(s)
	if id.enc != string(data) {
		return Identifier{}, fmt.Errorf("%w: non-canonical encoding", ErrInvalidIdentifier)
	}
	return id, nil
}

func (f *FROST) identifierFromScalar(s group.Scalar) Identifier {
	return Identifier{enc: string(s.Bytes())}
}

// checkIdentifier reports whether id is a valid non-zero identifier for this group.
func (f *FROST) checkIdentifier(id Identifier) error {
	if id.IsZero() {
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	_, err := f.ParseIdentifier(id.Bytes())
	return err
}

// idScalar returns the scalar value of an identifier that has already been
// validated with checkIdentifier.
func (f *FROST) idScalar(id Identifier) group.Scalar {
	s, _ := f.group.NewScalar().SetBytes(id.Bytes())
	return s
}

func (f *FROST) scalarFromUint64(n uint64) group.Scalar {
	buf := make([]byte, len(f.group.NewScalar().Bytes()))
	binary.BigEndian.PutUint64(buf[len(buf)-8:], n)
	s, _ := f.group.NewScalar().SetBytes(buf)
	return s
}

// IdentifierList selects the identifiers assigned by the dealer.
type IdentifierList interface {
	resolve(f *FROST) ([]Identifier, error)
}

type defaultIdentifiers struct{}

// DefaultIdentifiers assigns the identifiers 1 through n.
func DefaultIdentifiers() IdentifierList {
	return defaultIdentifiers{}
}

func (defaultIdentifiers) resolve(f *FROST) ([]Identifier, error) {
	ids := make([]Identifier, f.total)
	for i := range ids {
		id, err := f.NewIdentifier(uint64(i + 1))
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

type customIdentifiers []Identifier

// CustomIdentifiers assigns the given identifiers. Exactly n unique,
// non-zero identifiers must be supplied.
func CustomIdentifiers(ids ...Identifier) IdentifierList {
	return customIdentifiers(slices.Clone(ids))
}

func (c customIdentifiers) resolve(f *FROST) ([]Identifier, error) {
	if len(c) != f.total {
		return nil, fmt.Errorf("%w: got %d identifiers for %d participants", ErrInvalidParameters, len(c), f.total)
	}
	seen := make(map[Identifier]bool, len(c))
	for _, id := range c {
		if err := f.checkIdentifier(id); err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id)
		}
		seen[id] = true
	}
	ids := slices.Clone([]Identifier(c))
	sortIdentifiers(ids)
	return ids, nil
}
