package frost

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f3rmion/tsig/secp256k1"
)

func TestExpandMessageXMD(t *testing.T) {
	// RFC 9380 appendix K.1, expand_message_xmd(SHA-256).
	dst := []byte("QUUX-V01-CS02-with-expander-SHA256-128")

	tests := []struct {
		msg  string
		want string
	}{
		{"", "68a985b87eb6b46952128911f2a4412bbc302a9d759667f87f7a21d803f07235"},
		{"abc", "d8ccab23b5985ccea865c6c97b6e5b8350e794e603b4b97902f53a8a0d605615"},
	}
	for _, tt := range tests {
		got, err := expandMessageXMD([][]byte{[]byte(tt.msg)}, dst, 0x20)
		require.NoError(t, err)
		require.Equal(t, tt.want, hex.EncodeToString(got), "msg %q", tt.msg)
	}
}

func TestExpandMessageXMDSplitInput(t *testing.T) {
	dst := []byte("FROST-secp256k1-SHA256-v1rho")
	whole, err := expandMessageXMD([][]byte{[]byte("hello world")}, dst, 48)
	require.NoError(t, err)
	split, err := expandMessageXMD([][]byte{[]byte("hello "), []byte("world")}, dst, 48)
	require.NoError(t, err)
	require.Equal(t, whole, split)
	require.Len(t, whole, 48)

	_, err = expandMessageXMD(nil, dst, 256*32)
	require.Error(t, err)
}

func TestRFC9591HasherDomainSeparation(t *testing.T) {
	g := secp256k1.New()
	h := NewRFC9591Hasher(g)
	require.Equal(t, "FROST-secp256k1-SHA256-v1", h.Context)

	data := []byte("input")
	rho := h.H1(g, data)
	chal := h.H2(g, data)
	nonce := h.H3(g, data)
	id := h.HID(g, data)

	require.False(t, rho.Equal(chal))
	require.False(t, rho.Equal(nonce))
	require.False(t, chal.Equal(id))
	require.NotEqual(t, h.H4(g, data), h.H5(g, data))
	require.Len(t, h.H4(g, data), 32)

	// Concatenation is all that matters.
	require.True(t, h.H1(g, []byte("in"), []byte("put")).Equal(rho))
}

func TestFROSTUsesContextForGroup(t *testing.T) {
	f, err := New(secp256k1.New(), 2, 3)
	require.NoError(t, err)
	h, ok := f.Hasher().(*RFC9591Hasher)
	require.True(t, ok)
	require.Equal(t, "FROST-secp256k1-SHA256-v1", h.Context)

	b3 := NewBlake3Hasher(f.Group())
	require.Equal(t, "FROST-secp256k1-BLAKE3-v1", b3.Prefix)
	require.Len(t, b3.H4(f.Group(), []byte("m")), 32)
}
