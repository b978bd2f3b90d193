package service

import (
	"strings"
	"testing"

	"civic-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte master key in hex (64 chars)
const testMasterKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestGCMCardCipher_NewInvalidKey(t *testing.T) {
	_, err := NewGCMCardCipher("shortkey")
	assert.Error(t, err)

	_, err = NewGCMCardCipher("zz" + testMasterKey[2:])
	assert.Error(t, err)
}

func TestGCMCardCipher_SealOpen(t *testing.T) {
	c, err := NewGCMCardCipher(testMasterKey)
	require.NoError(t, err)

	number := "0112345678901237"
	token, err := c.Seal(number)
	require.NoError(t, err)
	assert.NotContains(t, token, number[:len(number)-4])
	assert.True(t, strings.HasSuffix(token, "1237"), "token keeps last 4 in clear")

	opened, err := c.Open(token)
	require.NoError(t, err)
	assert.Equal(t, number, opened)
}

func TestGCMCardCipher_DifferentNonces(t *testing.T) {
	c, err := NewGCMCardCipher(testMasterKey)
	require.NoError(t, err)

	number := "INS-ABCD1234-000042"
	t1, err := c.Seal(number)
	require.NoError(t, err)
	t2, err := c.Seal(number)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2, "same number should produce different tokens due to random nonce")

	o1, _ := c.Open(t1)
	o2, _ := c.Open(t2)
	assert.Equal(t, o1, o2)
}

func TestGCMCardCipher_TamperedToken(t *testing.T) {
	c, err := NewGCMCardCipher(testMasterKey)
	require.NoError(t, err)

	token, err := c.Seal("0112345678901237")
	require.NoError(t, err)

	// Flip a character inside the encoded part.
	tampered := "A" + token[1:]
	if tampered == token {
		tampered = "B" + token[1:]
	}
	_, err = c.Open(tampered)
	assert.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindIntegrity))
}

func TestGCMCardCipher_TamperedClearSuffix(t *testing.T) {
	c, err := NewGCMCardCipher(testMasterKey)
	require.NoError(t, err)

	token, err := c.Seal("0112345678901237")
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "0000"
	_, err = c.Open(tampered)
	assert.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindIntegrity), "editing the clear suffix must fail verification")
}

func TestGCMCardCipher_WrongKey(t *testing.T) {
	c1, _ := NewGCMCardCipher(testMasterKey)
	otherKey := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
	c2, _ := NewGCMCardCipher(otherKey)

	token, err := c1.Seal("0112345678901237")
	require.NoError(t, err)

	_, err = c2.Open(token)
	assert.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindIntegrity))
}

func TestGCMCardCipher_InvalidToken(t *testing.T) {
	c, _ := NewGCMCardCipher(testMasterKey)

	_, err := c.Open("1237")
	assert.Error(t, err)

	_, err = c.Open("!!!not-base64!!!1237")
	assert.Error(t, err)

	_, err = c.Open("YWJj1237") // decodes but far too short
	assert.Error(t, err)
}

func TestGCMCardCipher_Mask(t *testing.T) {
	c, _ := NewGCMCardCipher(testMasterKey)

	assert.Equal(t, "•••• •••• •••• 1237", c.Mask("0112345678901237"))
	assert.Equal(t, "•••• •••• •••• 0042", c.Mask("INS-ABCD1234-000042"))
	assert.Equal(t, "••••", c.Mask("12"))
}

func TestHMACLookupHasher(t *testing.T) {
	h, err := NewHMACLookupHasher(testMasterKey)
	require.NoError(t, err)

	h1 := h.Hash("0112345678901237")
	h2 := h.Hash("0112345678901237")
	assert.Equal(t, h1, h2, "hash must be deterministic")
	assert.Len(t, h1, 64)
	assert.Equal(t, strings.ToLower(h1), h1, "hash is lowercase hex")

	h3 := h.Hash("0112345678901238")
	assert.NotEqual(t, h1, h3)
}

func TestHMACLookupHasher_KeySeparation(t *testing.T) {
	c, err := NewGCMCardCipher(testMasterKey)
	require.NoError(t, err)
	h, err := NewHMACLookupHasher(testMasterKey)
	require.NoError(t, err)

	// Same master secret, different derived keys.
	assert.NotEqual(t, c.key, h.key)
}
