package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"civic-ledger/pkg/apperror"

	"golang.org/x/crypto/hkdf"
)

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
	clearSuffix  = 4
)

// GCMCardCipher implements ports.CardCipher using AES-256-GCM.
//
// Stored token layout: base64(nonce || tag || ciphertext) + last-4 digits in
// clear. The clear suffix is bound into the authentication tag as additional
// data, so editing either part fails verification.
type GCMCardCipher struct {
	key []byte // 32-byte AES key derived from the master secret
}

// NewGCMCardCipher creates a card cipher from a master secret. hexMasterKey
// must be a 64-character hex string (32 bytes decoded); the AES key is
// derived from it with HKDF-SHA256 so the lookup hasher can share the same
// secret without sharing the key.
func NewGCMCardCipher(hexMasterKey string) (*GCMCardCipher, error) {
	key, err := deriveKey(hexMasterKey, "card-encrypt")
	if err != nil {
		return nil, err
	}
	return &GCMCardCipher{key: key}, nil
}

// Seal encrypts a card number. All but the last 4 characters go through the
// cipher; the last 4 stay in clear for display purposes.
func (c *GCMCardCipher) Seal(cardNumber string) (string, error) {
	if len(cardNumber) <= clearSuffix {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("card number too short to seal"))
	}
	body := cardNumber[:len(cardNumber)-clearSuffix]
	last4 := cardNumber[len(cardNumber)-clearSuffix:]

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("creating cipher: %w", err))
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("creating GCM: %w", err))
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("generating nonce: %w", err))
	}

	sealed := aesGCM.Seal(nil, nonce, []byte(body), []byte(last4))
	ct, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	packed := make([]byte, 0, gcmNonceSize+gcmTagSize+len(ct))
	packed = append(packed, nonce...)
	packed = append(packed, tag...)
	packed = append(packed, ct...)

	return base64.StdEncoding.EncodeToString(packed) + last4, nil
}

// Open decrypts a stored token back to the full card number. Any tampering
// with the encoded part or the clear suffix surfaces as an integrity error.
func (c *GCMCardCipher) Open(token string) (string, error) {
	if len(token) <= clearSuffix {
		return "", apperror.ErrIntegrity(fmt.Errorf("token too short"))
	}
	encoded := token[:len(token)-clearSuffix]
	last4 := token[len(token)-clearSuffix:]

	packed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperror.ErrIntegrity(fmt.Errorf("decoding token: %w", err))
	}
	if len(packed) < gcmNonceSize+gcmTagSize {
		return "", apperror.ErrIntegrity(fmt.Errorf("token payload truncated"))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("creating cipher: %w", err))
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("creating GCM: %w", err))
	}

	nonce := packed[:gcmNonceSize]
	tag := packed[gcmNonceSize : gcmNonceSize+gcmTagSize]
	ct := packed[gcmNonceSize+gcmTagSize:]

	sealed := make([]byte, 0, len(ct)+gcmTagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	body, err := aesGCM.Open(nil, nonce, sealed, []byte(last4))
	if err != nil {
		return "", apperror.ErrIntegrity(err)
	}

	return string(body) + last4, nil
}

// Mask renders a card number for display, keeping only the last 4 digits.
func (c *GCMCardCipher) Mask(cardNumber string) string {
	if len(cardNumber) < clearSuffix {
		return "••••"
	}
	return "•••• •••• •••• " + cardNumber[len(cardNumber)-clearSuffix:]
}

// deriveKey expands the hex master secret into a 32-byte subkey for the
// given purpose label.
func deriveKey(hexMasterKey, info string) ([]byte, error) {
	master, err := hex.DecodeString(hexMasterKey)
	if err != nil {
		return nil, fmt.Errorf("decoding master key: %w", err)
	}
	if len(master) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(master))
	}

	r := hkdf.New(sha256.New, master, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving %s key: %w", info, err)
	}
	return key, nil
}

// HMACLookupHasher implements ports.LookupHasher with HMAC-SHA256 over the
// full card number, keyed separately from the cipher.
type HMACLookupHasher struct {
	key []byte
}

// NewHMACLookupHasher derives the lookup key from the same master secret as
// the cipher, under a distinct label.
func NewHMACLookupHasher(hexMasterKey string) (*HMACLookupHasher, error) {
	key, err := deriveKey(hexMasterKey, "card-lookup")
	if err != nil {
		return nil, err
	}
	return &HMACLookupHasher{key: key}, nil
}

// Hash returns the lowercase hex HMAC of the card number.
func (h *HMACLookupHasher) Hash(cardNumber string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(cardNumber))
	return hex.EncodeToString(mac.Sum(nil))
}
