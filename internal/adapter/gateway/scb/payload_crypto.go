package scb

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"civic-ledger/pkg/apperror"
)

// PayloadCrypto handles the gateway's RSA-OAEP encrypted-payload exchanges:
// requests are encrypted with the gateway's public key, responses decrypted
// with our private key. It is independent of the card-number cipher.
type PayloadCrypto struct {
	gatewayPub *rsa.PublicKey
	ourPriv    *rsa.PrivateKey
}

// NewPayloadCrypto parses the PEM key material from configuration. Either
// key may be empty when the corresponding direction is unused.
func NewPayloadCrypto(gatewayPublicPEM, ourPrivatePEM string) (*PayloadCrypto, error) {
	pc := &PayloadCrypto{}

	if gatewayPublicPEM != "" {
		pub, err := parsePublicKey(gatewayPublicPEM)
		if err != nil {
			return nil, err
		}
		pc.gatewayPub = pub
	}
	if ourPrivatePEM != "" {
		priv, err := parsePrivateKey(ourPrivatePEM)
		if err != nil {
			return nil, err
		}
		pc.ourPriv = priv
	}
	return pc, nil
}

// EncryptForGateway encrypts an outbound payload under the gateway's public
// key, returning base64.
func (p *PayloadCrypto) EncryptForGateway(plaintext []byte) (string, error) {
	if p.gatewayPub == nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("gateway public key not configured"))
	}
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, p.gatewayPub, plaintext, nil)
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("rsa encrypt: %w", err))
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptFromGateway decrypts an inbound base64 payload with our private
// key.
func (p *PayloadCrypto) DecryptFromGateway(encoded string) ([]byte, error) {
	if p.ourPriv == nil {
		return nil, apperror.ErrCryptoFailure(fmt.Errorf("private key not configured"))
	}
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperror.ErrIntegrity(fmt.Errorf("decode payload: %w", err))
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, p.ourPriv, ct, nil)
	if err != nil {
		return nil, apperror.ErrIntegrity(err)
	}
	return pt, nil
}

func parsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in public key")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaKey, nil
}

func parsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return rsaKey, nil
}
