package ports

import (
	"context"
	"time"
)

// GatewayCredential is an access credential issued by the banking gateway.
// ExpiresAt is absolute; callers should stop using the credential a little
// before it to absorb clock skew.
type GatewayCredential struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// QRCreation carries the gateway inputs for generating a payment QR.
type QRCreation struct {
	Amount string
	Ref1   string
	Ref2   string
	Ref3   string
}

// QRCode is the gateway's rendered QR payload.
type QRCode struct {
	RawData string
	Image   string
}

// GatewayClient talks to the external banking gateway.
type GatewayClient interface {
	FetchCredential(ctx context.Context) (*GatewayCredential, error)
	CreateQr(ctx context.Context, accessToken string, req QRCreation) (*QRCode, error)
}

// CredentialSource yields a usable gateway credential, refreshing behind
// the scenes when the cached one is missing or expired.
type CredentialSource interface {
	Credential(ctx context.Context) (*GatewayCredential, error)
}

// PayloadDecryptor opens encrypted gateway callback payloads.
type PayloadDecryptor interface {
	DecryptFromGateway(encoded string) ([]byte, error)
}

// SettlementCache is the fast-path duplicate filter for settlement
// webhooks. The database row state remains the source of truth; a cache
// miss only means the slow path decides.
type SettlementCache interface {
	Seen(ctx context.Context, ref1 string) (bool, error)
	MarkSeen(ctx context.Context, ref1 string, ttl time.Duration) error
}
