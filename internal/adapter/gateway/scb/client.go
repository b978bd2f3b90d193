package scb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civic-ledger/config"
	"civic-ledger/internal/core/ports"
	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the SCB partner API: OAuth credential issuance and QR
// code generation.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	billerID   string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.SCBConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		billerID:   cfg.BillerID,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// NewClientWithHTTP creates a client with a caller-supplied HTTP client.
func NewClientWithHTTP(cfg config.SCBConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	c := NewClient(cfg, log)
	c.httpClient = httpClient
	return c
}

type tokenRequest struct {
	ApplicationKey    string `json:"applicationKey"`
	ApplicationSecret string `json:"applicationSecret"`
}

type tokenResponse struct {
	Data struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int64  `json:"expiresIn"`
	} `json:"data"`
}

// FetchCredential requests a fresh OAuth credential from the gateway.
func (c *Client) FetchCredential(ctx context.Context) (*ports.GatewayCredential, error) {
	body := tokenRequest{
		ApplicationKey:    c.apiKey,
		ApplicationSecret: c.apiSecret,
	}

	var resp tokenResponse
	if err := c.post(ctx, "/v1/oauth/token", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.AccessToken == "" {
		return nil, apperror.ErrGateway(fmt.Errorf("token response missing access token"))
	}

	tokenType := resp.Data.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &ports.GatewayCredential{
		AccessToken: resp.Data.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   time.Now().Add(time.Duration(resp.Data.ExpiresIn) * time.Second),
	}, nil
}

type qrRequest struct {
	QRType string `json:"qrType"`
	PPType string `json:"ppType"`
	PPID   string `json:"ppId"`
	Amount string `json:"amount"`
	Ref1   string `json:"ref1"`
	Ref2   string `json:"ref2"`
	Ref3   string `json:"ref3"`
}

type qrResponse struct {
	Data struct {
		QRRawData string `json:"qrRawData"`
		QRImage   string `json:"qrImage"`
	} `json:"data"`
}

// CreateQr asks the gateway to generate a payment QR for the given amount
// and reference triple.
func (c *Client) CreateQr(ctx context.Context, accessToken string, req ports.QRCreation) (*ports.QRCode, error) {
	body := qrRequest{
		QRType: "PP",
		PPType: "BILLERID",
		PPID:   c.billerID,
		Amount: req.Amount,
		Ref1:   req.Ref1,
		Ref2:   req.Ref2,
		Ref3:   req.Ref3,
	}

	var resp qrResponse
	if err := c.post(ctx, "/v1/payment/qrcode/create", accessToken, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.QRRawData == "" {
		return nil, apperror.ErrGateway(fmt.Errorf("qr response missing raw data"))
	}

	return &ports.QRCode{
		RawData: resp.Data.QRRawData,
		Image:   resp.Data.QRImage,
	}, nil
}

// post sends a JSON request to the gateway and decodes the JSON response.
// Transport errors and non-2xx statuses map to gateway errors; response
// bodies are never echoed into user-visible messages.
func (c *Client) post(ctx context.Context, path, accessToken string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal gateway request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("create gateway request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("resourceOwnerId", c.apiKey)
	req.Header.Set("requestUId", uuid.NewString())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.ErrGateway(fmt.Errorf("gateway request %s: %w", path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.ErrGateway(fmt.Errorf("read gateway response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("gateway returned non-2xx status")
		return apperror.ErrGateway(fmt.Errorf("gateway %s returned status %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperror.ErrGateway(fmt.Errorf("decode gateway response: %w", err))
	}
	return nil
}
