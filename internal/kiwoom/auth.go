package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"swingscan-go/internal/config"
)

const (
	expiryLayout = "20060102150405"
	// Tokens are refreshed one minute before their reported expiry.
	expiryMargin = time.Minute
)

// Credential is the cached bearer token. A single mutable slot owned by the
// TokenManager.
type Credential struct {
	AccessToken string
	TokenType   string
	ExpiresDt   string // YYYYMMDDHHMMSS, empty means never-expiring
}

func (c Credential) expired(now time.Time) bool {
	if c.ExpiresDt == "" {
		return false
	}
	expires, err := time.ParseInLocation(expiryLayout, c.ExpiresDt, time.Local)
	if err != nil {
		return false
	}
	return !now.Before(expires.Add(-expiryMargin))
}

// TokenManager owns the bearer token lifecycle against the oauth2 endpoints.
type TokenManager struct {
	creds  *config.Credentials
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	cached *Credential
}

// NewTokenManager builds a manager with an empty credential slot.
func NewTokenManager(creds *config.Credentials, log zerolog.Logger) *TokenManager {
	return &TokenManager{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

// AuthHeader returns headers bearing a currently-valid token, the per-call
// operation id, and content-type metadata. The cached credential is refreshed
// on first use and whenever it is inside the expiry margin.
func (m *TokenManager) AuthHeader(ctx context.Context, apiID string) (http.Header, error) {
	token, err := m.token(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("api-id", apiID)
	header.Set("authorization", "Bearer "+token)
	header.Set("content-type", "application/json;charset=UTF-8")
	return header, nil
}

func (m *TokenManager) token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil || m.cached.expired(m.now()) {
		if err := m.refresh(ctx); err != nil {
			return "", err
		}
	}
	return m.cached.AccessToken, nil
}

func (m *TokenManager) refresh(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     m.creds.AppKey,
		"secretkey":  m.creds.AppSecret,
	})
	if err != nil {
		return fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.creds.BaseURL+"/oauth2/token", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("content-type", "application/json;charset=UTF-8")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	var decoded struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresDt   string `json:"expires_dt"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}

	token := decoded.Token
	if token == "" {
		token = decoded.AccessToken
	}
	if token == "" {
		return &TokenError{Body: string(body)}
	}

	tokenType := decoded.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	m.cached = &Credential{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresDt:   decoded.ExpiresDt,
	}
	m.log.Debug().Str("expires_dt", decoded.ExpiresDt).Msg("access token refreshed")
	return nil
}

// Revoke best-effort invalidates the cached credential upstream and always
// clears the slot, even when the revoke call fails. Shutdown must never block
// on a network error.
func (m *TokenManager) Revoke(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached == nil {
		return
	}
	defer func() { m.cached = nil }()

	payload, err := json.Marshal(map[string]string{
		"appkey":    m.creds.AppKey,
		"secretkey": m.creds.AppSecret,
		"token":     m.cached.AccessToken,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.creds.BaseURL+"/oauth2/revoke", bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("api-id", "au10002")
	req.Header.Set("authorization", "Bearer "+m.cached.AccessToken)
	req.Header.Set("content-type", "application/json;charset=UTF-8")

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warn().Err(err).Msg("token revoke failed")
		return
	}
	resp.Body.Close()
}
