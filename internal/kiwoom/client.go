// Package kiwoom implements the authenticated, rate-limited REST client for
// the Kiwoom brokerage API: token lifecycle, request pacing with retry, and
// the typed endpoint facade.
package kiwoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"swingscan-go/internal/config"
	"swingscan-go/internal/metrics"
)

const (
	// The upstream enforces a global per-credential rate limit, so a single
	// shared pacing clock spaces all request starts.
	minRequestInterval = 350 * time.Millisecond
	defaultRetryBudget = 3
)

// Response is the decoded envelope every endpoint returns. The payload layout
// varies per operation; only return_code/return_msg are fixed.
type Response map[string]any

// ReturnCode reads the top-level return code; absent means success (0).
func (r Response) ReturnCode() int {
	switch v := r["return_code"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// ReturnMsg reads the top-level server message, if any.
func (r Response) ReturnMsg() string {
	if msg, ok := r["return_msg"].(string); ok {
		return msg
	}
	return ""
}

// Err converts a non-zero return code into an *APIError, distinct from
// transport-level failures.
func (r Response) Err() error {
	if code := r.ReturnCode(); code != 0 {
		msg := r.ReturnMsg()
		if msg == "" {
			msg = "API request failed"
		}
		return &APIError{Code: code, Msg: msg}
	}
	return nil
}

// RequestOption tweaks a single outbound request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	contYn  string
	nextKey string
}

// WithContinuation passes upstream pagination headers through opaquely.
func WithContinuation(contYn, nextKey string) RequestOption {
	return func(o *requestOptions) {
		o.contYn = contYn
		o.nextKey = nextKey
	}
}

// Client throttles, retries, and dispatches requests against the brokerage
// endpoints. Safe for concurrent use; the pacing clock and token slot are
// mutex-guarded.
type Client struct {
	creds       *config.Credentials
	tokens      *TokenManager
	httpc       *http.Client
	log         zerolog.Logger
	retryBudget int

	mu          sync.Mutex
	lastRequest time.Time

	// Overridable in tests so pacing and backoff are observable.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient builds a client with its own token manager.
func NewClient(creds *config.Credentials, log zerolog.Logger) *Client {
	return &Client{
		creds:       creds,
		tokens:      NewTokenManager(creds, log),
		httpc:       &http.Client{Timeout: 20 * time.Second},
		log:         log,
		retryBudget: defaultRetryBudget,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// pace blocks until at least minRequestInterval has elapsed since the last
// request start, then claims the clock.
func (c *Client) pace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := minRequestInterval - c.now().Sub(c.lastRequest); wait > 0 {
		c.sleep(wait)
	}
	c.lastRequest = c.now()
}

func backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(attempt+1) * 2 * time.Second
}

// request runs one paced, authenticated POST with the retry policy:
// 429 backs off and retries while budget remains; other error statuses abort
// immediately; an exhausted budget yields a synthetic failure payload (never
// an error) so callers always get a return-code to inspect.
func (c *Client) request(ctx context.Context, apiID, path string, body any, opts ...RequestOption) (Response, error) {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	url := c.creds.BaseURL + path

	for attempt := 0; attempt < c.retryBudget; attempt++ {
		c.pace()

		header, err := c.tokens.AuthHeader(ctx, apiID)
		if err != nil {
			return nil, err
		}
		if options.contYn != "" {
			header.Set("cont-yn", options.contYn)
		}
		if options.nextKey != "" {
			header.Set("next-key", options.nextKey)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header = header

		metrics.APIRequestsTotal.WithLabelValues(apiID).Inc()
		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			resp.Body.Close()
			metrics.RateLimitHitsTotal.Inc()
			if attempt < c.retryBudget-1 {
				metrics.APIRetriesTotal.WithLabelValues(apiID).Inc()
				wait := backoff(attempt, retryAfter)
				c.log.Warn().Str("api_id", apiID).Dur("wait", wait).Msg("rate limited, backing off")
				c.sleep(wait)
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &HTTPStatusError{APIID: apiID, StatusCode: resp.StatusCode}
		}

		var decoded Response
		err = json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return decoded, nil
	}

	c.log.Error().Str("api_id", apiID).Int("attempts", c.retryBudget).Msg("retry budget exhausted")
	return Response{"return_code": 1, "return_msg": "request failed"}, nil
}

// stexTp selects the exchange-type code for the configured environment.
func (c *Client) stexTp() string {
	if c.creds.IsPaper {
		return "1"
	}
	return "3"
}

// VolumeRank fetches the daily volume leaders (ka10030).
func (c *Client) VolumeRank(ctx context.Context) (Response, error) {
	return c.request(ctx, "ka10030", "/api/dostk/rkinfo", map[string]string{
		"mrkt_tp":        "000",
		"sort_tp":        "1",
		"mang_stk_incls": "0",
		"crd_tp":         "0",
		"trde_qty_tp":    "0",
		"pric_tp":        "0",
		"trde_prica_tp":  "0",
		"mrkt_open_tp":   "0",
		"stex_tp":        c.stexTp(),
	})
}

// ChangeRateRank fetches the day-over-day change-rate leaders (ka10027).
func (c *Client) ChangeRateRank(ctx context.Context) (Response, error) {
	return c.request(ctx, "ka10027", "/api/dostk/rkinfo", map[string]string{
		"mrkt_tp":        "000",
		"sort_tp":        "1",
		"trde_qty_cnd":   "0000",
		"stk_cnd":        "0",
		"crd_cnd":        "0",
		"updown_incls":   "1",
		"pric_cnd":       "0",
		"trde_prica_cnd": "0",
		"stex_tp":        c.stexTp(),
	})
}

// ConditionList fetches the saved condition-search expressions (ka10171).
// The path is a placeholder REST call, not a socket protocol.
func (c *Client) ConditionList(ctx context.Context) (Response, error) {
	apiID := envOr("KIWOOM_CONDITION_LIST_API_ID", "ka10171")
	path := envOr("KIWOOM_CONDITION_PATH", "/api/dostk/websocket")
	return c.request(ctx, apiID, path, map[string]string{})
}

// SearchByCondition runs one saved condition expression (ka10172).
func (c *Client) SearchByCondition(ctx context.Context, conditionIdx string) (Response, error) {
	apiID := envOr("KIWOOM_CONDITION_SEARCH_API_ID", "ka10172")
	path := envOr("KIWOOM_CONDITION_PATH", "/api/dostk/websocket")
	return c.request(ctx, apiID, path, map[string]string{
		"seq":         conditionIdx,
		"search_type": "0",
	})
}

// StockChart fetches the minute-bar chart for one instrument (ka10080).
func (c *Client) StockChart(ctx context.Context, stockCode, tickUnit string) (Response, error) {
	return c.request(ctx, "ka10080", "/api/dostk/chart", map[string]string{
		"stk_cd":       stockCode,
		"tic_scope":    tickUnit,
		"upd_stkpc_tp": "1",
	})
}

// Close revokes the cached token. Best-effort.
func (c *Client) Close(ctx context.Context) {
	c.tokens.Revoke(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
