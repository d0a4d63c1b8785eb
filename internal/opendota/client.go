package opendota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.opendota.com/api"

type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindStatus  ErrorKind = "status"
	KindDecode  ErrorKind = "decode"
)

// FetchError is the failure side of every Client call.
type FetchError struct {
	Kind   ErrorKind
	Path   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("opendota %s: status=%d", e.Path, e.Status)
	default:
		return fmt.Sprintf("opendota %s: %s: %v", e.Path, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable is true for transport failures, 429 and 5xx.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindStatus:
		return e.Status == fasthttp.StatusTooManyRequests || e.Status >= 500
	default:
		return false
	}
}

// KindOf returns the FetchError kind of err, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

type Client struct {
	baseURL string
	apiKey  string
	http    *fasthttp.Client
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// WithAPIKey sends api_key on every request (raises the provider's rate limit).
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithRetry sets the attempt count for retryable failures. 1 disables retries.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 32},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecentMatches lists the player's most recent matches, newest first as the provider orders them.
func (c *Client) RecentMatches(ctx context.Context, id domain.AccountID, limit int) ([]MatchSummary, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []MatchSummary
	if err := c.getJSON(ctx, "/players/"+id.String()+"/recentMatches", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Match fetches the full detail record of a single match.
func (c *Client) Match(ctx context.Context, id domain.MatchID) (*MatchDetail, error) {
	path := "/matches/" + id.String()
	var out MatchDetail
	if err := c.getJSON(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	if out.MatchID == 0 {
		return nil, &FetchError{Kind: KindDecode, Path: path, Err: errors.New("missing match_id")}
	}
	return &out, nil
}

func (c *Client) Heroes(ctx context.Context) (map[string]HeroConstant, error) {
	var out map[string]HeroConstant
	if err := c.getJSON(ctx, "/constants/heroes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Items(ctx context.Context) (map[string]ItemConstant, error) {
	var out map[string]ItemConstant
	if err := c.getJSON(ctx, "/constants/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("api_key", c.apiKey)
	}
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(uri)
	req.Header.Set("Accept", "application/json")

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr *FetchError
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &FetchError{Kind: KindNetwork, Path: path, Err: err}
		}
		start := time.Now()
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = &FetchError{Kind: KindNetwork, Path: path, Err: err}
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = &FetchError{Kind: KindStatus, Path: path, Status: status, Err: fmt.Errorf("body=%s", truncate(string(resp.Body()), 256))}
		} else {
			c.logger.Debug("opendota_request", zap.String("path", path), zap.Int("status", status), zap.Duration("elapsed", time.Since(start)))
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return &FetchError{Kind: KindDecode, Path: path, Status: status, Err: err}
			}
			return nil
		}

		if attempt == attempts || !lastErr.Retryable() {
			break
		}
		c.logger.Debug("opendota_retry", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(lastErr))
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 200 * time.Millisecond
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
