// Package usage fetches quota utilization for claude.ai accounts, either
// with a web session cookie or with an OAuth bearer token.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/j-veylop/claude-tracker/internal/failure"
	"github.com/j-veylop/claude-tracker/internal/logger"
	"github.com/j-veylop/claude-tracker/internal/models"
)

const (
	defaultWebBaseURL = "https://claude.ai/api"
	defaultAPIBaseURL = "https://api.anthropic.com/api/oauth"

	// RequestTimeout bounds every upstream call.
	RequestTimeout = 10 * time.Second

	maxBodySize = 1 << 20

	oauthBeta      = "oauth-2025-04-20"
	oauthUserAgent = "claude-code/2.0.32"
	webUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.4 Safari/605.1.15"
)

// Config holds the upstream endpoints.
type Config struct {
	WebBaseURL string
	APIBaseURL string
	Timeout    time.Duration
}

// DefaultConfig returns the production endpoints.
func DefaultConfig() Config {
	return Config{
		WebBaseURL: defaultWebBaseURL,
		APIBaseURL: defaultAPIBaseURL,
		Timeout:    RequestTimeout,
	}
}

// NewHTTPClient returns the shared HTTP client used for all upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client performs authenticated usage and profile requests.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient returns a Client using httpClient for transport. A nil
// httpClient gets a fresh client with the configured timeout.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = defaultWebBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = RequestTimeout
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	return &Client{http: httpClient, cfg: cfg}
}

// Profile identifies the owner of an OAuth token.
type Profile struct {
	Email string
	OrgID string
}

type profileResponse struct {
	Account struct {
		Email string `json:"email"`
	} `json:"account"`
	Organization struct {
		UUID string `json:"uuid"`
	} `json:"organization"`
}

// FetchSessionUsage fetches usage for orgID with a claude.ai session key.
func (c *Client) FetchSessionUsage(ctx context.Context, sessionKey, orgID string) (*models.UsageSnapshot, error) {
	const op = "fetch session usage"

	endpoint := fmt.Sprintf("%s/organizations/%s/usage", c.cfg.WebBaseURL, url.PathEscape(orgID))
	headers := map[string]string{
		"Cookie":     "sessionKey=" + sessionKey,
		"Accept":     "application/json",
		"User-Agent": webUserAgent,
		"Referer":    "https://claude.ai/",
	}

	body, err := c.get(ctx, op, endpoint, headers)
	if err != nil {
		return nil, err
	}
	return parseUsage(op, body)
}

// FetchOAuthUsage fetches usage for the owner of accessToken.
func (c *Client) FetchOAuthUsage(ctx context.Context, accessToken string) (*models.UsageSnapshot, error) {
	const op = "fetch oauth usage"

	body, err := c.get(ctx, op, c.cfg.APIBaseURL+"/usage", oauthHeaders(accessToken))
	if err != nil {
		return nil, err
	}
	return parseUsage(op, body)
}

// FetchProfile returns the email and organization for accessToken. It also
// serves as a liveness check for the token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	const op = "fetch profile"

	body, err := c.get(ctx, op, c.cfg.APIBaseURL+"/profile", oauthHeaders(accessToken))
	if err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, failure.New(failure.KindOther, op, "invalid profile response: %v", err)
	}
	if resp.Organization.UUID == "" {
		return nil, failure.New(failure.KindOther, op, "profile response has no organization")
	}

	email := resp.Account.Email
	if email == "" {
		email = "unknown"
	}
	return &Profile{Email: email, OrgID: resp.Organization.UUID}, nil
}

func oauthHeaders(accessToken string) map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + accessToken,
		"Accept":         "application/json",
		"anthropic-beta": oauthBeta,
		"User-Agent":     oauthUserAgent,
	}
}

// get performs a GET and returns the body of a 2xx response. Every failure
// is returned as a classified *failure.Error.
func (c *Client) get(ctx context.Context, op, endpoint string, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, failure.New(failure.KindOther, op, "failed to create request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransport(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(op, resp.StatusCode, body)
	}
	return body, nil
}
