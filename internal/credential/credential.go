// Package credential encodes and decodes the secrets stored per account and
// the credential blob owned by Claude Code.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// RefreshBuffer is how long before expiry a credential counts as stale.
const RefreshBuffer = 15 * time.Minute

// ErrNoAccessToken is returned when a blob parses but has no access token.
var ErrNoAccessToken = errors.New("credential has no access token")

// OAuth is an OAuth credential as stored for an account.
type OAuth struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is epoch milliseconds. Zero means the expiry is unknown.
	ExpiresAt int64 `json:"expires_at"`
}

// ExpiryKnown reports whether the credential carries an expiry.
func (c OAuth) ExpiryKnown() bool {
	return c.ExpiresAt > 0
}

// Expiry returns the expiry time and whether it is known.
func (c OAuth) Expiry() (time.Time, bool) {
	if !c.ExpiryKnown() {
		return time.Time{}, false
	}
	return time.UnixMilli(c.ExpiresAt), true
}

// NeedsRefresh reports whether now + RefreshBuffer has reached the expiry.
// A credential with unknown expiry always needs refresh.
func (c OAuth) NeedsRefresh(now time.Time) bool {
	exp, ok := c.Expiry()
	if !ok {
		return true
	}
	return !now.Add(RefreshBuffer).Before(exp)
}

// Encode returns the stored JSON form of the credential.
func (c OAuth) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode credential: %w", err)
	}
	return string(b), nil
}

// rawCredential accepts both naming conventions seen in the wild.
type rawCredential struct {
	AccessToken       string      `json:"accessToken"`
	RefreshToken      string      `json:"refreshToken"`
	ExpiresAt         json.Number `json:"expiresAt"`
	AccessTokenSnake  string      `json:"access_token"`
	RefreshTokenSnake string      `json:"refresh_token"`
	ExpiresAtSnake    json.Number `json:"expires_at"`
}

func (r rawCredential) toOAuth() OAuth {
	c := OAuth{
		AccessToken:  firstNonEmpty(r.AccessToken, r.AccessTokenSnake),
		RefreshToken: firstNonEmpty(r.RefreshToken, r.RefreshTokenSnake),
	}
	exp := r.ExpiresAt
	if exp == "" {
		exp = r.ExpiresAtSnake
	}
	c.ExpiresAt = parseMillis(exp)
	return c
}

type externalEnvelope struct {
	ClaudeAiOauth *rawCredential `json:"claudeAiOauth"`
}

// Parse decodes a credential blob in any accepted shape: camelCase or
// snake_case fields, optionally nested under "claudeAiOauth", with the
// expiry as an integer or float.
func Parse(data []byte) (OAuth, error) {
	var env externalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return OAuth{}, fmt.Errorf("failed to parse credential: %w", err)
	}

	raw := env.ClaudeAiOauth
	if raw == nil {
		raw = &rawCredential{}
		if err := json.Unmarshal(data, raw); err != nil {
			return OAuth{}, fmt.Errorf("failed to parse credential: %w", err)
		}
	}

	c := raw.toOAuth()
	if c.AccessToken == "" {
		return OAuth{}, ErrNoAccessToken
	}
	return c, nil
}

// external is the shape Claude Code reads back.
type external struct {
	ClaudeAiOauth externalOAuth `json:"claudeAiOauth"`
}

type externalOAuth struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// EncodeExternal returns the blob Claude Code expects in its own store.
func EncodeExternal(c OAuth) ([]byte, error) {
	b, err := json.Marshal(external{ClaudeAiOauth: externalOAuth{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode external credential: %w", err)
	}
	return b, nil
}

// DecodeStored decodes an account secret. Legacy secrets holding only a
// bare access token decode to a credential with that token, no refresh
// token and unknown expiry; ok is false in that case.
func DecodeStored(secret string) (c OAuth, ok bool) {
	trimmed := strings.TrimSpace(secret)
	if strings.HasPrefix(trimmed, "{") {
		if parsed, err := Parse([]byte(trimmed)); err == nil {
			return parsed, true
		}
	}
	return OAuth{AccessToken: trimmed}, false
}

// NormalizeStoredToken returns the access token held in a stored secret,
// whether it is a JSON credential or a legacy plain token.
func NormalizeStoredToken(raw string) string {
	c, _ := DecodeStored(raw)
	return c.AccessToken
}

func parseMillis(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return max(i, 0)
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || f <= 0 || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
