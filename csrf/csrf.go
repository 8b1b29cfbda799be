// Package csrf issues and verifies per-session anti-forgery tokens.
//
// Tokens are HMAC-SHA256 signed over a small JSON claim set binding the
// token to a session ID. Expiry is checked twice: once against the exp
// claim and once against the issue timestamp with a fixed one-hour cap,
// so a token with a forged long exp still dies an hour after issue.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenTTL is both the exp horizon of issued tokens and the hard cap on
// token age during verification.
const TokenTTL = time.Hour

const tokenKind = "csrf"

type claims struct {
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"issued_at"` // unix milliseconds
	ExpiresAt int64  `json:"exp"`       // unix milliseconds
	Kind      string `json:"kind"`
}

// Signer issues and verifies CSRF tokens with a shared HMAC secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer keyed with secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Issue returns a token bound to sessionID, valid for TokenTTL.
func (s *Signer) Issue(sessionID string) (string, error) {
	now := s.now()
	c := claims{
		SessionID: sessionID,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(TokenTTL).UnixMilli(),
		Kind:      tokenKind,
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("csrf: marshal claims: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.sign(body), nil
}

// Verify reports whether token is authentic, unexpired, of the right kind,
// and bound to sessionID. It never returns details about why verification
// failed; callers surface a single generic error.
func (s *Signer) Verify(token, sessionID string) bool {
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(body))) {
		return false
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return false
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return false
	}

	if c.Kind != tokenKind || c.SessionID != sessionID {
		return false
	}
	now := s.now().UnixMilli()
	if now > c.ExpiresAt {
		return false
	}
	// Independent age check: exp is attacker-visible data, the issue
	// timestamp caps lifetime regardless of what exp claims.
	if now-c.IssuedAt > TokenTTL.Milliseconds() {
		return false
	}
	return true
}

func (s *Signer) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
