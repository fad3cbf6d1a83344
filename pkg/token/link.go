package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Purposes bound into a signed link so a rating link cannot confirm hosting.
const (
	PurposeHostConfirmation = "host"
	PurposeRating           = "rate"
)

var (
	ErrMalformed = errors.New("invalid link format")
	ErrSignature = errors.New("invalid link signature")
	ErrExpired   = errors.New("link expired")
)

// LinkSigner wraps opaque tokens into expiring, tamper evident link values.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner constructs a signer with the provided secret and TTL.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns purpose.expiry.token.signature for the opaque token.
func (s *LinkSigner) Sign(purpose, opaque string) (string, time.Time, error) {
	if purpose == "" || opaque == "" {
		return "", time.Time{}, fmt.Errorf("purpose and token required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.signature(purpose, ts, opaque)
	return strings.Join([]string{purpose, ts, opaque, sig}, "."), expiresAt, nil
}

// Verify checks the signature, purpose and expiry and returns the opaque token.
func (s *LinkSigner) Verify(purpose, link string) (string, error) {
	parts := strings.Split(link, ".")
	if len(parts) != 4 || parts[2] == "" {
		return "", ErrMalformed
	}
	if parts[0] != purpose {
		return "", ErrSignature
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrMalformed
	}

	expected := s.signature(parts[0], parts[1], parts[2])
	if !hmac.Equal([]byte(expected), []byte(parts[3])) {
		return "", ErrSignature
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", ErrExpired
	}
	return parts[2], nil
}

func (s *LinkSigner) signature(purpose, ts, opaque string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(purpose + "|" + ts + "|" + opaque))
	return hex.EncodeToString(mac.Sum(nil))
}
