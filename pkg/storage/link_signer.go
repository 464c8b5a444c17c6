package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidLink is returned for malformed or tampered tokens.
	ErrInvalidLink = errors.New("storage: invalid download link")
	// ErrExpiredLink is returned once a token is past its expiry.
	ErrExpiredLink = errors.New("storage: download link expired")
)

// Link is the payload carried by a signed download token.
type Link struct {
	Owner     string
	Path      string
	ExpiresAt time.Time
}

// LinkSigner issues and verifies HMAC-signed download tokens.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewLinkSigner builds a signer. A non-positive ttl falls back to 24 hours.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl}
}

// TTL reports how long issued links stay valid.
func (s *LinkSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns a token for owner and path, valid until now+ttl.
func (s *LinkSigner) Sign(owner, path string, now time.Time) (string, Link, error) {
	if owner == "" || path == "" {
		return "", Link{}, errors.New("storage: owner and path are required")
	}
	if len(s.secret) == 0 {
		return "", Link{}, errors.New("storage: signing secret missing")
	}
	link := Link{Owner: owner, Path: path, ExpiresAt: now.Add(s.ttl).UTC().Truncate(time.Second)}
	ownerPart := base64.RawURLEncoding.EncodeToString([]byte(owner))
	pathPart := base64.RawURLEncoding.EncodeToString([]byte(path))
	expPart := strconv.FormatInt(link.ExpiresAt.Unix(), 10)
	token := strings.Join([]string{ownerPart, expPart, pathPart, s.mac(ownerPart, expPart, pathPart)}, ".")
	return token, link, nil
}

// Verify checks signature and expiry against now.
func (s *LinkSigner) Verify(token string, now time.Time) (Link, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || len(s.secret) == 0 {
		return Link{}, ErrInvalidLink
	}
	ownerPart, expPart, pathPart, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.mac(ownerPart, expPart, pathPart)), []byte(signature)) {
		return Link{}, ErrInvalidLink
	}
	owner, err := base64.RawURLEncoding.DecodeString(ownerPart)
	if err != nil {
		return Link{}, ErrInvalidLink
	}
	path, err := base64.RawURLEncoding.DecodeString(pathPart)
	if err != nil {
		return Link{}, ErrInvalidLink
	}
	exp, err := strconv.ParseInt(expPart, 10, 64)
	if err != nil {
		return Link{}, ErrInvalidLink
	}
	link := Link{Owner: string(owner), Path: string(path), ExpiresAt: time.Unix(exp, 0).UTC()}
	if !now.Before(link.ExpiresAt) {
		return link, ErrExpiredLink
	}
	return link, nil
}

func (s *LinkSigner) mac(parts ...string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))
}
