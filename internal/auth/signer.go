package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpiredSignature = errors.New("expired signature")
)

// URLSigner produces and checks temporary signed links and the keyed email
// digest embedded in verification links.
type URLSigner struct {
	key []byte
	now func() time.Time
}

func NewURLSigner(appKey string) *URLSigner {
	return &URLSigner{key: []byte(appKey), now: time.Now}
}

func (s *URLSigner) mac(parts ...string) []byte {
	m := hmac.New(sha256.New, s.key)
	for _, p := range parts {
		m.Write([]byte(p))
		m.Write([]byte{0})
	}
	return m.Sum(nil)
}

// EmailHash is the digest expected in /email/verify/{id}/{hash}.
func (s *URLSigner) EmailHash(email string) string {
	return hex.EncodeToString(s.mac("email", email))
}

// CheckEmailHash compares in constant time.
func (s *URLSigner) CheckEmailHash(email, hash string) bool {
	got, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	return hmac.Equal(got, s.mac("email", email))
}

// Sign appends expires and signature query parameters to baseURL+path.
// Only path and expiry are covered, so the host may differ behind proxies.
func (s *URLSigner) Sign(baseURL, path string, ttl time.Duration) string {
	expires := strconv.FormatInt(s.now().Add(ttl).Unix(), 10)
	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", hex.EncodeToString(s.mac("url", path, expires)))
	return baseURL + path + "?" + q.Encode()
}

// Verify checks the signature of path with the given expires and signature
// query values.
func (s *URLSigner) Verify(path, expires, signature string) error {
	got, err := hex.DecodeString(signature)
	if err != nil || expires == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, s.mac("url", path, expires)) {
		return ErrInvalidSignature
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if s.now().Unix() > exp {
		return ErrExpiredSignature
	}
	return nil
}

// RandomToken returns n random bytes hex-encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the at-rest form of a reset token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches reports whether token hashes to hash, in constant time.
func TokenMatches(hash, token string) bool {
	return hmac.Equal([]byte(hash), []byte(HashToken(token)))
}
