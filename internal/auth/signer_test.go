package auth

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/apperror"
)

func TestURLSigner_SignAndVerify(t *testing.T) {
	s := NewURLSigner("app-key")
	link := s.Sign("http://localhost:8080", "/api/email/verify/1/abc", time.Hour)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/email/verify/1/abc", u.Path)

	q := u.Query()
	assert.NoError(t, s.Verify(u.Path, q.Get("expires"), q.Get("signature")))
}

func TestURLSigner_TamperedPath(t *testing.T) {
	s := NewURLSigner("app-key")
	u, _ := url.Parse(s.Sign("http://localhost", "/api/email/verify/1/abc", time.Hour))
	q := u.Query()

	assert.ErrorIs(t, s.Verify("/api/email/verify/2/abc", q.Get("expires"), q.Get("signature")), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(u.Path, q.Get("expires")+"0", q.Get("signature")), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(u.Path, q.Get("expires"), "zz"), ErrInvalidSignature)
}

func TestURLSigner_Expired(t *testing.T) {
	s := NewURLSigner("app-key")
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }
	u, _ := url.Parse(s.Sign("http://localhost", "/p", time.Minute))

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	q := u.Query()

	assert.ErrorIs(t, s.Verify("/p", q.Get("expires"), q.Get("signature")), ErrExpiredSignature)
}

func TestURLSigner_EmailHash(t *testing.T) {
	s := NewURLSigner("app-key")
	hash := s.EmailHash("john@example.com")

	assert.True(t, s.CheckEmailHash("john@example.com", hash))
	assert.False(t, s.CheckEmailHash("jane@example.com", hash))
	assert.False(t, s.CheckEmailHash("john@example.com", "not-hex"))
	assert.False(t, NewURLSigner("other-key").CheckEmailHash("john@example.com", hash))
}

func TestRandomTokenAndHash(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, _ := RandomToken(32)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.False(t, strings.EqualFold(HashToken(a), a))
	assert.True(t, TokenMatches(HashToken(a), a))
	assert.False(t, TokenMatches(HashToken(a), b))
	assert.False(t, TokenMatches("", a))
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("password123")
	require.NoError(t, err)

	assert.True(t, h.Check(hash, "password123"))
	assert.False(t, h.Check(hash, "password124"))
	assert.False(t, h.Check("", "password123"))

	_, err = h.Hash(strings.Repeat("a", 80))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
