package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// Claims binds a bearer token to a user and to the access-token row that
// keeps it alive (the jti).
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer signs HS256 tokens. A zero ttl issues tokens without exp.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// ExpiresAt is the expiry a token issued now would carry, nil when tokens
// do not expire.
func (i *TokenIssuer) ExpiresAt() *time.Time {
	if i.ttl <= 0 {
		return nil
	}
	exp := i.now().Add(i.ttl)
	return &exp
}

func (i *TokenIssuer) GenerateToken(userID, tokenID uuid.UUID, expiresAt *time.Time) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       tokenID.String(),
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if expiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*expiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ParseToken validates signature and expiry and returns the user and token ids.
func (i *TokenIssuer) ParseToken(tokenStr string) (userID, tokenID uuid.UUID, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}

	userID, err = uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidClaims
	}
	tokenID, err = uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidClaims
	}
	return userID, tokenID, nil
}
