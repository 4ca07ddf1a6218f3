package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todo/internal/apperror"
	"todo/internal/model"
)

const (
	UserIDKey  = "userID"
	UserKey    = "user"
	TokenIDKey = "tokenID"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*model.User, uuid.UUID, error)
}

// JWTAuthMiddleware requires a valid, unrevoked bearer token and stores the
// user, its id and the token id on the context.
func JWTAuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, apperror.Unauthenticated(""))
			return
		}

		user, tokenID, err := authn.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(TokenIDKey, tokenID)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside protected routes.
func CurrentUser(c *gin.Context) *model.User {
	user, _ := c.Get(UserKey)
	u, _ := user.(*model.User)
	return u
}

func CurrentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(UserIDKey)
	userID, _ := id.(uuid.UUID)
	return userID
}

func CurrentTokenID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(TokenIDKey)
	tokenID, _ := id.(uuid.UUID)
	return tokenID
}

// abort records err for ErrorHandler and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
