package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/response"
	"todo/internal/service"
	"todo/internal/validation"
)

// AuthService is the account flow surface the handlers depend on.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, userID, tokenID uuid.UUID) error
	VerifyEmail(ctx context.Context, in service.VerifyInput) (bool, error)
	ResendVerification(ctx context.Context, user *model.User) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in service.ResetInput) error
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required,filled,max=255" example:"Jane Doe"`
	Email                string `json:"email" binding:"required,email,max=255" example:"jane@example.com"`
	Password             string `json:"password" binding:"required,min=8,max=72" example:"secret123"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password" example:"secret123"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"jane@example.com"`
}

type ResetPasswordRequest struct {
	Token                string `json:"token" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterRequest  true  "Account"
// @Success      201  {object}  response.Envelope{data=UserResponse}
// @Failure      422  {object}  response.Envelope
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Created(c, newUserResponse(user), "User registered successfully. Please check your email for verification.")
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  response.Envelope{data=LoginResponse}
// @Failure      401  {object}  response.Envelope
// @Failure      403  {object}  response.Envelope
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.OK(c, LoginResponse{Token: result.Token, User: newUserResponse(result.User)}, "Login successful")
}

// Logout godoc
// @Summary      Revoke the current token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.auth.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentTokenID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, nil, "Logged out successfully")
}

// CurrentUser godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Envelope{data=UserResponse}
// @Failure      401  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/auth/user [get]
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	response.OK(c, newUserResponse(middleware.CurrentUser(c)), "User information retrieved successfully")
}

// VerifyEmail godoc
// @Summary      Verify an email address
// @Tags         email
// @Produce      json
// @Param        id         path   string  true  "User ID"
// @Param        hash       path   string  true  "Email hash"
// @Param        expires    query  int     true  "Link expiry (unix seconds)"
// @Param        signature  query  string  true  "Link signature"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Failure      403  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /api/email/verify/{id}/{hash} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	already, err := h.auth.VerifyEmail(c.Request.Context(), service.VerifyInput{
		UserID:    c.Param("id"),
		Hash:      c.Param("hash"),
		Path:      c.Request.URL.Path,
		Expires:   c.Query("expires"),
		Signature: c.Query("signature"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if already {
		response.OK(c, nil, "Email already verified")
		return
	}
	response.OK(c, nil, "Email verified successfully")
}

// ResendVerification godoc
// @Summary      Resend the verification link
// @Tags         email
// @Produce      json
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/email/resend [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	if err := h.auth.ResendVerification(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, nil, "Verification link sent to your email")
}

// ForgotPassword godoc
// @Summary      Request a password reset link
// @Description  Answers the same way whether or not the address is registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  ForgotPasswordRequest  true  "Email"
// @Success      200  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), normalizeEmail(req.Email)); err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, nil, "If an account exists for that email, a password reset link has been sent.")
}

// ResetPassword godoc
// @Summary      Reset a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  ResetPasswordRequest  true  "Reset"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	err := h.auth.ResetPassword(c.Request.Context(), service.ResetInput{
		Email:    normalizeEmail(req.Email),
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, nil, "Your password has been reset.")
}
