// Package service holds the account flows that span several stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"todo/internal/apperror"
	"todo/internal/auth"
	"todo/internal/events"
	"todo/internal/mail"
	"todo/internal/model"
	"todo/internal/repository"
)

const (
	VerificationLinkTTL = 60 * time.Minute
	ResetTokenTTL       = 60 * time.Minute
	// ResetThrottle is the minimum gap between two reset mails for one address.
	ResetThrottle = 60 * time.Second

	accessTokenName = "auth_token"
)

var (
	ErrInvalidCredentials = apperror.Unauthenticated("Invalid credentials")
	ErrEmailNotVerified   = apperror.Forbidden("Email not verified. Please check your email for verification link.")
	ErrInvalidSignature   = apperror.Forbidden("Invalid signature.")
	ErrInvalidVerifyLink  = apperror.BadRequest("Invalid verification link")
	ErrAlreadyVerified    = apperror.BadRequest("Email already verified")
	ErrInvalidResetToken  = apperror.BadRequest("This password reset token is invalid.")
	errEmailTaken         = apperror.InvalidField("email", "The email has already been taken.")
)

type TokenStore interface {
	Create(ctx context.Context, token *model.AccessToken) error
	Find(ctx context.Context, userID, tokenID uuid.UUID) (*model.AccessToken, error)
	Touch(ctx context.Context, tokenID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID, tokenID uuid.UUID) error
}

type ResetStore interface {
	Upsert(ctx context.Context, reset *model.PasswordReset) error
	Find(ctx context.Context, email string) (*model.PasswordReset, error)
	Consume(ctx context.Context, email, tokenHash string, notBefore time.Time, userID uuid.UUID, hashedPassword, rememberToken string) error
}

type Dependencies struct {
	Users     repository.UserRepositoryInterface
	Tokens    TokenStore
	Resets    ResetStore
	Hasher    *auth.PasswordHasher
	Issuer    *auth.TokenIssuer
	Signer    *auth.URLSigner
	Mailer    mail.Mailer
	Publisher events.Publisher
	Logger    *zap.Logger
	// AppURL is the public base of this API, FrontendURL the SPA that
	// hosts the reset-password form.
	AppURL      string
	FrontendURL string
	// OnEvent, when set, is told about auth outcomes (for metrics).
	OnEvent func(event string)
}

type AuthService struct {
	Dependencies
	now func() time.Time
}

func NewAuthService(deps Dependencies) *AuthService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	return &AuthService{Dependencies: deps, now: time.Now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  *model.User
}

// Register creates an unverified account and mails the verification link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	existing, err := s.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, errEmailTaken
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: in.Name, Email: in.Email, HashedPassword: hash}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, events.SubjectUserRegistered, user)
	s.sendVerification(ctx, user)
	s.event("register")
	return user, nil
}

// Login checks credentials and issues a bearer token backed by a stored
// access-token row.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		s.Hasher.Check("", password)
		s.event("login_failed")
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Check(user.HashedPassword, password) {
		s.event("login_failed")
		return nil, ErrInvalidCredentials
	}
	if !user.HasVerifiedEmail() {
		s.event("login_unverified")
		return nil, ErrEmailNotVerified
	}

	row := &model.AccessToken{UserID: user.ID, Name: accessTokenName, ExpiresAt: s.Issuer.ExpiresAt()}
	if err := s.Tokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	token, err := s.Issuer.GenerateToken(user.ID, row.ID, row.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.event("login")
	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its user and token id. Revoked,
// expired and malformed tokens are all reported as unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*model.User, uuid.UUID, error) {
	userID, tokenID, err := s.Issuer.ParseToken(bearer)
	if err != nil {
		return nil, uuid.Nil, apperror.Unauthenticated("")
	}

	row, err := s.Tokens.Find(ctx, userID, tokenID)
	if errors.Is(err, repository.ErrAccessTokenNotFound) {
		return nil, uuid.Nil, apperror.Unauthenticated("")
	}
	if err != nil {
		return nil, uuid.Nil, err
	}
	now := s.now().UTC()
	if row.Expired(now) {
		return nil, uuid.Nil, apperror.Unauthenticated("")
	}

	user, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, uuid.Nil, apperror.Unauthenticated("")
	}
	if err != nil {
		return nil, uuid.Nil, err
	}

	if err := s.Tokens.Touch(ctx, tokenID, now); err != nil {
		s.Logger.Warn("failed to touch access token", zap.Error(err))
	}
	return user, tokenID, nil
}

// Logout revokes only the presented token.
func (s *AuthService) Logout(ctx context.Context, userID, tokenID uuid.UUID) error {
	if err := s.Tokens.Delete(ctx, userID, tokenID); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	s.event("logout")
	return nil
}

type VerifyInput struct {
	UserID    string
	Hash      string
	Path      string
	Expires   string
	Signature string
}

// VerifyEmail consumes a signed verification link. It reports true when the
// address had already been verified.
func (s *AuthService) VerifyEmail(ctx context.Context, in VerifyInput) (bool, error) {
	if err := s.Signer.Verify(in.Path, in.Expires, in.Signature); err != nil {
		return false, ErrInvalidSignature
	}

	id, err := uuid.Parse(in.UserID)
	if err != nil {
		return false, repository.ErrUserNotFound
	}
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !s.Signer.CheckEmailHash(user.Email, in.Hash) {
		return false, ErrInvalidVerifyLink
	}
	if user.HasVerifiedEmail() {
		return true, nil
	}

	changed, err := s.Users.MarkEmailVerified(ctx, user.ID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}
	if !changed {
		return true, nil
	}
	s.publish(ctx, events.SubjectUserVerified, user)
	s.event("verified")
	return false, nil
}

// ResendVerification mails a fresh link to an unverified user.
func (s *AuthService) ResendVerification(ctx context.Context, user *model.User) error {
	if user.HasVerifiedEmail() {
		return ErrAlreadyVerified
	}
	return s.deliverVerification(ctx, user)
}

// ForgotPassword issues a reset token when the address belongs to a user.
// It never reveals whether it did.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		return nil
	}

	now := s.now().UTC()
	existing, err := s.Resets.Find(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil && now.Sub(existing.CreatedAt) < ResetThrottle {
		s.Logger.Info("password reset throttled", zap.String("user_id", user.ID.String()))
		return nil
	}

	token, err := auth.RandomToken(32)
	if err != nil {
		return err
	}
	reset := &model.PasswordReset{Email: user.Email, TokenHash: auth.HashToken(token), CreatedAt: now}
	if err := s.Resets.Upsert(ctx, reset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg, err := mail.ResetPasswordMessage(user.Email, user.Name, s.resetURL(token, user.Email), "60 minutes")
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		s.Logger.Error("failed to send reset mail", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	s.event("password_reset_requested")
	return nil
}

type ResetInput struct {
	Email    string
	Token    string
	Password string
}

// ResetPassword sets a new password when the token matches and is fresh.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetInput) error {
	user, err := s.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		return ErrInvalidResetToken
	}

	now := s.now().UTC()
	reset, err := s.Resets.Find(ctx, user.Email)
	if err != nil {
		return err
	}
	if reset == nil || !auth.TokenMatches(reset.TokenHash, in.Token) || now.Sub(reset.CreatedAt) > ResetTokenTTL {
		return ErrInvalidResetToken
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return err
	}
	remember, err := auth.RandomToken(30)
	if err != nil {
		return err
	}
	// Consume is the authoritative check: the row is deleted and the
	// password stored together, so a token is redeemed at most once.
	err = s.Resets.Consume(ctx, user.Email, auth.HashToken(in.Token), now.Add(-ResetTokenTTL), user.ID, hash, remember)
	if errors.Is(err, repository.ErrResetTokenMismatch) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.publish(ctx, events.SubjectUserPasswordReset, user)
	s.event("password_reset")
	return nil
}

// VerificationPath is the route path a verification link points at.
func (s *AuthService) VerificationPath(user *model.User) string {
	return "/api/email/verify/" + user.ID.String() + "/" + s.Signer.EmailHash(user.Email)
}

// VerificationURL is the signed, expiring link mailed to the user.
func (s *AuthService) VerificationURL(user *model.User) string {
	return s.Signer.Sign(s.AppURL, s.VerificationPath(user), VerificationLinkTTL)
}

func (s *AuthService) resetURL(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(s.FrontendURL, "/") + "/reset-password?" + q.Encode()
}

func (s *AuthService) deliverVerification(ctx context.Context, user *model.User) error {
	msg, err := mail.VerificationMessage(user.Email, user.Name, s.VerificationURL(user), "60 minutes")
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// sendVerification is best effort; registration succeeds even if the
// mail relay is down and the user can ask for a resend.
func (s *AuthService) sendVerification(ctx context.Context, user *model.User) {
	if err := s.deliverVerification(ctx, user); err != nil {
		s.Logger.Error("failed to send verification mail", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, subject string, user *model.User) {
	evt := events.UserEvent{UserID: user.ID, Email: user.Email, OccurredAt: s.now().UTC()}
	if err := s.Publisher.Publish(ctx, subject, evt); err != nil {
		s.Logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *AuthService) event(name string) {
	if s.OnEvent != nil {
		s.OnEvent(name)
	}
}
