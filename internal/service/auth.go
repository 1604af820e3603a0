package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/scorewire/cricket-api/internal/events"
	"github.com/scorewire/cricket-api/internal/hash"
	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/mail"
	"github.com/scorewire/cricket-api/internal/models"
	"github.com/scorewire/cricket-api/internal/repo"
	"github.com/scorewire/cricket-api/internal/tokens"
)

const verificationTTL = time.Hour

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dummyHash soaks up a bcrypt comparison when the user does not exist, so
// the comparison step costs the same either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type AuthService struct {
	Repo      *repo.GormRepo
	Issuer    *tokens.Issuer
	Mailer    mail.Mailer
	Events    *events.Producer
	ServerURL string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type LoginResult struct {
	User *models.User
	TokenPair
}

func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// issueTokenPair mints a fresh access/refresh pair and persists the new
// refresh token on the user row. Replacing the stored value revokes every
// previously issued refresh token for that user.
func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := s.Issuer.IssueAccess(user.UserID, user.Role, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refreshToken, err := s.Issuer.IssueRefresh(user.UserID, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SetRefreshToken(ctx, user.UserID, &refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, userID, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if email == "" || userID == "" || password == "" {
		l.Warn("register_failed", "reason", "data missing")
		return nil, ErrMissingFields
	}
	if !IsValidEmail(email) {
		l.Warn("register_failed", "reason", "invalid email")
		return nil, ErrInvalidEmail
	}

	email = strings.ToLower(email)
	userID = strings.ToLower(userID)

	if _, err := s.Repo.FindUserByEmail(ctx, email); err == nil {
		l.Warn("register_failed", "reason", "email already exists")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if _, err := s.Repo.FindUserByUserID(ctx, userID); err == nil {
		l.Warn("register_failed", "reason", "userId already exists")
		return nil, ErrUserIDTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserID:       userID,
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		// The unique indexes catch what the pre-checks raced past.
		if errors.Is(err, repo.ErrDuplicate) {
			if _, lookupErr := s.Repo.FindUserByEmail(ctx, email); lookupErr == nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrUserIDTaken
		}
		return nil, err
	}
	l.Info("register_success", "user_id", user.UserID)

	// The user row is committed before the mail step; a failed dispatch
	// leaves an unverified user who can resend after login.
	if err := s.SendVerificationMail(ctx, user); err != nil && !errors.Is(err, ErrMailDispatch) {
		return nil, err
	}

	s.publish(ctx, user, "user_registered")

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, emailOrUserID, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if emailOrUserID == "" || password == "" {
		l.Warn("login_failed", "reason", "data missing")
		return nil, ErrMissingFields
	}

	ident := strings.ToLower(emailOrUserID)

	var (
		user *models.User
		err  error
	)
	if IsValidEmail(ident) {
		user, err = s.Repo.FindUserByEmail(ctx, ident)
	} else {
		user, err = s.Repo.FindUserByUserID(ctx, ident)
	}
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.CheckPassword(dummyHash, password)
			l.Warn("login_failed", "reason", "user not found")
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "incorrect password", "user_id", user.UserID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	l.Info("login_success", "user_id", user.UserID)

	s.publish(ctx, user, "user_logged_in")

	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// SendVerificationMail issues (or refuses to reissue) the single live
// verification token for the user and attempts delivery. The response
// only completes after the attempt settles; a dispatch failure comes back
// as ErrMailDispatch, which callers treat as non-fatal.
func (s *AuthService) SendVerificationMail(ctx context.Context, user *models.User) error {
	l := logging.FromContext(ctx).With("svc", "auth.send_verification", "user_id", user.UserID)

	existing, err := s.Repo.FindVerificationByUserID(ctx, user.UserID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ExpiresAt.After(time.Now()) {
		wait := time.Until(existing.ExpiresAt)
		l.Warn("verification_mail_rate_limited", "retry_after_ms", wait.Milliseconds())
		return &RateLimitedError{RetryAfter: wait}
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	secret := hex.EncodeToString(raw)

	vt := &models.VerificationToken{
		UserID:    user.UserID,
		Token:     secret,
		ExpiresAt: time.Now().Add(verificationTTL),
	}
	if err := s.Repo.UpsertVerification(ctx, vt); err != nil {
		return err
	}

	link := s.ServerURL + "/auth/verify/" + secret
	if err := s.Mailer.SendMail(ctx, []string{user.Email}, "Verify your email", mail.VerificationBody(link)); err != nil {
		l.Error("verification_mail_failed", "error", err)
		return ErrMailDispatch
	}

	l.Info("verification_mail_sent")
	return nil
}

func (s *AuthService) Verify(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	if token == "" {
		l.Warn("verify_failed", "reason", "data missing")
		return ErrMissingFields
	}

	vt, err := s.Repo.FindVerificationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("verify_failed", "reason", "token not found")
			return ErrTokenNotFound
		}
		return err
	}

	// Single use: the token row goes away before the expiry check, so a
	// second attempt with the same value always reports not-found.
	if err := s.Repo.DeleteVerificationByToken(ctx, token); err != nil {
		return err
	}

	if vt.ExpiresAt.Before(time.Now()) {
		l.Warn("verify_failed", "reason", "token expired", "user_id", vt.UserID)
		return ErrTokenExpired
	}

	user, err := s.Repo.FindUserByUserID(ctx, vt.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("verify_failed", "reason", "user not found", "user_id", vt.UserID)
			return ErrUserNotFound
		}
		return err
	}
	if user.Verified {
		l.Warn("verify_failed", "reason", "already verified", "user_id", user.UserID)
		return ErrAlreadyVerified
	}

	if err := s.Repo.MarkVerified(ctx, user.UserID); err != nil {
		return err
	}
	l.Info("verify_success", "user_id", user.UserID)

	s.publish(ctx, user, "user_verified")

	return nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		l.Warn("logout_failed", "reason", "refresh token missing")
		return ErrRefreshMissing
	}

	user, err := s.Repo.FindUserByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("logout_failed", "reason", "user not found")
			return ErrUserNotFound
		}
		return err
	}

	if err := s.Repo.SetRefreshToken(ctx, user.UserID, nil); err != nil {
		return err
	}
	l.Info("logout_success", "user_id", user.UserID)
	return nil
}

// Refresh rotates the full pair: the presented token must match the one
// stored on the user row, and a brand-new refresh token replaces it.
// Presenting a rotated-out token therefore fails here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_failed", "reason", "refresh token missing")
		return nil, ErrRefreshMissing
	}

	claims, err := s.Issuer.ParseRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid token")
		return nil, ErrInvalidRefresh
	}

	user, err := s.Repo.FindUserByUserID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "user not found")
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		l.Warn("refresh_failed", "reason", "token mismatch", "user_id", user.UserID)
		return nil, ErrInvalidRefresh
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	l.Info("refresh_success", "user_id", user.UserID)

	return &LoginResult{User: user, TokenPair: *pair}, nil
}

func (s *AuthService) publish(ctx context.Context, user *models.User, eventType string) {
	event := map[string]any{
		"type":   eventType,
		"userId": user.UserID,
		"email":  user.Email,
	}
	if err := s.Events.PublishEvent(ctx, user.UserID, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "type", eventType, "error", err)
	}
}
