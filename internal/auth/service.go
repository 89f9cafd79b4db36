// Package auth implements email/password authentication: the server-side
// Service issuing JWT sessions and the Client that keeps a session alive and
// reports auth state changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// User is the auth identity exposed in sessions.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is a signed-in identity with its token pair.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is expired at now, with margin
// subtracted from its lifetime.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	return !now.Before(s.ExpiresAt.Add(-margin))
}

// Options configures token lifetimes and hashing.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// Service registers users and issues, refreshes and revokes sessions.
type Service struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	revoked    RevocationStore
	validate   *validator.Validate
	log        *zap.Logger
	now        func() time.Time
}

func NewService(db *gorm.DB, opts Options, revoked RevocationStore, log *zap.Logger) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:         db,
		secret:     []byte(opts.Secret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		cost:       opts.BcryptCost,
		revoked:    revoked,
		validate:   validator.New(),
		log:        log,
		now:        time.Now,
	}
}

// Register creates an identity. The database trigger creates its profile.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return toUser(&user), nil
}

// Login verifies the credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(toUser(&user))
}

// Refresh exchanges a refresh token for a new session. The old refresh token
// is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.parseToken(refreshToken, kindRefresh)
	if err != nil {
		return nil, err
	}
	claimed, err := s.revoked.Claim(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !claimed {
		return nil, ErrInvalidToken
	}

	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the refresh token of a session.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.parseToken(refreshToken, kindRefresh)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil
		}
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// ValidateToken validates an access token and returns its claims.
func (s *Service) ValidateToken(token string) (*TokenClaims, error) {
	return s.parseToken(token, kindAccess)
}

// GetUser returns ErrInvalidToken when the identity no longer exists.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return toUser(&user), nil
}

func (s *Service) issue(user *User) (*Session, error) {
	access, claims, err := s.signToken(user, kindAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, _, err := s.signToken(user, kindRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         *user,
	}, nil
}

func toUser(u *models.User) *User {
	return &User{ID: u.ID, Email: u.Email, Name: u.Name}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
