// Package service provides the business logic behind the HTTP API:
// accounts, the calculator catalog, calculations and result notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/atinyakov/loancalc/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new account. A taken email yields common.ErrConflict.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail returns common.ErrNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, error)
}

// AuthService implements registration, login and profile lookup.
type AuthService struct {
	repo     UserRepository
	tokens   TokenIssuer
	validate *validation.Validator
	logger   *zap.Logger

	// cost is the bcrypt work factor.
	cost  int
	now   func() time.Time
	newID func() string
}

// NewAuthService constructs an AuthService. A nil logger discards output.
func NewAuthService(repo UserRepository, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		validate: validation.New(),
		logger:   logger,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NormalizeEmail trims and lower-cases an email address before lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user account with the "user" role and returns a token.
// A taken email is reported as a validation error on the email field.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in).Err(); err != nil {
		return "", err
	}

	exists, err := s.repo.UserExists(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", userTaken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return "", userTaken()
		}
		return "", err
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.tokens.Issue(u.ID, u.Role)
}

// Login checks credentials and returns a fresh token. Unknown emails and
// wrong passwords both yield common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in).Err(); err != nil {
		return "", err
	}

	u, err := s.repo.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, common.ErrNotFound) {
		return "", common.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return "", common.ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID, u.Role)
}

// Profile returns the account of the authenticated caller.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func userTaken() error {
	return common.NewValidationError(common.FieldError{Field: "email", Msg: "user already exists"})
}
