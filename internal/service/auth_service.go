package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dom/techxchange/internal/auth"
	"github.com/dom/techxchange/internal/config"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrMissingFields    = domain.NewError(domain.ErrValidation, "Please provide username, email, and password")
	ErrInvalidEmail     = domain.NewError(domain.ErrValidation, "Please provide a valid email address")
	ErrPasswordTooShort = domain.NewError(domain.ErrValidation,
		fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	ErrPasswordTooLong = domain.NewError(domain.ErrValidation,
		fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	ErrInvalidRole = domain.NewError(domain.ErrValidation, "Role must be one of: buyer, seller")
	ErrUserExists  = domain.NewError(domain.ErrConflict, "User already exists with this email or username")

	// ErrInvalidCredentials is returned for every login failure so callers
	// cannot learn whether an email is registered.
	ErrInvalidCredentials = domain.NewError(domain.ErrAuthentication, "Invalid email or password")

	ErrUserNotFound = domain.NewError(domain.ErrNotFound, "User not found")
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   auth.NewPasswordHasher(cfg.BcryptCost),
		tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domain.User
	Token string
}

// NormalizeEmail is applied before every email comparison or write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := NormalizeEmail(input.Email)

	if username == "" || email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if utf8.RuneCountInString(input.Password) < auth.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	role := domain.RoleBuyer
	if input.Role != "" {
		parsed, err := domain.ParseRole(input.Role)
		if err != nil || parsed == domain.RoleAdmin {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	// Best-effort pre-check; the unique indexes close the race.
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		s.hasher.VerifyNothing(input.Password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyNothing(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

// ValidateToken returns auth.ErrInvalidToken for every kind of bad token.
func (s *AuthService) ValidateToken(token string) (*auth.Identity, error) {
	return s.tokens.Verify(token)
}

// GetUserByID returns the current identity projection, never the password hash.
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetIdentity(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// SetRole changes a user's role. Tokens already issued pick it up on their
// next request since the role is never embedded in them.
func (s *AuthService) SetRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	user.Role = role
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
