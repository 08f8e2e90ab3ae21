// Package service contains the business logic layer.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and context, return domain models and
// apperror values, and never touch HTTP. Handlers translate in both
// directions. Repositories are injected as interfaces so tests swap in
// in-memory mocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/codelens/internal/apperror"
	"github.com/sakif/codelens/internal/auth"
	"github.com/sakif/codelens/internal/model"
	"github.com/sakif/codelens/internal/repository"
)

// MinPasswordLength is the registration floor. Six characters is a usability
// compromise, not a security statement; the bcrypt hash is what protects
// the stored credential.
const MinPasswordLength = 6

// AuthService handles registration, login and token validation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// HTTP handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new password account and logs it in.
//
// Validation order: field presence, password length, email shape, then
// uniqueness (username before email, each case-insensitive). The first
// failure wins so error messages always point at one concrete field.
//
// Registration doubles as login: the returned AuthResult carries a session
// token, so a fresh user doesn't have to log in separately.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	// Counted in characters, not bytes, so a short multibyte password
	// can't sneak past the floor.
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email must contain @")
	}

	// Uniqueness pre-checks give a precise field-level message; the
	// schema's case-insensitive UNIQUE constraints are the backstop if two
	// registrations race past these lookups.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username", username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username %s: %w", username, err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email", email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email %s: %w", email, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		// AnalysesCount and AverageScore start at zero
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// Login authenticates a password account.
//
// Unknown username → ErrNotFound; wrong password → ErrUnauthorized. The two
// are distinct on purpose, mirroring the distinct "no such user" and "wrong
// password" outcomes of the account flow. No session state changes on
// failure; the caller only gets a token from a successful result.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err // already an apperror.NotFound for unknown usernames
	}

	if user.PasswordHash == "" {
		// OAuth-only account; there is no password to check.
		return nil, apperror.Unauthorized("this account signs in with GitHub")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("username", user.Username))
		return nil, apperror.Unauthorized("invalid username or password")
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// LoginOrRegisterGitHub handles the OAuth callback: upsert the user keyed by
// GitHub ID (create on first login, refresh profile fields after), then
// issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueToken(user)
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken is a thin delegation to TokenService.Validate so callers
// only need the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issueToken(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
