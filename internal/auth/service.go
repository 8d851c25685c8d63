package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/electrotrack/internal/transport"
)

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens. Unknown users,
// wrong passwords and inactive accounts all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (LoginResult, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return LoginResult{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("credential lookup failed", "error", err)
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.Info("login rejected", "user_id", creds.UserID, "reason", "password_mismatch")
		return LoginResult{}, ErrInvalidCredentials
	}

	if !creds.IsActive {
		s.logger.Info("login rejected", "user_id", creds.UserID, "reason", "inactive")
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByID(ctx, creds.UserID)
	if err != nil {
		return LoginResult{}, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return LoginResult{}, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return LoginResult{
		Tokens:   tokens,
		User:     user,
		Redirect: transport.LandingView(user.Role),
	}, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	uid, err := claims.UserIDInt()
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	// reload so that role changes and deactivation take effect
	user, err := s.repo.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AuthTokens{}, ErrUserInactive
		}
		return AuthTokens{}, err
	}

	return s.issue(user)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetUser loads the active actor for a validated token.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) issue(user *User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(user)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(user)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.expiry(accessToken),
	}, nil
}

func (s *Service) expiry(accessToken string) time.Time {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
