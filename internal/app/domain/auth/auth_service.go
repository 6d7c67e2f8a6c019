package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ormeapp/orme/internal/app/models"
	"github.com/ormeapp/orme/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// RegisterInput is the plaintext registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Nickname  string
	Email     string
	ScoutCode string
	Password  string
}

// AuthService defines the business logic contract.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	jwt    *JWTService
	cfg    *config.Config
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, jwtService *JWTService, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, jwt: jwtService, cfg: cfg}
}

func validateRegistration(input RegisterInput) error {
	if strings.TrimSpace(input.Nickname) == "" {
		return fmt.Errorf("%w: nickname is required", models.ErrValidation)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: invalid email", models.ErrValidation)
	}
	if len(input.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}
	return nil
}

// Register creates a new account. New users start at zero points on the
// first level with all contribution counters at zero.
func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (uuid.UUID, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", input.Email))
	l.Debug("Attempting registration")

	tracer := otel.Tracer("orme")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("nickname", input.Nickname),
	))
	defer span.End()

	if err := validateRegistration(input); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		return uuid.Nil, err
	}

	hashedPassword, err := s.jwt.HashPassword(input.Password)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return uuid.Nil, fmt.Errorf("could not process password")
	}

	userID, err := s.repo.Register(ctx, &Registration{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Nickname:       input.Nickname,
		Email:          input.Email,
		ScoutCode:      input.ScoutCode,
		HashedPassword: hashedPassword,
	})
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return uuid.Nil, fmt.Errorf("registration failed: %w", err)
	}

	l.Info("Registration successful", zap.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// Login validates credentials, generates tokens, stores the refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed", zap.String("email", email))
		// Don't reveal whether the user exists or the password is wrong
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID.String()))
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("Failed to issue tokens", zap.String("userID", user.ID.String()), zap.Error(err))
		return "", "", err
	}

	l.Info("Login successful")
	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.UserAuth) (string, string, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshToken, err := s.jwt.NewRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", fmt.Errorf("app error storing session: %w", err)
	}
	return accessToken, refreshToken, nil
}

// RefreshSession validates the refresh token, issues new tokens and rotates
// the refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID.String()), zap.Error(err))
		if invErr := s.repo.InvalidateRefreshToken(ctx, refreshToken); invErr != nil {
			l.Warn("Failed to invalidate orphaned refresh token", zap.Error(invErr))
		}
		return "", "", fmt.Errorf("app error retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	newAccessToken, newRefreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("Failed to issue new tokens", zap.String("userID", user.ID.String()), zap.Error(err))
		return "", "", err
	}

	// Rotation: the old token dies with the refresh.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", user.ID.String()), zap.Error(err))
		return "", "", fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("userID", user.ID.String()))
	return newAccessToken, newRefreshToken, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))

	if refreshToken == "" {
		return nil
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token on logout", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	l.Info("Logout successful")
	return nil
}

// UpdatePassword verifies the old password, stores the new hash and revokes
// every outstanding session.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	l := s.logger.With(zap.String("method", "UpdatePassword"), zap.String("userID", userID.String()))

	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		l.Warn("Old password mismatch")
		return fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	newHash, err := s.jwt.HashPassword(newPassword)
	if err != nil {
		l.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("could not process password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, newHash); err != nil {
		l.Error("Failed to store new password", zap.Error(err))
		return fmt.Errorf("password update failed: %w", err)
	}

	if err := s.repo.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		l.Warn("Failed to revoke sessions after password change", zap.Error(err))
	}

	l.Info("Password updated")
	return nil
}

// InvalidateAllUserRefreshTokens revokes every session of the user.
func (s *AuthServiceImpl) InvalidateAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	return s.repo.InvalidateAllUserRefreshTokens(ctx, userID)
}
