// Package service implements credential checks and access token issuance.
package service

import (
	"context"
	"errors"
	"time"

	"crm_pipeline_backend/internal/auth/password"
	"crm_pipeline_backend/internal/auth/repository"
	"crm_pipeline_backend/internal/auth/transport"
	"crm_pipeline_backend/platform/apperr"
	"crm_pipeline_backend/platform/config"
	"crm_pipeline_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// Store defines the credential access needed by the auth service.
type Store interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type Service struct {
	repo Store
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

func New(repo Store, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn checks credentials and returns a signed access token. Lookup and
// compare failures collapse into one error so the response does not reveal
// which accounts exist.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (transport.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("sign_in", email, false, "unknown email")
		return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", email, false, "wrong password")
		return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
	}

	accessToken, err := s.signJWT(user.ID, []string{user.Role})
	if err != nil {
		return transport.AuthResponse{}, apperr.Operation("failed to sign access token", err)
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return transport.AuthResponse{AccessToken: accessToken}, nil
}

// GetMe returns the authenticated user's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ProfileResponse{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return transport.ProfileResponse{}, apperr.Operation("failed to load profile", err)
	}

	return transport.ProfileResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Operation("failed to load user", err)
	}

	if err := password.Compare(user.PasswordHash, currentPassword); err != nil {
		s.log.AuthEvent("change_password", user.Email, false, "wrong current password")
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return apperr.Operation("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Operation("failed to update password", err)
	}

	s.log.AuthEvent("change_password", user.Email, true, "")
	return nil
}

func (s *Service) signJWT(userID uuid.UUID, roles []string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": roles,
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
