package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// AuthService fabricates identities from sign-in input: any non-empty pair
// is accepted, and the operator credential from config yields the admin
// identity. There is no account database; the resulting record lives in the
// UserStore for the session's lifetime.
type AuthService struct {
	store      UserStore
	jwt        *middleware.JWTAuth
	notifier   *Notifier
	adminEmail string
	adminHash  []byte
}

func NewAuthService(store UserStore, jwt *middleware.JWTAuth, notifier *Notifier, adminEmail, adminPassword string) (*AuthService, error) {
	// The operator password is never kept in memory in the clear.
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash operator password: %w", err)
	}

	return &AuthService{
		store:      store,
		jwt:        jwt,
		notifier:   notifier,
		adminEmail: adminEmail,
		adminHash:  hash,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	if req.Email == "" || req.Password == "" {
		return nil, "", &UnauthorizedError{Message: "Invalid credentials"}
	}

	var user *models.User
	if req.Email == s.adminEmail && bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) == nil {
		user = &models.User{
			ID:           "1",
			Email:        s.adminEmail,
			Name:         "Vienna Wierks",
			Role:         models.RoleAdmin,
			Subscription: models.TierEnterprise,
		}
	} else {
		user = &models.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			Name:         nameFromEmail(req.Email),
			Role:         models.RoleUser,
			Subscription: models.TierFree,
		}
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to persist user: %w", err)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role, user.Subscription)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return user, token, nil
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, string, error) {
	fieldErrors := make(map[string]string)
	if req.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if len(fieldErrors) > 0 {
		return nil, "", &ValidationError{Fields: fieldErrors}
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		Role:         models.RoleUser,
		Subscription: models.TierFree,
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to persist user: %w", err)
	}

	// Operator notification is best-effort; a delivery failure never fails
	// the signup itself.
	if s.notifier != nil {
		go s.notifier.NotifySignup(user.Name, user.Email)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role, user.Subscription)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return user, token, nil
}

// UpdateSubscription mutates the stored tier in place. Unknown tiers and
// unauthenticated callers are logged no-ops, not errors.
func (s *AuthService) UpdateSubscription(ctx context.Context, userID, tier string) (*models.User, error) {
	user, err := s.store.Load(ctx, userID)
	if err != nil {
		if err == ErrNoUser {
			log.Printf("Ignoring subscription change for unknown user %s", userID)
			return nil, nil
		}
		return nil, err
	}

	if !models.ValidTier(tier) {
		log.Printf("Ignoring invalid subscription tier %q for user %s", tier, userID)
		return user, nil
	}

	user.Subscription = tier
	if err := s.store.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to persist subscription change: %w", err)
	}

	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) {
	if err := s.store.Delete(ctx, userID); err != nil {
		log.Printf("Failed to delete user record %s on logout: %v", userID, err)
	}
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.Load(ctx, userID)
	if err != nil {
		if err == ErrNoUser {
			return nil, &UnauthorizedError{Message: "Not authenticated"}
		}
		return nil, err
	}
	return user, nil
}

func nameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// Custom errors
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// ConfigError reports a missing upstream credential; it is operator-facing
// and deliberately does not include the credential name's value.
type ConfigError struct{ Message string }

func (e *ConfigError) Error() string { return e.Message }

// UpstreamError reports an image-provider failure, carrying whatever error
// body the provider returned.
type UpstreamError struct {
	Message string
	Status  int
	Details interface{}
}

func (e *UpstreamError) Error() string { return e.Message }
