package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/password"
	"github.com/elixpo/accounts/internal/store"

	"github.com/google/uuid"
)

// UserService orchestrates registration and login: user rows, identity
// (provider) records, password verification, and provider lock-in.
type UserService struct {
	store *store.Store
	audit *AuditService
}

func NewUserService(s *store.Store, audit *AuditService) *UserService {
	return &UserService{store: s, audit: audit}
}

type RegisterRequest struct {
	Email          string
	Password       string // empty for social-login registrations
	Provider       string // email|google|github
	ProviderUserID string // required for social providers
	UserAgent      string
}

type LoginRequest struct {
	Email     string
	Password  string
	Provider  string
	UserAgent string
}

// Register creates a user and its identity record. Email-provider
// registrations require a password; social ones a provider user id.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Provider == "" {
		return nil, ErrInvalidCredentials
	}
	if req.Provider == models.ProviderEmail && req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if req.Provider != models.ProviderEmail && req.ProviderUserID == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.store.GetUserByEmail(email); err == nil {
		s.logAuth(ctx, models.EventUserRegistered, models.StatusFailure, "", req, "email already registered")
		return nil, ErrEmailTaken
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		IsActive: true,
	}
	if req.Password != "" {
		hash, err := password.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	providerUserID := req.ProviderUserID
	if req.Provider == models.ProviderEmail {
		providerUserID = email
	}
	identity := &models.Identity{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		Provider:       req.Provider,
		ProviderUserID: providerUserID,
		ProviderEmail:  email,
		Verified:       req.Provider != models.ProviderEmail,
	}
	if err := s.store.CreateIdentity(identity); err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.logAuth(ctx, models.EventUserRegistered, models.StatusSuccess, user.ID, req, "")
	return user, nil
}

// Login authenticates a user. An email account registered via provider P
// may only log in with P (provider lock-in); a successful login stamps
// last_login.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Provider == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		s.logLoginFailure(ctx, req, "unknown email")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logLoginFailure(ctx, req, "account deactivated")
		return nil, ErrUserInactive
	}

	identities, err := s.store.GetIdentitiesByUserID(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %w", err)
	}
	if !hasProvider(identities, req.Provider) {
		s.logLoginFailure(ctx, req, "provider mismatch")
		return nil, ErrProviderMismatch
	}

	if req.Provider == models.ProviderEmail {
		if user.PasswordHash == "" || !password.Verify(req.Password, user.PasswordHash) {
			s.logLoginFailure(ctx, req, "bad password")
			return nil, ErrInvalidCredentials
		}
	}

	if err := s.store.UpdateUserLastLogin(user.ID, time.Now()); err != nil {
		// Non-fatal: the login itself succeeded.
		log.Printf("[User] failed to update last_login for %s: %v", user.ID, err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventAuthenticationSuccess,
			UserID:    user.ID,
			Provider:  req.Provider,
			UserAgent: req.UserAgent,
		})
	}

	return user, nil
}

// GetUser returns an active user by id.
func (s *UserService) GetUser(userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// Deactivate soft-deletes a user account.
func (s *UserService) Deactivate(userID string) error {
	if _, err := s.GetUser(userID); err != nil {
		return err
	}
	return s.store.DeactivateUser(userID)
}

func (s *UserService) logLoginFailure(ctx context.Context, req LoginRequest, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, AuditEntry{
		EventType:    models.EventAuthenticationFailure,
		Status:       models.StatusFailure,
		Provider:     req.Provider,
		UserAgent:    req.UserAgent,
		ErrorMessage: reason,
	})
}

func (s *UserService) logAuth(
	ctx context.Context,
	event models.EventType,
	status models.EventStatus,
	userID string,
	req RegisterRequest,
	errMsg string,
) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, AuditEntry{
		EventType:    event,
		Status:       status,
		UserID:       userID,
		Provider:     req.Provider,
		UserAgent:    req.UserAgent,
		ErrorMessage: errMsg,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hasProvider(identities []models.Identity, provider string) bool {
	for _, identity := range identities {
		if identity.Provider == provider {
			return true
		}
	}
	return false
}
