package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"churchadmin/internal/credentials"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotStaff           = errors.New("no staff account for this sign-in")
	ErrCannotDeleteSelf   = errors.New("you cannot delete your own account")
)

// accountInput holds the staff account fields every write path checks
type accountInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,min=2,max=100"`
}

// AuthService handles staff accounts, sessions and OAuth sign-in
type AuthService struct {
	userRepo        *repository.UserRepository
	email           *EmailService
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, email *EmailService, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		email:           email,
		sessionDuration: sessionDuration,
	}
}

// Register creates a staff account. The first account becomes the administrator.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Struct(accountInput{Email: email, Name: strings.TrimSpace(name)}); err != nil {
		return nil, err
	}
	if err := validation.Password(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	count, err := s.userRepo.CountUsers()
	if err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, strings.TrimSpace(name), count == 0)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateStaffUser is the admin path for adding staff. It generates a temporary
// password, emails it when email is configured, and returns it to the caller.
func (s *AuthService) CreateStaffUser(ctx context.Context, email, name string, isAdmin bool) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Struct(accountInput{Email: email, Name: strings.TrimSpace(name)}); err != nil {
		return nil, "", err
	}

	tempPassword, err := credentials.GenerateTemporaryPassword()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate temporary password: %w", err)
	}
	passwordHash, err := security.HashPassword(tempPassword)
	if err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, strings.TrimSpace(name), isAdmin)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.email.SendStaffWelcomeEmail(ctx, user.Email, user.Name, tempPassword); err != nil {
		log.Printf("Warning: failed to send welcome email to %s: %v", user.Email, err)
	}
	return user, tempPassword, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) newSession(userID int64) (*models.Session, error) {
	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), userID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.ExpiredAt(time.Now()) {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// OAuthLogin signs in a staff member through an OAuth provider. Accounts are
// matched by provider subject, then linked by email. A brand new account is
// only created while no staff exist, so OAuth cannot be used to self-enrol.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Email(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		user, err = s.linkOrBootstrap(provider, subject, email, name)
		if err != nil {
			return nil, nil, err
		}
	}

	session, err := s.newSession(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) linkOrBootstrap(provider, subject, email, name string) (*models.User, error) {
	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.LinkedElsewhere(provider) {
			return nil, ErrEmailTaken
		}
		if err := s.userRepo.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
			return nil, fmt.Errorf("failed to link oauth provider: %w", err)
		}
		return existing, nil
	}

	count, err := s.userRepo.CountUsers()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNotStaff
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user, err := s.userRepo.CreateUser(email, "", name, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	if err := s.userRepo.LinkOAuthProvider(user.ID, provider, subject); err != nil {
		return nil, fmt.Errorf("failed to link oauth provider: %w", err)
	}
	user.OAuthProvider = provider
	user.OAuthSubject = subject
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// OAuth-only accounts have no current password and may set one directly.
func (s *AuthService) ChangePassword(userID int64, current, next string) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.HasPassword() && !security.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validation.Password(next); err != nil {
		return err
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(userID, hash)
}

// ListUsers returns every staff account
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAllUsers()
}

// UpdateUser changes a staff member's profile and admin flag
func (s *AuthService) UpdateUser(id int64, email, name string, isAdmin bool) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Struct(accountInput{Email: email, Name: strings.TrimSpace(name)}); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	err = s.userRepo.UpdateUser(id, email, strings.TrimSpace(name), isAdmin)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetUserByID(id)
}

// DeleteUser removes a staff account other than the caller's own
func (s *AuthService) DeleteUser(actorID, id int64) error {
	if actorID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.DeleteUser(id)
}

// GetUser retrieves a staff account by ID
func (s *AuthService) GetUser(id int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// NeedsBootstrap reports whether no staff account exists yet
func (s *AuthService) NeedsBootstrap() (bool, error) {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count == 0, nil
}
