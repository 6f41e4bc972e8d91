// Package auth manages the device-local account and the current sign-in
// session. The cloud bridge consults the Provider interface on every call;
// sign-in state is never cached by consumers.
package auth

import (
	"errors"
	"fmt"
	"log"

	"github.com/readscout/readscout/internal/database/accounts"
	"github.com/readscout/readscout/internal/database/settings"
	"github.com/readscout/readscout/internal/entities"
)

// Provider reports the current sign-in state. Implementations must resolve
// the state per call rather than caching it.
type Provider interface {
	// CurrentUserID returns the signed-in user's cloud ID, or an empty
	// string when no user is signed in.
	CurrentUserID() string
	IsSignedIn() bool
}

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SignInHook runs after a successful sign-in, e.g. to kick off cloud
// reconciliation.
type SignInHook func(userID string)

// Service implements Provider backed by the local database.
type Service struct {
	accounts   *accounts.Repository
	settings   *settings.Repository
	bcryptCost int
	onSignIn   SignInHook
}

// NewService creates the auth service. cost <= 0 selects the bcrypt default.
func NewService(accountRepo *accounts.Repository, settingsRepo *settings.Repository, cost int) *Service {
	if cost <= 0 {
		cost = 10
	}
	return &Service{
		accounts:   accountRepo,
		settings:   settingsRepo,
		bcryptCost: cost,
	}
}

// SetSignInHook registers a callback invoked after each successful sign-in.
func (s *Service) SetSignInHook(hook SignInHook) {
	s.onSignIn = hook
}

// Register creates a new device account with a fresh cloud user ID.
func (s *Service) Register(username, password string) (*entities.Account, error) {
	existing, err := s.accounts.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	userID, err := NewUserID()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	account := &entities.Account{
		Username:     username,
		UserID:       userID,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(account); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return account, nil
}

// SignIn verifies credentials and records the session.
func (s *Service) SignIn(username, password string) (*entities.Account, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if account == nil {
		return nil, ErrUnknownAccount
	}
	if err := CheckPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.settings.Set(entities.SettingKeyCurrentUserID, account.UserID); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if s.onSignIn != nil {
		s.onSignIn(account.UserID)
	}
	return account, nil
}

// SignOut clears the session. Signing out while signed out is a no-op.
func (s *Service) SignOut() error {
	return s.settings.Delete(entities.SettingKeyCurrentUserID)
}

// CurrentUserID returns the signed-in cloud user ID, or "" when signed out.
// Lookup failures read as signed-out; cloud operations will simply
// short-circuit until storage recovers.
func (s *Service) CurrentUserID() string {
	userID, err := s.settings.Get(entities.SettingKeyCurrentUserID)
	if err != nil {
		log.Printf("Auth: reading session failed: %v", err)
		return ""
	}
	return userID
}

// IsSignedIn reports whether a user session is recorded.
func (s *Service) IsSignedIn() bool {
	return s.CurrentUserID() != ""
}
