package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database/admins"
	"github.com/mrlokans/librarian/internal/entities"
)

var (
	// ErrInvalidCredentials is returned for both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
)

// Service authenticates administrators and manages their passwords.
type Service struct {
	db     *gorm.DB
	hasher *Hasher

	// dummyHash is verified against when the username is unknown so that
	// both failure paths cost one key derivation.
	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		hasher: NewHasher(cfg.PBKDF2Iterations),
	}
}

// Authenticate checks the credentials and returns the matching admin.
// Any mismatch yields ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*entities.Admin, error) {
	username = strings.TrimSpace(username)

	admin, err := admins.NewRepository(s.db).GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.Verify(s.placeholderHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if !s.hasher.Verify(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			hash = strings.Repeat("0", SaltLength*3)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// EnsureAdmin creates the admin account when no admin with that username exists.
// Returns true when an account was created.
func (s *Service) EnsureAdmin(username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, ErrUsernameRequired
	}
	if password == "" {
		return false, ErrPasswordRequired
	}

	repo := admins.NewRepository(s.db)
	_, err := repo.GetByUsername(username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := repo.Create(username, hash); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

// ChangePassword replaces the password of an authenticated admin after
// checking the current one.
func (s *Service) ChangePassword(adminID uint, currentPassword, newPassword, confirmation string) error {
	repo := admins.NewRepository(s.db)
	admin, err := repo.GetByID(adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if !s.hasher.Verify(admin.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	if err := ValidateNewPassword(newPassword, confirmation); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return repo.UpdatePasswordHash(admin.ID, hash)
}

// SetPassword resets the password of the named admin without the current
// one. Used by the command line.
func (s *Service) SetPassword(username, newPassword, confirmation string) error {
	if err := ValidateNewPassword(newPassword, confirmation); err != nil {
		return err
	}

	repo := admins.NewRepository(s.db)
	admin, err := repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return repo.UpdatePasswordHash(admin.ID, hash)
}

// GetAdminByID retrieves an admin by ID.
func (s *Service) GetAdminByID(id uint) (*entities.Admin, error) {
	admin, err := admins.NewRepository(s.db).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
