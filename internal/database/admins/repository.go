// Package admins provides database operations for administrator accounts.
//
// # Usage
//
//	repo := admins.NewRepository(db)
//	admin, err := repo.GetByUsername("admin")
package admins

import (
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all admin database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new admins repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin with an already hashed password.
func (r *Repository) Create(username, passwordHash string) (*entities.Admin, error) {
	admin := &entities.Admin{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByID retrieves an admin by ID.
func (r *Repository) GetByID(id uint) (*entities.Admin, error) {
	var admin entities.Admin
	err := r.db.First(&admin, id).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByUsername retrieves an admin by username.
func (r *Repository) GetByUsername(username string) (*entities.Admin, error) {
	var admin entities.Admin
	err := r.db.Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// UpdatePasswordHash replaces the stored hash. Returns gorm.ErrRecordNotFound
// when no admin has the given ID.
func (r *Repository) UpdatePasswordHash(id uint, passwordHash string) error {
	result := r.db.Model(&entities.Admin{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
