// Package members provides database operations for library members.
package members

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a member.
func (r *Repository) Create(member *entities.Member) error {
	return r.db.Create(member).Error
}

// GetByID retrieves a member by ID.
func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByIDForUpdate retrieves a member and locks its row for the rest of the transaction.
func (r *Repository) GetByIDForUpdate(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByIDForShare retrieves a member and holds a shared lock on its row, so the
// member cannot be deactivated until the transaction ends.
func (r *Repository) GetByIDForShare(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Clauses(clause.Locking{Strength: "SHARE"}).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListActive returns active members ordered by full name.
func (r *Repository) ListActive() ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.Where("is_active = ?", true).Order("full_name ASC, id ASC").Find(&members).Error
	return members, err
}

// Deactivate clears the active flag.
func (r *Repository) Deactivate(id uint) error {
	return r.db.Model(&entities.Member{}).Where("id = ?", id).Update("is_active", false).Error
}

// CountActive returns the number of active members.
func (r *Repository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Member{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
