// Package books provides database operations for the catalog.
//
// Copy counters are only changed through TakeCopy and ReturnCopy, whose
// conditional updates keep available_copies within [0, total_copies].
package books

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/entities"
)

// SearchableColumns maps accepted search fields to their column names.
var SearchableColumns = map[string]string{
	"title":  "title",
	"author": "author",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// GetByID retrieves a book by ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDForUpdate retrieves a book and locks its row until the surrounding
// transaction ends. SQLite ignores the locking clause; its write transactions
// are already exclusive.
func (r *Repository) GetByIDForUpdate(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ExistsByISBN reports whether a book with the given ISBN is cataloged.
func (r *Repository) ExistsByISBN(isbn string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("isbn = ?", isbn).Count(&count).Error
	return count > 0, err
}

// List returns every book ordered by title.
func (r *Repository) List() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// ListAvailable returns books with at least one copy on the shelf, ordered by title.
func (r *Repository) ListAvailable() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("available_copies > 0").Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

// Search returns books whose field contains keyword, ignoring case, ordered by title.
// LIKE wildcards in keyword match literally.
func (r *Repository) Search(field, keyword string) ([]entities.Book, error) {
	column, ok := SearchableColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported search field %q", field)
	}

	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"

	var books []entities.Book
	err := r.db.
		Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern).
		Order("title ASC, id ASC").
		Find(&books).Error
	return books, err
}

// Delete removes a book together with its loan history.
func (r *Repository) Delete(id uint) error {
	if err := r.db.Where("book_id = ?", id).Delete(&entities.Loan{}).Error; err != nil {
		return fmt.Errorf("delete loan history: %w", err)
	}
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TakeCopy decrements available_copies if a copy is on the shelf.
// Returns false when none was left.
func (r *Repository) TakeCopy(id uint) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND available_copies > 0", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	return result.RowsAffected == 1, result.Error
}

// ReturnCopy increments available_copies unless every copy is already on the shelf.
// Returns false when the counter was already at total_copies.
func (r *Repository) ReturnCopy(id uint) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND available_copies < total_copies", id).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	return result.RowsAffected == 1, result.Error
}

// Count returns the number of cataloged books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
