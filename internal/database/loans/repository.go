// Package loans provides database operations for borrowings.
package loans

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an open loan.
func (r *Repository) Create(loan *entities.Loan) error {
	return r.db.Omit("Book", "Member").Create(loan).Error
}

// LatestOpenForBook returns the most recently borrowed open loan of a book and
// locks its row. Ties on borrow_date fall back to the highest ID.
func (r *Repository) LatestOpenForBook(bookID uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("book_id = ? AND is_returned = ?", bookID, false).
		Order("borrow_date DESC, id DESC").
		Limit(1).
		Take(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkReturned closes an open loan. Returns false if it was already returned.
func (r *Repository) MarkReturned(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND is_returned = ?", id, false).
		Updates(map[string]any{
			"is_returned": true,
			"return_date": at,
		})
	return result.RowsAffected == 1, result.Error
}

// HasOpenForMember reports whether the member holds at least one open loan.
func (r *Repository) HasOpenForMember(memberID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("member_id = ? AND is_returned = ?", memberID, false).
		Count(&count).Error
	return count > 0, err
}

// CountOpen returns the number of open loans.
func (r *Repository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).Where("is_returned = ?", false).Count(&count).Error
	return count, err
}

// CountOverdue returns the number of open loans due before the cutoff.
func (r *Repository) CountOverdue(cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("is_returned = ? AND due_date < ?", false, cutoff).
		Count(&count).Error
	return count, err
}

// ListOpenDetails returns open loans joined with book and member, soonest due first.
func (r *Repository) ListOpenDetails() ([]entities.LoanDetail, error) {
	var details []entities.LoanDetail
	err := r.detailQuery().
		Where("borrowings.is_returned = ?", false).
		Order("borrowings.due_date ASC, borrowings.id ASC").
		Scan(&details).Error
	return details, err
}

// ListOverdueDetails returns up to limit open loans due before the cutoff, soonest due first.
func (r *Repository) ListOverdueDetails(cutoff time.Time, limit int) ([]entities.LoanDetail, error) {
	var details []entities.LoanDetail
	err := r.detailQuery().
		Where("borrowings.is_returned = ? AND borrowings.due_date < ?", false, cutoff).
		Order("borrowings.due_date ASC, borrowings.id ASC").
		Limit(limit).
		Scan(&details).Error
	return details, err
}

func (r *Repository) detailQuery() *gorm.DB {
	return r.db.Table("borrowings").
		Select(`borrowings.id AS loan_id,
			borrowings.book_id AS book_id,
			books.title AS book_title,
			borrowings.member_id AS member_id,
			members.full_name AS member_name,
			borrowings.borrow_date AS borrow_date,
			borrowings.due_date AS due_date`).
		Joins("JOIN books ON books.id = borrowings.book_id").
		Joins("JOIN members ON members.id = borrowings.member_id")
}
