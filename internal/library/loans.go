package library

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/members"
	"github.com/mrlokans/librarian/internal/entities"
)

// Ledger records borrowings and returns.
type Ledger struct {
	db          *database.Database
	clock       Clock
	defaultDays int
}

// NewLedger creates a loan ledger. defaultDays applies when a borrow asks for
// a non-positive period; values below 1 fall back to config.DefaultLoanDays.
func NewLedger(db *database.Database, clock Clock, defaultDays int) *Ledger {
	if defaultDays < 1 {
		defaultDays = config.DefaultLoanDays
	}
	return &Ledger{db: db, clock: clock, defaultDays: defaultDays}
}

// BorrowBook lends one copy of a book to an active member for days days and
// returns the open loan. A missing book is reported before an unavailable
// one, and both before any problem with the member.
func (l *Ledger) BorrowBook(ctx context.Context, bookID, memberID uint, days int) (*entities.Loan, error) {
	if days <= 0 {
		days = l.defaultDays
	}
	now := l.clock.Now()
	loan := &entities.Loan{
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, days),
	}

	err := inTx(ctx, l.db, "borrow book", func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("book %d not found", bookID)
			}
			return err
		}

		// The counter read above may already be stale; only the conditional
		// update decides whether a copy was left.
		taken, err := bookRepo.TakeCopy(bookID)
		if err != nil {
			return err
		}
		if !taken {
			return unavailablef("every copy of %q is on loan", book.Title)
		}

		// Rolling back restores the copy taken above.
		member, err := members.NewRepository(tx).GetByIDForShare(memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("member %d not found", memberID)
			}
			return err
		}
		if !member.IsActive {
			return conflictf("member %q is not active", member.FullName)
		}

		return loans.NewRepository(tx).Create(loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnBook closes the most recently borrowed open loan of the book.
func (l *Ledger) ReturnBook(ctx context.Context, bookID uint) (*entities.Loan, error) {
	now := l.clock.Now()

	var loan *entities.Loan
	err := inTx(ctx, l.db, "return book", func(tx *gorm.DB) error {
		// Locking the book first queues concurrent returns of the same title.
		bookRepo := books.NewRepository(tx)
		if _, err := bookRepo.GetByIDForUpdate(bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return noActiveLoanf("book %d has no open loan", bookID)
			}
			return err
		}

		loanRepo := loans.NewRepository(tx)
		open, err := loanRepo.LatestOpenForBook(bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return noActiveLoanf("book %d has no open loan", bookID)
			}
			return err
		}

		closed, err := loanRepo.MarkReturned(open.ID, now)
		if err != nil {
			return err
		}
		if !closed {
			return noActiveLoanf("book %d has no open loan", bookID)
		}

		restored, err := bookRepo.ReturnCopy(bookID)
		if err != nil {
			return err
		}
		if !restored {
			log.Printf("Warning: book %d already had every copy on the shelf when loan %d was returned", bookID, open.ID)
		}

		open.IsReturned = true
		open.ReturnDate = &now
		loan = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ListOpenLoans returns every open loan with its book title and member name,
// soonest due first. Loans due before the start of today are OVERDUE.
func (l *Ledger) ListOpenLoans(ctx context.Context) ([]entities.LoanDetail, error) {
	details, err := loans.NewRepository(l.db.DB.WithContext(ctx)).ListOpenDetails()
	if err != nil {
		return nil, storeError("list open loans", err)
	}

	now := l.clock.Now()
	for i := range details {
		details[i].Classify(now)
	}
	return details, nil
}
