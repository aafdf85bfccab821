package library

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/loans"
	"github.com/mrlokans/librarian/internal/database/members"
	"github.com/mrlokans/librarian/internal/entities"
)

// OverdueListLimit caps the overdue loans included in Stats.
const OverdueListLimit = 5

// Stats is a point-in-time summary of the library.
type Stats struct {
	TotalBooks    int64                 `json:"total_books"`
	ActiveMembers int64                 `json:"active_members"`
	OpenLoans     int64                 `json:"open_loans"`
	OverdueLoans  int64                 `json:"overdue_loans"`
	Overdue       []entities.LoanDetail `json:"overdue"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// Reports computes dashboard statistics.
type Reports struct {
	db    *database.Database
	clock Clock
}

// NewReports creates a reports manager.
func NewReports(db *database.Database, clock Clock) *Reports {
	return &Reports{db: db, clock: clock}
}

// Stats counts books, active members, open and overdue loans, and lists the
// overdue loans that fell due first. All figures come from one transaction.
func (r *Reports) Stats(ctx context.Context) (*Stats, error) {
	now := r.clock.Now()
	cutoff := entities.StartOfDay(now)
	stats := &Stats{GeneratedAt: now, Overdue: []entities.LoanDetail{}}

	err := inTx(ctx, r.db, "compute stats", func(tx *gorm.DB) error {
		var err error
		if stats.TotalBooks, err = books.NewRepository(tx).Count(); err != nil {
			return err
		}
		if stats.ActiveMembers, err = members.NewRepository(tx).CountActive(); err != nil {
			return err
		}

		loanRepo := loans.NewRepository(tx)
		if stats.OpenLoans, err = loanRepo.CountOpen(); err != nil {
			return err
		}
		if stats.OverdueLoans, err = loanRepo.CountOverdue(cutoff); err != nil {
			return err
		}
		overdue, err := loanRepo.ListOverdueDetails(cutoff, OverdueListLimit)
		if err != nil {
			return err
		}
		for i := range overdue {
			overdue[i].Classify(now)
		}
		if overdue != nil {
			stats.Overdue = overdue
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
