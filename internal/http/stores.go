package http

import (
	"context"

	"github.com/mrlokans/librarian/internal/audit"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/library"
)

// Each controller depends on the narrowest interface it needs. The
// *library.Catalog, *library.Membership, *library.Ledger, *library.Reports
// and *audit.Service types satisfy them.

// CatalogService manages books.
type CatalogService interface {
	AddBook(ctx context.Context, in library.NewBook) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	ListBooks(ctx context.Context) ([]entities.Book, error)
	ListAvailableBooks(ctx context.Context) ([]entities.Book, error)
	SearchBooks(ctx context.Context, field, keyword string) ([]entities.Book, error)
}

// MembershipService manages members.
type MembershipService interface {
	AddMember(ctx context.Context, in library.NewMember) (*entities.Member, error)
	DeactivateMember(ctx context.Context, id uint) error
	GetMember(ctx context.Context, id uint) (*entities.Member, error)
	ListActiveMembers(ctx context.Context) ([]entities.Member, error)
}

// LoanService records borrowings and returns.
type LoanService interface {
	BorrowBook(ctx context.Context, bookID, memberID uint, days int) (*entities.Loan, error)
	ReturnBook(ctx context.Context, bookID uint) (*entities.Loan, error)
	ListOpenLoans(ctx context.Context) ([]entities.LoanDetail, error)
}

// StatsService computes dashboard figures.
type StatsService interface {
	Stats(ctx context.Context) (*library.Stats, error)
}

// AuditRecorder records write operations. A nil recorder disables auditing.
type AuditRecorder interface {
	LogCatalog(actor audit.Actor, action string, bookID uint, description string, err error)
	LogMembership(actor audit.Actor, action string, memberID uint, description string, err error)
	LogCirculation(actor audit.Actor, action string, loanID uint, bookID, memberID uint, description string, err error)
}

// AuditReader lists recorded events.
type AuditReader interface {
	GetEvents(filter auditrepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}
