package library

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	lib   *Library
	db    *database.Database
	clock *testClock
	ctx   context.Context
}

func setupLibrary(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewTestDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{now: time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)}
	return &fixture{
		lib:   New(db, clock, config.Loans{DefaultDays: config.DefaultLoanDays}),
		db:    db,
		clock: clock,
		ctx:   context.Background(),
	}
}

func (f *fixture) addBook(t *testing.T, title, author string, copies int) *entities.Book {
	t.Helper()
	book, err := f.lib.Catalog.AddBook(f.ctx, NewBook{Title: title, Author: author, TotalCopies: copies})
	require.NoError(t, err)
	return book
}

func (f *fixture) addMember(t *testing.T, name string) *entities.Member {
	t.Helper()
	member, err := f.lib.Membership.AddMember(f.ctx, NewMember{FullName: name})
	require.NoError(t, err)
	return member
}

func (f *fixture) book(t *testing.T, id uint) *entities.Book {
	t.Helper()
	book, err := f.lib.Catalog.GetBook(f.ctx, id)
	require.NoError(t, err)
	return book
}

// requireCopyInvariant checks that the counters agree with the open loans.
func (f *fixture) requireCopyInvariant(t *testing.T, bookID uint) {
	t.Helper()
	book := f.book(t, bookID)

	var open int64
	require.NoError(t, f.db.DB.Model(&entities.Loan{}).
		Where("book_id = ? AND is_returned = ?", bookID, false).
		Count(&open).Error)

	require.GreaterOrEqual(t, book.AvailableCopies, 0)
	require.LessOrEqual(t, book.AvailableCopies, book.TotalCopies)
	require.Equal(t, int64(book.TotalCopies-book.AvailableCopies), open)
}
