package library

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/entities"
)

func TestReports_Stats_Empty(t *testing.T) {
	f := setupLibrary(t)

	stats, err := f.lib.Reports.Stats(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalBooks)
	assert.Zero(t, stats.ActiveMembers)
	assert.Zero(t, stats.OpenLoans)
	assert.Zero(t, stats.OverdueLoans)
	assert.NotNil(t, stats.Overdue)
	assert.Empty(t, stats.Overdue)
}

func TestReports_Stats(t *testing.T) {
	f := setupLibrary(t)
	member := f.addMember(t, "Ali Rezaei")
	inactive := f.addMember(t, "Babak Hosseini")
	require.NoError(t, f.lib.Membership.DeactivateMember(f.ctx, inactive.ID))

	// Seven loans due on consecutive days, plus one long loan
	for i := 1; i <= 7; i++ {
		book := f.addBook(t, fmt.Sprintf("Volume %d", i), "Ferdowsi", 1)
		_, err := f.lib.Ledger.BorrowBook(f.ctx, book.ID, member.ID, i)
		require.NoError(t, err)
	}
	long := f.addBook(t, "Masnavi", "Rumi", 3)
	_, err := f.lib.Ledger.BorrowBook(f.ctx, long.ID, member.ID, 60)
	require.NoError(t, err)

	f.clock.Advance(30 * 24 * time.Hour)

	stats, err := f.lib.Reports.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalBooks)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(8), stats.OpenLoans)
	assert.Equal(t, int64(7), stats.OverdueLoans)

	require.Len(t, stats.Overdue, OverdueListLimit)
	for i, loan := range stats.Overdue {
		assert.Equal(t, fmt.Sprintf("Volume %d", i+1), loan.BookTitle)
		assert.Equal(t, "Ali Rezaei", loan.MemberName)
		assert.Equal(t, entities.LoanStatusOverdue, loan.Status)
	}
	assert.Equal(t, f.clock.Now(), stats.GeneratedAt)
}
