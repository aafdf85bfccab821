package library

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
)

// Library groups the managers that share one store and clock.
type Library struct {
	Catalog    *Catalog
	Membership *Membership
	Ledger     *Ledger
	Reports    *Reports
}

// New wires every manager to db. A nil clock means SystemClock.
func New(db *database.Database, clock Clock, cfg config.Loans) *Library {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Library{
		Catalog:    NewCatalog(db),
		Membership: NewMembership(db, clock),
		Ledger:     NewLedger(db, clock, cfg.DefaultDays),
		Reports:    NewReports(db, clock),
	}
}

// inTx runs fn in a transaction. Errors that do not already carry a kind are
// reported as ErrStore.
func inTx(ctx context.Context, db *database.Database, op string, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(ctx, fn)
	if err == nil || Kind(err) != nil {
		return err
	}
	return storeError(op, err)
}
