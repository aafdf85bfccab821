// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations, transactions
//	├── admins/          # Administrator accounts
//	├── books/           # Catalog rows and copy counters
//	├── members/         # Library members
//	├── loans/           # Borrowings and open-loan reporting queries
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Repositories wrap a *gorm.DB, which may be the root handle or an open
// transaction. Business operations create them inside Database.Transaction
// so every statement of one operation shares the same transaction:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	err = db.Transaction(ctx, func(tx *gorm.DB) error {
//		book, err := books.NewRepository(tx).GetByID(id)
//		...
//		return loans.NewRepository(tx).Create(loan)
//	})
//
// # Stores
//
// DATABASE_URL selects PostgreSQL; otherwise DATABASE_PATH names a SQLite
// file opened in WAL mode with foreign keys enforced and immediate
// transactions.
package database
