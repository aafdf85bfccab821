package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// migrateLockID serializes schema migrations across instances sharing one PostgreSQL database.
const migrateLockID int64 = 51465121

// sqliteParams makes every transaction take the write lock on BEGIN so concurrent
// writers queue on busy_timeout instead of failing on lock upgrade.
const sqliteParams = "_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

type Database struct {
	DB *gorm.DB
}

func NewDatabase(cfg config.Database) (*Database, error) {
	return open(cfg, newLogger(cfg.LogSQL))
}

// NewTestDatabase opens a SQLite database with SQL logging silenced.
func NewTestDatabase(path string) (*Database, error) {
	return open(config.Database{Path: path, MaxOpenConn: 4}, logger.Default.LogMode(logger.Silent))
}

func open(cfg config.Database, gormLog logger.Interface) (*Database, error) {
	var dialector gorm.Dialector
	location := cfg.Path
	if cfg.UsesPostgres() {
		dialector = postgres.Open(cfg.URL)
		location = redactDSN(cfg.URL)
	} else {
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	database := &Database{DB: db}
	if err := database.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s (%s)", location, db.Dialector.Name())

	return database, nil
}

func (d *Database) migrate() error {
	models := []any{
		&entities.Admin{},
		&entities.Member{},
		&entities.Book{},
		&entities.Loan{},
		&entities.AuditEvent{},
	}
	if !d.IsPostgres() {
		return d.DB.AutoMigrate(models...)
	}
	return d.withMigrationLock(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models...)
	})
}

// withMigrationLock holds a PostgreSQL advisory lock for the duration of fn.
func (d *Database) withMigrationLock(fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(d.DB)
}

// Transaction runs fn inside a single database transaction. The transaction
// commits when fn returns nil and rolls back on error or panic.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SQLDB returns the pooled connection handle underneath gorm.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) IsPostgres() bool {
	return d.DB.Dialector.Name() == "postgres"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

func redactDSN(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		if scheme := strings.Index(dsn, "://"); scheme >= 0 && scheme < at {
			return dsn[:scheme+3] + "***" + dsn[at:]
		}
	}
	return "postgres"
}

func newLogger(logSQL bool) logger.Interface {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
