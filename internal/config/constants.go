package config

const (
	// DefaultDatabasePath is the SQLite file used when DATABASE_URL is not set
	DefaultDatabasePath = "./librarian.db"

	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"

	// DefaultPBKDF2Iterations is also the lower bound accepted for password hashing
	DefaultPBKDF2Iterations = 100000

	DefaultLoanDays = 14
)
