package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Admin
		Auth
		Loans
		Audit
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		URL         string // postgres:// DSN; takes precedence over Path when set
		Path        string // SQLite file used when URL is empty
		MaxOpenConn int
		LogSQL      bool
	}

	// Admin is the account created on first start when it does not exist yet.
	Admin struct {
		Username string
		Password string
	}

	Auth struct {
		SessionSecret    string
		SessionLifetime  time.Duration
		TokenExpiry      time.Duration
		TokenIssuer      string
		SecureCookies    bool // Set to false for local dev without HTTPS
		PBKDF2Iterations int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}

	Loans struct {
		DefaultDays int
	}

	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration // Stuck tasks return to the queue after this long
		CleanupInterval time.Duration
	}
)

// UsesPostgres reports whether the store is a PostgreSQL server rather than a local SQLite file.
func (d Database) UsesPostgres() bool {
	return d.URL != ""
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 5500)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_url", "")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_max_open_conns", 10)
	v.SetDefault("database_log_sql", false)

	v.SetDefault("admin_username", DefaultAdminUsername)
	v.SetDefault("admin_password", DefaultAdminPassword)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "12h")  // 12 hours
	v.SetDefault("auth_token_expiry", "12h")      // Bearer token lifetime
	v.SetDefault("auth_token_issuer", "librarian")
	v.SetDefault("auth_secure_cookies", true) // HTTPS-only cookies
	v.SetDefault("auth_pbkdf2_iterations", DefaultPBKDF2Iterations)
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("loan_default_days", DefaultLoanDays)

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL:         v.GetString("DATABASE_URL"),
			Path:        v.GetString("DATABASE_PATH"),
			MaxOpenConn: v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			LogSQL:      v.GetBool("DATABASE_LOG_SQL"),
		},
		Admin: Admin{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			TokenIssuer:      v.GetString("AUTH_TOKEN_ISSUER"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			PBKDF2Iterations: v.GetInt("AUTH_PBKDF2_ITERATIONS"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Loans: Loans{
			DefaultDays: v.GetInt("LOAN_DEFAULT_DAYS"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
