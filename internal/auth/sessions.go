package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// Session data keys
const (
	SessionKeyAdminID  = "admin_id"
	SessionKeyUsername = "username"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with admin-specific accessors.
type SessionManager struct {
	*scs.SessionManager
}

// NewSQLiteStore creates the sessions table when missing and returns an scs
// store backed by it. sqlDB is the *sql.DB underneath GORM.
func NewSQLiteStore(sqlDB *sql.DB) (scs.Store, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}
	return sqlite3store.New(sqlDB), nil
}

// NewMemoryStore returns a process-local store, used when the database is PostgreSQL.
func NewMemoryStore() scs.Store {
	return memstore.New()
}

// NewSessionManager creates a configured cookie session manager on top of store.
func NewSessionManager(store scs.Store, cfg config.Auth) *SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = DefaultTokenTTL
	}
	sm.IdleTimeout = sm.Lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// CreateSession stores the admin in a freshly renewed session.
func (sm *SessionManager) CreateSession(r *http.Request, admin *entities.Admin) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	// Stored as int to match GetInt() retrieval
	sm.Put(r.Context(), SessionKeyAdminID, int(admin.ID))
	sm.Put(r.Context(), SessionKeyUsername, admin.Username)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now().UTC())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetAdminID returns the admin ID stored in the session, or 0.
func (sm *SessionManager) GetAdminID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyAdminID))
}

// GetUsername retrieves the username from the session.
func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

// IsAuthenticated returns true if the request has a logged-in session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetAdminID(r) != 0
}

// HasSessionCookie reports whether the request carries a session cookie at all.
func (sm *SessionManager) HasSessionCookie(r *http.Request) bool {
	cookie, err := r.Cookie(sm.Cookie.Name)
	return err == nil && cookie.Value != ""
}

// GetSession returns the cookie session as a Session value, or nil.
func (sm *SessionManager) GetSession(r *http.Request) *Session {
	adminID := sm.GetAdminID(r)
	if adminID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)
	return &Session{
		AdminID:   adminID,
		Username:  sm.GetUsername(r),
		IssuedAt:  loginAt,
		ExpiresAt: sm.Deadline(r.Context()).UTC(),
	}
}
