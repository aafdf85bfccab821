package http

import (
	"github.com/mrlokans/librarian/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Library operations
	Catalog    CatalogService
	Membership MembershipService
	Loans      LoanService
	Stats      StatsService

	// Database is pinged by the health check
	Database Pinger

	// Audit trail (optional)
	Audit       AuditRecorder
	AuditReader AuditReader

	// Authentication
	AuthService    *auth.Service
	Tokens         *auth.TokenIssuer
	SessionManager *auth.SessionManager
	AuthController *auth.AuthController

	// CSRF protection for cookie sessions; disabled when empty
	CSRFSecret    []byte
	SecureCookies bool

	// Application info
	Version string
}
