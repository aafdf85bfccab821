package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
)

// Context keys for admin data
const (
	ContextKeyAdminID   = "auth_admin_id"
	ContextKeyUsername  = "auth_username"
	ContextKeyAuthType  = "auth_type" // "session", "bearer", or "none"
	ContextKeySession   = "auth_session"
	ContextKeyRequestID = "request_id"
)

// AuthType indicates how the admin was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware authenticates requests with a bearer token or a session cookie.
type Middleware struct {
	service        *Service
	tokens         *TokenIssuer
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware. sessionManager may be nil.
func NewMiddleware(service *Service, tokens *TokenIssuer, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		tokens:         tokens,
		sessionManager: sessionManager,
		publicPaths: map[string]bool{
			"/health": true,
			"/ping":   true,
			"/login":  true,
			"/logout": true,
		},
	}
}

// Handler returns a Gin middleware that rejects unauthenticated requests to
// non-public paths with 401.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		// Bearer token first (API clients)
		if session := m.tryBearerAuth(c); session != nil {
			setAdminContext(c, session, AuthTypeBearer)
			c.Next()
			return
		}

		if session := m.trySessionAuth(c); session != nil {
			setAdminContext(c, session, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
	}
}

// tryBearerAuth validates the bearer token and checks the admin still exists.
func (m *Middleware) tryBearerAuth(c *gin.Context) *Session {
	token := bearerToken(c)
	if token == "" || m.tokens == nil {
		return nil
	}

	session, err := m.tokens.Parse(token)
	if err != nil {
		return nil
	}
	admin, err := m.service.GetAdminByID(session.AdminID)
	if err != nil {
		return nil
	}
	session.Username = admin.Username
	return session
}

func (m *Middleware) trySessionAuth(c *gin.Context) *Session {
	if m.sessionManager == nil {
		return nil
	}

	session := m.sessionManager.GetSession(c.Request)
	if session == nil {
		return nil
	}
	admin, err := m.service.GetAdminByID(session.AdminID)
	if err != nil {
		return nil
	}
	session.Username = admin.Username
	return session
}

func setAdminContext(c *gin.Context, session *Session, authType AuthType) {
	c.Set(ContextKeyAdminID, session.AdminID)
	c.Set(ContextKeyUsername, session.Username)
	c.Set(ContextKeyAuthType, authType)
	c.Set(ContextKeySession, session)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetAdminID retrieves the authenticated admin's ID, or 0.
func GetAdminID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyAdminID); exists {
		if adminID, ok := id.(uint); ok {
			return adminID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated admin's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// GetSession returns the session the request was authenticated with, or nil.
func GetSession(c *gin.Context) *Session {
	if s, exists := c.Get(ContextKeySession); exists {
		if session, ok := s.(*Session); ok {
			return session
		}
	}
	return nil
}

// ActorFromContext describes who is performing the request, for audit events.
func ActorFromContext(c *gin.Context) audit.Actor {
	return audit.Actor{
		AdminID:       GetAdminID(c),
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		CorrelationID: c.GetString(ContextKeyRequestID),
	}
}
