package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// AuditLogger records authentication and account events.
type AuditLogger interface {
	LogAuth(actor audit.Actor, action, username string, success bool)
	LogAccount(actor audit.Actor, action, description string, err error)
}

// AuthController serves login, logout and the admin's own profile.
type AuthController struct {
	service        *Service
	tokens         *TokenIssuer
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	audit          AuditLogger
}

// NewAuthController creates the controller. sessionManager and auditLogger may be nil.
func NewAuthController(service *Service, tokens *TokenIssuer, sessionManager *SessionManager, auditLogger AuditLogger, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		tokens:         tokens,
		sessionManager: sessionManager,
		rateLimiter:    NewRateLimiter(cfg),
		audit:          auditLogger,
	}
}

// RegisterRoutes registers the public login/logout endpoints.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
}

// RegisterProfileRoutes registers endpoints that need an authenticated admin.
func (ac *AuthController) RegisterProfileRoutes(api gin.IRouter) {
	api.GET("/profile", ac.Profile)
	api.POST("/profile/password", ac.ChangePassword)
}

// Stop cleans up the rate limiter goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type adminView struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func newAdminView(admin *entities.Admin) adminView {
	return adminView{ID: admin.ID, Username: admin.Username, CreatedAt: admin.CreatedAt.UTC()}
}

// Login verifies credentials, starts a cookie session and returns a bearer session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "validation"})
		return
	}
	username := strings.TrimSpace(req.Username)
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
		c.Header("Retry-After", retryAfter.Round(time.Second).String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"code":        "rate_limited",
			"retry_after": retryAfter.Round(time.Second).String(),
		})
		return
	}

	admin, err := ac.service.Authenticate(username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Login failed for %q: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "store"})
			return
		}
		ac.rateLimiter.RecordFailure(clientIP, username)
		ac.logAuth(c, "login", username, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Error(), "code": "invalid_credentials"})
		return
	}
	ac.rateLimiter.RecordSuccess(clientIP, username)

	session, err := ac.tokens.Issue(admin)
	if err != nil {
		log.Printf("Failed to issue token for %q: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "store"})
		return
	}
	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, admin); err != nil {
			log.Printf("Failed to create cookie session for %q: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "code": "store"})
			return
		}
	}

	actor := ActorFromContext(c)
	actor.AdminID = admin.ID
	if ac.audit != nil {
		ac.audit.LogAuth(actor, "login", admin.Username, true)
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Logout ends the cookie session and revokes the bearer token, if any.
func (ac *AuthController) Logout(c *gin.Context) {
	var username string
	if token := bearerToken(c); token != "" {
		if session, err := ac.tokens.Parse(token); err == nil {
			ac.tokens.Revoke(session)
			username = session.Username
		}
	}
	if ac.sessionManager != nil {
		if username == "" {
			username = ac.sessionManager.GetUsername(c.Request)
		}
		_ = ac.sessionManager.DestroySession(c.Request)
	}

	if username != "" {
		ac.logAuth(c, "logout", username, true)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Profile returns the authenticated admin.
func (ac *AuthController) Profile(c *gin.Context) {
	admin, err := ac.service.GetAdminByID(GetAdminID(c))
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "store"})
		return
	}

	resp := gin.H{"admin": newAdminView(admin), "auth_type": GetAuthType(c)}
	if session := GetSession(c); session != nil {
		resp["expires_at"] = session.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the authenticated admin's password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "validation"})
		return
	}

	err := ac.service.ChangePassword(GetAdminID(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if ac.audit != nil {
		ac.audit.LogAccount(ActorFromContext(c), "change_password", "password change", err)
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect", "code": "invalid_credentials"})
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, ErrAdminNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	default:
		log.Printf("Failed to change password for admin %d: %v", GetAdminID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "store"})
	}
}

func (ac *AuthController) logAuth(c *gin.Context, action, username string, success bool) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(ActorFromContext(c), action, username, success)
}
