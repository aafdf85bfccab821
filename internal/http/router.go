package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Everything except the health checks and login/logout requires an
// authenticated administrator.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Session loads first so CSRF and auth see the cookie session
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.Tokens, cfg.SessionManager))
	}
	if cfg.AuthService != nil {
		router.Use(auth.NewMiddleware(cfg.AuthService, cfg.Tokens, cfg.SessionManager).Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	api := router.Group("/api")
	if cfg.AuthController != nil {
		cfg.AuthController.RegisterProfileRoutes(api)
	}

	if cfg.Catalog != nil {
		books := NewBooksController(cfg.Catalog, cfg.Audit)
		api.GET("/books", books.GetAllBooks)
		api.GET("/books/available", books.GetAvailableBooks)
		api.GET("/books/search", books.SearchBooks)
		api.GET("/books/:id", books.GetBook)
		api.POST("/books", books.CreateBook)
		api.DELETE("/books/:id", books.DeleteBook)
	}

	if cfg.Membership != nil {
		members := NewMembersController(cfg.Membership, cfg.Audit)
		api.GET("/members", members.GetActiveMembers)
		api.GET("/members/:id", members.GetMember)
		api.POST("/members", members.CreateMember)
		api.POST("/members/:id/deactivate", members.DeactivateMember)
	}

	if cfg.Loans != nil {
		loans := NewLoansController(cfg.Loans, cfg.Audit)
		api.GET("/loans", loans.GetOpenLoans)
		api.POST("/loans", loans.BorrowBook)
		api.POST("/loans/return", loans.ReturnBook)
	}

	if cfg.Stats != nil {
		api.GET("/stats", NewStatsController(cfg.Stats).GetStats)
	}

	if cfg.AuditReader != nil {
		api.GET("/audit", NewAuditController(cfg.AuditReader).GetAuditEvents)
	}

	return router
}
