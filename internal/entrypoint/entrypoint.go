package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	http_controllers "github.com/mrlokans/librarian/internal/http"
	"github.com/mrlokans/librarian/internal/library"
	"github.com/mrlokans/librarian/internal/scheduler"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down within
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
	return nil
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Librarian %s", version)

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	authService := auth.NewService(db.DB, cfg.Auth)
	created, err := authService.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Printf("Created administrator %q; change the default password with 'librarian admin passwd'", cfg.Admin.Username)
	}

	secret, err := sessionSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer(secret, cfg.Auth.TokenIssuer, cfg.Auth.TokenExpiry)

	store, err := sessionStore(db)
	if err != nil {
		return fmt.Errorf("initialize session store: %w", err)
	}
	sessionManager := auth.NewSessionManager(store, cfg.Auth)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	authController := auth.NewAuthController(authService, tokens, sessionManager, auditService, cfg.Auth)

	lib := library.New(db, library.SystemClock{}, cfg.Loans)

	var taskClient *tasks.Client
	var cron *scheduler.Scheduler
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.QueuePath(cfg.Database.Path), tasks.FromSettings(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewPurgeAuditEventsQueue(auditService),
		)
		go taskClient.Start(backgroundCtx)

		cron = scheduler.New()
		if err := cron.Add(scheduler.AuditRetentionJob(taskClient, cfg.Audit)); err != nil {
			return err
		}
		cron.Start(backgroundCtx)
	} else {
		log.Printf("Task queue disabled; audit retention cleanup will not run")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Catalog:        lib.Catalog,
		Membership:     lib.Membership,
		Loans:          lib.Ledger,
		Stats:          lib.Reports,
		Database:       db,
		Audit:          auditService,
		AuditReader:    auditService,
		AuthService:    authService,
		Tokens:         tokens,
		SessionManager: sessionManager,
		AuthController: authController,
		CSRFSecret:     secret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if cron != nil {
			cron.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancelBackground()
		authController.Stop()
		auditService.Wait()
	}

	return Serve(router, cfg, onShutdown)
}

// sessionSecret decodes the configured secret, accepting raw bytes when it is
// not hex, or generates one for this process.
func sessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to keep sessions across restarts)")
	return hex.DecodeString(generated)
}

// sessionStore keeps cookie sessions in the SQLite database, or in memory
// when the library runs on PostgreSQL.
func sessionStore(db *database.Database) (scs.Store, error) {
	if db.IsPostgres() {
		log.Printf("Cookie sessions are kept in memory on PostgreSQL")
		return auth.NewMemoryStore(), nil
	}
	sqlDB, err := db.SQLDB()
	if err != nil {
		return nil, err
	}
	return auth.NewSQLiteStore(sqlDB)
}
