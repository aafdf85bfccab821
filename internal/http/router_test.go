package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	auditrepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/library"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type apiServer struct {
	router *gin.Engine
	audit  *audit.Service
	token  string
}

func setupAPI(t *testing.T) *apiServer {
	t.Helper()
	db, err := database.NewTestDatabase(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{
		SecureCookies:    false,
		SessionLifetime:  time.Hour,
		MaxLoginAttempts: 5,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	authService := auth.NewService(db.DB, authCfg)
	_, err = authService.EnsureAdmin("admin", "admin123")
	require.NoError(t, err)

	sessionManager := auth.NewSessionManager(auth.NewMemoryStore(), authCfg)
	tokens := auth.NewTokenIssuer(testSecret, "librarian", time.Hour)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	authController := auth.NewAuthController(authService, tokens, sessionManager, auditService, authCfg)
	t.Cleanup(authController.Stop)

	lib := library.New(db, nil, config.Loans{DefaultDays: config.DefaultLoanDays})
	router := NewRouter(RouterConfig{
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
		CSRFSecret:     testSecret,
		Version:        "test",
	})

	s := &apiServer{router: router, audit: auditService}
	s.token = s.login(t)
	return s
}

func (s *apiServer) login(t *testing.T) string {
	t.Helper()
	w := s.request(http.MethodPost, "/login", `{"username":"admin","password":"admin123"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Session auth.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Session.Token)
	return resp.Session.Token
}

func (s *apiServer) request(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// do sends an authenticated request.
func (s *apiServer) do(method, path, body string) *httptest.ResponseRecorder {
	return s.request(method, path, body, s.token)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

func (s *apiServer) createBook(t *testing.T, title, author string, copies int) entities.Book {
	t.Helper()
	w := s.do(http.MethodPost, "/api/books", fmt.Sprintf(`{"title":%q,"author":%q,"total_copies":%d}`, title, author, copies))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Book](t, w)
}

func (s *apiServer) createMember(t *testing.T, name string) entities.Member {
	t.Helper()
	w := s.do(http.MethodPost, "/api/members", fmt.Sprintf(`{"full_name":%q}`, name))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[entities.Member](t, w)
}

func (s *apiServer) borrow(bookID, memberID uint) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/loans", fmt.Sprintf(`{"book_id":%d,"member_id":%d}`, bookID, memberID))
}

func (s *apiServer) giveBack(bookID uint) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/loans/return", fmt.Sprintf(`{"book_id":%d}`, bookID))
}

type listBooksResponse struct {
	Books []entities.Book `json:"books"`
	Count int             `json:"count"`
}

type listLoansResponse struct {
	Loans []entities.LoanDetail `json:"loans"`
	Count int                   `json:"count"`
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := setupAPI(t)

	for _, path := range []string{"/api/books", "/api/members", "/api/loans", "/api/stats", "/api/audit", "/api/profile"} {
		w := s.request(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "unauthorized", errorCode(t, w), path)
	}

	w := s.request(http.MethodGet, "/api/books", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_LoanLifecycle(t *testing.T) {
	s := setupAPI(t)

	book := s.createBook(t, "Shahnameh", "Ferdowsi", 1)
	assert.Equal(t, 1, book.AvailableCopies)
	first := s.createMember(t, "Sara Ahmadi")
	second := s.createMember(t, "Reza Karimi")

	w := s.borrow(book.ID, first.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loan := decode[entities.Loan](t, w)
	assert.Equal(t, 14*24*time.Hour, loan.DueDate.Sub(loan.BorrowDate))

	w = s.borrow(book.ID, second.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "unavailable", errorCode(t, w))

	w = s.do(http.MethodGet, "/api/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	loans := decode[listLoansResponse](t, w)
	require.Len(t, loans.Loans, 1)
	assert.Equal(t, "Shahnameh", loans.Loans[0].BookTitle)
	assert.Equal(t, "Sara Ahmadi", loans.Loans[0].MemberName)
	assert.Equal(t, entities.LoanStatusActive, loans.Loans[0].Status)

	w = s.do(http.MethodGet, "/api/books/available", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[listBooksResponse](t, w).Books)

	w = s.giveBack(book.ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	returned := decode[entities.Loan](t, w)
	assert.Equal(t, loan.ID, returned.ID)
	assert.True(t, returned.IsReturned)
	assert.NotNil(t, returned.ReturnDate)

	w = s.giveBack(book.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no_active_loan", errorCode(t, w))

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[entities.Book](t, w).AvailableCopies)
}

func TestRouter_BorrowValidation(t *testing.T) {
	s := setupAPI(t)
	book := s.createBook(t, "Masnavi", "Rumi", 2)
	member := s.createMember(t, "Sara Ahmadi")

	w := s.borrow(999, member.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.borrow(book.ID, 999)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/loans", `{"book_id":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/members/%d/deactivate", member.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.borrow(book.ID, member.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))
}

func TestRouter_CatalogEndpoints(t *testing.T) {
	s := setupAPI(t)
	s.createBook(t, "Shahnameh", "Ferdowsi", 3)
	s.createBook(t, "History of Shiraz", "Pirnia", 1)
	s.createBook(t, "Masnavi", "Rumi", 1)

	t.Run("search by title", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/books/search?field=title&q=sh", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[listBooksResponse](t, w)
		require.Len(t, resp.Books, 2)
		assert.Equal(t, "History of Shiraz", resp.Books[0].Title)
		assert.Equal(t, "Shahnameh", resp.Books[1].Title)
	})

	t.Run("search rejects unknown field", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/books/search?field=isbn&q=sh", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation", errorCode(t, w))
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/books", `{"title":"S","author":"Ferdowsi","total_copies":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodPost, "/api/books", `{"title":"Golestan","author":"S","total_copies":1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodPost, "/api/books", `not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create defaults to one copy", func(t *testing.T) {
		book := s.createBook(t, "Golestan", "Saadi", 0)
		assert.Equal(t, 1, book.TotalCopies)
		assert.Equal(t, 1, book.AvailableCopies)
		require.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), "").Code)
	})

	t.Run("list is ordered by title", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/books", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[listBooksResponse](t, w)
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, "History of Shiraz", resp.Books[0].Title)
	})

	t.Run("get missing book", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/books/999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(http.MethodGet, "/api/books/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_DeleteBookWithOpenLoan(t *testing.T) {
	s := setupAPI(t)
	book := s.createBook(t, "Golestan", "Saadi", 2)
	member := s.createMember(t, "Sara Ahmadi")
	require.Equal(t, http.StatusCreated, s.borrow(book.ID, member.ID).Code)

	w := s.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, s.giveBack(book.ID).Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MemberEndpoints(t *testing.T) {
	s := setupAPI(t)
	member := s.createMember(t, "Sara Ahmadi")
	s.createMember(t, "Ali Rezaei")

	w := s.do(http.MethodPost, "/api/members", `{"full_name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/members/%d", member.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[entities.Member](t, w).IsActive)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/members/%d/deactivate", member.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/members", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Members []entities.Member `json:"members"`
	}](t, w)
	require.Len(t, resp.Members, 1)
	assert.Equal(t, "Ali Rezaei", resp.Members[0].FullName)

	w = s.do(http.MethodPost, "/api/members/999/deactivate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Stats(t *testing.T) {
	s := setupAPI(t)
	book := s.createBook(t, "Shahnameh", "Ferdowsi", 2)
	s.createBook(t, "Masnavi", "Rumi", 1)
	member := s.createMember(t, "Sara Ahmadi")
	require.Equal(t, http.StatusCreated, s.borrow(book.ID, member.ID).Code)

	w := s.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[library.Stats](t, w)
	assert.Equal(t, int64(2), stats.TotalBooks)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(1), stats.OpenLoans)
	assert.Equal(t, int64(0), stats.OverdueLoans)
	assert.Empty(t, stats.Overdue)
}

func TestRouter_AuditTrail(t *testing.T) {
	s := setupAPI(t)
	book := s.createBook(t, "Shahnameh", "Ferdowsi", 1)
	member := s.createMember(t, "Sara Ahmadi")
	require.Equal(t, http.StatusCreated, s.borrow(book.ID, member.ID).Code)
	assert.Equal(t, http.StatusConflict, s.borrow(book.ID, member.ID).Code)
	s.audit.Wait()

	w := s.do(http.MethodGet, "/api/audit?type=circulation", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Events      []entities.AuditEvent `json:"events"`
		TotalEvents int64                 `json:"total_events"`
	}](t, w)
	require.Equal(t, int64(2), resp.TotalEvents)

	statuses := map[entities.AuditStatus]int{}
	for _, e := range resp.Events {
		assert.Equal(t, "loan_borrow", e.Action)
		assert.NotEmpty(t, e.CorrelationID)
		assert.NotZero(t, e.AdminID)
		statuses[e.Status]++
	}
	assert.Equal(t, 1, statuses[entities.AuditStatusSuccess])
	assert.Equal(t, 1, statuses[entities.AuditStatusFailed])

	w = s.do(http.MethodGet, "/api/audit?entity_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CookieSessionNeedsCSRFToken(t *testing.T) {
	s := setupAPI(t)

	w := s.request(http.MethodPost, "/login", `{"username":"admin","password":"admin123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	withCookies := func(req *http.Request, extra []*http.Cookie) {
		for _, c := range append(cookies, extra...) {
			req.AddCookie(c)
		}
	}

	// A safe request returns a token bound to the CSRF cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	withCookies(req, nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := w.Header().Get(auth.CSRFTokenHeader)
	require.NotEmpty(t, token)
	csrfCookies := w.Result().Cookies()

	body := `{"title":"Shahnameh","author":"Ferdowsi","total_copies":1}`

	req = httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	withCookies(req, csrfCookies)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.CSRFTokenHeader, token)
	withCookies(req, csrfCookies)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
