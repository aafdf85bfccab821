package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/library"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "validation"})
}

// respondInternalError logs the error and sends a 500 without exposing it.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "store"})
}

// libraryErrorStatus maps library error kinds to HTTP status codes and codes.
var libraryErrorStatus = map[error]struct {
	status int
	code   string
}{
	library.ErrValidation:   {http.StatusBadRequest, "validation"},
	library.ErrNotFound:     {http.StatusNotFound, "not_found"},
	library.ErrConflict:     {http.StatusConflict, "conflict"},
	library.ErrUnavailable:  {http.StatusConflict, "unavailable"},
	library.ErrNoActiveLoan: {http.StatusConflict, "no_active_loan"},
}

// respondLibraryError translates an error from the library package.
// Store failures and unknown errors become a logged 500.
func respondLibraryError(c *gin.Context, err error, context string) {
	if mapped, ok := libraryErrorStatus[library.Kind(err)]; ok {
		c.JSON(mapped.status, ErrorResponse{Error: err.Error(), Code: mapped.code})
		return
	}
	respondInternalError(c, err, context)
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseQueryInt reads an optional integer query parameter, falling back to def.
func parseQueryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}
