package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/library"
)

type BooksController struct {
	catalog CatalogService
	audit   AuditRecorder
}

func NewBooksController(catalog CatalogService, recorder AuditRecorder) *BooksController {
	return &BooksController{catalog: catalog, audit: recorder}
}

// GetAllBooks lists the catalog ordered by title.
// GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	books, err := bc.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondLibraryError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetAvailableBooks lists books with a copy on the shelf.
// GET /api/books/available
func (bc *BooksController) GetAvailableBooks(c *gin.Context) {
	books, err := bc.catalog.ListAvailableBooks(c.Request.Context())
	if err != nil {
		respondLibraryError(c, err, "list available books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// SearchBooks matches a keyword against titles or authors.
// GET /api/books/search?field=title&q=sh
func (bc *BooksController) SearchBooks(c *gin.Context) {
	field := c.DefaultQuery("field", "title")
	books, err := bc.catalog.SearchBooks(c.Request.Context(), field, c.Query("q"))
	if err != nil {
		respondLibraryError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook returns one book.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondLibraryError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook catalogs a new book.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req library.NewBook
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.catalog.AddBook(c.Request.Context(), req)
	var bookID uint
	if book != nil {
		bookID = book.ID
	}
	if bc.audit != nil {
		bc.audit.LogCatalog(auth.ActorFromContext(c), "book_add", bookID, fmt.Sprintf("Added %q by %s", req.Title, req.Author), err)
	}
	if err != nil {
		respondLibraryError(c, err, "add book")
		return
	}
	respondCreated(c, book)
}

// DeleteBook removes a book that has no copies out on loan.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := bc.catalog.DeleteBook(c.Request.Context(), id)
	if bc.audit != nil {
		bc.audit.LogCatalog(auth.ActorFromContext(c), "book_delete", id, fmt.Sprintf("Deleted book %d", id), err)
	}
	if err != nil {
		respondLibraryError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted", nil)
}
