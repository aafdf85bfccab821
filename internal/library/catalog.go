package library

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/entities"
)

// minTextLength applies to titles, authors, member names and search keywords.
const minTextLength = 2

// NewBook is the input of AddBook.
type NewBook struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublicationYear *int   `json:"publication_year"`
	TotalCopies     int    `json:"total_copies"`
}

// Catalog manages the books the library owns.
type Catalog struct {
	db *database.Database
}

// NewCatalog creates a catalog manager.
func NewCatalog(db *database.Database) *Catalog {
	return &Catalog{db: db}
}

// AddBook catalogs a new title with every copy on the shelf.
func (c *Catalog) AddBook(ctx context.Context, in NewBook) (*entities.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if utf8.RuneCountInString(title) < minTextLength {
		return nil, validationf("title must be at least %d characters", minTextLength)
	}
	if utf8.RuneCountInString(author) < minTextLength {
		return nil, validationf("author must be at least %d characters", minTextLength)
	}
	if in.PublicationYear != nil && *in.PublicationYear < 0 {
		return nil, validationf("publication year must not be negative")
	}

	copies := in.TotalCopies
	if copies < 1 {
		copies = 1
	}

	book := &entities.Book{
		Title:           title,
		Author:          author,
		PublicationYear: in.PublicationYear,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" {
		book.ISBN = &isbn
	}

	err := inTx(ctx, c.db, "add book", func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		if book.ISBN != nil {
			exists, err := repo.ExistsByISBN(*book.ISBN)
			if err != nil {
				return err
			}
			if exists {
				return conflictf("a book with ISBN %s already exists", *book.ISBN)
			}
		}
		if err := repo.Create(book); err != nil {
			// Lost a race with another insert of the same ISBN
			if database.IsUniqueViolation(err) {
				return conflictf("a book with ISBN %s already exists", *book.ISBN)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book and its loan history. Books with copies out on
// loan cannot be deleted.
func (c *Catalog) DeleteBook(ctx context.Context, id uint) error {
	return inTx(ctx, c.db, "delete book", func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		book, err := repo.GetByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("book %d not found", id)
			}
			return err
		}
		if book.HasOpenLoans() {
			return conflictf("%d of %d copies of %q are on loan", book.TotalCopies-book.AvailableCopies, book.TotalCopies, book.Title)
		}
		return repo.Delete(id)
	})
}

// GetBook returns a single book.
func (c *Catalog) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := books.NewRepository(c.db.DB.WithContext(ctx)).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("book %d not found", id)
		}
		return nil, storeError("get book", err)
	}
	return book, nil
}

// ListBooks returns the whole catalog ordered by title.
func (c *Catalog) ListBooks(ctx context.Context) ([]entities.Book, error) {
	list, err := books.NewRepository(c.db.DB.WithContext(ctx)).List()
	if err != nil {
		return nil, storeError("list books", err)
	}
	return list, nil
}

// ListAvailableBooks returns books with at least one copy on the shelf.
func (c *Catalog) ListAvailableBooks(ctx context.Context) ([]entities.Book, error) {
	list, err := books.NewRepository(c.db.DB.WithContext(ctx)).ListAvailable()
	if err != nil {
		return nil, storeError("list available books", err)
	}
	return list, nil
}

// SearchBooks finds books whose title or author contains keyword, ignoring
// case, ordered by title.
func (c *Catalog) SearchBooks(ctx context.Context, field, keyword string) ([]entities.Book, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if _, ok := books.SearchableColumns[field]; !ok {
		return nil, validationf("search field must be title or author")
	}
	keyword = strings.TrimSpace(keyword)
	if utf8.RuneCountInString(keyword) < minTextLength {
		return nil, validationf("keyword must be at least %d characters", minTextLength)
	}

	list, err := books.NewRepository(c.db.DB.WithContext(ctx)).Search(field, keyword)
	if err != nil {
		return nil, storeError("search books", err)
	}
	return list, nil
}
