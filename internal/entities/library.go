package entities

import "time"

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "ACTIVE"
	LoanStatusOverdue LoanStatus = "OVERDUE"
)

type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:80;not null" json:"username"`
	PasswordHash string    `gorm:"size:256;not null" json:"-"` // salt (64 hex chars) followed by the hex-encoded derived key
	CreatedAt    time.Time `json:"created_at"`
}

func (Admin) TableName() string {
	return "admins"
}

type Member struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	FullName string    `gorm:"index;size:200;not null" json:"full_name"`
	Phone    *string   `gorm:"size:20" json:"phone,omitempty"`
	Email    *string   `gorm:"size:120" json:"email,omitempty"`
	Address  *string   `gorm:"type:text" json:"address,omitempty"`
	JoinDate time.Time `gorm:"not null" json:"join_date"`
	IsActive bool      `gorm:"index;not null;default:true" json:"is_active"`
}

func (Member) TableName() string {
	return "members"
}

type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:200;not null" json:"title"`
	Author          string    `gorm:"index;size:200;not null" json:"author"`
	ISBN            *string   `gorm:"uniqueIndex;size:20" json:"isbn,omitempty"` // NULL for books without an ISBN
	PublicationYear *int      `json:"publication_year,omitempty"`
	TotalCopies     int       `gorm:"not null;check:chk_books_total_copies,total_copies >= 1" json:"total_copies"`
	AvailableCopies int       `gorm:"not null;check:chk_books_available_copies,available_copies >= 0 AND available_copies <= total_copies" json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

// HasOpenLoans reports whether at least one copy is currently lent out.
func (b *Book) HasOpenLoans() bool {
	return b.AvailableCopies != b.TotalCopies
}

// Loan is a single borrowing of one copy of a book by a member.
// It moves from open to returned exactly once.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	Book       *Book      `gorm:"constraint:OnDelete:CASCADE" json:"book,omitempty"`
	MemberID   uint       `gorm:"index;not null" json:"member_id"`
	Member     *Member    `gorm:"constraint:OnDelete:CASCADE" json:"member,omitempty"`
	BorrowDate time.Time  `gorm:"index;not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	IsReturned bool       `gorm:"index;not null;default:false" json:"is_returned"`
}

func (Loan) TableName() string {
	return "borrowings"
}

// LoanDetail is an open loan joined with its book and member.
type LoanDetail struct {
	LoanID     uint       `json:"loan_id"`
	BookID     uint       `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	MemberID   uint       `json:"member_id"`
	MemberName string     `json:"member_name"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	Status     LoanStatus `json:"status" gorm:"-"`
}

// Classify sets Status from the due date. A loan is overdue once its due
// date falls before the start of the day containing now.
func (d *LoanDetail) Classify(now time.Time) {
	d.Status = LoanStatusActive
	if d.DueDate.Before(StartOfDay(now)) {
		d.Status = LoanStatusOverdue
	}
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
