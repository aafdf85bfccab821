package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
)

type borrowRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	MemberID uint `json:"member_id" binding:"required"`
	Days     int  `json:"days"` // non-positive means the default loan period
}

type returnRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

type LoansController struct {
	ledger LoanService
	audit  AuditRecorder
}

func NewLoansController(ledger LoanService, recorder AuditRecorder) *LoansController {
	return &LoansController{ledger: ledger, audit: recorder}
}

// GetOpenLoans lists open loans, soonest due first, flagged ACTIVE or OVERDUE.
// GET /api/loans
func (lc *LoansController) GetOpenLoans(c *gin.Context) {
	loans, err := lc.ledger.ListOpenLoans(c.Request.Context())
	if err != nil {
		respondLibraryError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// BorrowBook lends a copy to a member.
// POST /api/loans
func (lc *LoansController) BorrowBook(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and member_id are required")
		return
	}

	loan, err := lc.ledger.BorrowBook(c.Request.Context(), req.BookID, req.MemberID, req.Days)
	var loanID uint
	if loan != nil {
		loanID = loan.ID
	}
	if lc.audit != nil {
		lc.audit.LogCirculation(auth.ActorFromContext(c), "loan_borrow", loanID, req.BookID, req.MemberID,
			fmt.Sprintf("Book %d lent to member %d", req.BookID, req.MemberID), err)
	}
	if err != nil {
		respondLibraryError(c, err, "borrow book")
		return
	}
	respondCreated(c, loan)
}

// ReturnBook closes the most recent open loan of a book.
// POST /api/loans/return
func (lc *LoansController) ReturnBook(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	loan, err := lc.ledger.ReturnBook(c.Request.Context(), req.BookID)
	var loanID, memberID uint
	if loan != nil {
		loanID, memberID = loan.ID, loan.MemberID
	}
	if lc.audit != nil {
		lc.audit.LogCirculation(auth.ActorFromContext(c), "loan_return", loanID, req.BookID, memberID,
			fmt.Sprintf("Book %d returned", req.BookID), err)
	}
	if err != nil {
		respondLibraryError(c, err, "return book")
		return
	}
	c.JSON(http.StatusOK, loan)
}
