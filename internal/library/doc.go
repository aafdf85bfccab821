// Package library implements the circulation rules of the library: the
// catalog of books, the membership roll, the loan ledger and the summary
// statistics shown on the dashboard.
//
// Every operation runs against the injected *database.Database inside a
// single transaction. Copy counters on a book always satisfy
//
//	0 <= available_copies <= total_copies
//
// and total_copies - available_copies equals the number of open loans of the
// book. Borrowing decrements the counter with a conditional UPDATE whose
// affected-row count decides availability, so two concurrent borrows of the
// last copy cannot both succeed.
//
// Errors wrap one of the sentinel kinds in errors.go and are checked with
// errors.Is.
package library
