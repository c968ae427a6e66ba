// model/borrowing.go
package model

import "time"

// Borrowing links one user to one book for the span of a loan.
// is_active mirrors actual_return_date: active while the date is unset.
type Borrowing struct {
	ID                 int64      `json:"id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
	BookID             int64      `json:"book"`
	UserID             int64      `json:"user"`
	IsActive           bool       `json:"is_active"`
}
