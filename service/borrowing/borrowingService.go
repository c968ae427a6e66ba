package borrowingsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"libraryservice/model"
	borrowingrepo "libraryservice/repository/borrowing"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrOutOfStock      ErrCode = "OUT_OF_STOCK"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrPastDate        ErrCode = "PAST_DATE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// LoanPeriodDays is how long a borrowing runs when no expected return
// date is supplied.
const LoanPeriodDays = 7

type ListRow = borrowingrepo.ListRow
type DetailRow = borrowingrepo.DetailRow
type ListFilter = borrowingrepo.ListFilter

type Repo interface {
	DecrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	BookExists(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error

	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID int64, admin bool) (*model.Borrowing, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedOn time.Time) (bool, error)
	IncrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) error

	List(ctx context.Context, userID int64, admin bool, f ListFilter) ([]ListRow, error)
	Detail(ctx context.Context, id, userID int64, admin bool) (*DetailRow, error)
}

type Service interface {
	// Create: check out a book for the user, decrementing its inventory.
	Create(ctx context.Context, userID, bookID int64, expectedReturn, actualReturn *time.Time) (*model.Borrowing, error)

	// Return: close an active borrowing and free the copy.
	Return(ctx context.Context, userID int64, admin bool, borrowingID int64) error

	// List / Detail: rows visible to the caller (own rows unless admin).
	List(ctx context.Context, userID int64, admin bool, f ListFilter) ([]ListRow, error)
	Detail(ctx context.Context, id, userID int64, admin bool) (*DetailRow, error)
}

// ----- Service implementation -----

type service struct {
	db *sql.DB
	r  Repo
}

func New(db *sql.DB, r Repo) Service { return &service{db: db, r: r} }

// today is the current UTC date at midnight, matching the DATE columns.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create checks out one copy: a conditional inventory decrement and the
// borrowing insert commit or roll back together.
func (s *service) Create(ctx context.Context, userID, bookID int64, expectedReturn, actualReturn *time.Time) (*model.Borrowing, error) {
	now := today()

	expected := now.AddDate(0, 0, LoanPeriodDays)
	if expectedReturn != nil {
		expected = *expectedReturn
	}
	if expected.Before(now) {
		return nil, makeErr(ErrPastDate)
	}
	if actualReturn != nil && actualReturn.Before(now) {
		return nil, makeErr(ErrPastDate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ok, err := s.r.DecrementInventory(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Zero rows means either no such book or no stock left; nothing
		// was written, so the rollback is a no-op either way.
		exists, eerr := s.r.BookExists(ctx, tx, bookID)
		if eerr != nil {
			err = eerr
			return nil, err
		}
		if !exists {
			err = makeErr(ErrBookNotFound)
		} else {
			err = makeErr(ErrOutOfStock)
		}
		return nil, err
	}

	b := &model.Borrowing{
		BorrowDate:         now,
		ExpectedReturnDate: expected,
		ActualReturnDate:   actualReturn,
		BookID:             bookID,
		UserID:             userID,
		IsActive:           true,
	}
	if err = s.r.Insert(ctx, tx, b); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

// Return closes the borrowing and puts the copy back. The is_active guard
// on the update means a concurrent repeat cannot increment inventory twice.
func (s *service) Return(ctx context.Context, userID int64, admin bool, borrowingID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.r.GetForUpdate(ctx, tx, borrowingID, userID, admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = makeErr(ErrNotFound)
		}
		return err
	}
	if b.ActualReturnDate != nil {
		err = makeErr(ErrAlreadyReturned)
		return err
	}

	ok, err := s.r.MarkReturned(ctx, tx, borrowingID, today())
	if err != nil {
		return err
	}
	if !ok {
		err = makeErr(ErrAlreadyReturned)
		return err
	}
	if err = s.r.IncrementInventory(ctx, tx, b.BookID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) List(ctx context.Context, userID int64, admin bool, f ListFilter) ([]ListRow, error) {
	return s.r.List(ctx, userID, admin, f)
}

func (s *service) Detail(ctx context.Context, id, userID int64, admin bool) (*DetailRow, error) {
	d, err := s.r.Detail(ctx, id, userID, admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return d, nil
}
