// service/borrowing/borrowing_service_test.go
package borrowingsvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	borrowingrepo "libraryservice/repository/borrowing"
	borrowingsvc "libraryservice/service/borrowing"
)

func newService(t *testing.T) (borrowingsvc.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return borrowingsvc.New(db, borrowingrepo.New(db)), mock
}

func todayUTC() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreate_Success(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO borrowings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	b, err := s.Create(context.Background(), 1, 3, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID != 7 {
		t.Fatalf("id = %d; want 7", b.ID)
	}
	if !b.IsActive {
		t.Fatal("new borrowing should be active")
	}
	today := todayUTC()
	if !b.BorrowDate.Equal(today) {
		t.Fatalf("borrow_date = %v; want %v", b.BorrowDate, today)
	}
	if want := today.AddDate(0, 0, borrowingsvc.LoanPeriodDays); !b.ExpectedReturnDate.Equal(want) {
		t.Fatalf("expected_return_date = %v; want %v", b.ExpectedReturnDate, want)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreate_OutOfStock(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), 1, 3, nil, nil)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrOutOfStock {
		t.Fatalf("code = %q; want OUT_OF_STOCK", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreate_BookNotFound(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), 1, 99, nil, nil)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrBookNotFound {
		t.Fatalf("code = %q; want BOOK_NOT_FOUND", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreate_PastExpectedDate(t *testing.T) {
	s, mock := newService(t)

	yesterday := todayUTC().AddDate(0, 0, -1)
	_, err := s.Create(context.Background(), 1, 3, &yesterday, nil)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrPastDate {
		t.Fatalf("code = %q; want PAST_DATE", got)
	}

	// Fail closed: nothing may reach the database.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreate_PastActualDate(t *testing.T) {
	s, _ := newService(t)

	yesterday := todayUTC().AddDate(0, 0, -1)
	_, err := s.Create(context.Background(), 1, 3, nil, &yesterday)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrPastDate {
		t.Fatalf("code = %q; want PAST_DATE", got)
	}
}

func TestCreate_InsertFailureRollsBack(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO borrowings").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if _, err := s.Create(context.Background(), 1, 3, nil, nil); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// actual is either nil or a time.Time, mirroring a nullable DATE column.
func borrowingRow(actual any, active bool) *sqlmock.Rows {
	today := todayUTC()
	return sqlmock.NewRows([]string{
		"id", "borrow_date", "expected_return_date", "actual_return_date", "book_id", "user_id", "is_active",
	}).AddRow(int64(5), today, today.AddDate(0, 0, 7), actual, int64(3), int64(1), active)
}

func TestReturn_Success(t *testing.T) {
	s, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrowings").
		WithArgs(int64(5), false, int64(1)).
		WillReturnRows(borrowingRow(nil, true))
	mock.ExpectExec("UPDATE borrowings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE books").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Return(context.Background(), 1, false, 5); err != nil {
		t.Fatalf("return: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturn_AlreadyReturned(t *testing.T) {
	s, mock := newService(t)

	returned := todayUTC().AddDate(0, 0, -1)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrowings").
		WithArgs(int64(5), false, int64(1)).
		WillReturnRows(borrowingRow(returned, false))
	mock.ExpectRollback()

	err := s.Return(context.Background(), 1, false, 5)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrAlreadyReturned {
		t.Fatalf("code = %q; want ALREADY_RETURNED", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturn_ConcurrentGuard(t *testing.T) {
	s, mock := newService(t)

	// Row still looks active, but the guarded update hits zero rows: a
	// concurrent return won the race. No inventory increment may follow.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrowings").
		WithArgs(int64(5), false, int64(1)).
		WillReturnRows(borrowingRow(nil, true))
	mock.ExpectExec("UPDATE borrowings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.Return(context.Background(), 1, false, 5)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrAlreadyReturned {
		t.Fatalf("code = %q; want ALREADY_RETURNED", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturn_NotVisible(t *testing.T) {
	s, mock := newService(t)

	// Owned by someone else: the scoped query simply finds nothing.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM borrowings").
		WithArgs(int64(5), false, int64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.Return(context.Background(), 9, false, 5)
	if got := borrowingsvc.Code(err); got != borrowingsvc.ErrNotFound {
		t.Fatalf("code = %q; want NOT_FOUND", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
