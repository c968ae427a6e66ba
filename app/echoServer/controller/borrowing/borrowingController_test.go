package borrowing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"libraryservice/model"
	borrowingsvc "libraryservice/service/borrowing"
)

type svcMock struct {
	createFn func(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error)
	returnFn func(ctx context.Context, userID int64, admin bool, id int64) error
	listFn   func(ctx context.Context, userID int64, admin bool, f borrowingsvc.ListFilter) ([]borrowingsvc.ListRow, error)
	detailFn func(ctx context.Context, id, userID int64, admin bool) (*borrowingsvc.DetailRow, error)
}

var _ borrowingsvc.Service = (*svcMock)(nil)

func (m *svcMock) Create(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error) {
	return m.createFn(ctx, userID, bookID, expected, actual)
}
func (m *svcMock) Return(ctx context.Context, userID int64, admin bool, id int64) error {
	return m.returnFn(ctx, userID, admin, id)
}
func (m *svcMock) List(ctx context.Context, userID int64, admin bool, f borrowingsvc.ListFilter) ([]borrowingsvc.ListRow, error) {
	return m.listFn(ctx, userID, admin, f)
}
func (m *svcMock) Detail(ctx context.Context, id, userID int64, admin bool) (*borrowingsvc.DetailRow, error) {
	return m.detailFn(ctx, id, userID, admin)
}

type codedErr string

func (e codedErr) Error() string { return string(e) }

func (e codedErr) Code() borrowingsvc.ErrCode { return borrowingsvc.ErrCode(e) }

func newController(svc borrowingsvc.Service) *Controller {
	return &Controller{
		Svc: svc,
		V:   validator.New(),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func doRequest(t *testing.T, h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", int64(1))
	c.Set("role", "user")
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestCreate_Success(t *testing.T) {
	m := &svcMock{
		createFn: func(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error) {
			if userID != 1 || bookID != 3 {
				t.Fatalf("unexpected args: user=%d book=%d", userID, bookID)
			}
			today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
			return &model.Borrowing{
				ID:                 7,
				BorrowDate:         today,
				ExpectedReturnDate: today.AddDate(0, 0, 7),
				BookID:             bookID,
				UserID:             userID,
				IsActive:           true,
			}, nil
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Create, http.MethodPost, "/v1/borrowings", `{"book": 3}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201", rec.Code)
	}

	var resp BorrowingResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 7 || !resp.IsActive {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.BorrowDate != "2026-08-30" {
		t.Fatalf("borrow_date = %q", resp.BorrowDate)
	}
}

func TestCreate_OutOfStock(t *testing.T) {
	m := &svcMock{
		createFn: func(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error) {
			return nil, codedErr(borrowingsvc.ErrOutOfStock)
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Create, http.MethodPost, "/v1/borrowings", `{"book": 3}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Book is out of stock") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreate_BookNotFound(t *testing.T) {
	m := &svcMock{
		createFn: func(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error) {
			return nil, codedErr(borrowingsvc.ErrBookNotFound)
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Create, http.MethodPost, "/v1/borrowings", `{"book": 99}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Book not found") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreate_MalformedDate(t *testing.T) {
	h := newController(&svcMock{})

	rec := doRequest(t, h.Create, http.MethodPost, "/v1/borrowings",
		`{"book": 3, "expected_return_date": "yesterday"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
}

func TestCreate_PastDate(t *testing.T) {
	m := &svcMock{
		createFn: func(ctx context.Context, userID, bookID int64, expected, actual *time.Time) (*model.Borrowing, error) {
			return nil, codedErr(borrowingsvc.ErrPastDate)
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Create, http.MethodPost, "/v1/borrowings",
		`{"book": 3, "expected_return_date": "2020-01-01"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Date cannot be in the past.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestReturn_Success(t *testing.T) {
	m := &svcMock{
		returnFn: func(ctx context.Context, userID int64, admin bool, id int64) error {
			if id != 5 || userID != 1 || admin {
				t.Fatalf("unexpected args: id=%d user=%d admin=%v", id, userID, admin)
			}
			return nil
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Return, http.MethodGet, "/v1/borrowings/5/return", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("5")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Borrowing returned successfully.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestReturn_AlreadyReturned(t *testing.T) {
	m := &svcMock{
		returnFn: func(ctx context.Context, userID int64, admin bool, id int64) error {
			return codedErr(borrowingsvc.ErrAlreadyReturned)
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Return, http.MethodGet, "/v1/borrowings/5/return", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("5")
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already been returned") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestList_PassesFilters(t *testing.T) {
	var got borrowingsvc.ListFilter
	m := &svcMock{
		listFn: func(ctx context.Context, userID int64, admin bool, f borrowingsvc.ListFilter) ([]borrowingsvc.ListRow, error) {
			got = f
			return nil, nil
		},
	}
	h := newController(m)

	rec := doRequest(t, h.List, http.MethodGet, "/v1/borrowings?is_active=true&user_id=4", "", func(c echo.Context) {
		c.Set("role", "admin")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if got.IsActive == nil || !*got.IsActive {
		t.Fatal("is_active filter not passed")
	}
	if got.UserID == nil || *got.UserID != 4 {
		t.Fatal("user_id filter not passed")
	}
}

func TestDetail_NotVisible(t *testing.T) {
	m := &svcMock{
		detailFn: func(ctx context.Context, id, userID int64, admin bool) (*borrowingsvc.DetailRow, error) {
			return nil, codedErr(borrowingsvc.ErrNotFound)
		},
	}
	h := newController(m)

	rec := doRequest(t, h.Detail, http.MethodGet, "/v1/borrowings/5", "", func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("5")
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", rec.Code)
	}
}
