package borrowing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	borrowingsvc "libraryservice/service/borrowing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc borrowingsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func caller(c echo.Context) (int64, bool) {
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)
	return uid, role == "admin"
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// POST /v1/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := caller(c)

	out, err := h.Svc.Create(c.Request().Context(), uid, req.Book,
		parseDate(req.ExpectedReturnDate), parseDate(req.ActualReturnDate))
	if err != nil {
		switch borrowingsvc.Code(err) {
		case borrowingsvc.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Book not found"})
		case borrowingsvc.ErrOutOfStock:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Book is out of stock"})
		case borrowingsvc.ErrPastDate:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Date cannot be in the past."})
		default:
			h.Log.Error("borrowing create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, CreatedResp(out))
}

// GET /v1/borrowings/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, admin := caller(c)

	if err := h.Svc.Return(c.Request().Context(), uid, admin, id); err != nil {
		switch borrowingsvc.Code(err) {
		case borrowingsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		case borrowingsvc.ErrAlreadyReturned:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "This borrowing has already been returned."})
		default:
			h.Log.Error("borrowing return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Borrowing returned successfully.", "is_active": false})
}

// GET /v1/borrowings
func (h *Controller) List(c echo.Context) error {
	uid, admin := caller(c)

	var f borrowingsvc.ListFilter
	if v := c.QueryParam("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid is_active"})
		}
		f.IsActive = &b
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user_id"})
		}
		f.UserID = &id
	}

	rows, err := h.Svc.List(c.Request().Context(), uid, admin, f)
	if err != nil {
		h.Log.Error("borrowing list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ListResp(rows)})
}

// GET /v1/borrowings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, admin := caller(c)

	row, err := h.Svc.Detail(c.Request().Context(), id, uid, admin)
	if err != nil {
		if borrowingsvc.Code(err) == borrowingsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		}
		h.Log.Error("borrowing detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, ToDetailResp(row))
}
