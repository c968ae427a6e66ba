package book

import (
	"log/slog"
	"net/http"
	"strconv"

	"libraryservice/model"
	booksvc "libraryservice/service/book"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// defaultInventory matches the schema default of one copy per new book.
const defaultInventory int64 = 1

func (h *Controller) bookFromReq(req BookReq) *model.Book {
	inv := defaultInventory
	if req.Inventory != nil {
		inv = *req.Inventory
	}
	return &model.Book{
		Title:     req.Title,
		Author:    req.Author,
		Cover:     model.CoverType(req.Cover),
		Inventory: inv,
		DailyFee:  req.DailyFee,
	}
}

func mapErr(c echo.Context, err error) error {
	switch booksvc.Code(err) {
	case booksvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case booksvc.ErrTitleTaken:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "book with this title already exists"})
	case booksvc.ErrAuthorTaken:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "book with this author already exists"})
	case booksvc.ErrBadPayload:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/books  (admin)
func (h *Controller) Create(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	b, err := h.Svc.Create(c.Request().Context(), h.bookFromReq(req))
	if err != nil {
		h.Log.Error("book create", "err", err)
		return mapErr(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("book list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if booksvc.Code(err) != booksvc.ErrNotFound {
			h.Log.Error("book detail", "err", err)
		}
		return mapErr(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// PUT /v1/books/:id  (admin)
func (h *Controller) Update(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	b := h.bookFromReq(req)
	b.ID = id
	out, err := h.Svc.Update(c.Request().Context(), b)
	if err != nil {
		h.Log.Error("book update", "err", err)
		return mapErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PATCH /v1/books/:id  (admin)
func (h *Controller) PartialUpdate(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req BookPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	p := booksvc.Patch{
		Title:     req.Title,
		Author:    req.Author,
		Inventory: req.Inventory,
		DailyFee:  req.DailyFee,
	}
	if req.Cover != nil {
		cover := model.CoverType(*req.Cover)
		p.Cover = &cover
	}
	out, err := h.Svc.PartialUpdate(c.Request().Context(), id, p)
	if err != nil {
		h.Log.Error("book patch", "err", err)
		return mapErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// DELETE /v1/books/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("book delete", "err", err)
		return mapErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
