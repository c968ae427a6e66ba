package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"libraryservice/model"
	bookrepo "libraryservice/repository/book"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound    ErrCode = "NOT_FOUND"
	ErrTitleTaken  ErrCode = "TITLE_TAKEN"
	ErrAuthorTaken ErrCode = "AUTHOR_TAKEN"
	ErrBadPayload  ErrCode = "BAD_PAYLOAD"
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

// Patch carries the fields of a partial update; nil means keep.
type Patch struct {
	Title     *string
	Author    *string
	Cover     *model.CoverType
	Inventory *int64
	DailyFee  *float64
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

var _ Repo = (bookrepo.Repo)(nil)

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (*model.Book, error)
	PartialUpdate(ctx context.Context, id int64, p Patch) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func validate(b *model.Book) error {
	if b.Title == "" || b.Author == "" {
		return makeErr(ErrBadPayload)
	}
	if b.Cover != model.CoverHard && b.Cover != model.CoverSoft {
		return makeErr(ErrBadPayload)
	}
	if b.Inventory < 0 || b.DailyFee < 0 {
		return makeErr(ErrBadPayload)
	}
	return nil
}

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, b); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	found, err := s.r.Update(ctx, b)
	if err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	if !found {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) PartialUpdate(ctx context.Context, id int64, p Patch) (*model.Book, error) {
	b, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Cover != nil {
		b.Cover = *p.Cover
	}
	if p.Inventory != nil {
		b.Inventory = *p.Inventory
	}
	if p.DailyFee != nil {
		b.DailyFee = *p.DailyFee
	}
	return s.Update(ctx, b)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	found, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return makeErr(ErrNotFound)
	}
	return nil
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		msg := strings.ToLower(pgErr.Message)

		if strings.Contains(cn, "books_title") || strings.Contains(msg, "title") {
			return makeErr(ErrTitleTaken)
		}
		if strings.Contains(cn, "books_author") || strings.Contains(msg, "author") {
			return makeErr(ErrAuthorTaken)
		}
		return makeErr(ErrBadPayload)
	}
	return nil
}
