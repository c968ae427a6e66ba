package borrowing

import (
	"time"

	"libraryservice/model"
	borrowingsvc "libraryservice/service/borrowing"
)

const dateLayout = "2006-01-02"

type CreateBorrowingReq struct {
	Book               int64  `json:"book" validate:"required,gt=0"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"omitempty,datetime=2006-01-02"`
	ActualReturnDate   string `json:"actual_return_date" validate:"omitempty,datetime=2006-01-02"`
}

// One explicit projection per operation: created, list item, detail.

type BorrowingResp struct {
	ID                 int64   `json:"id"`
	BorrowDate         string  `json:"borrow_date"`
	ExpectedReturnDate string  `json:"expected_return_date"`
	ActualReturnDate   *string `json:"actual_return_date"`
	Book               int64   `json:"book"`
	User               int64   `json:"user"`
	IsActive           bool    `json:"is_active"`
}

type ListItemResp struct {
	BorrowingResp
	BookTitle string `json:"book_title"`
}

type DetailResp struct {
	BorrowingResp
	BookDetail model.Book `json:"book_detail"`
}

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func CreatedResp(b *model.Borrowing) BorrowingResp {
	return BorrowingResp{
		ID:                 b.ID,
		BorrowDate:         fmtDate(b.BorrowDate),
		ExpectedReturnDate: fmtDate(b.ExpectedReturnDate),
		ActualReturnDate:   fmtDatePtr(b.ActualReturnDate),
		Book:               b.BookID,
		User:               b.UserID,
		IsActive:           b.IsActive,
	}
}

func ListResp(rows []borrowingsvc.ListRow) []ListItemResp {
	out := make([]ListItemResp, 0, len(rows))
	for _, r := range rows {
		out = append(out, ListItemResp{
			BorrowingResp: BorrowingResp{
				ID:                 r.ID,
				BorrowDate:         fmtDate(r.BorrowDate),
				ExpectedReturnDate: fmtDate(r.ExpectedReturnDate),
				ActualReturnDate:   fmtDatePtr(r.ActualReturnDate),
				Book:               r.BookID,
				User:               r.UserID,
				IsActive:           r.IsActive,
			},
			BookTitle: r.BookTitle,
		})
	}
	return out
}

func ToDetailResp(d *borrowingsvc.DetailRow) DetailResp {
	return DetailResp{
		BorrowingResp: BorrowingResp{
			ID:                 d.ID,
			BorrowDate:         fmtDate(d.BorrowDate),
			ExpectedReturnDate: fmtDate(d.ExpectedReturnDate),
			ActualReturnDate:   fmtDatePtr(d.ActualReturnDate),
			Book:               d.BookID,
			User:               d.UserID,
			IsActive:           d.IsActive,
		},
		BookDetail: d.Book,
	}
}
