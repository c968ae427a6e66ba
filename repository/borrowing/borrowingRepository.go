// repository/borrowing/repo.go
package borrowingrepo

import (
	"context"
	"database/sql"
	"time"

	"libraryservice/model"
)

// ListRow is the list projection: the borrowing plus the book title.
type ListRow struct {
	ID                 int64      `json:"id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
	BookID             int64      `json:"book"`
	BookTitle          string     `json:"book_title"`
	UserID             int64      `json:"user"`
	IsActive           bool       `json:"is_active"`
}

// DetailRow is the detail projection: the borrowing with the book embedded.
type DetailRow struct {
	model.Borrowing
	Book model.Book `json:"book_detail"`
}

// ListFilter narrows List; nil fields are ignored. UserID is only honored
// for admin callers, non-admins are already scoped to their own rows.
type ListFilter struct {
	IsActive *bool
	UserID   *int64
}

type Repo interface {
	// Checkout, inside one tx.
	DecrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	BookExists(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error

	// Return, inside one tx.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID int64, admin bool) (*model.Borrowing, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedOn time.Time) (bool, error)
	IncrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) error

	// Reads, scoped by caller visibility.
	List(ctx context.Context, userID int64, admin bool, f ListFilter) ([]ListRow, error)
	Detail(ctx context.Context, id, userID int64, admin bool) (*DetailRow, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

// Checkout

func (r *repo) DecrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	// Guard: only decrement while stock remains.
	const q = `
		UPDATE books
		SET inventory = inventory - 1
		WHERE id = $1
		AND inventory > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) BookExists(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM books WHERE id = $1
		)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Borrowing) error {
	const q = `
		INSERT INTO borrowings (borrow_date, expected_return_date, actual_return_date, book_id, user_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	return tx.QueryRowContext(ctx, q,
		b.BorrowDate, b.ExpectedReturnDate, b.ActualReturnDate, b.BookID, b.UserID, b.IsActive,
	).Scan(&b.ID)
}

// Return

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id, userID int64, admin bool) (*model.Borrowing, error) {
	const q = `
		SELECT id, borrow_date, expected_return_date, actual_return_date, book_id, user_id, is_active
		FROM borrowings
		WHERE id = $1
		AND ($2 OR user_id = $3)
		FOR UPDATE`
	b := &model.Borrowing{}
	err := tx.QueryRowContext(ctx, q, id, admin, userID).Scan(
		&b.ID, &b.BorrowDate, &b.ExpectedReturnDate, &b.ActualReturnDate,
		&b.BookID, &b.UserID, &b.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedOn time.Time) (bool, error) {
	// The is_active guard makes the transition fire at most once.
	const q = `
		UPDATE borrowings
		SET actual_return_date = $2,
			is_active = FALSE
		WHERE id = $1
		AND is_active`
	res, err := tx.ExecContext(ctx, q, id, returnedOn)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) IncrementInventory(ctx context.Context, tx *sql.Tx, bookID int64) error {
	const q = `
		UPDATE books
		SET inventory = inventory + 1
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, bookID)
	return err
}

// Reads

func (r *repo) List(ctx context.Context, userID int64, admin bool, f ListFilter) ([]ListRow, error) {
	const q = `
			SELECT
			b.id                   AS id,
			b.borrow_date          AS borrow_date,
			b.expected_return_date AS expected_return_date,
			b.actual_return_date   AS actual_return_date,
			b.book_id              AS book_id,
			bk.title               AS book_title,
			b.user_id              AS user_id,
			b.is_active            AS is_active
			FROM borrowings b
			JOIN books bk ON bk.id = b.book_id
			WHERE ($1 OR b.user_id = $2)
			AND ($3::boolean IS NULL OR b.is_active = $3)
			AND ($4::bigint IS NULL OR b.user_id = $4)
			ORDER BY b.id DESC`

	isActive := sql.NullBool{}
	if f.IsActive != nil {
		isActive = sql.NullBool{Bool: *f.IsActive, Valid: true}
	}
	byUser := sql.NullInt64{}
	if admin && f.UserID != nil {
		byUser = sql.NullInt64{Int64: *f.UserID, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, q, admin, userID, isActive, byUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListRow
	for rows.Next() {
		var l ListRow
		if err := rows.Scan(
			&l.ID, &l.BorrowDate, &l.ExpectedReturnDate, &l.ActualReturnDate,
			&l.BookID, &l.BookTitle, &l.UserID, &l.IsActive,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id, userID int64, admin bool) (*DetailRow, error) {
	const q = `
			SELECT
			b.id, b.borrow_date, b.expected_return_date, b.actual_return_date,
			b.book_id, b.user_id, b.is_active,
			bk.id, bk.title, bk.author, bk.cover, bk.inventory, bk.daily_fee
			FROM borrowings b
			JOIN books bk ON bk.id = b.book_id
			WHERE b.id = $1
			AND ($2 OR b.user_id = $3)`
	d := &DetailRow{}
	err := r.db.QueryRowContext(ctx, q, id, admin, userID).Scan(
		&d.ID, &d.BorrowDate, &d.ExpectedReturnDate, &d.ActualReturnDate,
		&d.BookID, &d.UserID, &d.IsActive,
		&d.Book.ID, &d.Book.Title, &d.Book.Author, &d.Book.Cover, &d.Book.Inventory, &d.Book.DailyFee,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
