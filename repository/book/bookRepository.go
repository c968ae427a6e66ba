package bookrepo

import (
	"context"
	"database/sql"

	"libraryservice/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, cover, inventory, daily_fee)
VALUES ($1,$2,$3,$4,$5)
RETURNING id`
	return r.db.QueryRowContext(ctx, q, b.Title, b.Author, b.Cover, b.Inventory, b.DailyFee).Scan(&b.ID)
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
	SELECT id, title, author, cover, inventory, daily_fee
	FROM books
	ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Cover, &b.Inventory, &b.DailyFee); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
	SELECT id, title, author, cover, inventory, daily_fee
	FROM books
	WHERE id = $1`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.Cover, &b.Inventory, &b.DailyFee)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
	UPDATE books
	SET title = $2, author = $3, cover = $4, inventory = $5, daily_fee = $6
	WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, b.ID, b.Title, b.Author, b.Cover, b.Inventory, b.DailyFee)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// Delete removes the book; dependent borrowings go with it via the FK cascade.
func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `
	DELETE FROM books
	WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
