package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/evgkirov/member-content-system/internal/model"
)

// CategoryRepo provides access to the categories table.
type CategoryRepo struct{ DB DBTX }

func NewCategoryRepo(db DBTX) *CategoryRepo { return &CategoryRepo{DB: db} }

const categoryColumns = "id,name,description,order_index,created_at"

func scanCategory(row rowScanner) (model.Category, error) {
	var (
		c     model.Category
		desc  sql.NullString
		order sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &desc, &order, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	if desc.Valid {
		c.Description = &desc.String
	}
	if order.Valid {
		n := int(order.Int64)
		c.OrderIndex = &n
	}
	return c, nil
}

// ByID fetches a category by id.
func (r *CategoryRepo) ByID(ctx context.Context, id int64) (model.Category, error) {
	return scanCategory(r.DB.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id=? LIMIT 1", id))
}

// List returns all categories ordered by order_index.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories ORDER BY order_index ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Create inserts a category and returns its id. Duplicate names surface as
// ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c model.Category) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (name, description, order_index) VALUES (?,?,?)",
		c.Name, c.Description, c.OrderIndex)
	if isDuplicate(err) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites name, description and order_index.
func (r *CategoryRepo) Update(ctx context.Context, c model.Category) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET name=?, description=?, order_index=? WHERE id=?",
		c.Name, c.Description, c.OrderIndex, c.ID)
	if isDuplicate(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a category. It fails with ErrConflict while any
// non-deleted content still references the category; contents that were
// soft deleted do not block removal.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	var live int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contents WHERE category_id=? AND is_deleted=0", id).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
