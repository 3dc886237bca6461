package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/evgkirov/member-content-system/internal/model"
)

// ContentRepo provides access to the contents table.
type ContentRepo struct{ DB DBTX }

func NewContentRepo(db DBTX) *ContentRepo { return &ContentRepo{DB: db} }

const contentColumns = "id,title,slug,category_id,body,status,author_id,meta_title,meta_description,cover_image_url,tags,is_deleted,created_at,updated_at"

func scanContent(row rowScanner) (model.Content, error) {
	var (
		c        model.Content
		category sql.NullInt64
		author   sql.NullString
		metaT    sql.NullString
		metaD    sql.NullString
		cover    sql.NullString
		tags     sql.NullString
	)
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &category, &c.Body, &c.Status, &author,
		&metaT, &metaD, &cover, &tags, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Content{}, ErrNotFound
	}
	if err != nil {
		return model.Content{}, err
	}
	if category.Valid {
		c.CategoryID = &category.Int64
	}
	if author.Valid {
		c.AuthorID = &author.String
	}
	if metaT.Valid {
		c.MetaTitle = &metaT.String
	}
	if metaD.Valid {
		c.MetaDescription = &metaD.String
	}
	if cover.Valid {
		c.CoverImageURL = &cover.String
	}
	if tags.Valid {
		c.Tags = &tags.String
	}
	return c, nil
}

// ByID fetches a content row by id, soft-deleted rows included.
func (r *ContentRepo) ByID(ctx context.Context, id int64) (model.Content, error) {
	return scanContent(r.DB.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM contents WHERE id=? LIMIT 1", id))
}

// ContentFilter narrows List results. Zero values mean "no filter".
type ContentFilter struct {
	CategoryID     int64
	Status         string
	Search         string
	IncludeDeleted bool
	Offset         int
	Limit          int
}

// List returns contents newest first, applying the filter.
func (r *ContentRepo) List(ctx context.Context, f ContentFilter) ([]model.Content, error) {
	query := "SELECT " + contentColumns + " FROM contents"
	where := []string{}
	args := []any{}
	if f.CategoryID != 0 {
		where = append(where, "category_id=?")
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if !f.IncludeDeleted {
		where = append(where, "is_deleted=0")
	}
	if f.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(slug) LIKE ?)")
		like := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, like, like)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []model.Content{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// CountActive returns the number of non-deleted contents.
func (r *ContentRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contents WHERE is_deleted=0").Scan(&n)
	return n, err
}

// Create inserts a content row and returns its id. The slug unique
// constraint is global, deleted rows included; violations surface as
// ErrConflict.
func (r *ContentRepo) Create(ctx context.Context, c model.Content) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO contents (title, slug, category_id, body, status, author_id, meta_title, meta_description, cover_image_url, tags)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.Title, c.Slug, c.CategoryID, c.Body, c.Status, c.AuthorID,
		c.MetaTitle, c.MetaDescription, c.CoverImageURL, c.Tags)
	if isDuplicate(err) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the mutable columns of a content row.
func (r *ContentRepo) Update(ctx context.Context, c model.Content) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE contents SET title=?, slug=?, category_id=?, body=?, status=?, meta_title=?, meta_description=?, cover_image_url=?, tags=?, is_deleted=?
		 WHERE id=?`,
		c.Title, c.Slug, c.CategoryID, c.Body, c.Status,
		c.MetaTitle, c.MetaDescription, c.CoverImageURL, c.Tags, c.IsDeleted, c.ID)
	if isDuplicate(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	// RowsAffected is 0 when nothing changed; treat that as success and
	// only report ErrNotFound when the row is genuinely absent.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.ByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete flags the row as deleted. The row and its slug remain
// reserved; media links are cleared separately by the reconciler.
func (r *ContentRepo) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE contents SET is_deleted=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.ByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
