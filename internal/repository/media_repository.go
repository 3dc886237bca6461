package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/evgkirov/member-content-system/internal/model"
)

// MediaRepo provides access to media_files and the derived content_media
// link table. It satisfies service.LinkStore so the reconciler can run
// against a transaction-bound instance.
type MediaRepo struct{ DB DBTX }

func NewMediaRepo(db DBTX) *MediaRepo { return &MediaRepo{DB: db} }

const mediaColumns = "id,filename,original_filename,url,content_type,size,uploaded_by,created_at"

func scanMedia(row rowScanner, withUsage bool) (model.MediaFile, error) {
	var (
		m        model.MediaFile
		original sql.NullString
		uploader sql.NullString
	)
	dest := []any{&m.ID, &m.Filename, &original, &m.URL, &m.ContentType, &m.Size, &uploader, &m.CreatedAt}
	if withUsage {
		dest = append(dest, &m.UsageCount)
	}
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MediaFile{}, ErrNotFound
	}
	if err != nil {
		return model.MediaFile{}, err
	}
	if original.Valid {
		m.OriginalFilename = &original.String
	}
	if uploader.Valid {
		m.UploadedBy = &uploader.String
	}
	return m, nil
}

// ByID fetches a media row by id.
func (r *MediaRepo) ByID(ctx context.Context, id string) (model.MediaFile, error) {
	return scanMedia(r.DB.QueryRowContext(ctx,
		"SELECT "+mediaColumns+" FROM media_files WHERE id=? LIMIT 1", id), false)
}

// Create inserts a media row. Duplicate URLs surface as ErrConflict.
func (r *MediaRepo) Create(ctx context.Context, m model.MediaFile) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO media_files (id, filename, original_filename, url, content_type, size, uploaded_by) VALUES (?,?,?,?,?,?,?)",
		m.ID, m.Filename, m.OriginalFilename, m.URL, m.ContentType, m.Size, m.UploadedBy)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// List returns media rows newest first, each with its usage count from the
// link table, optionally filtered by a filename substring.
func (r *MediaRepo) List(ctx context.Context, search string, offset, limit int) ([]model.MediaFile, error) {
	query := `SELECT m.id,m.filename,m.original_filename,m.url,m.content_type,m.size,m.uploaded_by,m.created_at,COUNT(cm.id)
		FROM media_files m
		LEFT JOIN content_media cm ON cm.media_id = m.id`
	args := []any{}
	if search != "" {
		query += " WHERE LOWER(m.filename) LIKE ?"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += " GROUP BY m.id ORDER BY m.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []model.MediaFile{}
	for rows.Next() {
		m, err := scanMedia(rows, true)
		if err != nil {
			return nil, err
		}
		files = append(files, m)
	}
	return files, rows.Err()
}

// UsageCount returns how many contents currently link the media row.
func (r *MediaRepo) UsageCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM content_media WHERE media_id=?", id).Scan(&n)
	return n, err
}

// Delete removes a media row. Link rows cascade at the schema level.
func (r *MediaRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM media_files WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteContentLinks removes every link row for a content id. Part of the
// reconciler's delete-then-insert pass.
func (r *MediaRepo) DeleteContentLinks(ctx context.Context, contentID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM content_media WHERE content_id=?", contentID)
	return err
}

// MediaIDsByURLs resolves upload URLs to existing media ids. URLs with no
// matching row are simply absent from the result.
func (r *MediaRepo) MediaIDsByURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(urls))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM media_files WHERE url IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertContentLink adds one (content, media) pair.
func (r *MediaRepo) InsertContentLink(ctx context.Context, contentID int64, mediaID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO content_media (content_id, media_id) VALUES (?,?)", contentID, mediaID)
	return err
}
