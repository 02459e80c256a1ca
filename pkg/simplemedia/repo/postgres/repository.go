package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplemedia.Repository using PostgreSQL.
// Schema lives in migrations/0001_media.sql.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simplemedia.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplemedia.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("media file already exists")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simplemedia.ErrFileNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const fileColumns = `id, owner_key, owner_name, original_hash, output_hash, filename,
	       media_kind, status, visible, magnet, blurhash, width, height,
	       source_address, created_at, updated_at`

func scanFile(row pgx.Row) (*simplemedia.MediaFile, error) {
	var file simplemedia.MediaFile
	err := row.Scan(
		&file.ID, &file.OwnerKey, &file.OwnerName, &file.OriginalHash,
		&file.OutputHash, &file.FileName, &file.Kind, &file.Status,
		&file.Visible, &file.Magnet, &file.Blurhash, &file.Width,
		&file.Height, &file.SourceAddress, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// File record operations

func (r *Repository) CreateFile(ctx context.Context, file *simplemedia.MediaFile) error {
	query := `
		INSERT INTO media_files (
			id, owner_key, owner_name, original_hash, output_hash, filename,
			media_kind, status, visible, magnet, blurhash, width, height,
			source_address, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.Exec(ctx, query,
		file.ID, file.OwnerKey, file.OwnerName, file.OriginalHash,
		file.OutputHash, file.FileName, file.Kind, file.Status,
		file.Visible, file.Magnet, file.Blurhash, file.Width, file.Height,
		file.SourceAddress, file.CreatedAt, file.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create file", err)
	}

	return nil
}

func (r *Repository) GetFile(ctx context.Context, id uuid.UUID) (*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + ` FROM media_files WHERE id = $1`

	file, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemedia.ErrFileNotFound
		}
		return nil, err
	}

	return file, nil
}

func (r *Repository) GetFileForOwner(ctx context.Context, id uuid.UUID, ownerKey, publicKey string) (*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + `
	    FROM media_files
	    WHERE id = $1 AND (owner_key = $2 OR owner_key = $3)`

	file, err := scanFile(r.db.QueryRow(ctx, query, id, ownerKey, publicKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemedia.ErrFileNotFound
		}
		return nil, err
	}

	return file, nil
}

func (r *Repository) UpdateFile(ctx context.Context, file *simplemedia.MediaFile) error {
	query := `
		UPDATE media_files SET
			original_hash = $2, output_hash = $3, filename = $4, status = $5,
			visible = $6, magnet = $7, blurhash = $8, width = $9,
			height = $10, updated_at = $11
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		file.ID, file.OriginalHash, file.OutputHash, file.FileName,
		file.Status, file.Visible, file.Magnet, file.Blurhash,
		file.Width, file.Height, file.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update file", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrFileNotFound
	}

	return nil
}

func (r *Repository) UpdateFileStatus(ctx context.Context, id uuid.UUID, status simplemedia.MediaStatus) error {
	query := `UPDATE media_files SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return r.handlePostgresError("update file status", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrFileNotFound
	}

	return nil
}

func (r *Repository) CompleteFile(ctx context.Context, params simplemedia.CompleteFileParams) error {
	// The status predicate keeps completion monotonic: only a processing
	// row may become completed.
	query := `
		UPDATE media_files SET
			status = $2, output_hash = $3, width = $4, height = $5,
			blurhash = $6, magnet = $7, updated_at = NOW()
		WHERE id = $1 AND status = $8`

	tag, err := r.db.Exec(ctx, query,
		params.FileID, simplemedia.StatusCompleted, params.OutputHash,
		params.Width, params.Height, params.Blurhash, params.Magnet,
		simplemedia.StatusProcessing)
	if err != nil {
		return r.handlePostgresError("complete file", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrInvalidTransition
	}

	return nil
}

func (r *Repository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete file", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemedia.ErrFileNotFound
	}
	return nil
}

// Dedup index operations

func (r *Repository) FindByOriginalHash(ctx context.Context, ownerKey, originalHash string, kind simplemedia.MediaKind) (*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + `
	    FROM media_files
	    WHERE owner_key = $1 AND original_hash = $2 AND media_kind = $3
	    ORDER BY created_at ASC
	    LIMIT 1`

	file, err := scanFile(r.db.QueryRow(ctx, query, ownerKey, originalHash, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemedia.ErrFileNotFound
		}
		return nil, err
	}

	return file, nil
}

func (r *Repository) FindFixedSlotFile(ctx context.Context, ownerKey string, kind simplemedia.MediaKind) (*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + `
	    FROM media_files
	    WHERE owner_key = $1 AND media_kind = $2
	    ORDER BY created_at ASC
	    LIMIT 1`

	file, err := scanFile(r.db.QueryRow(ctx, query, ownerKey, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplemedia.ErrFileNotFound
		}
		return nil, err
	}

	return file, nil
}

// Deletion fan-out operations

func (r *Repository) ListFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) ([]*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + `
	    FROM media_files
	    WHERE owner_key = $1 AND output_hash = $2`

	rows, err := r.db.Query(ctx, query, ownerKey, outputHash)
	if err != nil {
		return nil, r.handlePostgresError("list files by output hash", err)
	}
	defer rows.Close()

	var files []*simplemedia.MediaFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

func (r *Repository) DeleteFilesByOutputHash(ctx context.Context, ownerKey, outputHash string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM media_files WHERE owner_key = $1 AND output_hash = $2`,
		ownerKey, outputHash)
	if err != nil {
		return 0, r.handlePostgresError("delete files by output hash", err)
	}

	return tag.RowsAffected(), nil
}

// Listing

func (r *Repository) ListFiles(ctx context.Context, ownerKey string) ([]*simplemedia.MediaFile, error) {
	query := `SELECT ` + fileColumns + `
	    FROM media_files
	    WHERE owner_key = $1
	    ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerKey)
	if err != nil {
		return nil, r.handlePostgresError("list files", err)
	}
	defer rows.Close()

	var files []*simplemedia.MediaFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// Identity registry

func (r *Repository) LookupRegisteredName(ctx context.Context, ownerKey string) (string, error) {
	var name string
	err := r.db.QueryRow(ctx,
		`SELECT name FROM registered_identities WHERE owner_key = $1`,
		ownerKey).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", simplemedia.ErrIdentityNotFound
		}
		return "", r.handlePostgresError("lookup registered name", err)
	}

	return name, nil
}

// Tag operations

func (r *Repository) AddTags(ctx context.Context, fileID uuid.UUID, tags []string) error {
	for _, tag := range tags {
		_, err := r.db.Exec(ctx,
			`INSERT INTO media_tags (file_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			fileID, tag)
		if err != nil {
			return r.handlePostgresError("add tags", err)
		}
	}
	return nil
}

func (r *Repository) GetTags(ctx context.Context, fileID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT tag FROM media_tags WHERE file_id = $1 ORDER BY tag`,
		fileID)
	if err != nil {
		return nil, r.handlePostgresError("get tags", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}
