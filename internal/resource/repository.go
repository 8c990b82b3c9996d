package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository stores resource metadata in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a resource repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a new resource and returns it joined with its uploader.
func (r *Repository) Insert(ctx context.Context, res Resource) (Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
WITH r AS (
    INSERT INTO resources (id, title, description, category, file_type, object_key, file_name,
                           size_bytes, preview_key, subject, course, uploader_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING *
)
SELECT ` + resourceColumns + `
FROM r
JOIN users u ON u.id = r.uploader_id;`

	stored, err := scanResource(r.pool.QueryRow(ctx, query,
		res.ID,
		res.Title,
		res.Description,
		string(res.Category),
		string(res.FileType),
		res.ObjectKey,
		res.FileName,
		res.SizeBytes,
		res.PreviewKey,
		res.Subject,
		res.Course,
		res.UploaderID,
	))
	if err != nil {
		return Resource{}, fmt.Errorf("insert resource: %w", err)
	}
	return stored, nil
}

// Get fetches one resource by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	res, err := scanResource(r.pool.QueryRow(ctx, resourceSelect+"\nWHERE r.id = $1;", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, ErrNotFound
		}
		return Resource{}, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

// Search runs a compiled filter.
func (r *Repository) Search(ctx context.Context, f Filter) ([]Resource, error) {
	q, err := buildSearchQuery(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q.text, q.args...)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	defer rows.Close()

	resources := make([]Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}

// IncrementDownloads atomically adds one to the counter and returns the new value.
func (r *Repository) IncrementDownloads(ctx context.Context, id uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	cmd := buildIncrementCommand(id)
	var count *int64
	if err := r.pool.QueryRow(ctx, cmd.text, cmd.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment download count: %w", err)
	}
	if count == nil {
		return 0, ErrNotFound
	}
	return *count, nil
}

// Delete removes the metadata record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResource(row pgx.Row) (Resource, error) {
	var (
		res      Resource
		category string
		fileType string
	)
	err := row.Scan(
		&res.ID,
		&res.Title,
		&res.Description,
		&category,
		&fileType,
		&res.ObjectKey,
		&res.FileName,
		&res.SizeBytes,
		&res.PreviewKey,
		&res.Subject,
		&res.Course,
		&res.DownloadCount,
		&res.UploaderID,
		&res.CreatedAt,
		&res.Uploader.DisplayName,
		&res.Uploader.Email,
	)
	res.Category = Category(category)
	res.FileType = FileType(fileType)
	return res, err
}
