package sqlite

import (
	"context"
	"database/sql"
	"time"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/repository"
)

const createCampgroundsTable = `
CREATE TABLE IF NOT EXISTS campgrounds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	image_id TEXT NOT NULL DEFAULT '',
	author_id INTEGER NOT NULL,
	author_username TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_campgrounds_author ON campgrounds(author_id);
`

const campgroundColumns = `id, name, description, image_url, image_id, author_id, author_username, created_at, updated_at`

type CampgroundRepository struct {
	db *sql.DB
}

func NewCampgroundRepository(db *sql.DB) repository.CampgroundRepository {
	return &CampgroundRepository{db: db}
}

func (r *CampgroundRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCampgroundsTable); err != nil {
		return storeError("create campgrounds table", err)
	}
	return nil
}

func (r *CampgroundRepository) Create(ctx context.Context, cg *domain.Campground) (int64, error) {
	now := time.Now().UTC()
	cg.CreatedAt = now
	cg.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO campgrounds (name, description, image_url, image_id, author_id, author_username, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cg.Name,
		cg.Description,
		cg.ImageURL,
		cg.ImageID,
		cg.Author.ID,
		cg.Author.Username,
		cg.CreatedAt,
		cg.UpdatedAt,
	)
	if err != nil {
		return 0, storeError("insert campground", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError("campground last insert id", err)
	}
	cg.ID = id
	return id, nil
}

// Update rewrites the mutable fields. Author is never changed after creation.
func (r *CampgroundRepository) Update(ctx context.Context, cg *domain.Campground) error {
	cg.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE campgrounds
SET name = ?, description = ?, image_url = ?, image_id = ?, updated_at = ?
WHERE id = ?`,
		cg.Name,
		cg.Description,
		cg.ImageURL,
		cg.ImageID,
		cg.UpdatedAt,
		cg.ID,
	)
	if err != nil {
		return storeError("update campground", err)
	}
	return affectedOne("update campground", res)
}

func (r *CampgroundRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campgrounds WHERE id = ?`, id)
	if err != nil {
		return storeError("delete campground", err)
	}
	return affectedOne("delete campground", res)
}

func (r *CampgroundRepository) Get(ctx context.Context, id int64) (*domain.Campground, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+campgroundColumns+` FROM campgrounds WHERE id = ?`, id)
	return scanCampground(row)
}

func (r *CampgroundRepository) List(ctx context.Context) ([]domain.Campground, error) {
	return r.query(ctx, "list campgrounds", `SELECT `+campgroundColumns+` FROM campgrounds ORDER BY id`)
}

func (r *CampgroundRepository) ListByAuthor(ctx context.Context, authorID int64) ([]domain.Campground, error) {
	return r.query(ctx, "list campgrounds by author",
		`SELECT `+campgroundColumns+` FROM campgrounds WHERE author_id = ? ORDER BY id`, authorID)
}

func (r *CampgroundRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Campground, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var out []domain.Campground
	for rows.Next() {
		cg, err := scanCampground(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return out, nil
}

func scanCampground(row scanner) (*domain.Campground, error) {
	var cg domain.Campground
	if err := row.Scan(
		&cg.ID,
		&cg.Name,
		&cg.Description,
		&cg.ImageURL,
		&cg.ImageID,
		&cg.Author.ID,
		&cg.Author.Username,
		&cg.CreatedAt,
		&cg.UpdatedAt,
	); err != nil {
		return nil, storeError("scan campground", err)
	}
	return &cg, nil
}
