package sqlite

import (
	"context"
	"database/sql"
	"time"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	campground_id INTEGER NOT NULL REFERENCES campgrounds(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	author_id INTEGER NOT NULL,
	author_username TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_campground ON comments(campground_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return storeError("create comments table", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) (int64, error) {
	c.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO comments (campground_id, text, author_id, author_username, created_at)
VALUES (?, ?, ?, ?, ?)`,
		c.CampgroundID,
		c.Text,
		c.Author.ID,
		c.Author.Username,
		c.CreatedAt,
	)
	if err != nil {
		return 0, storeError("insert comment", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError("comment last insert id", err)
	}
	c.ID = id
	return id, nil
}

func (r *CommentRepository) ListByCampground(ctx context.Context, campgroundID int64) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, campground_id, text, author_id, author_username, created_at
FROM comments
WHERE campground_id = ?
ORDER BY id`,
		campgroundID,
	)
	if err != nil {
		return nil, storeError("list comments", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.CampgroundID, &c.Text, &c.Author.ID, &c.Author.Username, &c.CreatedAt); err != nil {
			return nil, storeError("scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list comments", err)
	}
	return comments, nil
}
