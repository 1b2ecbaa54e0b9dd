package repository

import (
	"context"

	"yelpcamp/internal/domain"
)

// CampgroundRepository exposes persistence operations for Campground records.
type CampgroundRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, cg *domain.Campground) (int64, error)
	Update(ctx context.Context, cg *domain.Campground) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Campground, error)
	List(ctx context.Context) ([]domain.Campground, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Campground, error)
}

// CommentRepository manages comments attached to campgrounds.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, c *domain.Comment) (int64, error)
	ListByCampground(ctx context.Context, campgroundID int64) ([]domain.Comment, error)
}
