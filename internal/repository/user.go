package repository

import (
	"context"

	"yelpcamp/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	Update(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	// RedeemReset sets the new password hash and clears the reset fields, but only
	// while token is still the one stored for the user. Otherwise it returns
	// domain.ErrInvalidToken and changes nothing.
	RedeemReset(ctx context.Context, id int64, token, passwordHash string) error
	// ClearReset drops token and its expiry if it is still stored for the user.
	ClearReset(ctx context.Context, id int64, token string) error
}
