package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelpcamp/internal/domain"
)

func TestCommentAdd(t *testing.T) {
	campgrounds := newMemCampgrounds()
	comments := &memComments{}
	svc := NewCommentService(campgrounds, comments, quietLogger())
	cg := seed(t, campgrounds, "Granite Hill", owner, "a")
	ctx := context.Background()

	c, err := svc.Add(ctx, stranger, cg.ID, "  lovely view ")
	require.NoError(t, err)
	assert.Equal(t, "lovely view", c.Text)
	assert.Equal(t, domain.Author{ID: 2, Username: "bob"}, c.Author)

	listed, _ := comments.ListByCampground(ctx, cg.ID)
	assert.Len(t, listed, 1)

	_, err = svc.Add(ctx, nil, cg.ID, "hi")
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = svc.Add(ctx, stranger, cg.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Add(ctx, stranger, 404, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
