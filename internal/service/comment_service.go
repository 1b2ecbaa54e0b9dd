package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/repository"
)

// CommentService adds remarks to existing campgrounds.
type CommentService interface {
	Add(ctx context.Context, caller *domain.Identity, campgroundID int64, text string) (*domain.Comment, error)
}

type commentService struct {
	campgrounds repository.CampgroundRepository
	comments    repository.CommentRepository
	log         logrus.FieldLogger
}

func NewCommentService(campgrounds repository.CampgroundRepository, comments repository.CommentRepository, log logrus.FieldLogger) CommentService {
	return &commentService{campgrounds: campgrounds, comments: comments, log: log}
}

func (s *commentService) Add(ctx context.Context, caller *domain.Identity, campgroundID int64, text string) (*domain.Comment, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: you need to be logged in to do that", domain.ErrAuthorization)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrValidation)
	}
	if _, err := s.campgrounds.Get(ctx, campgroundID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		CampgroundID: campgroundID,
		Text:         text,
		Author:       domain.Author{ID: caller.UserID, Username: caller.Username},
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"campground_id": campgroundID, "comment_id": comment.ID}).Debug("comment added")
	return comment, nil
}
