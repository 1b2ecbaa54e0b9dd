package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/repository"
	"yelpcamp/internal/storage"
)

// CampgroundFields are the user-editable text fields of a campground.
type CampgroundFields struct {
	Name        string
	Description string
}

// ListResult is what the index view renders.
type ListResult struct {
	Campgrounds []domain.Campground
	Search      string
	Searched    bool
}

// NoMatch is true only when a search ran and found nothing.
func (r ListResult) NoMatch() bool {
	return r.Searched && len(r.Campgrounds) == 0
}

// CampgroundService owns campground records and their images.
type CampgroundService interface {
	List(ctx context.Context, search string) (ListResult, error)
	Get(ctx context.Context, id int64) (*domain.Campground, error)
	ForEdit(ctx context.Context, caller *domain.Identity, id int64) (*domain.Campground, error)
	Create(ctx context.Context, caller *domain.Identity, fields CampgroundFields, image *Upload) (*domain.Campground, error)
	Update(ctx context.Context, caller *domain.Identity, id int64, fields CampgroundFields, image *Upload) (*domain.Campground, error)
	Delete(ctx context.Context, caller *domain.Identity, id int64) error
}

// OrphanQueue accepts image ids whose immediate deletion failed.
type OrphanQueue interface {
	Enqueue(imageID string) error
}

type updateState string

const (
	stateAuthorized    updateState = "authorized"
	stateImageDeleted  updateState = "image_deleted"
	stateImageUploaded updateState = "image_uploaded"
	stateSaved         updateState = "saved"
	stateFailed        updateState = "failed"
)

type campgroundService struct {
	campgrounds repository.CampgroundRepository
	comments    repository.CommentRepository
	media       storage.MediaGateway
	orphans     OrphanQueue
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewCampgroundService(
	campgrounds repository.CampgroundRepository,
	comments repository.CommentRepository,
	media storage.MediaGateway,
	orphans OrphanQueue,
	log logrus.FieldLogger,
) CampgroundService {
	return &campgroundService{
		campgrounds: campgrounds,
		comments:    comments,
		media:       media,
		orphans:     orphans,
		log:         log,
		now:         time.Now,
	}
}

func (s *campgroundService) List(ctx context.Context, search string) (ListResult, error) {
	all, err := s.campgrounds.List(ctx)
	if err != nil {
		return ListResult{}, err
	}

	term := normalizeSearch(search)
	if term == "" {
		return ListResult{Campgrounds: all}, nil
	}

	pattern := searchPattern(term)
	matched := make([]domain.Campground, 0, len(all))
	for _, cg := range all {
		if pattern.MatchString(cg.Name) {
			matched = append(matched, cg)
		}
	}
	return ListResult{Campgrounds: matched, Search: term, Searched: true}, nil
}

func (s *campgroundService) Get(ctx context.Context, id int64) (*domain.Campground, error) {
	cg, err := s.campgrounds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByCampground(ctx, id)
	if err != nil {
		return nil, err
	}
	cg.Comments = comments
	return cg, nil
}

func (s *campgroundService) ForEdit(ctx context.Context, caller *domain.Identity, id int64) (*domain.Campground, error) {
	return s.authorize(ctx, caller, id)
}

func (s *campgroundService) Create(ctx context.Context, caller *domain.Identity, fields CampgroundFields, image *Upload) (*domain.Campground, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: you need to be logged in to do that", domain.ErrAuthorization)
	}
	fields, err := validateFields(fields)
	if err != nil {
		return nil, err
	}
	if err := ValidateImage(image); err != nil {
		return nil, err
	}

	asset, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	cg := &domain.Campground{
		Name:        fields.Name,
		Description: fields.Description,
		Author:      domain.Author{ID: caller.UserID, Username: caller.Username},
	}
	cg.SetImage(asset)

	if _, err := s.campgrounds.Create(ctx, cg); err != nil {
		s.discard(ctx, asset.ID)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"campground_id": cg.ID, "author": caller.Username}).Info("campground created")
	return cg, nil
}

func (s *campgroundService) Update(ctx context.Context, caller *domain.Identity, id int64, fields CampgroundFields, image *Upload) (*domain.Campground, error) {
	cg, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	fields, err = validateFields(fields)
	if err != nil {
		return nil, err
	}
	if image != nil {
		if err := ValidateImage(image); err != nil {
			return nil, err
		}
	}

	log := s.log.WithField("campground_id", id)
	state := stateAuthorized
	fail := func(err error) (*domain.Campground, error) {
		log.WithError(err).WithField("state", state).Warn("campground update failed")
		state = stateFailed
		return nil, err
	}

	if image != nil {
		if cg.HasImage() {
			if err := s.media.Delete(ctx, cg.ImageID); err != nil {
				return fail(upstreamError("delete previous image", err))
			}
			state = stateImageDeleted
		}

		asset, err := s.upload(ctx, image)
		if err != nil {
			return fail(err)
		}
		cg.SetImage(asset)
		state = stateImageUploaded
	}

	cg.Name = fields.Name
	cg.Description = fields.Description
	if err := s.campgrounds.Update(ctx, cg); err != nil {
		if state == stateImageUploaded {
			s.discard(ctx, cg.ImageID)
		}
		return fail(err)
	}
	state = stateSaved
	log.WithField("state", state).Info("campground updated")
	return cg, nil
}

func (s *campgroundService) Delete(ctx context.Context, caller *domain.Identity, id int64) error {
	cg, err := s.authorize(ctx, caller, id)
	if err != nil {
		return err
	}
	if cg.HasImage() {
		if err := s.media.Delete(ctx, cg.ImageID); err != nil {
			return upstreamError("delete campground image", err)
		}
	}
	if err := s.campgrounds.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("campground_id", id).Info("campground deleted")
	return nil
}

// authorize loads the campground and applies the ownership predicate.
func (s *campgroundService) authorize(ctx context.Context, caller *domain.Identity, id int64) (*domain.Campground, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: you need to be logged in to do that", domain.ErrAuthorization)
	}
	cg, err := s.campgrounds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cg.CanBeModifiedBy(caller) {
		return nil, fmt.Errorf("%w: you don't have permission to do that", domain.ErrAuthorization)
	}
	return cg, nil
}

func (s *campgroundService) upload(ctx context.Context, image *Upload) (domain.MediaAsset, error) {
	asset, err := s.media.Upload(ctx, storage.UploadInput{
		Name:        timestampedName(s.now(), image.Filename),
		Body:        image.Body,
		Size:        image.Size,
		ContentType: image.ContentType,
	})
	if err != nil {
		return domain.MediaAsset{}, upstreamError("upload image", err)
	}
	return asset, nil
}

// discard removes an uploaded image that no record will reference.
// When the host refuses, the id is handed to the orphan queue.
func (s *campgroundService) discard(ctx context.Context, imageID string) {
	err := s.media.Delete(ctx, imageID)
	if err == nil {
		return
	}
	log := s.log.WithError(err).WithField("image_id", imageID)
	if s.orphans == nil {
		log.Warn("orphaned campground image could not be removed")
		return
	}
	if qErr := s.orphans.Enqueue(imageID); qErr != nil {
		log.WithField("queue_error", qErr.Error()).Warn("orphaned campground image could not be queued")
		return
	}
	log.Info("orphaned campground image queued for cleanup")
}

func validateFields(f CampgroundFields) (CampgroundFields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	if f.Name == "" {
		return f, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return f, nil
}

func upstreamError(op string, err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
