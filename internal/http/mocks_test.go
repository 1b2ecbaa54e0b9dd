package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/service"
)

type MockCampgroundService struct {
	mock.Mock
}

func (m *MockCampgroundService) List(ctx context.Context, search string) (service.ListResult, error) {
	args := m.Called(ctx, search)
	return args.Get(0).(service.ListResult), args.Error(1)
}

func (m *MockCampgroundService) Get(ctx context.Context, id int64) (*domain.Campground, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campground), args.Error(1)
}

func (m *MockCampgroundService) ForEdit(ctx context.Context, caller *domain.Identity, id int64) (*domain.Campground, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campground), args.Error(1)
}

func (m *MockCampgroundService) Create(ctx context.Context, caller *domain.Identity, fields service.CampgroundFields, image *service.Upload) (*domain.Campground, error) {
	args := m.Called(ctx, caller, fields, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campground), args.Error(1)
}

func (m *MockCampgroundService) Update(ctx context.Context, caller *domain.Identity, id int64, fields service.CampgroundFields, image *service.Upload) (*domain.Campground, error) {
	args := m.Called(ctx, caller, id, fields, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campground), args.Error(1)
}

func (m *MockCampgroundService) Delete(ctx context.Context, caller *domain.Identity, id int64) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Add(ctx context.Context, caller *domain.Identity, campgroundID int64, text string) (*domain.Comment, error) {
	args := m.Called(ctx, caller, campgroundID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	args := m.Called(ctx, email, baseURL)
	return args.Error(0)
}

func (m *MockAccountService) ValidateResetToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) CompleteReset(ctx context.Context, token, password, confirm string) (*domain.User, error) {
	args := m.Called(ctx, token, password, confirm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) PublicProfile(ctx context.Context, username string) (*domain.Profile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
