package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/notify"
	"yelpcamp/internal/storage"
)

type MockMediaGateway struct {
	mock.Mock
}

func (m *MockMediaGateway) Upload(ctx context.Context, in storage.UploadInput) (domain.MediaAsset, error) {
	if in.Body != nil {
		_, _ = io.Copy(io.Discard, in.Body)
	}
	args := m.Called(ctx, in)
	return args.Get(0).(domain.MediaAsset), args.Error(1)
}

func (m *MockMediaGateway) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// memCampgrounds is an in-memory CampgroundRepository preserving insertion order.
type memCampgrounds struct {
	mu     sync.Mutex
	nextID int64
	order  []int64
	rows   map[int64]domain.Campground
	// failCreate, when set, is returned by Create.
	failCreate error
}

func newMemCampgrounds() *memCampgrounds {
	return &memCampgrounds{rows: make(map[int64]domain.Campground)}
}

func (r *memCampgrounds) Init(context.Context) error { return nil }

func (r *memCampgrounds) Create(_ context.Context, cg *domain.Campground) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return 0, r.failCreate
	}
	r.nextID++
	cg.ID = r.nextID
	stored := *cg
	stored.Comments = nil
	r.rows[cg.ID] = stored
	r.order = append(r.order, cg.ID)
	return cg.ID, nil
}

func (r *memCampgrounds) Update(_ context.Context, cg *domain.Campground) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[cg.ID]
	if !ok {
		return fmt.Errorf("update campground: %w", domain.ErrNotFound)
	}
	cur.Name = cg.Name
	cur.Description = cg.Description
	cur.ImageURL = cg.ImageURL
	cur.ImageID = cg.ImageID
	r.rows[cg.ID] = cur
	return nil
}

func (r *memCampgrounds) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("delete campground: %w", domain.ErrNotFound)
	}
	delete(r.rows, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memCampgrounds) Get(_ context.Context, id int64) (*domain.Campground, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cg, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("get campground: %w", domain.ErrNotFound)
	}
	return &cg, nil
}

func (r *memCampgrounds) List(context.Context) ([]domain.Campground, error) {
	return r.filter(func(domain.Campground) bool { return true }), nil
}

func (r *memCampgrounds) ListByAuthor(_ context.Context, authorID int64) ([]domain.Campground, error) {
	return r.filter(func(cg domain.Campground) bool { return cg.Author.ID == authorID }), nil
}

func (r *memCampgrounds) filter(keep func(domain.Campground) bool) []domain.Campground {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Campground, 0, len(r.order))
	for _, id := range r.order {
		if cg := r.rows[id]; keep(cg) {
			out = append(out, cg)
		}
	}
	return out
}

func (r *memCampgrounds) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memComments struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Comment
}

func (r *memComments) Init(context.Context) error { return nil }

func (r *memComments) Create(_ context.Context, c *domain.Comment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.rows = append(r.rows, *c)
	return c.ID, nil
}

func (r *memComments) ListByCampground(_ context.Context, campgroundID int64) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, c := range r.rows {
		if c.CampgroundID == campgroundID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.User
	// failUpdate, when set, is returned by Update.
	failUpdate error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[int64]domain.User)}
}

func (r *memUsers) Init(context.Context) error { return nil }

func (r *memUsers) Create(_ context.Context, u *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("insert user: %w", domain.ErrConflict)
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.rows[u.ID] = *u
	return u.ID, nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.rows[u.ID]; !ok {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *memUsers) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (r *memUsers) RedeemReset(_ context.Context, id int64, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return fmt.Errorf("redeem reset token: %w", domain.ErrInvalidToken)
	}
	u.PasswordHash = passwordHash
	u.RedeemReset()
	r.rows[id] = u
	return nil
}

func (r *memUsers) ClearReset(_ context.Context, id int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return fmt.Errorf("clear reset token: %w", domain.ErrInvalidToken)
	}
	u.RedeemReset()
	r.rows[id] = u
	return nil
}

func (r *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", domain.ErrNotFound)
}

// stored returns a copy of the row as persisted.
func (r *memUsers) stored(id int64) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.rows[id]
	return &u
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}
