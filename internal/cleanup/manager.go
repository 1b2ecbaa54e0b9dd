package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"yelpcamp/internal/storage"
)

// ErrNotStarted is returned by Enqueue before Start or after Shutdown.
var ErrNotStarted = errors.New("cleanup manager is not running")

// Manager retries removal of media assets that no campground references any more.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	Enqueue(imageID string) error
}

type Config struct {
	MaxConcurrent int
	MaxAttempts   int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	Logger  logrus.FieldLogger
}

type manager struct {
	cfg   Config
	media storage.MediaGateway

	sem     chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[string]struct{}
}

func NewManager(cfg Config, media storage.MediaGateway) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		media:   media,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		pending: make(map[string]struct{}),
	}
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.cfg.Logger.Infof("image cleanup started, %d workers", m.cfg.MaxConcurrent)
	return nil
}

// Shutdown abandons pending retries and waits for in-flight deletes to return.
func (m *manager) Shutdown() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.ctx = nil
	m.mu.Unlock()
	m.wg.Wait()
	m.cfg.Logger.Info("image cleanup stopped")
}

// Enqueue schedules imageID for deletion. An id already queued is not queued twice.
func (m *manager) Enqueue(imageID string) error {
	if imageID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return ErrNotStarted
	}
	if _, ok := m.pending[imageID]; ok {
		return nil
	}
	m.pending[imageID] = struct{}{}

	ctx := m.ctx
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.forget(imageID)
		select {
		case <-ctx.Done():
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.remove(ctx, imageID)
		}
	}()
	return nil
}

func (m *manager) remove(ctx context.Context, imageID string) {
	log := m.cfg.Logger.WithField("image_id", imageID)
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		err := m.media.Delete(ctx, imageID)
		if err == nil {
			log.WithField("attempt", attempt).Info("orphaned image removed")
			return
		}
		log.WithError(err).WithField("attempt", attempt).Warn("orphaned image delete failed")
		if attempt == m.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.Backoff * time.Duration(attempt)):
		}
	}
	log.Errorf("giving up on orphaned image after %d attempts", m.cfg.MaxAttempts)
}

func (m *manager) forget(imageID string) {
	m.mu.Lock()
	delete(m.pending, imageID)
	m.mu.Unlock()
}
