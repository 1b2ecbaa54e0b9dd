package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/notify"
)

type accountFixture struct {
	svc         *accountService
	users       *memUsers
	campgrounds *memCampgrounds
	mailer      *MockNotifier
	clock       time.Time
}

func newAccountFixture(t *testing.T, adminCode string) *accountFixture {
	t.Helper()
	f := &accountFixture{
		users:       newMemUsers(),
		campgrounds: newMemCampgrounds(),
		mailer:      new(MockNotifier),
		clock:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAccountService(f.users, f.campgrounds, f.mailer, adminCode, quietLogger()).(*accountService)
	f.svc.hashCost = bcrypt.MinCost
	f.svc.now = func() time.Time { return f.clock }
	f.svc.token = func() (string, error) { return "tok123", nil }
	return f
}

func (f *accountFixture) register(t *testing.T, username, email string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "correct horse",
		Email:    email,
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user without leaking hash", func(t *testing.T) {
		f := newAccountFixture(t, "")
		u, err := f.svc.Register(ctx, RegisterInput{
			Username:  " alice ",
			Password:  "correct horse",
			FirstName: "Alice",
			Email:     "alice@example.com",
			Avatar:    "https://example.com/a.png",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.Empty(t, u.PasswordHash)
		assert.False(t, u.IsAdmin)

		stored := f.users.stored(u.ID)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		f := newAccountFixture(t, "")
		f.register(t, "alice", "a@example.com")
		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Password: "another one", Email: "b@example.com"})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("field validation", func(t *testing.T) {
		f := newAccountFixture(t, "")
		_, err := f.svc.Register(ctx, RegisterInput{Username: "alice", Password: "short", Email: "not-an-email"})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "password must be at least 8 characters")
		assert.Contains(t, err.Error(), "email must be a valid email address")
	})

	t.Run("admin code grants admin", func(t *testing.T) {
		f := newAccountFixture(t, "s3cret")
		u, err := f.svc.Register(ctx, RegisterInput{Username: "root", Password: "correct horse", Email: "r@example.com", AdminCode: "s3cret"})
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)

		u, err = f.svc.Register(ctx, RegisterInput{Username: "eve", Password: "correct horse", Email: "e@example.com", AdminCode: "guess"})
		require.NoError(t, err)
		assert.False(t, u.IsAdmin)
	})

	t.Run("empty configured code never grants admin", func(t *testing.T) {
		f := newAccountFixture(t, "")
		u, err := f.svc.Register(ctx, RegisterInput{Username: "eve", Password: "correct horse", Email: "e@example.com", AdminCode: ""})
		require.NoError(t, err)
		assert.False(t, u.IsAdmin)
	})
}

func TestLogin(t *testing.T) {
	f := newAccountFixture(t, "")
	f.register(t, "alice", "a@example.com")
	ctx := context.Background()

	u, err := f.svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, wrongPassword := f.svc.Login(ctx, "alice", "nope")
	_, unknownUser := f.svc.Login(ctx, "mallory", "correct horse")
	assert.ErrorIs(t, wrongPassword, domain.ErrAuthentication)
	assert.ErrorIs(t, unknownUser, domain.ErrAuthentication)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token and mails link", func(t *testing.T) {
		f := newAccountFixture(t, "")
		u := f.register(t, "alice", "a@example.com")
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
			return m.To == "a@example.com" && strings.Contains(m.Body, "https://camp.example.com/reset/tok123")
		})).Return(nil).Once()

		require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@example.com", "https://camp.example.com/"))

		stored := f.users.stored(u.ID)
		require.NotNil(t, stored.ResetToken)
		assert.Equal(t, "tok123", *stored.ResetToken)
		assert.Equal(t, f.clock.Add(time.Hour), *stored.ResetExpires)
		f.mailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAccountFixture(t, "")
		err := f.svc.RequestPasswordReset(ctx, "ghost@example.com", "http://x")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("mail failure keeps token", func(t *testing.T) {
		f := newAccountFixture(t, "")
		u := f.register(t, "alice", "a@example.com")
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("relay down")).Once()

		err := f.svc.RequestPasswordReset(ctx, "a@example.com", "http://x")
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.Equal(t, domain.ResetStateIssued, f.users.stored(u.ID).ResetState(f.clock))
	})
}

func TestResetFlow(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T) (*accountFixture, *domain.User) {
		f := newAccountFixture(t, "")
		u := f.register(t, "alice", "a@example.com")
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@example.com", "http://x"))
		return f, u
	}

	t.Run("valid token", func(t *testing.T) {
		f, u := issue(t)
		got, err := f.svc.ValidateResetToken(ctx, "tok123")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("expired token is indistinguishable from unknown", func(t *testing.T) {
		f, u := issue(t)
		f.clock = f.clock.Add(time.Hour)

		_, expired := f.svc.ValidateResetToken(ctx, "tok123")
		_, unknown := f.svc.ValidateResetToken(ctx, "nope")
		assert.ErrorIs(t, expired, domain.ErrInvalidToken)
		assert.ErrorIs(t, unknown, domain.ErrInvalidToken)
		assert.Equal(t, expired.Error(), unknown.Error())
		assert.Nil(t, f.users.stored(u.ID).ResetToken, "expired token should be dropped")
		assert.Nil(t, f.users.stored(u.ID).ResetExpires)
	})

	t.Run("dead token is reported before password rules", func(t *testing.T) {
		f, _ := issue(t)
		f.clock = f.clock.Add(2 * time.Hour)

		_, err := f.svc.CompleteReset(ctx, "tok123", "short", "short")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("short password with a live token", func(t *testing.T) {
		f, u := issue(t)
		_, err := f.svc.CompleteReset(ctx, "tok123", "short", "short")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.ResetStateIssued, f.users.stored(u.ID).ResetState(f.clock))
	})

	t.Run("concurrent submissions redeem once", func(t *testing.T) {
		f, _ := issue(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			rejected  int
		)
		for _, pw := range []string{"first password", "second password", "third password"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.CompleteReset(ctx, "tok123", pw, pw)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, domain.ErrInvalidToken):
					rejected++
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, successes)
		assert.Equal(t, 2, rejected)
	})

	t.Run("mismatched confirmation changes nothing", func(t *testing.T) {
		f, u := issue(t)
		before := f.users.stored(u.ID).PasswordHash

		_, err := f.svc.CompleteReset(ctx, "tok123", "new password", "new passw0rd")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
		assert.Equal(t, before, f.users.stored(u.ID).PasswordHash)
		assert.Equal(t, domain.ResetStateIssued, f.users.stored(u.ID).ResetState(f.clock))
	})

	t.Run("completes once only", func(t *testing.T) {
		f, u := issue(t)

		_, err := f.svc.CompleteReset(ctx, "tok123", "new password", "new password")
		require.NoError(t, err)

		stored := f.users.stored(u.ID)
		assert.Nil(t, stored.ResetToken)
		assert.Nil(t, stored.ResetExpires)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new password")))

		_, err = f.svc.CompleteReset(ctx, "tok123", "other password", "other password")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)

		_, err = f.svc.Login(ctx, "alice", "new password")
		assert.NoError(t, err)
	})

	t.Run("confirmation mail failure is swallowed", func(t *testing.T) {
		f := newAccountFixture(t, "")
		u := f.register(t, "alice", "a@example.com")
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
			return strings.Contains(m.Subject, "Reset")
		})).Return(nil).Once()
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
			return m.Subject == "Your password has been changed"
		})).Return(errors.New("relay down")).Once()
		require.NoError(t, f.svc.RequestPasswordReset(ctx, "a@example.com", "http://x"))

		got, err := f.svc.CompleteReset(ctx, "tok123", "new password", "new password")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		f.mailer.AssertExpectations(t)
	})
}

func TestPublicProfile(t *testing.T) {
	f := newAccountFixture(t, "")
	u := f.register(t, "alice", "a@example.com")
	ctx := context.Background()
	seed(t, f.campgrounds, "Mine", &domain.Identity{UserID: u.ID, Username: "alice"}, "a")
	seed(t, f.campgrounds, "Theirs", &domain.Identity{UserID: u.ID + 1, Username: "bob"}, "b")

	p, err := f.svc.PublicProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.User.Username)
	assert.Empty(t, p.User.PasswordHash)
	require.Len(t, p.Campgrounds, 1)
	assert.Equal(t, "Mine", p.Campgrounds[0].Name)

	_, err = f.svc.PublicProfile(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewResetToken(t *testing.T) {
	a, err := newResetToken()
	require.NoError(t, err)
	b, err := newResetToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
