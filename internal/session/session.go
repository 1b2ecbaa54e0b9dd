package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"yelpcamp/internal/domain"
)

const (
	cookieName  = "yelpcamp_session"
	identityKey = "identity"
)

// Claims carried by the session cookie.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies the session cookie.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	flashes sessions.Store
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		flashes: newFlashStore([]byte(secret), secure),
		now:     time.Now,
	}, nil
}

// Issue establishes a session for user.
func (m *Manager) Issue(c *gin.Context, user *domain.User) error {
	now := m.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	m.setCookie(c, signed, int(m.ttl.Seconds()))
	return nil
}

// Clear ends the session. It is safe to call without one.
func (m *Manager) Clear(c *gin.Context) {
	m.setCookie(c, "", -1)
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (m *Manager) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Resolve attaches the caller identity to the request when a valid cookie is present.
// A tampered or expired cookie is dropped and the request continues anonymously.
func (m *Manager) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err == nil && raw != "" {
			claims, err := m.parse(raw)
			if err != nil {
				m.Clear(c)
			} else {
				c.Set(identityKey, &domain.Identity{
					UserID:   claims.UserID,
					Username: claims.Username,
					IsAdmin:  claims.IsAdmin,
				})
			}
		}
		c.Next()
	}
}

// Current returns the resolved caller or nil for anonymous requests.
func Current(c *gin.Context) *domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*domain.Identity)
	return id
}

// RequireLogin redirects anonymous callers to the login form.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Current(c) == nil {
			SetFlash(c, FlashError, "You need to be logged in to do that")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
