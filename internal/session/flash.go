package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const flashCookie = "yelpcamp_flash"

// FlashKind selects the alert style.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

var flashKinds = []FlashKind{FlashError, FlashSuccess}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

func newFlashStore(secret []byte, secure bool) sessions.Store {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// Flashes loads the signed flash cookie. SetFlash and TakeFlash need it upstream.
func (m *Manager) Flashes() gin.HandlerFunc {
	return sessions.Sessions(flashCookie, m.flashes)
}

// SetFlash stores a message for the next request. It must run before the response is written.
func SetFlash(c *gin.Context, kind FlashKind, message string) {
	s := sessions.Default(c)
	s.AddFlash(message, string(kind))
	if err := s.Save(); err != nil {
		_ = c.Error(err)
	}
}

// TakeFlash returns the pending message, if any, and clears every pending one.
func TakeFlash(c *gin.Context) (Flash, bool) {
	s := sessions.Default(c)
	var (
		found Flash
		ok    bool
	)
	for _, kind := range flashKinds {
		for _, v := range s.Flashes(string(kind)) {
			msg, isString := v.(string)
			if !isString || ok {
				continue
			}
			found, ok = Flash{Kind: kind, Message: msg}, true
		}
	}
	if ok {
		if err := s.Save(); err != nil {
			_ = c.Error(err)
		}
	}
	return found, ok
}
