package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"index", "new", "show", "edit",
	"register", "login", "forgot", "reset",
	"profile", "error",
}

const somethingWentWrong = "Something went wrong"

type views map[string]*template.Template

// loadViews parses every page together with the shared layout.
func loadViews() (views, error) {
	funcs := template.FuncMap{
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
	}
	v := make(views, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v[name] = tmpl
	}
	return v, nil
}

// render writes a full page. The pending flash is consumed here so it shows exactly once.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = session.Current(c)
	if f, ok := session.TakeFlash(c); ok {
		data["Flash"] = f
	}

	tmpl, ok := h.views[page]
	if !ok {
		h.log.WithField("page", page).Error("unknown template")
		c.String(http.StatusInternalServerError, somethingWentWrong)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.WithError(err).WithField("page", page).Error("render template")
		c.String(http.StatusInternalServerError, somethingWentWrong)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	h.render(c, status, "error", gin.H{"Status": status, "Message": message})
}

// redirectWith stores a flash and sends the browser to target.
func redirectWith(c *gin.Context, kind session.FlashKind, message, target string) {
	session.SetFlash(c, kind, message)
	c.Redirect(http.StatusFound, target)
}

// describe turns a service error into text safe to show the user.
// Store failures and unknown errors are logged and reduced to a generic message.
func (h *Handler) describe(c *gin.Context, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return "Password reset token is invalid or has expired."
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAuthentication),
		errors.Is(err, domain.ErrAuthorization),
		errors.Is(err, domain.ErrNotFound):
		return userMessage(err)
	case errors.Is(err, domain.ErrUpstream):
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Warn("upstream failure")
		return "An external service is unavailable, please try again later."
	default:
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		return somethingWentWrong
	}
}

// userMessage keeps the innermost clause of a wrapped error and capitalizes it.
func userMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return somethingWentWrong
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
