package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/service"
	"yelpcamp/internal/session"
)

const resetRequested = "If an account with that email address exists, an e-mail has been sent with further instructions."

func (h *Handler) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register", nil)
}

func (h *Handler) register(c *gin.Context) {
	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username:  c.PostForm("username"),
		Password:  c.PostForm("password"),
		FirstName: c.PostForm("firstName"),
		LastName:  c.PostForm("lastName"),
		Email:     c.PostForm("email"),
		Avatar:    c.PostForm("avatar"),
		AdminCode: c.PostForm("adminCode"),
	})
	if err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), "/register")
		return
	}
	if !h.startSession(c, user) {
		return
	}
	redirectWith(c, session.FlashSuccess, "Welcome to YelpCamp "+user.Username, "/campgrounds")
}

func (h *Handler) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login", nil)
}

func (h *Handler) login(c *gin.Context) {
	user, err := h.accounts.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), "/login")
		return
	}
	if !h.startSession(c, user) {
		return
	}
	redirectWith(c, session.FlashSuccess, "Welcome to YelpCamp "+user.Username+"!", "/campgrounds")
}

func (h *Handler) logout(c *gin.Context) {
	h.sessions.Clear(c)
	redirectWith(c, session.FlashSuccess, "Logged you out!", "/campgrounds")
}

func (h *Handler) forgotForm(c *gin.Context) {
	h.render(c, http.StatusOK, "forgot", nil)
}

// forgot answers identically for known and unknown addresses.
func (h *Handler) forgot(c *gin.Context) {
	err := h.accounts.RequestPasswordReset(c.Request.Context(), c.PostForm("email"), h.baseURL(c))
	switch {
	case err == nil, errors.Is(err, domain.ErrNotFound):
		redirectWith(c, session.FlashSuccess, resetRequested, "/forgot")
	case errors.Is(err, domain.ErrUpstream):
		h.log.WithError(err).Warn("password reset mail")
		redirectWith(c, session.FlashError, "The reset e-mail could not be sent, please try again later.", "/forgot")
	default:
		redirectWith(c, session.FlashError, h.describe(c, err), "/forgot")
	}
}

func (h *Handler) resetForm(c *gin.Context) {
	token := c.Param("token")
	if _, err := h.accounts.ValidateResetToken(c.Request.Context(), token); err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), "/forgot")
		return
	}
	h.render(c, http.StatusOK, "reset", gin.H{"Token": token})
}

func (h *Handler) reset(c *gin.Context) {
	token := c.Param("token")
	user, err := h.accounts.CompleteReset(c.Request.Context(), token, c.PostForm("password"), c.PostForm("confirm"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidToken):
		redirectWith(c, session.FlashError, h.describe(c, err), "/forgot")
		return
	case errors.Is(err, domain.ErrValidation):
		redirectWith(c, session.FlashError, h.describe(c, err), "/reset/"+token)
		return
	default:
		redirectWith(c, session.FlashError, h.describe(c, err), "/campgrounds")
		return
	}
	if !h.startSession(c, user) {
		return
	}
	redirectWith(c, session.FlashSuccess, "Success! Your password has been changed!", "/campgrounds")
}

func (h *Handler) profile(c *gin.Context) {
	p, err := h.accounts.PublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectWith(c, session.FlashError, "User not found.", "/campgrounds")
			return
		}
		redirectWith(c, session.FlashError, h.describe(c, err), "/campgrounds")
		return
	}
	h.render(c, http.StatusOK, "profile", gin.H{"Profile": p})
}

func (h *Handler) startSession(c *gin.Context, user *domain.User) bool {
	if err := h.sessions.Issue(c, user); err != nil {
		h.log.WithError(err).Error("issue session")
		h.renderError(c, http.StatusInternalServerError, somethingWentWrong)
		return false
	}
	return true
}

func (h *Handler) baseURL(c *gin.Context) string {
	if h.opts.BaseURL != "" {
		return h.opts.BaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
