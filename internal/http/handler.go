package http

import (
	"net/http"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yelpcamp/internal/service"
	"yelpcamp/internal/session"
)

// Options tune the web layer.
type Options struct {
	// BaseURL prefixes links sent by mail. When empty the request host is used.
	BaseURL        string
	MaxUploadBytes int64
	// SSL enables redirect and HSTS headers for deployments terminating TLS in-process.
	SSL bool
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	campgrounds service.CampgroundService
	comments    service.CommentService
	accounts    service.AccountService
	sessions    *session.Manager
	views       views
	log         logrus.FieldLogger
	opts        Options
}

func NewHandler(
	campgrounds service.CampgroundService,
	comments service.CommentService,
	accounts service.AccountService,
	sessions *session.Manager,
	log logrus.FieldLogger,
	opts Options,
) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		campgrounds: campgrounds,
		comments:    comments,
		accounts:    accounts,
		sessions:    sessions,
		views:       v,
		log:         log,
		opts:        opts,
	}, nil
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log))
	router.Use(secure.New(securityConfig(h.opts.SSL)))
	router.Use(h.sessions.Flashes())
	router.Use(h.sessions.Resolve())
	router.MaxMultipartMemory = h.opts.MaxUploadBytes

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/campgrounds")
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := session.RequireLogin()

	campgrounds := router.Group("/campgrounds")
	{
		campgrounds.GET("", h.listCampgrounds)
		campgrounds.POST("", auth, h.createCampground)
		campgrounds.GET("/new", auth, h.newCampground)
		campgrounds.GET("/:id", h.showCampground)
		campgrounds.GET("/:id/edit", auth, h.editCampground)
		campgrounds.PUT("/:id", auth, h.updateCampground)
		campgrounds.DELETE("/:id", auth, h.deleteCampground)
		campgrounds.POST("/:id/comments", auth, h.createComment)
	}

	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/forgot", h.forgotForm)
	router.POST("/forgot", h.forgot)
	router.GET("/reset/:token", h.resetForm)
	router.POST("/reset/:token", h.reset)
	router.GET("/users/:username", h.profile)

	router.NoRoute(func(c *gin.Context) {
		h.renderError(c, http.StatusNotFound, "Page not found")
	})
}

func securityConfig(ssl bool) secure.Config {
	cfg := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	if ssl {
		cfg.SSLRedirect = true
		cfg.STSSeconds = 31536000
		cfg.STSIncludeSubdomains = true
	}
	return cfg
}
