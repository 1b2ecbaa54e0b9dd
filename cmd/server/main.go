package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"yelpcamp/internal/cleanup"
	"yelpcamp/internal/config"
	apphttp "yelpcamp/internal/http"
	"yelpcamp/internal/notify"
	"yelpcamp/internal/repository/sqlite"
	"yelpcamp/internal/service"
	"yelpcamp/internal/session"
	"yelpcamp/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	campgroundRepo := sqlite.NewCampgroundRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := campgroundRepo.Init(ctx); err != nil {
		logger.Fatalf("init campground repository: %v", err)
	}
	if err := commentRepo.Init(ctx); err != nil {
		logger.Fatalf("init comment repository: %v", err)
	}

	media, err := buildMedia(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup media storage: %v", err)
	}
	mailer := buildNotifier(cfg, logger)

	janitor := cleanup.NewManager(cleanup.Config{
		MaxConcurrent: 2,
		MaxAttempts:   5,
		Backoff:       2 * time.Second,
		Logger:        logger,
	}, media)
	if err := janitor.Start(ctx); err != nil {
		logger.Fatalf("start image cleanup: %v", err)
	}

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.SessionTTL(), cfg.Session.Secure)
	if err != nil {
		logger.Fatalf("setup sessions: %v", err)
	}

	campgroundService := service.NewCampgroundService(campgroundRepo, commentRepo, media, janitor, logger)
	commentService := service.NewCommentService(campgroundRepo, commentRepo, logger)
	accountService := service.NewAccountService(userRepo, campgroundRepo, mailer, cfg.Auth.AdminCode, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler, err := apphttp.NewHandler(
		campgroundService,
		commentService,
		accountService,
		sessions,
		logger,
		apphttp.Options{
			BaseURL:        cfg.Server.BaseURL,
			MaxUploadBytes: cfg.Upload.MaxBytes,
			SSL:            cfg.Session.Secure,
		},
	)
	if err != nil {
		logger.Fatalf("setup http handler: %v", err)
	}
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apphttp.MethodOverride(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	janitor.Shutdown()

	logger.Info("bye")
}

func buildMedia(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.MediaGateway, error) {
	if cfg.Media.Bucket == "" {
		return nil, fmt.Errorf("media bucket is required")
	}
	opts := storage.Options{
		Bucket:    cfg.Media.Bucket,
		KeyPrefix: cfg.Media.KeyPrefix,
		PublicURL: cfg.Media.PublicURL,
	}

	switch cfg.Media.Driver {
	case "minio":
		svc, err := storage.NewMinIOService(storage.MinIOConfig{
			Endpoint:  cfg.Media.Endpoint,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			UseSSL:    cfg.Media.UseSSL,
			Region:    cfg.Media.Region,
		}, opts)
		if err != nil {
			return nil, err
		}
		if err := svc.EnsureBucket(ctx, cfg.Media.Region); err != nil {
			return nil, err
		}
		logger.Infof("using minio bucket %s at %s", cfg.Media.Bucket, cfg.Media.Endpoint)
		return svc, nil
	default:
		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Media.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Media.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Media.Endpoint)
				o.UsePathStyle = true
			}
		})
		logger.Infof("using s3 bucket %s (region %s)", cfg.Media.Bucket, cfg.Media.Region)
		return storage.NewS3Service(client, opts)
	}
}

// buildNotifier falls back to logging mail when no relay is configured.
func buildNotifier(cfg config.Config, logger *logrus.Logger) notify.Notifier {
	if cfg.Mail.Host == "" {
		logger.Warn("mail.host not set, reset mails will only be logged")
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  cfg.Mail.Timeout,
	})
}
