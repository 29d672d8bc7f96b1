package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	grpchealth "google.golang.org/grpc/health"

	"github.com/dtroode/vibenotes-server/internal/api/grpc/health"
	grpcRouter "github.com/dtroode/vibenotes-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/vibenotes-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/vibenotes-server/internal/api/http/context"
	"github.com/dtroode/vibenotes-server/internal/api/http/cookie"
	httpRouter "github.com/dtroode/vibenotes-server/internal/api/http/router"
	httpServer "github.com/dtroode/vibenotes-server/internal/api/http/server"
	"github.com/dtroode/vibenotes-server/internal/config"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
	"github.com/dtroode/vibenotes-server/internal/repository/postgres"
	"github.com/dtroode/vibenotes-server/internal/server"
	"github.com/dtroode/vibenotes-server/internal/service"
	"github.com/dtroode/vibenotes-server/internal/storage/local"
	minioStorage "github.com/dtroode/vibenotes-server/internal/storage/minio"
	"github.com/dtroode/vibenotes-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	avatars, attachments, err := newStorages(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize file storage", "error", err, "driver", cfg.Storage.Driver)
	}

	store := postgres.NewStore(db.DB)
	tokenManager := token.NewJWT(cfg.Session.Secret)

	authService := service.NewAuth(store.Users(), cfg.Auth.BcryptCost, logger)
	sessionService := service.NewSession(store.Sessions(), tokenManager, cfg.Session.IdleTimeout, logger)
	profileService := service.NewProfile(store, avatars, logger)
	noteService := service.NewNote(store, attachments, logger)
	attachmentService := service.NewAttachment(store, attachments, logger)

	if !cfg.HTTP.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	webRouter := httpRouter.New(
		httpRouter.Services{
			Auth:        authService,
			Sessions:    sessionService,
			Profiles:    profileService,
			Notes:       noteService,
			Attachments: attachmentService,
			Database:    db,
		},
		cookie.NewSession(cfg.Session.CookieName, cfg.Session.SecureCookie, sessionService.IdleTimeout()),
		httpctx.NewManager(),
		cfg.HTTP.MaxBodyBytes,
		logger,
	)
	web := httpServer.NewHTTPServer(webRouter.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	opsLogger := logger.With("component", "ops")
	healthServer := grpchealth.NewServer()
	monitor := health.NewMonitor(db, healthServer, cfg.GRPC.HealthInterval, opsLogger)
	ops := grpcServer.NewGRPCServer(grpcRouter.New(healthServer, opsLogger).Register(), healthServer, fmt.Sprintf(":%s", cfg.GRPC.Port))

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	for _, s := range []model.Server{web, ops} {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		purgeSessions(ctx, sessionService, cfg.Session.PurgeInterval, logger)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range []model.Server{web, ops} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// newStorages opens the avatar and attachment stores of the configured driver.
func newStorages(ctx context.Context, cfg *config.Config, logger *logger.Logger) (avatars, attachments model.Storage, err error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinio:
		client, err := minioStorage.Connect(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		avatarBucket, err := minioStorage.NewClient(ctx, client, cfg.Minio.AvatarBucket)
		if err != nil {
			return nil, nil, err
		}
		attachmentBucket, err := minioStorage.NewClient(ctx, client, cfg.Minio.AttachmentBucket)
		if err != nil {
			return nil, nil, err
		}
		return avatarBucket, attachmentBucket, nil
	default:
		avatarDir, err := local.NewDisk(cfg.Storage.AvatarDir)
		if err != nil {
			return nil, nil, err
		}
		attachmentDir, err := local.NewDisk(cfg.Storage.AttachmentDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local file storage",
			"avatars", avatarDir.Dir(),
			"attachments", attachmentDir.Dir())
		return avatarDir, attachmentDir, nil
	}
}

// purgeSessions deletes idle sessions every interval until ctx is done.
func purgeSessions(ctx context.Context, sessions *service.Session, interval time.Duration, logger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
