package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"presence/internal/attendance"
	"presence/internal/classroom"
	"presence/internal/cloudinary"
	"presence/internal/config"
	"presence/internal/httpapi"
	"presence/internal/httpmiddleware"
	"presence/internal/mailer"
	"presence/internal/queue"
	"presence/internal/session"
	"presence/internal/store"
	"presence/internal/user"
)

func main() {
	cfg := config.Load()

	var log *zap.Logger
	var err error
	if cfg.IsProduction() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.App, log *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateUp(cfg.MigrationsPath); err != nil {
		return err
	}
	log.Info("database ready", zap.String("migrations", cfg.MigrationsPath))

	var rds *store.Redis
	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		log.Info("using in-memory queue")
	} else {
		rds = store.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		q = queue.NewRedisQueue(rds.Client, "presence:verify")
		log.Info("using redis queue", zap.String("addr", cfg.RedisAddr))
	}

	var cdn *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Info("cloudinary configured", zap.String("cloud", cfg.CloudinaryCloudName))
	} else {
		log.Warn("cloudinary not configured, image uploads disabled")
	}

	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	if !mail.Configured() {
		log.Warn("smtp not configured, reset emails will not be delivered")
	}

	users := user.NewService(user.NewRepository(db.Client), mail, log, cfg.ResetTokenTTL, cfg.IsProduction())
	sessions := session.NewService(session.NewRepository(db.Client), cfg.SessionDefaultTTL)
	attRepo := attendance.NewRepository(db.Client)
	admissions := attendance.NewService(sessions, attRepo)
	classrooms := classroom.NewRepository(db.Client)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := rds == nil || rds.Healthy(c.Request.Context())
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"db": dbHealthy, "redis": redisHealthy})
	})

	h := httpapi.New(cfg, log, users, sessions, admissions, attRepo, classrooms, cdn, q)
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	// Give outstanding requests ten seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}
