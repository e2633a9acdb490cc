// Package main runs the multi-tenant giveaway HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sweepgoat/backend/config"
	"github.com/sweepgoat/backend/internal/auth"
	"github.com/sweepgoat/backend/internal/branding"
	"github.com/sweepgoat/backend/internal/campaigns"
	"github.com/sweepgoat/backend/internal/entries"
	"github.com/sweepgoat/backend/internal/giveaways"
	"github.com/sweepgoat/backend/internal/middleware"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/internal/tenants"
	"github.com/sweepgoat/backend/internal/uploads"
	"github.com/sweepgoat/backend/internal/users"
	"github.com/sweepgoat/backend/pkg/database"
	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/metrics"
	"github.com/sweepgoat/backend/pkg/queue"
	"github.com/sweepgoat/backend/pkg/redis"
	"github.com/sweepgoat/backend/pkg/response"
	"github.com/sweepgoat/backend/pkg/storage"
	"github.com/sweepgoat/backend/pkg/utils"
	"github.com/sweepgoat/backend/pkg/validator"
)

const serviceName = "sweepgoat-backend"

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := validator.Register(); err != nil {
		logger.Fatal("validator", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			if cfg.Email.Delivery == "queue" {
				logger.Fatal("redis", zap.Error(err))
			}
			logger.Warn("redis disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	mailer, err := newMailer(cfg, rdb, logger)
	if err != nil {
		logger.Fatal("email", zap.Error(err))
	}
	sms := email.NewLogSMSSender(logger)

	// Tenants
	hostRepo := tenants.NewRepository(pool)
	var bus tenants.Broadcaster
	var invalidations *tenants.InvalidationBus
	if rdb != nil {
		invalidations = tenants.NewInvalidationBus(rdb.Client, logger)
		bus = invalidations
	}
	tenantCache := tenants.NewValidationCache(hostRepo, cfg.Tenants.CacheSize,
		time.Duration(cfg.Tenants.CacheTTLMinutes)*time.Minute, bus, logger)
	m.RegisterCache(tenantCache.MetricsStats)

	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	if invalidations != nil {
		if err := invalidations.Subscribe(subCtx, tenantCache); err != nil {
			logger.Warn("tenant invalidation subscriber disabled", zap.Error(err))
		}
	}
	tenantHandler := tenants.NewHandler(tenantCache, logger)

	// Auth
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authOpts := auth.Options{
		BaseDomain:      cfg.Server.BaseDomain,
		CodeTTL:         time.Duration(cfg.Auth.VerificationCodeTTLHours) * time.Hour,
		AutoVerifyUsers: cfg.Auth.AutoVerifyEmails,
	}
	hasher := utils.PasswordHasher{}
	hostService := auth.NewHostService(hostRepo, tokens, hasher, mailer, tenantCache, m, authOpts, logger)
	hostHandler := auth.NewHostHandler(hostService, logger)

	userRepo := users.NewRepository(pool)
	userService := auth.NewUserService(userRepo, tokens, hasher, mailer, m, authOpts, logger)
	userHandler := auth.NewUserHandler(userService, logger)

	// Giveaways and entries
	giveawayRepo := giveaways.NewRepository(pool)
	giveawayHandler := giveaways.NewHandler(giveaways.NewService(giveawayRepo, logger), logger)
	sweeper := giveaways.NewSweeper(giveawayRepo, time.Duration(cfg.Giveaways.SweepIntervalSeconds)*time.Second, m, logger)

	entryService := entries.NewService(entries.NewRepository(pool), userRepo, giveawayRepo, logger)
	entryHandler := entries.NewHandler(entryService, logger)

	// Host tools
	usersService := users.NewService(userRepo, giveawayRepo, logger)
	usersHandler := users.NewHandler(usersService, logger)

	campaignService := campaigns.NewService(campaigns.NewRepository(pool), usersService, hostRepo, mailer, sms, m, logger)
	campaignHandler := campaigns.NewHandler(campaignService, logger)

	prober := branding.NewHTTPProber(time.Duration(cfg.Branding.ProbeTimeoutSeconds)*time.Second, logger)
	brandingHandler := branding.NewHandler(branding.NewService(hostRepo, prober, tenantCache, logger), logger)

	uploadHandler := uploads.NewHandler(uploads.NewService(newImageStore(ctx, cfg, logger), logger), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.SubdomainGate(tenantCache, middleware.DefaultWhitelist(), m))
	router.Use(middleware.TokenGate(tokens, tenantCache, m))
	router.Use(middleware.Authorize(middleware.DefaultAccessRules()))

	router.GET("/", func(c *gin.Context) {
		res := reqctx.From(c).Resolution
		response.OK(c, gin.H{
			"service":      serviceName,
			"status":       "running",
			"subdomain":    res.Subdomain,
			"isMainDomain": !res.IsSubdomain(),
		})
	})
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			middleware.LoggerFrom(c).Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/host/register", hostHandler.Register)
		authGroup.POST("/host/login", hostHandler.Login)
		authGroup.POST("/host/verify-email", hostHandler.VerifyEmail)
		authGroup.POST("/host/resend-verification", hostHandler.ResendVerification)

		authGroup.POST("/user/register", userHandler.Register)
		authGroup.POST("/user/login", userHandler.Login)
		authGroup.POST("/user/verify-email", userHandler.VerifyEmail)
		authGroup.POST("/user/resend-verification", userHandler.ResendVerification)
	}

	public := api.Group("/public")
	{
		public.GET("/subdomain/validate", tenantHandler.Validate)
		public.GET("/subdomain/branding", tenantHandler.Branding)
		public.GET("/giveaways", giveawayHandler.PublicList)
		public.GET("/giveaways/active", giveawayHandler.PublicActive)
		public.GET("/giveaways/:id", giveawayHandler.PublicGet)
	}

	host := api.Group("/host")
	{
		host.GET("/giveaways", giveawayHandler.List)
		host.GET("/giveaways/active", giveawayHandler.ListActive)
		host.GET("/giveaways/:id", giveawayHandler.Get)
		host.GET("/giveaways/:id/stats", giveawayHandler.Stats)
		host.GET("/giveaways/:id/entries", giveawayHandler.Entries)
		host.POST("/giveaways", giveawayHandler.Create)
		host.DELETE("/giveaways/:id", giveawayHandler.Delete)
		host.POST("/giveaways/:id/select-winner", giveawayHandler.SelectWinner)

		host.GET("/users", usersHandler.List)

		host.GET("/branding", brandingHandler.Get)
		host.PATCH("/branding", brandingHandler.Update)
		host.POST("/upload-image", uploadHandler.Upload)

		host.POST("/campaigns/send", campaignHandler.Send)
		host.GET("/campaigns", campaignHandler.List)
		host.GET("/campaigns/:id", campaignHandler.Get)

		host.POST("/change-password", hostHandler.ChangePassword)
		host.DELETE("/account", hostHandler.DeleteAccount)
	}

	user := api.Group("/user")
	{
		user.POST("/giveaways/:id/enter/free", entryHandler.ClaimFree)
		user.POST("/giveaways/:id/enter", entryHandler.Enter)
		user.GET("/my-entries", entryHandler.MyEntries)
		user.GET("/my-giveaway-entries", entryHandler.History)
		user.POST("/change-password", userHandler.ChangePassword)
		user.DELETE("/account", userHandler.DeleteAccount)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sweeper.Start()

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("base_domain", cfg.Server.BaseDomain))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweeper.Stop()
	subCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newMailer picks the outbound email path from EMAIL_DELIVERY.
func newMailer(cfg *config.Config, rdb *redis.Client, logger *zap.Logger) (email.Sender, error) {
	switch cfg.Email.Delivery {
	case "resend":
		return email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.FromName, logger)
	case "queue":
		logger.Info("email delivery via worker queue", zap.String("queue", queue.QueueEmails))
		return email.NewQueueSender(queue.NewQueue(rdb.Client, logger)), nil
	default:
		return email.NewLogSender(logger), nil
	}
}

// newImageStore prefers Cloudflare Images, then S3. It returns nil when neither is configured.
func newImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) uploads.ImageStore {
	if cfg.Cloudflare.AccountID != "" {
		logger.Info("image uploads via Cloudflare Images")
		return uploads.NewCloudflareImages(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken,
			time.Duration(cfg.Cloudflare.TimeoutSeconds)*time.Second, logger)
	}
	if cfg.AWS.ImagesBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
			UploadTimeout:   time.Duration(cfg.AWS.UploadTimeout) * time.Second,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			return nil
		}
		return s3Client
	}
	logger.Warn("image uploads disabled: set CLOUDFLARE_ACCOUNT_ID or AWS_S3_IMAGES_BUCKET")
	return nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
