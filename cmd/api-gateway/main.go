package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cometicitcare/dba-backend-sub002/api/swagger"
	"github.com/cometicitcare/dba-backend-sub002/internal/handler"
	"github.com/cometicitcare/dba-backend-sub002/internal/middleware"
	"github.com/cometicitcare/dba-backend-sub002/internal/models"
	"github.com/cometicitcare/dba-backend-sub002/internal/repository"
	"github.com/cometicitcare/dba-backend-sub002/internal/service"
	"github.com/cometicitcare/dba-backend-sub002/pkg/cache"
	"github.com/cometicitcare/dba-backend-sub002/pkg/config"
	"github.com/cometicitcare/dba-backend-sub002/pkg/database"
	"github.com/cometicitcare/dba-backend-sub002/pkg/export"
	"github.com/cometicitcare/dba-backend-sub002/pkg/logger"
	corsmiddleware "github.com/cometicitcare/dba-backend-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/cometicitcare/dba-backend-sub002/pkg/middleware/requestid"
	"github.com/cometicitcare/dba-backend-sub002/pkg/storage"
)

// @title Buddhist Affairs Registry API
// @version 1.0.0
// @description Registration workflow backend for temples, aramayas, bhikkus, and silmathas
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, reference caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	objectionRepo := repository.NewObjectionRepository(db)
	eventRepo := repository.NewTransitionEventRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Shared infrastructure.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.References.CacheTTL, logr, redisClient != nil)

	certificateStore, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare certificate storage", "error", err)
	}
	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	// Certificates re-render on demand, so stored PDFs are just a cache and
	// stale ones can be pruned at startup.
	if cfg.Certificates.RetentionTTL > 0 {
		if removed, err := certificateStore.CleanupOlderThan(cfg.Certificates.RetentionTTL); err != nil {
			logr.Sugar().Warnw("certificate cleanup failed", "error", err)
		} else if len(removed) > 0 {
			logr.Sugar().Infow("pruned stale certificate files", "count", len(removed))
		}
	}

	// Services.
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "dba-registry",
	})
	certificateService := service.NewCertificateService(export.NewCertificateRenderer(), certificateStore, signer, logr)
	notificationService := service.NewNotificationService(logr, cfg.Notifications.WorkerConcurrency, cfg.Notifications.WorkerRetries, cfg.Notifications.Enabled)
	notificationService.Start(context.Background())
	defer notificationService.Stop()

	metricsHook := service.TransitionHookFunc(func(_ context.Context, record *models.RegistrationRecord, event *models.TransitionEvent) {
		metricsService.RecordTransition(string(record.Entity), event.Action, "accepted")
	})

	referenceService := service.NewReferenceService(referenceRepo, cacheService, cfg.References.CacheTTL, logr)
	registrationService := service.NewRegistrationService(registrationRepo, eventRepo, logr,
		service.WithTransitionHooks(certificateService, notificationService, metricsHook),
		service.WithReferenceResolver(referenceService))
	objectionService := service.NewObjectionService(objectionRepo, registrationRepo, eventRepo, logr)
	documentService := service.NewDocumentService(registrationService, documentStore, cfg.Documents.MaxFileSizeBytes, cfg.Documents.AllowedMIMEs, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	registrationHandler := handler.NewRegistrationHandler(registrationService, documentService, certificateService)
	objectionHandler := handler.NewObjectionHandler(objectionService)
	referenceHandler := handler.NewReferenceHandler(referenceService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	api.GET("/registrations", middleware.JWT(authService), registrationHandler.Lookup)
	registrations := api.Group("/registrations/:entity", middleware.JWT(authService))
	{
		registrations.POST("", registrationHandler.Create)
		registrations.GET("", registrationHandler.List)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.DELETE("/:id",
			middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
			middleware.Audit(userRepo, models.AuditActionTransition, "registration"),
			registrationHandler.Delete)
		registrations.POST("/:id/actions",
			middleware.Audit(userRepo, models.AuditActionTransition, "registration"),
			registrationHandler.Action)
		registrations.GET("/:id/history", registrationHandler.History)
		registrations.POST("/:id/documents",
			middleware.Audit(userRepo, models.AuditActionTransition, "registration"),
			registrationHandler.AttachDocument)
		registrations.GET("/:id/certificate", registrationHandler.Certificate)
	}
	api.GET("/certificates/download", registrationHandler.DownloadCertificate)

	objections := api.Group("/objections", middleware.JWT(authService))
	{
		objections.POST("", objectionHandler.Create)
		objections.GET("", objectionHandler.List)
		objections.GET("/:id", objectionHandler.Get)
		objections.POST("/:id/actions",
			middleware.Audit(userRepo, models.AuditActionTransition, "objection"),
			objectionHandler.Action)
	}

	// Reference tables are public lookup data; claims attach when a token is
	// present so access logs can attribute the caller.
	references := api.Group("/references", middleware.OptionalJWT(authService))
	{
		references.GET("/:kind", referenceHandler.List)
		references.GET("/:kind/:code", referenceHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
