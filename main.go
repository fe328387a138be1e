package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abodd44/hashdocker-document-hub/handlers"
	"github.com/abodd44/hashdocker-document-hub/internal/config"
	"github.com/abodd44/hashdocker-document-hub/internal/conversion"
	"github.com/abodd44/hashdocker-document-hub/internal/courses"
	"github.com/abodd44/hashdocker-document-hub/internal/database"
	"github.com/abodd44/hashdocker-document-hub/internal/document/repository"
	docservice "github.com/abodd44/hashdocker-document-hub/internal/document/service"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/mail"
	"github.com/abodd44/hashdocker-document-hub/internal/notifications"
	"github.com/abodd44/hashdocker-document-hub/internal/oidc"
	"github.com/abodd44/hashdocker-document-hub/internal/seed"
	"github.com/abodd44/hashdocker-document-hub/internal/sessions"
	"github.com/abodd44/hashdocker-document-hub/internal/storage"
	"github.com/abodd44/hashdocker-document-hub/internal/tokens"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/metrics"
	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Endpoint != "")
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Accept-Language, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery(), metrics.GinMiddleware())

	// Redis backs token revocation, rate limiting, sessions and live notifications when reachable.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err == nil {
			rdb = client
			sessions.SetBlacklistClient(rdb)
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		} else {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
			_ = client.Close()
		}
		cancel()
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Warnf("%v; falling back to in-memory stores", err)
		} else {
			mongoClient = client
			logger.Infof("connected to MongoDB database %s", cfg.MongoDB.Database)
		}
	}

	var (
		userRepo    users.UserRepository     = users.NewMemoryUserRepository()
		sessionRepo sessions.Repository      = sessions.NewMemoryRepository()
		docRepo     repository.Repository    = repository.NewMemoryRepo()
		fbRepo      feedback.Repository      = feedback.NewMemoryRepository()
		notifRepo   notifications.Repository = notifications.NewMemoryRepository()
		courseRepo  courses.Repository       = courses.NewMemoryRepository()
		jobStore    conversion.Store         = conversion.NewMemoryStore()
		broker      notifications.Broker     = notifications.NewMemoryBroker()
		blobs       storage.Store            = storage.NewMemoryStorage()
	)
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		userRepo = users.NewMongoUserRepository(db.Collection(database.UsersCollection))
		sessionRepo = sessions.NewMongoRepository(db.Collection(database.SessionsCollection))
		docRepo = repository.NewMongoRepo(db.Collection(database.DocumentsCollection))
		fbRepo = feedback.NewMongoRepository(db.Collection(database.FeedbackCollection))
		notifRepo = notifications.NewMongoRepository(db.Collection(database.NotificationsCollection))
		courseRepo = courses.NewMongoRepository(db.Collection(database.CoursesCollection))
		jobStore = conversion.NewMongoStore(db.Collection(database.ConversionCollection))
	}
	// Redis sessions take precedence over Mongo ones.
	if rdb != nil {
		sessionRepo = sessions.NewRedisRepository(rdb, "session:")
		broker = notifications.NewRedisBroker(rdb, "notifications:")
	}

	presignTTL := time.Duration(0)
	var minioStore *storage.MinIOStorage
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinIOStorage(ctx, storage.MinIOConfigFrom(cfg.Storage))
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v; keeping files in memory", err)
		} else {
			blobs, minioStore = ms, ms
			presignTTL = cfg.Storage.PresignedTTL
			logger.Infof("storing files in MinIO bucket %s", cfg.Storage.Bucket)
		}
	}

	userSvc := users.NewService(userRepo)
	sessionsSvc := sessions.NewService(sessionRepo)
	coursesSvc := courses.NewService(courseRepo, userSvc)
	notifSvc := notifications.NewService(notifRepo, userSvc, broker, mail.New(cfg.Mail))
	fbSvc := feedback.NewService(fbRepo, userSvc, notifSvc)

	pool := conversion.NewPool(jobStore, &conversion.BlobConverter{Blobs: blobs}, cfg.Conversion.Workers, cfg.Conversion.QueueSize)
	docSvc := docservice.New(docservice.Deps{
		Repo:       docRepo,
		Blobs:      blobs,
		Notifier:   notifSvc,
		Conversion: pool,
		Courses:    coursesSvc,
	}, docservice.Options{MaxBytes: cfg.Upload.MaxBytes, AllowedTypes: cfg.Upload.AllowedTypes, PresignTTL: presignTTL})
	pool.OnComplete(func(ctx context.Context, j *conversion.Job) {
		if err := docSvc.MarkConverted(ctx, j); err != nil {
			logger.Warnf("conversion %s for document %s not recorded: %v", j.JobID, j.DocID, err)
		}
	})
	pool.Start(context.Background())

	if cfg.Seed.Demo {
		seeded, err := seed.Run(ctx, seed.Deps{Users: userSvc, Courses: coursesSvc, Documents: docRepo, Feedback: fbRepo, Blobs: blobs})
		if err != nil {
			logger.Errorf("seeding demo data failed: %v", err)
		} else if seeded {
			logger.Infof("demo data seeded")
		}
	}

	// Portal tokens first, Keycloak ID tokens second.
	localVerifier := tokens.NewVerifier(cfg.JWT.Secret)
	chain := middleware.ChainVerifier{localVerifier}
	var ssoVerifier *oidc.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		v, err := oidc.NewVerifier(ctx, cfg.Keycloak.Issuer(), cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			ssoVerifier = v
			chain = append(chain, v)
		}
	}
	resolve := func(ctx context.Context, claims map[string]interface{}) (middleware.Principal, error) {
		if _, ok := claims["uid"]; ok {
			return middleware.PrincipalFromClaims(ctx, claims)
		}
		u, err := userSvc.UpsertFromClaims(ctx, claims)
		if err != nil {
			return middleware.Principal{}, err
		}
		if u == nil {
			return middleware.PrincipalFromClaims(ctx, claims)
		}
		return middleware.Principal{UserID: u.ID, Name: u.Name, Role: string(u.Role), Language: u.Preferences.Language}, nil
	}

	authHandler := handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, localVerifier)
	if ssoVerifier != nil {
		authHandler.WithSSO(ssoVerifier)
	}
	api := &handlers.API{
		Auth:          authHandler,
		Documents:     handlers.NewDocumentsHandler(docSvc, pool, cfg.Upload.MaxBytes),
		Feedback:      handlers.NewFeedbackHandler(fbSvc),
		Notifications: handlers.NewNotificationsHandler(notifSvc),
		Courses:       handlers.NewCoursesHandler(coursesSvc),
		Settings:      handlers.NewSettingsHandler(userSvc),
	}
	api.Mount(r.Group("/api/v1"), middleware.AuthMiddleware(chain, middleware.WithPrincipalResolver(resolve)))
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when configured dependencies are actually connected
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps := map[string]bool{
			"users":   cfg.MongoDB.URI == "" || mongoClient != nil,
			"storage": cfg.Storage.Endpoint == "" || minioStore != nil,
			"redis":   cfg.Redis.Host == "" || rdb != nil,
			"oidc":    cfg.Keycloak.URL == "" || ssoVerifier != nil,
		}
		if mongoClient != nil {
			deps["users"] = mongoClient.Ping(pingCtx, nil) == nil
		}
		if minioStore != nil {
			deps["storage"] = minioStore.Ping(pingCtx) == nil
		}
		if rdb != nil {
			deps["redis"] = rdb.Ping(pingCtx).Err() == nil
		}
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// WriteTimeout stays unset so notification streams are not cut off.
	}
	go func() {
		logger.Infof("HashDoc API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		logger.Warnf("conversion pool stop: %v", err)
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
