package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"village-registry-system/pkg/blob"
	"village-registry-system/pkg/config"
	"village-registry-system/pkg/database"
	"village-registry-system/pkg/identity"
	"village-registry-system/pkg/logger"
	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/queue"
	"village-registry-system/pkg/revocation"
	"village-registry-system/services/registry-service/handlers"
	"village-registry-system/services/registry-service/models"
	"village-registry-system/services/registry-service/session"
	"village-registry-system/services/registry-service/store"
)

const (
	residentCollection = "residents"
	letterCollection   = "letter_requests"
)

type settings struct {
	http     config.HTTP
	log      config.Log
	backend  string
	mongo    config.Mongo
	rabbit   config.RabbitMQ
	minio    config.MinIO
	redis    config.Redis
	jwt      config.JWT
	maxPhoto int64
}

func loadSettings() settings {
	s := settings{
		http:    config.HTTP{Addr: ":8082"},
		log:     config.Log{Level: "info", Format: "json"},
		backend: "mongo",
		mongo: config.Mongo{
			Host:     "localhost",
			Port:     "27017",
			User:     "admin",
			Password: "password",
			Database: "registry_db",
		},
		rabbit: config.RabbitMQ{
			Host:     "localhost",
			Port:     "5672",
			User:     "guest",
			Password: "guest",
			Exchange: "registry",
		},
		minio: config.MinIO{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "registry",
		},
		redis:    config.Redis{Addr: "localhost:6379"},
		jwt:      config.DefaultJWT(),
		maxPhoto: handlers.DefaultMaxPhotoBytes,
	}
	s.http.LoadFromEnv("REGISTRY")
	s.log.LoadFromEnv("LOG")
	if v := os.Getenv("REGISTRY_STORE"); v != "" {
		s.backend = v
	}
	s.mongo.LoadFromEnv("MONGO")
	s.rabbit.LoadFromEnv("RABBITMQ")
	s.minio.LoadFromEnv("MINIO")
	s.redis.LoadFromEnv("REDIS")
	s.jwt.LoadFromEnv("JWT")
	return s
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		zap.L().Warn("[WARN] .env not loaded", zap.Error(err))
	}
	cfg := loadSettings()

	log := logger.Must(cfg.log.Level, cfg.log.Format, "registry-service")
	defer log.Sync()

	var (
		residentStore store.Collection[models.Resident]
		letterStore   store.Collection[models.LetterRequest]
		photos        session.PhotoStore
		health        func(ctx context.Context) error
		files         http.Handler
	)

	switch cfg.backend {
	case "memory":
		log.Warn("[WARN] using in-memory submission store and photo store")
		residentStore = store.NewMemoryCollection[models.Resident]()
		letterStore = store.NewMemoryCollection[models.LetterRequest]()
		mem := blob.NewMemoryStore("http://localhost" + cfg.http.Addr + handlers.FilesPrefix)
		photos = mem
		files = mem
	case "mongo":
		db, err := database.ConnectMongo(cfg.mongo.ConnectionURI(), cfg.mongo.Database, log)
		if err != nil {
			log.Fatal("[ERROR] failed to connect to MongoDB", zap.Error(err))
		}
		defer disconnect(db, log)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for _, name := range []string{residentCollection, letterCollection} {
			if err := database.EnsureSubmissionIndexes(ctx, db.Collection(name)); err != nil {
				log.Warn("[WARN] index creation failed", zap.String("collection", name), zap.Error(err))
			}
		}
		cancel()

		residentStore = store.NewMongoCollection[models.Resident](db.Collection(residentCollection), log)
		letterStore = store.NewMongoCollection[models.LetterRequest](db.Collection(letterCollection), log)
		health = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }

		minioStore, err := blob.ConnectMinIO(cfg.minio, log)
		if err != nil {
			log.Fatal("[ERROR] failed to connect to MinIO", zap.Error(err))
		}
		photos = minioStore
	default:
		log.Fatal("[ERROR] unknown REGISTRY_STORE", zap.String("store", cfg.backend))
	}

	opts := []session.Option{session.WithLogger(log)}
	conn, ch, err := queue.ConnectRabbitMQ(cfg.rabbit.ConnectionURL())
	if err != nil {
		log.Warn("[WARN] RabbitMQ unavailable, registry events disabled", zap.Error(err))
	} else {
		defer conn.Close()
		defer ch.Close()
		publisher, err := queue.NewPublisher(ch, cfg.rabbit.Exchange)
		if err != nil {
			log.Fatal("[ERROR] failed to declare exchange", zap.Error(err))
		}
		opts = append(opts, session.WithEventPublisher(publisher))
		log.Info("[OK] connected to RabbitMQ", zap.String("exchange", cfg.rabbit.Exchange))
	}

	var revoked middleware.RevocationChecker
	if cfg.redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rs, err := revocation.Connect(ctx, cfg.redis, log)
		cancel()
		if err != nil {
			log.Fatal("[ERROR] failed to connect to Redis", zap.Error(err))
		}
		defer rs.Close()
		revoked = rs
	}

	ids := identity.ContextProvider{}
	residents, err := session.NewResidents(residentStore, photos, ids, opts...)
	if err != nil {
		log.Fatal("[ERROR] failed to build resident controller", zap.Error(err))
	}
	letters, err := session.NewLetters(letterStore, ids, opts...)
	if err != nil {
		log.Fatal("[ERROR] failed to build letter controller", zap.Error(err))
	}

	middleware.RegisterMetrics()
	h := handlers.New(residents, letters, log,
		handlers.WithMaxPhotoBytes(cfg.maxPhoto),
		handlers.WithHealthCheck(health),
		handlers.WithFiles(files))

	srv := &http.Server{
		Addr:              cfg.http.Addr,
		Handler:           h.Router(middleware.NewAuthenticator(cfg.jwt.Secret, revoked, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("[INFO] registry service running", zap.String("addr", srv.Addr), zap.String("store", cfg.backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[ERROR] server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[INFO] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("[ERROR] graceful shutdown failed", zap.Error(err))
	}
}

func disconnect(db *mongo.Database, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		log.Warn("[WARN] mongo disconnect failed", zap.Error(err))
	}
}
