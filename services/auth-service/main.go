package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"village-registry-system/pkg/config"
	"village-registry-system/pkg/database"
	"village-registry-system/pkg/logger"
	"village-registry-system/pkg/middleware"
	"village-registry-system/pkg/revocation"
	"village-registry-system/services/auth-service/handlers"
	"village-registry-system/services/auth-service/service"
	"village-registry-system/services/auth-service/store"
	"village-registry-system/services/auth-service/utils"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		zap.L().Warn("[WARN] .env not loaded", zap.Error(err))
	}

	httpCfg := config.HTTP{Addr: ":8081"}
	httpCfg.LoadFromEnv("AUTH")
	logCfg := config.Log{Level: "info", Format: "json"}
	logCfg.LoadFromEnv("LOG")
	pgCfg := config.Postgres{
		Host:     "localhost",
		Port:     "5434",
		User:     "admin",
		Password: "password",
		Database: "auth_db",
		SSLMode:  "disable",
	}
	pgCfg.LoadFromEnv("POSTGRES")
	redisCfg := config.Redis{Addr: "localhost:6379"}
	redisCfg.LoadFromEnv("REDIS")
	jwtCfg := config.DefaultJWT()
	jwtCfg.LoadFromEnv("JWT")
	adminDomain := os.Getenv("ADMIN_EMAIL_DOMAIN")
	if adminDomain == "" {
		adminDomain = "desa.local"
	}

	log := logger.Must(logCfg.Level, logCfg.Format, "auth-service")
	defer log.Sync()

	db, err := database.ConnectPostgres(pgCfg.DSN(), log)
	if err != nil {
		log.Fatal("[ERROR] failed to connect to database", zap.Error(err))
	}
	users := store.NewUsers(db)
	log.Info("[INFO] running auto migration")
	if err := users.Migrate(); err != nil {
		log.Fatal("[ERROR] migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	revoked, err := revocation.Connect(ctx, redisCfg, log)
	cancel()
	if err != nil {
		log.Fatal("[ERROR] failed to connect to Redis", zap.Error(err))
	}
	defer revoked.Close()

	svc := service.New(users, utils.NewIssuer(jwtCfg.Secret, jwtCfg.TTL), revoked, adminDomain, log)
	if username, password := os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD"); username != "" {
		if err := svc.EnsureAdmin(context.Background(), username, password); err != nil {
			log.Fatal("[ERROR] failed to create admin account", zap.Error(err))
		}
	}

	middleware.RegisterMetrics()
	h := handlers.New(svc, log, users.Ping)
	srv := &http.Server{
		Addr:              httpCfg.Addr,
		Handler:           h.Router(middleware.NewAuthenticator(jwtCfg.Secret, revoked, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("[INFO] auth service running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[ERROR] server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[INFO] shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("[ERROR] graceful shutdown failed", zap.Error(err))
	}
}
