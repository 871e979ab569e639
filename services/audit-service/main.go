package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"village-registry-system/pkg/config"
	"village-registry-system/pkg/logger"
	"village-registry-system/pkg/queue"
	"village-registry-system/services/audit-service/audit"
)

const queueName = "registry_audit"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		zap.L().Warn("[WARN] .env not loaded", zap.Error(err))
	}
	logCfg := config.Log{Level: "info", Format: "json"}
	logCfg.LoadFromEnv("LOG")
	rabbit := config.RabbitMQ{
		Host:     "localhost",
		Port:     "5672",
		User:     "guest",
		Password: "guest",
		Exchange: "registry",
	}
	rabbit.LoadFromEnv("RABBITMQ")

	log := logger.Must(logCfg.Level, logCfg.Format, "audit-service")
	defer log.Sync()

	conn, ch, err := queue.ConnectRabbitMQ(rabbit.ConnectionURL())
	if err != nil {
		log.Fatal("[ERROR] failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()
	defer ch.Close()
	log.Info("[OK] audit service connected to RabbitMQ")

	msgs, err := queue.ConsumeMessages(ch, rabbit.Exchange, queueName, audit.Bindings...)
	if err != nil {
		log.Fatal("[ERROR] failed to consume queue", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("[INFO] waiting for registry events", zap.String("queue", queueName), zap.Strings("bindings", audit.Bindings))
	audit.NewTrail(log).Run(ctx, msgs)
	log.Info("[INFO] shutting down")
}
