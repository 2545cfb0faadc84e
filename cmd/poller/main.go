package main

import (
	"context"
	"fmt"
	"time"

	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/database"
	"github.com/richardliu001/store-credit-service/internal/logger"
	"github.com/richardliu001/store-credit-service/internal/repo"

	"github.com/segmentio/kafka-go"
)

func main() {
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	log, err := logger.NewLogger()
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	gdb, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	kw := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.Hash{},
	}
	defer kw.Close()

	repository := repo.NewRepository(gdb, kw, log)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	log.Info("store-credit poller started")
	for range ticker.C {
		sent, err := repository.RelayOutbox(context.Background(), 100)
		if err != nil {
			log.Errorf("relay outbox: %v", err)
		}
		if sent > 0 {
			log.Infof("%d ledger events sent", sent)
		}
	}
}
