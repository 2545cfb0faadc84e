package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/richardliu001/store-credit-service/internal/config"
	"github.com/richardliu001/store-credit-service/internal/database"
	"github.com/richardliu001/store-credit-service/internal/integration"
	"github.com/richardliu001/store-credit-service/internal/logger"
	"github.com/richardliu001/store-credit-service/internal/repo"
	"github.com/richardliu001/store-credit-service/internal/service"
	httptransport "github.com/richardliu001/store-credit-service/internal/transport/http"
	"github.com/richardliu001/store-credit-service/internal/wallet"

	"github.com/go-redis/redis/v8"
)

func main() {
	// 1. load config
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger()
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	if err := cfg.Auth.Validate(); err != nil {
		log.Fatalf("auth config: %v", err)
	}

	ctx := context.Background()

	// 3. database; the service does not start unless the ledger schema is in place
	gdb, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.AutoMigrate(gdb); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}
	repository := repo.NewRepository(gdb, nil, log)
	if err := repository.EnsureLedgerSchema(ctx); err != nil {
		log.Fatalf("ledger schema: %v", err)
	}
	if err := repository.SeedSettings(ctx, cfg.StoreCredit); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	// 4. wallets: the table wallet is the primary integration, the redis
	// wallet the secondary one
	var secondary wallet.Adapter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		secondary = wallet.NewRedisAdapter(rdb, cfg.StoreCredit.Currency.Decimals, cfg.StoreCredit.AllowNegative)
	}
	primary := wallet.NewTableAdapter(gdb, cfg.StoreCredit.AllowNegative)
	selector := integration.NewSelector(primary, secondary, repository, log)

	// 5. service
	svc := service.NewCreditService(repository, repository, selector, repository, cfg.StoreCredit, log)

	// 6. gin router
	router := httptransport.NewRouter(svc, cfg.RateLimit, cfg.Auth, log)

	// 7. serve
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("store-credit server listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
