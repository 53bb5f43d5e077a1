package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erp/stockledger/internal/application/companycache"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/application/stock"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var (
		companyFlag string
		all         bool
		warmup      bool
		timeout     time.Duration
	)

	flag.StringVar(&companyFlag, "company", "", "Company ID whose cached entries are flushed")
	flag.BoolVar(&all, "all", false, "Flush every company")
	flag.BoolVar(&warmup, "warmup", false, "Reload the company's cached lists after flushing (requires -company)")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	flag.Usage = printUsage
	flag.Parse()

	if (companyFlag == "") == !all || (warmup && companyFlag == "") {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := cache.NewStoreFactory(cfg.Cache, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(false),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to connect to cache", zap.Error(err))
	}
	if result.Active != cache.BackendRedis {
		log.Warn("Cache backend is process local; nothing shared to flush", zap.String("backend", result.Active))
		return
	}
	defer result.Redis.Close()

	companyCache := companycache.New(result.Store)

	if all {
		n, err := companyCache.FlushAll(ctx)
		if err != nil {
			log.Fatal("Flush failed", zap.Error(err))
		}
		log.Info("Flushed all companies", zap.Int("deleted", n))
		return
	}

	companyID, err := uuid.Parse(companyFlag)
	if err != nil {
		log.Fatal("Invalid company ID", zap.String("company", companyFlag), zap.Error(err))
	}
	n, err := companyCache.FlushCompany(ctx, companyID)
	if err != nil {
		log.Fatal("Flush failed", zap.Error(err))
	}
	log.Info("Flushed company", zap.String("company_id", companyID.String()), zap.Int("deleted", n))

	if !warmup {
		return
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel("warn"))))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	financeService := financeapp.NewService(scope, repos, financeapp.WithCache(companyCache))
	stockService := stock.NewService(scope, repos, financeService, stock.WithCache(companyCache))

	if err := companyCache.WarmUp(ctx, companyID, stockService, financeService); err != nil {
		log.Fatal("Warm-up failed", zap.Error(err))
	}
	log.Info("Cache warmed", zap.String("company_id", companyID.String()))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: cacheclear (-company ID [-warmup] | -all)

Removes cached ledger lists and lookups from the shared Redis cache.

Flags:
`)
	flag.PrintDefaults()
}
