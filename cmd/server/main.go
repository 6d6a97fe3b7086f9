package main

import (
	"fmt"
	"log"

	"github.com/NHL-StillFresh/still-fresh-backend/config"
	httpDelivery "github.com/NHL-StillFresh/still-fresh-backend/internal/delivery/http"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/cache"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/catalog"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/logger"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/persistence"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/shelflife"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting still-fresh-backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	// Initialize infrastructure dependencies
	db, err := persistence.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	aliasStore := persistence.NewGormAliasRepository(db.DB)
	productRegistry := persistence.NewGormProductRepository(db.DB)
	inventoryStore := persistence.NewGormInventoryRepository(db.DB)

	searchCache := cache.NewMemoryCache()
	defer searchCache.Close()

	catalogClient := catalog.NewClient(cfg.Catalog.APIKey, cfg.Catalog.BaseURL, zlog)
	estimatorClient := shelflife.NewClient(cfg.Estimator.APIKey, cfg.Estimator.BaseURL, cfg.Estimator.Model, zlog)

	// Initialize usecase layer
	extractor := usecase.NewReceiptLineExtractor()
	resolver := usecase.NewProductIdentityResolver(aliasStore, catalogClient, searchCache, cfg.Cache.TTL, zlog)

	// One committer per session keeps shelf-life estimation memoized per session
	newCommitter := func() *usecase.InventoryCommitter {
		return usecase.NewInventoryCommitter(
			productRegistry,
			aliasStore,
			inventoryStore,
			usecase.NewExpiryService(estimatorClient, zlog),
			zlog,
		)
	}

	sessions := httpDelivery.NewSessionRegistry(cfg.Session.TTL)
	defer sessions.Close()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(extractor, resolver, sessions, newCommitter, inventoryStore)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, zlog)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		zlog.Fatal("server failed", zap.Error(err))
	}
}
