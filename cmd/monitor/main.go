package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"archvd/internal/client/alias"
	"archvd/internal/client/ebay"
	"archvd/internal/client/stockx"
	"archvd/internal/config"
	cronrunner "archvd/internal/cron"
	"archvd/internal/db"
	"archvd/internal/handler"
	"archvd/internal/logger"
	"archvd/internal/normalize"
	gormrepository "archvd/internal/repository/gorm"
	"archvd/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("ARCHVD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ARCHVD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stockxHTTP := &http.Client{Timeout: cfg.StockX.Timeout}
	stockxClient := stockx.NewClient(stockxHTTP, cfg.StockX.BaseURL, cfg.StockX.APIKey, cfg.StockX.Token)
	aliasHTTP := &http.Client{Timeout: cfg.Alias.Timeout}
	aliasClient := alias.NewClient(aliasHTTP, cfg.Alias.BaseURL, cfg.Alias.Token)
	ebayClient := ebay.NewClient(ctx, ebay.Config{
		ClientID:      cfg.Ebay.ClientID,
		ClientSecret:  cfg.Ebay.ClientSecret,
		MarketplaceID: cfg.Ebay.MarketplaceID,
		Sandbox:       cfg.Ebay.Sandbox,
	})

	store := gormrepository.New(dbConn.Gorm)
	normalizer := &normalize.Normalizer{Logger: logger}

	marketSyncSvc := &service.MarketSyncService{
		Store:      store,
		StockX:     stockxClient,
		Alias:      aliasClient,
		Normalizer: normalizer,
		Logger:     logger,
	}
	salesBackfillSvc := &service.AliasSalesBackfillService{
		Store:      store,
		Alias:      aliasClient,
		Normalizer: normalizer,
		Logger:     logger,
	}
	ebayIngestSvc := &service.EbaySoldIngestService{
		Store:  store,
		Ebay:   ebayClient,
		Logger: logger,
	}
	metricsSvc := &service.MetricsService{Store: store, Logger: logger}
	retentionSvc := &service.RetentionService{Store: store, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequireBearerMiddleware(cfg.Server.AuthToken))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		Market: marketSyncSvc,
		Sales:  salesBackfillSvc,
		Ebay:   ebayIngestSvc,
		Sync:   cfg.Sync,
		Logger: logger,
	}
	syncHandler.Register(engine)
	marketDataHandler := &handler.MarketDataHandler{Store: store, Logger: logger}
	marketDataHandler.Register(engine)
	metricsHandler := &handler.MetricsHandler{Service: metricsSvc, Store: store, Logger: logger}
	metricsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		syncOpts := service.SyncOptions{
			CurrencyCode:    cfg.Sync.CurrencyCode,
			RegionCode:      cfg.Sync.RegionCode,
			ConsignedFilter: normalize.ConsignedFilter(cfg.Sync.ConsignedFilter),
			SleepPerItem:    cfg.Sync.SleepPerItem,
		}

		_, err = cronRunner.Add(cfg.Cron.StockXSync, func(ctx context.Context) {
			opts := syncOpts
			opts.ProductIDs = cfg.Sync.StockXProductIDs
			if _, err := marketSyncSvc.SyncStockX(ctx, opts); err != nil {
				logger.Warn("cron stockx sync failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register stockx sync failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.AliasSync, func(ctx context.Context) {
			opts := syncOpts
			opts.ProductIDs = cfg.Sync.AliasCatalogIDs
			if _, err := marketSyncSvc.SyncAlias(ctx, opts); err != nil {
				logger.Warn("cron alias sync failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register alias sync failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.AliasSales, func(ctx context.Context) {
			_, err := salesBackfillSvc.Backfill(ctx, service.BackfillOptions{
				CatalogIDs:   cfg.Sync.AliasCatalogIDs,
				CurrencyCode: cfg.Sync.CurrencyCode,
				RegionCode:   cfg.Sync.RegionCode,
				PageLimit:    cfg.Sync.SalesPageLimit,
				SleepPerItem: cfg.Sync.SleepPerItem,
			})
			if err != nil {
				logger.Warn("cron alias sales backfill failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register alias sales failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.EbaySold, func(ctx context.Context) {
			_, err := ebayIngestSvc.Ingest(ctx, service.EbayIngestOptions{
				Queries:      cfg.Sync.EbayQueries,
				CurrencyCode: cfg.Sync.CurrencyCode,
				PageLimit:    cfg.Sync.SalesPageLimit,
				SleepPerItem: cfg.Sync.SleepPerItem,
			})
			if err != nil {
				logger.Warn("cron ebay sold ingest failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register ebay sold failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.Metrics, func(ctx context.Context) {
			_, err := metricsSvc.Recompute(ctx, service.MetricsOptions{
				LookbackDays: cfg.Metrics.LookbackDays,
				BatchSize:    cfg.Metrics.BatchSize,
			})
			if err != nil {
				logger.Warn("cron metrics recompute failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register metrics failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.Retention, func(ctx context.Context) {
			_, err := retentionSvc.Run(ctx, service.RetentionOptions{
				SnapshotDays:    cfg.Retention.SnapshotDays,
				RawResponseDays: cfg.Retention.RawResponseDays,
			})
			if err != nil {
				logger.Warn("cron retention failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register retention failed", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.ViewRefresh, func(ctx context.Context) {
			if err := store.RefreshLatestPricesView(ctx); err != nil {
				logger.Warn("cron view refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register view refresh failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
