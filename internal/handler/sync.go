package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archvd/internal/config"
	"archvd/internal/normalize"
	"archvd/internal/service"
)

// SyncHandler exposes the ingestion runs as on-demand endpoints. Defaults come
// from configuration; product lists can be overridden per request.
type SyncHandler struct {
	Market *service.MarketSyncService
	Sales  *service.AliasSalesBackfillService
	Ebay   *service.EbaySoldIngestService
	Sync   config.SyncConfig
	Logger *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("/stockx", h.syncStockX)
	group.POST("/alias", h.syncAlias)
	group.POST("/alias-sales", h.syncAliasSales)
	group.POST("/ebay-sold", h.syncEbaySold)
}

func (h *SyncHandler) syncStockX(c *gin.Context) {
	if h.Market == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	opts := h.marketOptions(c, h.Sync.StockXProductIDs)
	result, err := h.Market.SyncStockX(c.Request.Context(), opts)
	if err != nil {
		h.logWarn("stockx sync failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) syncAlias(c *gin.Context) {
	if h.Market == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	opts := h.marketOptions(c, h.Sync.AliasCatalogIDs)
	result, err := h.Market.SyncAlias(c.Request.Context(), opts)
	if err != nil {
		h.logWarn("alias sync failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) syncAliasSales(c *gin.Context) {
	if h.Sales == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	catalogIDs := listQuery(c, "product_ids")
	if len(catalogIDs) == 0 {
		catalogIDs = h.Sync.AliasCatalogIDs
	}
	result, err := h.Sales.Backfill(c.Request.Context(), service.BackfillOptions{
		CatalogIDs:   catalogIDs,
		CurrencyCode: h.Sync.CurrencyCode,
		RegionCode:   h.Sync.RegionCode,
		PageLimit:    h.Sync.SalesPageLimit,
		SleepPerItem: h.Sync.SleepPerItem,
	})
	if err != nil {
		h.logWarn("alias sales backfill failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) syncEbaySold(c *gin.Context) {
	if h.Ebay == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	queries := listQuery(c, "queries")
	if len(queries) == 0 {
		queries = h.Sync.EbayQueries
	}
	result, err := h.Ebay.Ingest(c.Request.Context(), service.EbayIngestOptions{
		Queries:      queries,
		CurrencyCode: h.Sync.CurrencyCode,
		PageLimit:    h.Sync.SalesPageLimit,
		SleepPerItem: h.Sync.SleepPerItem,
	})
	if err != nil {
		h.logWarn("ebay sold ingest failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) marketOptions(c *gin.Context, defaultIDs []string) service.SyncOptions {
	productIDs := listQuery(c, "product_ids")
	if len(productIDs) == 0 {
		productIDs = defaultIDs
	}
	sleep := h.Sync.SleepPerItem
	if raw := c.Query("sleep_per_item"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sleep = d
		}
	}
	return service.SyncOptions{
		ProductIDs:      productIDs,
		CurrencyCode:    h.Sync.CurrencyCode,
		RegionCode:      h.Sync.RegionCode,
		ConsignedFilter: normalize.ConsignedFilter(h.Sync.ConsignedFilter),
		SleepPerItem:    sleep,
	}
}

func (h *SyncHandler) logWarn(msg string, fields ...zap.Field) {
	if h.Logger != nil {
		h.Logger.Warn(msg, fields...)
	}
}
