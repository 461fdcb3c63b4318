package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archvd/internal/repository"
)

var marketDataOrderColumns = map[string]string{
	"snapshot_at": "snapshot_at",
	"lowest_ask":  "lowest_ask",
	"highest_bid": "highest_bid",
	"size_key":    "size_key",
	"sku":         "sku",
}

type MarketDataHandler struct {
	Store  repository.Repository
	Logger *zap.Logger
}

func (h *MarketDataHandler) Register(r *gin.Engine) {
	group := r.Group("/api/market-data")
	group.GET("", h.listMarketData)
	group.GET("/latest", h.latestMarketData)
	r.GET("/api/sync-state", h.listSyncState)
}

func (h *MarketDataHandler) listMarketData(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	params := repository.ListMarketDataParams{
		Limit:       intQuery(c, "limit", 100),
		Offset:      intQuery(c, "offset", 0),
		Provider:    strQueryPtr(c, "provider"),
		Source:      strQueryPtr(c, "source"),
		ProductID:   strQueryPtr(c, "product_id"),
		SKU:         strQueryPtr(c, "sku"),
		SizeKey:     strQueryPtr(c, "size_key"),
		Currency:    strQueryPtr(c, "currency"),
		IsFlex:      boolQueryPtr(c, "is_flex"),
		IsConsigned: boolQueryPtr(c, "is_consigned"),
		Since:       timeQueryPtr(c, "since"),
		OrderBy:     parseOrder(c.Query("order_by"), marketDataOrderColumns),
		Asc:         boolQueryPtr(c, "asc"),
	}
	rows, err := h.Store.ListMarketData(c.Request.Context(), params)
	if err != nil {
		h.logWarn("list market data failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "list market data failed", nil)
		return
	}
	total, err := h.Store.CountMarketData(c.Request.Context(), params)
	if err != nil {
		h.logWarn("count market data failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "count market data failed", nil)
		return
	}
	Ok(c, rows, paginationMeta(params.Limit, params.Offset, total))
}

func (h *MarketDataHandler) latestMarketData(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	provider := c.Query("provider")
	productID := c.Query("product_id")
	if provider == "" || productID == "" {
		Error(c, http.StatusBadRequest, "provider and product_id are required", nil)
		return
	}
	rows, err := h.Store.ListLatestMarketData(c.Request.Context(), provider, productID)
	if err != nil {
		h.logWarn("latest market data failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "latest market data failed", nil)
		return
	}
	Ok(c, rows, nil)
}

func (h *MarketDataHandler) listSyncState(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	states, err := h.Store.ListSyncStates(c.Request.Context())
	if err != nil {
		h.logWarn("list sync state failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "list sync state failed", nil)
		return
	}
	Ok(c, states, nil)
}

func (h *MarketDataHandler) logWarn(msg string, fields ...zap.Field) {
	if h.Logger != nil {
		h.Logger.Warn(msg, fields...)
	}
}
