package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archvd/internal/repository"
	"archvd/internal/service"
)

var metricOrderColumns = map[string]string{
	"computed_at":      "computed_at",
	"median90d":        "median90d",
	"liquidity_score":  "liquidity_score",
	"confidence_score": "confidence_score",
	"last_sale_at":     "last_sale_at",
}

type MetricsHandler struct {
	Service *service.MetricsService
	Store   repository.Repository
	Logger  *zap.Logger
}

func (h *MetricsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/metrics")
	group.GET("", h.listMetrics)
	group.POST("/recompute", h.recompute)
}

func (h *MetricsHandler) recompute(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Service.Recompute(c.Request.Context(), service.MetricsOptions{
		LookbackDays: intQuery(c, "lookback_days", 0),
		BatchSize:    intQuery(c, "batch_size", 0),
	})
	if err != nil {
		h.logWarn("metrics recompute failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *MetricsHandler) listMetrics(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	params := repository.ListMarketMetricsParams{
		Limit:         intQuery(c, "limit", 100),
		Offset:        intQuery(c, "offset", 0),
		SKU:           strQueryPtr(c, "sku"),
		SizeKey:       strQueryPtr(c, "size_key"),
		Currency:      strQueryPtr(c, "currency"),
		MarketplaceID: strQueryPtr(c, "marketplace_id"),
		MinConfidence: intQueryPtr(c, "min_confidence"),
		MinLiquidity:  intQueryPtr(c, "min_liquidity"),
		OrderBy:       parseOrder(c.Query("order_by"), metricOrderColumns),
		Asc:           boolQueryPtr(c, "asc"),
	}
	rows, err := h.Store.ListMarketMetrics(c.Request.Context(), params)
	if err != nil {
		h.logWarn("list metrics failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "list metrics failed", nil)
		return
	}
	total, err := h.Store.CountMarketMetrics(c.Request.Context(), params)
	if err != nil {
		h.logWarn("count metrics failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "count metrics failed", nil)
		return
	}
	Ok(c, rows, paginationMeta(params.Limit, params.Offset, total))
}

func (h *MetricsHandler) logWarn(msg string, fields ...zap.Field) {
	if h.Logger != nil {
		h.Logger.Warn(msg, fields...)
	}
}
