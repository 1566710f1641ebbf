package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/ordermonitor/internal/api/middleware"
	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/ingest"
)

const (
	defaultExceptionLimit = 50
	maxExceptionLimit     = 500
)

// StatsProvider exposes the monitor's run counters.
type StatsProvider interface {
	Stats() ingest.Stats
}

// ExceptionLister reads the ingestion audit trail.
type ExceptionLister interface {
	ListRecent(ctx context.Context, transactionType string, limit int) ([]domain.ExceptionRecord, error)
}

// OrderReader reads the order store.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	OrderCounts(ctx context.Context) (map[domain.OrderStatus]int64, error)
}

// RecordCounter reports how many rows a store holds.
type RecordCounter interface {
	Count(ctx context.Context) (int64, error)
}

// IngestionHandler serves the monitor status endpoints.
type IngestionHandler struct {
	stats      StatsProvider
	exceptions ExceptionLister
	orders     OrderReader
	counters   map[string]RecordCounter
}

// NewIngestionHandler creates a new ingestion handler. exceptions and orders
// may be nil when no database is configured.
func NewIngestionHandler(stats StatsProvider, exceptions ExceptionLister, orders OrderReader) *IngestionHandler {
	return &IngestionHandler{stats: stats, exceptions: exceptions, orders: orders, counters: map[string]RecordCounter{}}
}

// WithRecordCount adds a persisted row count to the stats response under name.
// A nil counter is ignored.
func (h *IngestionHandler) WithRecordCount(name string, counter RecordCounter) *IngestionHandler {
	if counter != nil {
		h.counters[name] = counter
	}
	return h
}

type statsResponse struct {
	ingest.Stats
	Records map[string]int64 `json:"records,omitempty"`
}

// Stats handles GET /api/v1/ingestion/stats
func (h *IngestionHandler) Stats(c *gin.Context) {
	resp := statsResponse{Stats: h.stats.Stats()}
	for name, counter := range h.counters {
		n, err := counter.Count(c.Request.Context())
		if err != nil {
			middleware.GetLogger(c).WithError(err).WithField("records", name).Warn("Failed to count stored records")
			continue
		}
		if resp.Records == nil {
			resp.Records = make(map[string]int64, len(h.counters))
		}
		resp.Records[name] = n
	}
	c.JSON(http.StatusOK, resp)
}

// Exceptions handles GET /api/v1/ingestion/exceptions
// Query params:
//   - type: "OrderTransaction" or "OrderCancellation" (optional)
//   - limit: max results (default 50, max 500)
func (h *IngestionHandler) Exceptions(c *gin.Context) {
	if h.exceptions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "exception audit is not configured"})
		return
	}

	limit := defaultExceptionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxExceptionLimit)
	}

	records, err := h.exceptions.ListRecent(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list ingestion exceptions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list exceptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"exceptions": records,
		"total":      len(records),
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *IngestionHandler) GetOrder(c *gin.Context) {
	if h.orders == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "order store is not configured"})
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to load order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// OrderStats handles GET /api/v1/orders/stats
func (h *IngestionHandler) OrderStats(c *gin.Context) {
	if h.orders == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "order store is not configured"})
		return
	}
	counts, err := h.orders.OrderCounts(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to count orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": counts})
}
