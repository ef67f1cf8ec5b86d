package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("httpapi")

const CaptionHeader = "X-Chart-Caption"

type LivePricer interface {
	LastPrice(ctx context.Context, symbol string) (float64, bool)
}

type ChartSnapshotter interface {
	GetChartSnapshot(ctx context.Context, symbol, interval string) (*domain.ChartSnapshot, error)
}

type PriceLookup interface {
	Get(symbol string) (float64, error)
	Len() int
}

type chartRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Interval string `json:"interval" binding:"required"`
}

type Handler struct {
	prices LivePricer
	known  PriceLookup
	charts ChartSnapshotter
}

func NewHandler(prices LivePricer, known PriceLookup, charts ChartSnapshotter) *Handler {
	return &Handler{prices: prices, known: known, charts: charts}
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the chartquote bridge"})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tracked_symbols": h.known.Len()})
}

// GetPrice never fails for a well-formed symbol: an unavailable price is
// reported in the body.
func (h *Handler) GetPrice(c *gin.Context) {
	symbol, err := domain.Qualify(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"symbol": symbol, "available": false}
	if price, ok := h.prices.LastPrice(c.Request.Context(), symbol); ok {
		body["available"] = true
		body["price"] = price
	}
	c.JSON(http.StatusOK, body)
}

// GetLastKnownPrice answers from prices already observed by earlier sessions
// without opening a new one.
func (h *Handler) GetLastKnownPrice(c *gin.Context) {
	symbol, err := domain.Qualify(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.known.Get(symbol)
	if errors.Is(err, domain.ErrPriceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

// GetChartImage responds with the PNG itself and the caption in a header.
func (h *Handler) GetChartImage(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.Header(CaptionHeader, url.QueryEscape(snapshot.Caption))
	c.Data(http.StatusOK, "image/png", snapshot.Image)
}

func (h *Handler) GetChart(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":       snapshot.Symbol,
		"interval":     snapshot.Interval,
		"caption":      snapshot.Caption,
		"image_base64": base64.StdEncoding.EncodeToString(snapshot.Image),
	})
}

func (h *Handler) snapshot(c *gin.Context) (*domain.ChartSnapshot, bool) {
	var req chartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and interval are required"})
		return nil, false
	}

	snapshot, err := h.charts.GetChartSnapshot(c.Request.Context(), req.Symbol, req.Interval)
	if err != nil {
		if isBadRequest(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}

		logger.Error().Err(err).Str("symbol", req.Symbol).Str("interval", req.Interval).Msg("chart request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Error fetching chart. Please try again."})
		return nil, false
	}

	return snapshot, true
}

func isBadRequest(err error) bool {
	return errors.Is(err, domain.ErrEmptySymbol) ||
		errors.Is(err, domain.ErrInvalidSymbol) ||
		errors.Is(err, domain.ErrUnsupportedInterval)
}
