package chartimg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartSnapshot_ForwardsRequest(t *testing.T) {
	var (
		got     domain.ChartRequest
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	api := NewChartImgSyncAPI(Config{
		Endpoint:    srv.URL,
		APIKey:      "key",
		SessionID:   "sid",
		SessionSign: "sign",
	})

	image, err := api.ChartSnapshot(context.Background(), domain.ChartRequest{Symbol: "BTCUSDT", Interval: "4h"})

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), image)
	assert.Equal(t, domain.ChartRequest{Symbol: "BINANCE:BTCUSDT", Interval: "4h", Width: 800, Height: 600}, got)
	assert.Equal(t, "key", headers.Get("x-api-key"))
	assert.Equal(t, "sid", headers.Get("tradingview-session-id"))
	assert.Equal(t, "sign", headers.Get("tradingview-session-id-sign"))
	assert.NotEmpty(t, headers.Get("X-Request-Id"))
}

func TestChartSnapshot_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	api := NewChartImgSyncAPI(Config{Endpoint: srv.URL})

	_, err := api.ChartSnapshot(context.Background(), domain.ChartRequest{Symbol: "XAUUSD", Interval: "1h"})

	assert.ErrorIs(t, err, ErrChartAPI)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestChartSnapshot_EmptySymbol(t *testing.T) {
	api := NewChartImgSyncAPI(Config{Endpoint: "http://127.0.0.1:0"})

	_, err := api.ChartSnapshot(context.Background(), domain.ChartRequest{Interval: "1h"})
	assert.ErrorIs(t, err, domain.ErrEmptySymbol)
}
