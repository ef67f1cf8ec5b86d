package chartimg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/helpers"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("chartimg")

const ENDPOINT = "https://api.chart-img.com/v2/tradingview/advanced-chart"

const (
	defaultWidth  = 800
	defaultHeight = 600

	// error bodies are only kept for diagnostics
	maxErrorBody = 2048
)

var ErrChartAPI = errors.New("chart api error")

type Config struct {
	Endpoint    string
	APIKey      string
	SessionID   string
	SessionSign string
	Width       int
	Height      int
	Timeout     time.Duration
}

// ChartImgSyncAPI renders TradingView advanced charts through chart-img.
type ChartImgSyncAPI struct {
	config Config
	client *http.Client
}

func NewChartImgSyncAPI(config Config) *ChartImgSyncAPI {
	if config.Endpoint == "" {
		config.Endpoint = ENDPOINT
	}
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Height <= 0 {
		config.Height = defaultHeight
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &ChartImgSyncAPI{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (api *ChartImgSyncAPI) ChartSnapshot(ctx context.Context, req domain.ChartRequest) ([]byte, error) {
	symbol, err := domain.Qualify(req.Symbol)
	if err != nil {
		return nil, err
	}
	req.Symbol = symbol
	if req.Width <= 0 {
		req.Width = api.config.Width
	}
	if req.Height <= 0 {
		req.Height = api.config.Height
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, api.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	httpReq.Header.Set("x-api-key", api.config.APIKey)
	if api.config.SessionID != "" {
		httpReq.Header.Set("tradingview-session-id", api.config.SessionID)
		httpReq.Header.Set("tradingview-session-id-sign", api.config.SessionSign)
	}

	logger.Debug().Str("request_id", requestID).Str("body", helpers.ToJsonString(req)).Msg("requesting chart")

	res, err := api.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to request chart: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		details, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		logger.Warn().
			Str("request_id", requestID).
			Str("symbol", req.Symbol).
			Int("status", res.StatusCode).
			Msg("chart api rejected request")
		return nil, fmt.Errorf("%w: status %d: %s", ErrChartAPI, res.StatusCode, bytes.TrimSpace(details))
	}

	image, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart image: %w", err)
	}

	logger.Debug().Str("request_id", requestID).Str("symbol", req.Symbol).Int("bytes", len(image)).Msg("chart rendered")
	return image, nil
}
