package domain

import (
	"context"
	"time"
)

const (
	ProviderTradingView = "tradingview"
	ProviderChartImg    = "chartimg"
)

// ProviderStreamAPI delivers live prices pushed by a streaming feed.
type ProviderStreamAPI interface {
	// FetchLastPrice reports false when no price arrived within timeout.
	FetchLastPrice(ctx context.Context, symbol string, timeout time.Duration) (float64, bool)
	PriceStream(ctx context.Context, symbol string) (*Subscription[float64], error)
}

// ProviderSyncAPI renders chart images on request.
type ProviderSyncAPI interface {
	ChartSnapshot(ctx context.Context, req ChartRequest) ([]byte, error)
}

type ChartCache interface {
	Get(ctx context.Context, key string) (*ChartSnapshot, error)
	Set(ctx context.Context, key string, snapshot *ChartSnapshot) error
}

type ConnManager interface {
	StreamAPI(provider string) ProviderStreamAPI
	SyncAPI(provider string) ProviderSyncAPI
}
