package provider

import (
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
	"github.com/spooky-finn/go-chartquote-bridge/provider/chartimg"
	"github.com/spooky-finn/go-chartquote-bridge/provider/tradingview"
)

var logger = logging.New("connection-manager")

const (
	TradingView = domain.ProviderTradingView
	ChartImg    = domain.ProviderChartImg
)

type ConnectionManagerConfig struct {
	TradingView tradingview.StreamAPIConfig
	ChartImg    chartimg.Config
}

// ConnectionManager owns the provider clients. TradingView sessions are
// opened per call, so there is nothing to dial up front.
type ConnectionManager struct {
	TradingViewStreamAPI *tradingview.TradingViewStreamAPI
	ChartImgSyncAPI      *chartimg.ChartImgSyncAPI
}

func NewConnectionManager(config ConnectionManagerConfig, registry *domain.PriceRegistry) *ConnectionManager {
	logger.Info().
		Str("tradingview_endpoint", config.TradingView.Endpoint).
		Str("chartimg_endpoint", config.ChartImg.Endpoint).
		Msg("instantiating provider apis")

	return &ConnectionManager{
		TradingViewStreamAPI: tradingview.NewTradingViewStreamAPI(config.TradingView, registry),
		ChartImgSyncAPI:      chartimg.NewChartImgSyncAPI(config.ChartImg),
	}
}

func (cm *ConnectionManager) StreamAPI(provider string) domain.ProviderStreamAPI {
	switch provider {
	case TradingView:
		return cm.TradingViewStreamAPI
	}

	panic("unknown stream provider: " + provider)
}

func (cm *ConnectionManager) SyncAPI(provider string) domain.ProviderSyncAPI {
	switch provider {
	case ChartImg:
		return cm.ChartImgSyncAPI
	}

	panic("unknown sync provider: " + provider)
}
