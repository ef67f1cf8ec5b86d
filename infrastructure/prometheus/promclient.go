package promclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("promclient")

var TradingViewOpenSessionsGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "tradingview_open_sessions",
		Help: "tradingview streaming sessions currently open",
	},
)

var PriceFetchCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradingview_price_fetch_total",
		Help: "live price lookups by outcome",
	},
	[]string{"outcome"},
)

var LastPriceGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tradingview_last_price",
		Help: "last observed trade price per qualified symbol",
	},
	[]string{"symbol"},
)

var ChartCacheCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chart_cache_requests_total",
		Help: "chart cache lookups by result",
	},
	[]string{"result"},
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(TradingViewOpenSessionsGauge)
	reg.MustRegister(PriceFetchCounter)
	reg.MustRegister(LastPriceGauge)
	reg.MustRegister(ChartCacheCounter)
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// StartPromClientServer blocks serving /metrics on addr until ctx is done.
func StartPromClientServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(NewRegistry()))
	srv := &http.Server{Addr: addr, Handler: mux}

	stop := context.AfterFunc(ctx, func() {
		srv.Shutdown(context.Background())
	})
	defer stop()

	logger.Info().Str("addr", addr).Msg("prometheus server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
