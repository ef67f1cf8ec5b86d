package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spooky-finn/go-chartquote-bridge/caption"
	"github.com/spooky-finn/go-chartquote-bridge/config"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/httpapi"
	"github.com/spooky-finn/go-chartquote-bridge/imaging"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
	promclient "github.com/spooky-finn/go-chartquote-bridge/infrastructure/prometheus"
	rediscache "github.com/spooky-finn/go-chartquote-bridge/infrastructure/redis"
	"github.com/spooky-finn/go-chartquote-bridge/provider"
	"github.com/spooky-finn/go-chartquote-bridge/provider/chartimg"
	"github.com/spooky-finn/go-chartquote-bridge/provider/tradingview"
	"github.com/spooky-finn/go-chartquote-bridge/rpc"
	"github.com/spooky-finn/go-chartquote-bridge/telegram"
	"github.com/spooky-finn/go-chartquote-bridge/usecase"
)

var logger = logging.New("main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := domain.NewPriceRegistry()
	connManager := provider.NewConnectionManager(provider.ConnectionManagerConfig{
		TradingView: tradingview.StreamAPIConfig{
			StreamClientOptions: tradingview.StreamClientOptions{
				Endpoint:         cfg.TradingView.Endpoint,
				Origin:           cfg.TradingView.Origin,
				HandshakeTimeout: cfg.TradingView.HandshakeTimeout,
			},
			PriceTimeout: cfg.TradingView.PriceTimeout,
		},
		ChartImg: chartimg.Config{
			Endpoint:    cfg.Chart.Endpoint,
			APIKey:      cfg.Chart.APIKey,
			SessionID:   cfg.Chart.SessionID,
			SessionSign: cfg.Chart.SessionSign,
			Width:       cfg.Chart.Width,
			Height:      cfg.Chart.Height,
		},
	}, registry)

	livePrice := usecase.NewLivePriceUseCase(connManager, cfg.TradingView.PriceTimeout)
	chartSnapshot := usecase.NewChartSnapshotUseCase(
		connManager,
		livePrice,
		newCaptioner(cfg),
		newChartCache(ctx, cfg),
		newWatermark(cfg),
	)

	go func() {
		if err := promclient.StartPromClientServer(ctx, cfg.Server.MetricsAddr); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	gs := rpc.NewServer(livePrice, &rpc.ValidationServiceConfig{
		AvailableVenues: cfg.Server.AvailableVenues,
	}).GRPCServer()
	go func() {
		if err := rpc.Serve(cfg.Server.GRPCAddr, gs); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
			stop()
		}
	}()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(livePrice, registry, chartSnapshot)),
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	if cfg.Server.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg.Server.TelegramBotToken, livePrice, chartSnapshot)
		if err != nil {
			logger.Error().Err(err).Msg("telegram bot disabled")
		} else {
			go bot.Run(ctx)
		}
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	gs.GracefulStop()
}

func newCaptioner(cfg *config.Config) caption.Captioner {
	templates, err := caption.NewTemplateCaptioner(time.Now().UnixNano())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build caption templates")
	}
	if cfg.OpenAI.APIKey == "" {
		return templates
	}
	return caption.NewAICaptioner(cfg.OpenAI.APIKey, cfg.OpenAI.Model, templates)
}

// newChartCache returns nil when redis is not configured or unreachable.
func newChartCache(ctx context.Context, cfg *config.Config) domain.ChartCache {
	if cfg.Redis.Addr == "" {
		return nil
	}

	cache := rediscache.NewChartCache(rediscache.NewClient(rediscache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), cfg.Chart.CacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, chart cache disabled")
		cache.Close()
		return nil
	}
	return cache
}

func newWatermark(cfg *config.Config) usecase.Watermarker {
	if cfg.Chart.WatermarkPath == "" {
		return nil
	}

	w, err := imaging.LoadWatermark(cfg.Chart.WatermarkPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Chart.WatermarkPath).Msg("watermark disabled")
		return nil
	}
	return w
}
