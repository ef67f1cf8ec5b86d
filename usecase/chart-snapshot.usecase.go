package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/spooky-finn/go-chartquote-bridge/caption"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	promclient "github.com/spooky-finn/go-chartquote-bridge/infrastructure/prometheus"
)

type Watermarker interface {
	Apply(chart []byte) ([]byte, error)
}

type ChartSnapshotUseCase struct {
	connManager domain.ConnManager
	livePrice   *LivePriceUseCase
	captioner   caption.Captioner

	// optional
	cache     domain.ChartCache
	watermark Watermarker
}

func NewChartSnapshotUseCase(
	connManager domain.ConnManager,
	livePrice *LivePriceUseCase,
	captioner caption.Captioner,
	cache domain.ChartCache,
	watermark Watermarker,
) *ChartSnapshotUseCase {
	return &ChartSnapshotUseCase{
		connManager: connManager,
		livePrice:   livePrice,
		captioner:   captioner,
		cache:       cache,
		watermark:   watermark,
	}
}

// GetChartSnapshot renders the chart of symbol with a caption quoting the live
// price. Only chart rendering failures are returned; cache, watermark and
// caption problems degrade the result instead.
func (u *ChartSnapshotUseCase) GetChartSnapshot(ctx context.Context, symbol, interval string) (*domain.ChartSnapshot, error) {
	qualified, err := domain.Qualify(symbol)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateInterval(interval); err != nil {
		return nil, err
	}

	key := domain.ChartCacheKey(qualified, interval)
	if cached := u.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	image, err := u.connManager.SyncAPI(domain.ProviderChartImg).ChartSnapshot(ctx, domain.ChartRequest{
		Symbol:   qualified,
		Interval: interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render chart for %s: %w", qualified, err)
	}

	if u.watermark != nil {
		marked, err := u.watermark.Apply(image)
		if err != nil {
			logger.Warn().Err(err).Str("symbol", qualified).Msg("sending chart without watermark")
		} else {
			image = marked
		}
	}

	in := caption.Input{Symbol: qualified, Interval: interval}
	in.Price, in.HasPrice = u.livePrice.LastPrice(ctx, qualified)

	text, err := u.captioner.Caption(ctx, in)
	if err != nil {
		logger.Warn().Err(err).Str("symbol", qualified).Msg("using plain caption")
		text = fmt.Sprintf("%s (%s) Chart", in.Ticker(), interval)
	}

	snapshot := &domain.ChartSnapshot{
		Symbol:   qualified,
		Interval: interval,
		Image:    image,
		Caption:  text,
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, key, snapshot); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to cache chart")
		}
	}

	return snapshot, nil
}

func (u *ChartSnapshotUseCase) fromCache(ctx context.Context, key string) *domain.ChartSnapshot {
	if u.cache == nil {
		return nil
	}

	snapshot, err := u.cache.Get(ctx, key)
	switch {
	case err == nil:
		promclient.ChartCacheCounter.WithLabelValues("hit").Inc()
		return snapshot
	case errors.Is(err, domain.ErrCacheMiss):
		promclient.ChartCacheCounter.WithLabelValues("miss").Inc()
	default:
		promclient.ChartCacheCounter.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Str("key", key).Msg("chart cache unavailable")
	}
	return nil
}
