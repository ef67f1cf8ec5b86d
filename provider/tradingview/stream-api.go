package tradingview

import (
	"context"
	"fmt"
	"time"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
	promclient "github.com/spooky-finn/go-chartquote-bridge/infrastructure/prometheus"
)

var logger = logging.New("tradingview")

const DefaultPriceTimeout = 7 * time.Second

const (
	outcomeOK       = "ok"
	outcomeTimeout  = "timeout"
	outcomeError    = "error"
	outcomeClosed   = "closed"
	outcomeCanceled = "canceled"
)

type StreamAPIConfig struct {
	StreamClientOptions
	AuthToken    string
	PriceTimeout time.Duration
}

type TradingViewStreamAPI struct {
	config   StreamAPIConfig
	registry *domain.PriceRegistry
}

func NewTradingViewStreamAPI(config StreamAPIConfig, registry *domain.PriceRegistry) *TradingViewStreamAPI {
	if config.AuthToken == "" {
		config.AuthToken = AnonymousAuthToken
	}
	if config.PriceTimeout <= 0 {
		config.PriceTimeout = DefaultPriceTimeout
	}
	if registry == nil {
		registry = domain.NewPriceRegistry()
	}

	return &TradingViewStreamAPI{
		config:   config,
		registry: registry,
	}
}

func (s *TradingViewStreamAPI) Registry() *domain.PriceRegistry {
	return s.registry
}

// PriceStream opens a dedicated chart session for symbol and streams the
// rounded last prices it receives. Only the most recent unread price is kept.
// The stream is closed once the connection ends; Unsubscribe closes the
// connection and returns after the receive loop has exited.
func (s *TradingViewStreamAPI) PriceStream(ctx context.Context, symbol string) (*domain.Subscription[float64], error) {
	qualified, err := domain.Qualify(symbol)
	if err != nil {
		return nil, err
	}

	session := NewSessionID()
	client := NewTradingViewStreamClient(s.config.StreamClientOptions)
	// queued now, written in order as soon as the connection is up
	if err := client.Send(Handshake(s.config.AuthToken, session, qualified)...); err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open session for %s: %w", qualified, err)
	}
	promclient.TradingViewOpenSessionsGauge.Inc()
	logger.Debug().Str("symbol", qualified).Str("session", session).Msg("chart session initialized")

	stop := context.AfterFunc(ctx, func() {
		client.Close()
	})
	unsubscribe := func() {
		stop()
		client.Close()
	}

	out := make(chan float64, 1)
	handle := func(payload string) {
		price, ok, err := ParseLastPrice(payload, qualified)
		if err != nil {
			logger.Warn().Err(err).Str("session", session).Msg("skipping unparsable frame")
			return
		}
		if !ok {
			return
		}

		s.registry.Store(qualified, price)
		promclient.LastPriceGauge.WithLabelValues(qualified).Set(price)
		logger.Debug().Str("symbol", qualified).Float64("price", price).Msg("live price")

		publishLatest(out, price)
	}
	onExit := func() {
		close(out)
		promclient.TradingViewOpenSessionsGauge.Dec()
	}

	if err := client.Listen(handle, onExit); err != nil {
		unsubscribe()
		promclient.TradingViewOpenSessionsGauge.Dec()
		return nil, err
	}

	return &domain.Subscription[float64]{
		Stream:      out,
		Unsubscribe: unsubscribe,
		Topic:       qualified,
	}, nil
}

// FetchLastPrice waits for the first price of a fresh session. It reports
// false on timeout, connection failure or cancellation; the connection is
// always closed before it returns.
func (s *TradingViewStreamAPI) FetchLastPrice(ctx context.Context, symbol string, timeout time.Duration) (float64, bool) {
	if timeout <= 0 {
		timeout = s.config.PriceTimeout
	}

	subscription, err := s.PriceStream(ctx, symbol)
	if err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("live price unavailable")
		promclient.PriceFetchCounter.WithLabelValues(outcomeError).Inc()
		return 0, false
	}
	defer subscription.Unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case price, ok := <-subscription.Stream:
		if !ok {
			logger.Info().Str("symbol", subscription.Topic).Msg("connection closed before a price arrived")
			promclient.PriceFetchCounter.WithLabelValues(outcomeClosed).Inc()
			return 0, false
		}
		promclient.PriceFetchCounter.WithLabelValues(outcomeOK).Inc()
		return price, true

	case <-timer.C:
		logger.Info().Str("symbol", subscription.Topic).Dur("timeout", timeout).Msg("no price before timeout")
		promclient.PriceFetchCounter.WithLabelValues(outcomeTimeout).Inc()
		return 0, false

	case <-ctx.Done():
		promclient.PriceFetchCounter.WithLabelValues(outcomeCanceled).Inc()
		return 0, false
	}
}

// publishLatest replaces an unread price instead of blocking the reader.
func publishLatest(out chan float64, price float64) {
	for {
		select {
		case out <- price:
			return
		default:
		}

		select {
		case <-out:
		default:
		}
	}
}
