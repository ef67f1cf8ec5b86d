package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("usecase")

type LivePriceUseCase struct {
	connManager domain.ConnManager
	timeout     time.Duration

	// one-slot channel per qualified symbol, holding the in-flight session
	waitingRoom sync.Map
}

func NewLivePriceUseCase(connManager domain.ConnManager, timeout time.Duration) *LivePriceUseCase {
	return &LivePriceUseCase{
		connManager: connManager,
		timeout:     timeout,
		waitingRoom: sync.Map{},
	}
}

// LastPrice returns the live price of symbol, or false when it is unavailable.
// Concurrent requests for the same symbol are served one after another; a
// request whose context ends while waiting for its turn reports false.
func (u *LivePriceUseCase) LastPrice(ctx context.Context, symbol string) (float64, bool) {
	qualified, err := domain.Qualify(symbol)
	if err != nil {
		logger.Warn().Err(err).Str("symbol", symbol).Msg("rejecting live price request")
		return 0, false
	}

	slot, _ := u.waitingRoom.LoadOrStore(qualified, make(chan struct{}, 1))
	turn := slot.(chan struct{})

	select {
	case turn <- struct{}{}:
	case <-ctx.Done():
		logger.Info().Str("symbol", qualified).Msg("gave up waiting for an in-flight session")
		return 0, false
	}
	defer func() { <-turn }()

	return u.connManager.StreamAPI(domain.ProviderTradingView).FetchLastPrice(ctx, qualified, u.timeout)
}
