package domain_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRegistry_StoreAndGet(t *testing.T) {
	r := domain.NewPriceRegistry()

	_, err := r.Get("OANDA:XAUUSD")
	assert.ErrorIs(t, err, domain.ErrPriceNotFound)

	r.Store("OANDA:XAUUSD", 1950.44)
	r.Store("OANDA:XAUUSD", 1951.02)

	price, err := r.Get("OANDA:XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, 1951.02, price, "last write wins")
	assert.Equal(t, 1, r.Len())
}

func TestPriceRegistry_ConcurrentWriters(t *testing.T) {
	r := domain.NewPriceRegistry()
	wg := sync.WaitGroup{}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Store(fmt.Sprintf("BINANCE:SYM%d", i), float64(i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	price, err := r.Get("BINANCE:SYM7")
	require.NoError(t, err)
	assert.Equal(t, 7.0, price)
}
