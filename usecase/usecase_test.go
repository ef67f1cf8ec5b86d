package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spooky-finn/go-chartquote-bridge/caption"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamAPI struct {
	price     float64
	ok        bool
	delay     time.Duration
	calls     atomic.Int32
	inflight  atomic.Int32
	maxFlight atomic.Int32
	symbols   sync.Map
}

func (f *fakeStreamAPI) FetchLastPrice(ctx context.Context, symbol string, timeout time.Duration) (float64, bool) {
	f.calls.Add(1)
	f.symbols.Store(symbol, true)

	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.maxFlight.Load()
		if n <= peak || f.maxFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	time.Sleep(f.delay)
	return f.price, f.ok
}

func (f *fakeStreamAPI) PriceStream(ctx context.Context, symbol string) (*domain.Subscription[float64], error) {
	return nil, errors.New("not implemented")
}

type fakeSyncAPI struct {
	image []byte
	err   error
	reqs  []domain.ChartRequest
}

func (f *fakeSyncAPI) ChartSnapshot(ctx context.Context, req domain.ChartRequest) ([]byte, error) {
	f.reqs = append(f.reqs, req)
	return f.image, f.err
}

type fakeConnManager struct {
	stream *fakeStreamAPI
	sync   *fakeSyncAPI
}

func (f *fakeConnManager) StreamAPI(string) domain.ProviderStreamAPI { return f.stream }
func (f *fakeConnManager) SyncAPI(string) domain.ProviderSyncAPI     { return f.sync }

type memoryCache struct {
	items  map[string]*domain.ChartSnapshot
	getErr error
	sets   int
}

func (m *memoryCache) Get(ctx context.Context, key string) (*domain.ChartSnapshot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, ok := m.items[key]; ok {
		return s, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *memoryCache) Set(ctx context.Context, key string, s *domain.ChartSnapshot) error {
	m.sets++
	m.items[key] = s
	return nil
}

type stampWatermark struct{ err error }

func (w stampWatermark) Apply(chart []byte) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return append(append([]byte{}, chart...), []byte("+logo")...), nil
}

type failingCaptioner struct{}

func (failingCaptioner) Caption(context.Context, caption.Input) (string, error) {
	return "", errors.New("boom")
}

func newCaptioner(t *testing.T) caption.Captioner {
	c, err := caption.NewTemplateCaptioner(1, "{{.Ticker}} {{.Interval}} {{.PriceText}}")
	require.NoError(t, err)
	return c
}

func TestLivePriceUseCase_QualifiesSymbol(t *testing.T) {
	stream := &fakeStreamAPI{price: 1950.44, ok: true}
	u := NewLivePriceUseCase(&fakeConnManager{stream: stream}, time.Second)

	price, ok := u.LastPrice(context.Background(), "XAUUSD")

	assert.True(t, ok)
	assert.Equal(t, 1950.44, price)
	_, seen := stream.symbols.Load("OANDA:XAUUSD")
	assert.True(t, seen)

	_, ok = u.LastPrice(context.Background(), "")
	assert.False(t, ok)
	assert.Equal(t, int32(1), stream.calls.Load())
}

func TestLivePriceUseCase_SerializesSameSymbol(t *testing.T) {
	stream := &fakeStreamAPI{price: 1, ok: true, delay: 20 * time.Millisecond}
	u := NewLivePriceUseCase(&fakeConnManager{stream: stream}, time.Second)

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.LastPrice(context.Background(), "BINANCE:BTCUSDT")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), stream.calls.Load())
	assert.Equal(t, int32(1), stream.maxFlight.Load())
}

func TestLivePriceUseCase_CanceledWhileWaitingForTurn(t *testing.T) {
	stream := &fakeStreamAPI{price: 1, ok: true, delay: 500 * time.Millisecond}
	u := NewLivePriceUseCase(&fakeConnManager{stream: stream}, time.Second)

	first := make(chan struct{})
	go func() {
		defer close(first)
		u.LastPrice(context.Background(), "XAUUSD")
	}()
	require.Eventually(t, func() bool { return stream.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, ok := u.LastPrice(ctx, "OANDA:XAUUSD")

	assert.False(t, ok)
	assert.Less(t, time.Since(started), 300*time.Millisecond, "waiting ends with the caller's context")
	assert.Equal(t, int32(1), stream.calls.Load(), "a canceled caller never opens a session")

	<-first
	price, ok := u.LastPrice(context.Background(), "XAUUSD")
	assert.True(t, ok, "the slot is released after the in-flight session")
	assert.Equal(t, 1.0, price)
}

func TestLivePriceUseCase_DifferentSymbolsRunInParallel(t *testing.T) {
	stream := &fakeStreamAPI{price: 1, ok: true, delay: 200 * time.Millisecond}
	u := NewLivePriceUseCase(&fakeConnManager{stream: stream}, time.Second)

	wg := sync.WaitGroup{}
	for _, symbol := range []string{"XAUUSD", "BTCUSDT", "EURUSD"} {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			u.LastPrice(context.Background(), symbol)
		}(symbol)
	}
	wg.Wait()

	assert.Equal(t, int32(3), stream.maxFlight.Load())
}

func TestChartSnapshotUseCase_RendersAndCaches(t *testing.T) {
	stream := &fakeStreamAPI{price: 1950.44, ok: true}
	charts := &fakeSyncAPI{image: []byte("png")}
	cm := &fakeConnManager{stream: stream, sync: charts}
	cache := &memoryCache{items: map[string]*domain.ChartSnapshot{}}

	u := NewChartSnapshotUseCase(cm, NewLivePriceUseCase(cm, time.Second), newCaptioner(t), cache, stampWatermark{})

	snapshot, err := u.GetChartSnapshot(context.Background(), "XAUUSD", "1h")
	require.NoError(t, err)

	assert.Equal(t, "OANDA:XAUUSD", snapshot.Symbol)
	assert.Equal(t, []byte("png+logo"), snapshot.Image)
	assert.Equal(t, "XAUUSD 1h 1950.44", snapshot.Caption)
	assert.Equal(t, []domain.ChartRequest{{Symbol: "OANDA:XAUUSD", Interval: "1h"}}, charts.reqs)

	again, err := u.GetChartSnapshot(context.Background(), "OANDA:XAUUSD", "1h")
	require.NoError(t, err)
	assert.Same(t, snapshot, again)
	assert.Len(t, charts.reqs, 1, "second request is served from cache")
	assert.Equal(t, 1, cache.sets)
}

func TestChartSnapshotUseCase_DegradesGracefully(t *testing.T) {
	stream := &fakeStreamAPI{ok: false}
	charts := &fakeSyncAPI{image: []byte("png")}
	cm := &fakeConnManager{stream: stream, sync: charts}
	cache := &memoryCache{getErr: errors.New("redis down"), items: map[string]*domain.ChartSnapshot{}}

	u := NewChartSnapshotUseCase(cm, NewLivePriceUseCase(cm, time.Second), newCaptioner(t), cache, stampWatermark{err: errors.New("bad logo")})

	snapshot, err := u.GetChartSnapshot(context.Background(), "BTCUSDT", "4h")
	require.NoError(t, err)

	assert.Equal(t, []byte("png"), snapshot.Image)
	assert.Equal(t, "BTCUSDT 4h "+caption.PriceUnavailable, snapshot.Caption)
}

func TestChartSnapshotUseCase_CaptionFallback(t *testing.T) {
	cm := &fakeConnManager{stream: &fakeStreamAPI{}, sync: &fakeSyncAPI{image: []byte("png")}}
	u := NewChartSnapshotUseCase(cm, NewLivePriceUseCase(cm, time.Second), failingCaptioner{}, nil, nil)

	snapshot, err := u.GetChartSnapshot(context.Background(), "EURUSD", "1D")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD (1D) Chart", snapshot.Caption)
}

func TestChartSnapshotUseCase_Errors(t *testing.T) {
	chartErr := errors.New("chart api down")
	cm := &fakeConnManager{stream: &fakeStreamAPI{}, sync: &fakeSyncAPI{err: chartErr}}
	u := NewChartSnapshotUseCase(cm, NewLivePriceUseCase(cm, time.Second), newCaptioner(t), nil, nil)

	_, err := u.GetChartSnapshot(context.Background(), "XAUUSD", "1h")
	assert.ErrorIs(t, err, chartErr)

	_, err = u.GetChartSnapshot(context.Background(), "XAUUSD", "2h")
	assert.ErrorIs(t, err, domain.ErrUnsupportedInterval)

	_, err = u.GetChartSnapshot(context.Background(), "", "1h")
	assert.ErrorIs(t, err, domain.ErrEmptySymbol)
}
