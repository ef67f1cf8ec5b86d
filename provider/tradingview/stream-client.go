package tradingview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/gorilla/websocket"
)

const (
	tradingviewDefaultWebsocketEndpoint = "wss://widgetdata.tradingview.com/socket.io/websocket"
	tradingviewDefaultOrigin            = "https://www.tradingview.com"

	// Time allowed to write a frame to the peer.
	writeWait = 5 * time.Second
)

var (
	ErrNotConnected = errors.New("connection is not established")
	ErrClientClosed = errors.New("client is closed")
)

type StreamClientOptions struct {
	Endpoint         string
	Origin           string
	HandshakeTimeout time.Duration
}

// TradingViewStreamClient owns one websocket connection for the lifetime of a
// single chart session. It is not reused once closed.
type TradingViewStreamClient struct {
	opts StreamClientOptions
	conn *websocket.Conn

	// outbox holds frames queued before Connect and frames whose write failed
	writeMu sync.Mutex
	outbox  deque.Deque[string]

	// stateMu orders Listen against Close
	stateMu   sync.Mutex
	closed    bool
	listening bool
	closing   chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
}

func NewTradingViewStreamClient(opts StreamClientOptions) *TradingViewStreamClient {
	if opts.Endpoint == "" {
		opts.Endpoint = tradingviewDefaultWebsocketEndpoint
	}
	if opts.Origin == "" {
		opts.Origin = tradingviewDefaultOrigin
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}

	return &TradingViewStreamClient{
		opts:     opts,
		outbox:   deque.Deque[string]{},
		closing:  make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

func (c *TradingViewStreamClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.HandshakeTimeout,
	}

	header := http.Header{}
	header.Set("Origin", c.opts.Origin)

	conn, _, err := dialer.DialContext(ctx, c.opts.Endpoint, header)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.opts.Endpoint, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn = conn
	return c.flush()
}

// Send queues the frames and writes the queue out in order. Before Connect
// the frames stay queued and are written once the connection is up.
func (c *TradingViewStreamClient) Send(msgs ...Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, m := range msgs {
		frame, err := EncodeMessage(m)
		if err != nil {
			return err
		}
		c.outbox.PushBack(frame)
	}

	if c.conn == nil {
		return nil
	}
	return c.flush()
}

func (c *TradingViewStreamClient) sendRaw(payload string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.outbox.PushBack(Encode(payload))
	return c.flush()
}

// flush must be called with writeMu held.
func (c *TradingViewStreamClient) flush() error {
	if c.conn == nil {
		return ErrNotConnected
	}

	for c.outbox.Len() > 0 {
		frame := c.outbox.Front()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
		c.outbox.PopFront()
	}

	return nil
}

// Listen starts the receive loop. Heartbeats are echoed back, every other
// payload goes to handle. The loop ends when the connection is closed and
// onExit is called after the last handle call. A closed client never starts
// a loop.
func (c *TradingViewStreamClient) Listen(handle func(payload string), onExit func()) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.listening {
		return errors.New("receive loop already started")
	}

	c.listening = true
	go func() {
		defer close(c.readDone)
		if onExit != nil {
			defer onExit()
		}
		c.read(handle)
	}()

	return nil
}

func (c *TradingViewStreamClient) read(handle func(payload string)) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
				logger.Debug().Msg("receive loop stopped")
			default:
				logger.Error().Err(err).Msg("error while reading from connection")
			}
			return
		}

		payloads, err := Decode(string(msg))
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed frame")
		}

		for _, payload := range payloads {
			if IsHeartbeat(payload) {
				if err := c.sendRaw(payload); err != nil {
					logger.Warn().Err(err).Msg("failed to answer heartbeat")
				}
				continue
			}
			handle(payload)
		}
	}
}

// Close tears the connection down and waits for the receive loop to exit.
// Safe to call more than once.
func (c *TradingViewStreamClient) Close() error {
	var err error

	c.closeOnce.Do(func() {
		c.stateMu.Lock()
		c.closed = true
		listening := c.listening
		close(c.closing)
		c.stateMu.Unlock()

		if c.conn == nil {
			return
		}

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)

		err = c.conn.Close()
		if listening {
			<-c.readDone
		}
	})

	return err
}
