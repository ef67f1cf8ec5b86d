package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spooky-finn/go-chartquote-bridge/domain"
)

const (
	defaultInterval = "1h"
	requestTimeout  = 30 * time.Second
)

var (
	// /price SYMBOL
	rePrice = regexp.MustCompile(`^/price(?:@[\w_]+)?\s+([A-Za-z0-9:._!-]+)$`)
	// /chart SYMBOL [INTERVAL]
	reChart = regexp.MustCompile(`^/chart(?:@[\w_]+)?\s+([A-Za-z0-9:._!-]+)(?:\s+(\w+))?$`)
	reHelp  = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const helpText = `Commands:
/price SYMBOL - live price, e.g. /price XAUUSD
/chart SYMBOL [INTERVAL] - chart with caption, e.g. /chart BTCUSDT 4h
Intervals: 1m 5m 15m 30m 1h 4h 1D 1W`

type LivePricer interface {
	LastPrice(ctx context.Context, symbol string) (float64, bool)
}

type ChartSnapshotter interface {
	GetChartSnapshot(ctx context.Context, symbol, interval string) (*domain.ChartSnapshot, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Handlers struct {
	api    sender
	prices LivePricer
	charts ChartSnapshotter
}

func NewHandlers(api sender, prices LivePricer, charts ChartSnapshotter) *Handlers {
	return &Handlers{api: api, prices: prices, charts: charts}
}

func (h *Handlers) HandleMessage(ctx context.Context, m *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	txt := strings.TrimSpace(m.Text)
	switch {
	case rePrice.MatchString(txt):
		g := rePrice.FindStringSubmatch(txt)
		h.handlePrice(ctx, m.Chat.ID, g[1])

	case reChart.MatchString(txt):
		g := reChart.FindStringSubmatch(txt)
		interval := defaultInterval
		if g[2] != "" {
			interval = g[2]
		}
		h.handleChart(ctx, m.Chat.ID, g[1], interval)

	case reHelp.MatchString(txt):
		h.reply(m.Chat.ID, helpText)

	case strings.HasPrefix(txt, "/"):
		h.reply(m.Chat.ID, "Unknown command. Try /help")
	}
}

func (h *Handlers) handlePrice(ctx context.Context, chatID int64, symbol string) {
	qualified, err := domain.Qualify(symbol)
	if err != nil {
		h.reply(chatID, "Please provide a symbol, e.g. /price XAUUSD")
		return
	}

	price, ok := h.prices.LastPrice(ctx, qualified)
	if !ok {
		h.reply(chatID, fmt.Sprintf("%s: price unavailable", qualified))
		return
	}
	h.reply(chatID, fmt.Sprintf("%s: %.2f", qualified, price))
}

func (h *Handlers) handleChart(ctx context.Context, chatID int64, symbol, interval string) {
	snapshot, err := h.charts.GetChartSnapshot(ctx, symbol, interval)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySymbol) || errors.Is(err, domain.ErrInvalidSymbol) {
			h.reply(chatID, "Invalid symbol, e.g. /chart BTCUSDT 4h or /chart OANDA:XAUUSD")
			return
		}
		if errors.Is(err, domain.ErrUnsupportedInterval) {
			h.reply(chatID, "Unsupported interval. Use one of: "+strings.Join(domain.Intervals, " "))
			return
		}
		logger.Error().Err(err).Str("symbol", symbol).Str("interval", interval).Msg("chart request failed")
		h.reply(chatID, "Error fetching chart. Please try again.")
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  strings.ReplaceAll(snapshot.Symbol, ":", "_") + ".png",
		Bytes: snapshot.Image,
	})
	photo.Caption = snapshot.Caption
	if _, err := h.api.Send(photo); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send chart")
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}
