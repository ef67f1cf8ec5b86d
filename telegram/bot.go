package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("telegram")

const pollTimeout = 60

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
}

func NewBot(token string, prices LivePricer, charts ChartSnapshotter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", api.Self.UserName).Msg("authorized")

	return &Bot{api: api, h: NewHandlers(api, prices, charts)}, nil
}

// Run long-polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			logger.Debug().Int64("chat_id", update.Message.Chat.ID).Str("text", update.Message.Text).Msg("message received")
			go b.h.HandleMessage(ctx, update.Message)
		}
	}
}
