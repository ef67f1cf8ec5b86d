package caption

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/spooky-finn/go-chartquote-bridge/infrastructure/logging"
)

var logger = logging.New("caption")

const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You write one-sentence captions for trading chart images posted in a Telegram channel. " +
	"Plain text only, no hashtags, no financial advice, at most 200 characters."

// AICaptioner asks a chat model for a caption and falls back to another
// Captioner whenever the model call fails.
type AICaptioner struct {
	cli      oa.Client
	model    string
	fallback Captioner
}

func NewAICaptioner(apiKey, model string, fallback Captioner, opts ...option.RequestOption) *AICaptioner {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &AICaptioner{
		cli:      oa.NewClient(opts...),
		model:    model,
		fallback: fallback,
	}
}

func (c *AICaptioner) Caption(ctx context.Context, in Input) (string, error) {
	prompt := fmt.Sprintf("Instrument: %s\nTimeframe: %s\nLast price: %s", in.Ticker(), in.Interval, in.PriceText())

	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(prompt),
		},
	})
	if err == nil && len(resp.Choices) > 0 {
		if text := strings.TrimSpace(resp.Choices[0].Message.Content); text != "" {
			return text, nil
		}
	}

	logger.Warn().Err(err).Str("symbol", in.Symbol).Msg("ai caption failed, using template")
	return c.fallback.Caption(ctx, in)
}
