package caption

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/spooky-finn/go-chartquote-bridge/domain"
)

const PriceUnavailable = "price unavailable"

type Input struct {
	Symbol   string
	Interval string
	Price    float64
	HasPrice bool
}

func (in Input) Ticker() string {
	if ms, err := domain.NewMarketSymbol(in.Symbol); err == nil {
		return ms.Ticker
	}
	return in.Symbol
}

func (in Input) PriceText() string {
	if !in.HasPrice {
		return PriceUnavailable
	}
	return fmt.Sprintf("%.2f", in.Price)
}

type Captioner interface {
	Caption(ctx context.Context, in Input) (string, error)
}

var defaultTemplates = []string{
	"{{.Ticker}} ({{.Interval}}) chart. Last price: {{.PriceText}}",
	"Here is {{.Ticker}} on the {{.Interval}} timeframe, trading at {{.PriceText}}",
	"{{.Ticker}} {{.Interval}} snapshot. Live quote: {{.PriceText}}",
	"Fresh {{.Interval}} view of {{.Ticker}}, last trade {{.PriceText}}",
}

// TemplateCaptioner picks one of a fixed set of phrasings at random.
type TemplateCaptioner struct {
	templates []*template.Template

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewTemplateCaptioner(seed int64, texts ...string) (*TemplateCaptioner, error) {
	if len(texts) == 0 {
		texts = defaultTemplates
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	templates := make([]*template.Template, 0, len(texts))
	for i, text := range texts {
		tpl, err := template.New(fmt.Sprintf("caption-%d", i)).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse caption template %d: %w", i, err)
		}
		templates = append(templates, tpl)
	}

	return &TemplateCaptioner{
		templates: templates,
		rnd:       rand.New(rand.NewSource(seed)),
	}, nil
}

func (c *TemplateCaptioner) Caption(_ context.Context, in Input) (string, error) {
	c.mu.Lock()
	tpl := c.templates[c.rnd.Intn(len(c.templates))]
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render caption: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
