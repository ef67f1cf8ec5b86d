package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"LOG_PRETTY"`
}

type TradingViewConfig struct {
	Endpoint         string        `mapstructure:"TV_WS_ENDPOINT"`
	Origin           string        `mapstructure:"TV_ORIGIN"`
	PriceTimeout     time.Duration `mapstructure:"TV_PRICE_TIMEOUT"`
	HandshakeTimeout time.Duration `mapstructure:"TV_HANDSHAKE_TIMEOUT"`
}

type ChartConfig struct {
	Endpoint      string        `mapstructure:"CHART_IMG_ENDPOINT"`
	APIKey        string        `mapstructure:"CHART_IMG_API_KEY"`
	SessionID     string        `mapstructure:"TV_SESSION_ID"`
	SessionSign   string        `mapstructure:"TV_SESSION_SIGN"`
	Width         int           `mapstructure:"CHART_WIDTH"`
	Height        int           `mapstructure:"CHART_HEIGHT"`
	WatermarkPath string        `mapstructure:"WATERMARK_PATH"`
	CacheTTL      time.Duration `mapstructure:"CHART_CACHE_TTL"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"OPENAI_API_KEY"`
	Model  string `mapstructure:"OPENAI_MODEL"`
}

type ServerConfig struct {
	HTTPAddr         string `mapstructure:"HTTP_ADDR"`
	GRPCAddr         string `mapstructure:"GRPC_ADDR"`
	MetricsAddr      string `mapstructure:"METRICS_ADDR"`
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AvailableVenues  []string
}

type Config struct {
	Log         LogConfig         `mapstructure:",squash"`
	TradingView TradingViewConfig `mapstructure:",squash"`
	Chart       ChartConfig       `mapstructure:",squash"`
	Redis       RedisConfig       `mapstructure:",squash"`
	OpenAI      OpenAIConfig      `mapstructure:",squash"`
	Server      ServerConfig      `mapstructure:",squash"`
}

var defaults = map[string]interface{}{
	"LOG_LEVEL":            "info",
	"LOG_PRETTY":           false,
	"TV_WS_ENDPOINT":       "wss://widgetdata.tradingview.com/socket.io/websocket",
	"TV_ORIGIN":            "https://www.tradingview.com",
	"TV_PRICE_TIMEOUT":     "7s",
	"TV_HANDSHAKE_TIMEOUT": "5s",
	"CHART_IMG_ENDPOINT":   "https://api.chart-img.com/v2/tradingview/advanced-chart",
	"CHART_IMG_API_KEY":    "",
	"TV_SESSION_ID":        "",
	"TV_SESSION_SIGN":      "",
	"CHART_WIDTH":          800,
	"CHART_HEIGHT":         600,
	"WATERMARK_PATH":       "",
	"CHART_CACHE_TTL":      "5m",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"OPENAI_API_KEY":       "",
	"OPENAI_MODEL":         "gpt-4o-mini",
	"HTTP_ADDR":            ":8000",
	"GRPC_ADDR":            ":50051",
	"METRICS_ADDR":         ":8080",
	"TELEGRAM_BOT_TOKEN":   "",
	"AVAILABLE_VENUES":     "OANDA,BINANCE",
}

// Load reads the optional env files and then the process environment.
// Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set
		_ = godotenv.Load(f)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.AvailableVenues = splitList(v.GetString("AVAILABLE_VENUES"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TradingView.PriceTimeout <= 0 {
		return fmt.Errorf("TV_PRICE_TIMEOUT must be positive, got %s", c.TradingView.PriceTimeout)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToUpper(item))
		}
	}
	return out
}
