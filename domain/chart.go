package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss           = errors.New("chart cache miss")
	ErrUnsupportedInterval = errors.New("unsupported chart interval")
)

var Intervals = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1D", "1W"}

func ValidateInterval(interval string) error {
	for _, i := range Intervals {
		if i == interval {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
}

type ChartRequest struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type ChartSnapshot struct {
	Symbol   string
	Interval string
	Image    []byte
	Caption  string
}

func ChartCacheKey(symbol, interval string) string {
	return fmt.Sprintf("chart:%s:%s", symbol, interval)
}
