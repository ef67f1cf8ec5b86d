package domain

import (
	"errors"
	"fmt"
	"strings"
)

const VenueDelimiter = ":"

const (
	VenueOanda   = "OANDA"
	VenueBinance = "BINANCE"
)

var (
	ErrEmptySymbol   = errors.New("symbol must not be empty")
	ErrInvalidSymbol = errors.New("invalid qualified symbol")
)

// VenueRule assigns a venue to every bare ticker containing Marker.
type VenueRule struct {
	Marker string
	Venue  string
}

// VenueRules is evaluated in order, the first matching rule wins.
// Tickers that match no rule fall back to DefaultVenue.
var VenueRules = []VenueRule{
	{Marker: "USDT", Venue: VenueBinance},
	{Marker: "USD", Venue: VenueOanda},
}

var DefaultVenue = VenueBinance

type MarketSymbol struct {
	Venue  string
	Ticker string
}

// NewMarketSymbol qualifies a symbol with its venue. Symbols already carrying
// a venue prefix are kept as is, bare tickers are upper-cased.
func NewMarketSymbol(s string) (*MarketSymbol, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptySymbol
	}

	if venue, ticker, ok := strings.Cut(s, VenueDelimiter); ok {
		if venue == "" || ticker == "" {
			return nil, fmt.Errorf("%w %q", ErrInvalidSymbol, s)
		}
		return &MarketSymbol{Venue: venue, Ticker: ticker}, nil
	}

	ticker := strings.ToUpper(s)
	return &MarketSymbol{Venue: InferVenue(ticker), Ticker: ticker}, nil
}

// InferVenue picks the venue for a bare ticker.
func InferVenue(ticker string) string {
	for _, rule := range VenueRules {
		if strings.Contains(ticker, rule.Marker) {
			return rule.Venue
		}
	}
	return DefaultVenue
}

// Qualify is NewMarketSymbol for callers that only need the wire string.
func Qualify(s string) (string, error) {
	ms, err := NewMarketSymbol(s)
	if err != nil {
		return "", err
	}
	return ms.String(), nil
}

func (ms *MarketSymbol) String() string {
	return ms.Venue + VenueDelimiter + ms.Ticker
}

func (ms *MarketSymbol) Equal(other *MarketSymbol) bool {
	return ms.Venue == other.Venue && ms.Ticker == other.Ticker
}
