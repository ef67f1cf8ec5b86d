package tradingview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/spooky-finn/go-chartquote-bridge/helpers"
)

const (
	envelopeMarker  = "~m~"
	heartbeatPrefix = "~h~"
	lastPriceMarker = `"lp"`

	seriesAlias      = "s1"
	seriesResolution = 1
	seriesBars       = 300

	sessionIDLength = 12
	pricePrecision  = 2
)

const (
	MethodSetAuthToken       = "set_auth_token"
	MethodChartCreateSession = "chart_create_session"
	MethodResolveSymbol      = "resolve_symbol"
	MethodCreateSeries       = "create_series"
)

const AnonymousAuthToken = "unauthorized_user_token"

var ErrMalformedEnvelope = errors.New("malformed frame envelope")

// Message is an outbound protocol frame: method plus positional params.
type Message struct {
	Method string        `json:"m"`
	Params []interface{} `json:"p"`
}

// priceFrame is the subset of an inbound frame carrying price updates.
type priceFrame struct {
	Params []json.RawMessage `json:"p"`
}

type priceRecord struct {
	Name  string `json:"n"`
	Value *struct {
		LastPrice *float64 `json:"lp"`
	} `json:"v"`
}

func NewSessionID() string {
	return "cs_" + helpers.RandomToken(sessionIDLength)
}

// Handshake returns the session initialization frames in the order the
// server expects them.
func Handshake(authToken, session, symbol string) []Message {
	return []Message{
		{Method: MethodSetAuthToken, Params: []interface{}{authToken}},
		{Method: MethodChartCreateSession, Params: []interface{}{session, ""}},
		{Method: MethodResolveSymbol, Params: []interface{}{session, seriesAlias, symbol}},
		{Method: MethodCreateSeries, Params: []interface{}{session, seriesAlias, seriesAlias, seriesAlias, seriesResolution, seriesBars}},
	}
}

// Encode wraps a payload in the ~m~<len>~m~ envelope. The length is counted
// in UTF-16 code units, the way the feed counts it.
func Encode(payload string) string {
	return envelopeMarker + helpers.IntToString(utf16Len(payload)) + envelopeMarker + payload
}

func EncodeMessage(m Message) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s frame: %w", m.Method, err)
	}
	return Encode(string(b)), nil
}

// Decode splits one websocket message into frame payloads. A message without
// an envelope is a single payload. Lengths are read as UTF-16 code units and,
// failing that, as bytes. On a malformed envelope the payloads parsed so far
// are returned together with the error.
func Decode(msg string) ([]string, error) {
	if !strings.HasPrefix(msg, envelopeMarker) {
		return []string{msg}, nil
	}

	payloads := make([]string, 0, 1)
	rest := msg
	for rest != "" {
		if !strings.HasPrefix(rest, envelopeMarker) {
			return payloads, fmt.Errorf("%w: unexpected data %q", ErrMalformedEnvelope, truncate(rest))
		}
		rest = rest[len(envelopeMarker):]

		end := strings.Index(rest, envelopeMarker)
		if end < 0 {
			return payloads, fmt.Errorf("%w: missing length terminator", ErrMalformedEnvelope)
		}

		n, err := strconv.Atoi(rest[:end])
		if err != nil || n < 0 {
			return payloads, fmt.Errorf("%w: bad length %q", ErrMalformedEnvelope, rest[:end])
		}
		rest = rest[end+len(envelopeMarker):]

		size, ok := payloadSize(rest, n)
		if !ok {
			if n > len(rest) {
				return payloads, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformedEnvelope, n, len(rest))
			}
			payloads = append(payloads, rest[:n])
			return payloads, fmt.Errorf("%w: unexpected data %q", ErrMalformedEnvelope, truncate(rest[n:]))
		}
		payloads = append(payloads, rest[:size])
		rest = rest[size:]
	}

	return payloads, nil
}

// payloadSize returns the byte size of a payload of n length units at the
// head of s, provided it ends where the message or the next envelope starts.
func payloadSize(s string, n int) (int, bool) {
	atBoundary := func(i int) bool {
		return i == len(s) || strings.HasPrefix(s[i:], envelopeMarker)
	}

	if i, ok := utf16Offset(s, n); ok && atBoundary(i) {
		return i, true
	}
	if n <= len(s) && atBoundary(n) {
		return n, true
	}
	return 0, false
}

// utf16Offset returns the byte offset at which the first n UTF-16 code units
// of s end.
func utf16Offset(s string, n int) (int, bool) {
	units := 0
	for i, r := range s {
		if units == n {
			return i, true
		}
		units += utf16.RuneLen(r)
		if units > n {
			return 0, false
		}
	}
	return len(s), units == n
}

func utf16Len(s string) int {
	units := 0
	for _, r := range s {
		units += utf16.RuneLen(r)
	}
	return units
}

func IsHeartbeat(payload string) bool {
	return strings.HasPrefix(payload, heartbeatPrefix)
}

// ParseLastPrice extracts the last price carried by a frame for symbol.
// Frames without the last-price marker are not price updates and report false
// without error. When a frame holds several records the latest one wins.
func ParseLastPrice(payload, symbol string) (float64, bool, error) {
	if !strings.Contains(payload, lastPriceMarker) {
		return 0, false, nil
	}

	var frame priceFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal price frame: %w", err)
	}

	var (
		price float64
		found bool
	)
	for _, raw := range frame.Params {
		var rec priceRecord
		// params mix session ids with update records
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Name != "" && symbol != "" && rec.Name != symbol {
			continue
		}
		if rec.Value == nil || rec.Value.LastPrice == nil {
			continue
		}
		price = *rec.Value.LastPrice
		found = true
	}

	if !found {
		return 0, false, nil
	}
	return helpers.RoundPrice(price, pricePrecision), true, nil
}

func truncate(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
