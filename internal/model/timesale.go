package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TimeSale is one trade print from a TIMESALE_* stream.
type TimeSale struct {
	Symbol       string    // streamer key (e.g., SPY_082120P315)
	Sequence     int64     // message sequence
	TradeTime    time.Time // field 1
	LastPrice    float64   // field 2
	LastSize     float64   // field 3
	LastSequence int64     // field 4
}

func (t *TimeSale) PriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(t.LastPrice)
}

func (t *TimeSale) SizeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(t.LastSize)
}

// Notional is price times size.
func (t *TimeSale) Notional() decimal.Decimal {
	return t.PriceDecimal().Mul(t.SizeDecimal())
}

// ParseTimeSale converts one decoded content entry of a TIMESALE data
// message into a TimeSale. Numeric field keys follow the streamer layout:
// 0 key, 1 trade time (ms), 2 last price, 3 last size, 4 last sequence.
func ParseTimeSale(content map[string]any) (TimeSale, error) {
	key, ok := content["key"].(string)
	if !ok || key == "" {
		return TimeSale{}, fmt.Errorf("timesale: missing key")
	}
	ts := TimeSale{Symbol: key}

	if v, ok := number(content["seq"]); ok {
		ts.Sequence = int64(v)
	}
	if v, ok := number(content["1"]); ok {
		ts.TradeTime = time.UnixMilli(int64(v)).UTC()
	}
	if v, ok := number(content["2"]); ok {
		ts.LastPrice = v
	}
	if v, ok := number(content["3"]); ok {
		ts.LastSize = v
	}
	if v, ok := number(content["4"]); ok {
		ts.LastSequence = int64(v)
	}
	return ts, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
