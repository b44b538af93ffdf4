package contracts

import "time"

// PriceBar is one daily OHLCV bar for a symbol.
// Immutable once recorded.
type PriceBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// VolatilityReading is one daily volatility-index level.
// Joined to price bars by date with forward fill (never backward).
type VolatilityReading struct {
	Date  time.Time `json:"date"`
	Level float64   `json:"level"`
}

// Quote is a best-effort live reading used by the inference run.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
	Live   bool      `json:"live"` // false when falling back to last close
}
