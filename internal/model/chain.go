package model

import "errors"

// ErrMalformedChain marks a chain payload with a required field absent or
// of the wrong shape.
var ErrMalformedChain = errors.New("malformed options chain")

// OptionsChain is the options-chain snapshot returned by the brokerage
// chains endpoint. Only the fields consumed downstream are modelled.
type OptionsChain struct {
	Symbol          string      `json:"symbol"`
	Status          string      `json:"status"`
	Underlying      *Underlying `json:"underlying"`
	UnderlyingPrice float64     `json:"underlyingPrice"`
	CallExpDateMap  ExpDateMap  `json:"callExpDateMap"`
	PutExpDateMap   ExpDateMap  `json:"putExpDateMap"`
}

// Underlying describes the instrument the chain is written on.
type Underlying struct {
	Symbol string   `json:"symbol"`
	Mark   *float64 `json:"mark"`
	Last   float64  `json:"last"`
	Close  float64  `json:"close"`
}

// ExpDateMap maps expiry key ("2020-07-17:5") to strike key ("2850.0") to
// the contracts listed at that strike.
type ExpDateMap map[string]map[string][]OptionContract

// OptionContract is a single call or put. Gamma, OpenInterest and
// Multiplier are pointers so a missing field can be told apart from zero.
type OptionContract struct {
	PutCall          string   `json:"putCall"`
	Symbol           string   `json:"symbol"`
	Description      string   `json:"description"`
	StrikePrice      float64  `json:"strikePrice"`
	ExpirationDate   int64    `json:"expirationDate"`
	DaysToExpiration int      `json:"daysToExpiration"`
	Mark             float64  `json:"mark"`
	Delta            float64  `json:"delta"`
	Gamma            *float64 `json:"gamma"`
	OpenInterest     *int64   `json:"openInterest"`
	Multiplier       *float64 `json:"multiplier"`
}

// IsEmpty reports whether neither side of the chain has any expiry.
func (c *OptionsChain) IsEmpty() bool {
	return len(c.CallExpDateMap) == 0 && len(c.PutExpDateMap) == 0
}
