// Package gamma reduces an options chain to a dollar-gamma estimate.
package gamma

import (
	"errors"
	"fmt"
	"math"

	"GammaExposure/internal/model"
)

var (
	// ErrMalformedChain is matched by every *MalformedChainError and by
	// chain payloads that failed to decode.
	ErrMalformedChain = model.ErrMalformedChain

	// ErrNonFinite is returned when the inputs are finite but the result
	// overflows or is NaN.
	ErrNonFinite = fmt.Errorf("%w: non-finite dollar gamma", ErrMalformedChain)

	// ErrInvalidChain is returned for a chain with no expiries on either
	// side. An empty chain usually means the fetch upstream failed, so it
	// is not reported as zero gamma.
	ErrInvalidChain = errors.New("invalid options chain: no expiries")
)

// MalformedChainError locates the first missing field found in a chain.
type MalformedChainError struct {
	Field  string
	Side   string // "call" or "put"; empty for chain-level fields
	Expiry string
	Strike string
	Index  int
}

func (e *MalformedChainError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%s: missing %s", ErrMalformedChain, e.Field)
	}
	return fmt.Sprintf("%s: %s %s/%s[%d] missing %s", ErrMalformedChain, e.Side, e.Expiry, e.Strike, e.Index, e.Field)
}

func (e *MalformedChainError) Unwrap() error { return ErrMalformedChain }

// Exposure is the breakdown behind a dollar-gamma figure.
type Exposure struct {
	Symbol      string             `json:"symbol"`
	Mark        float64            `json:"mark"`
	CallGamma   float64            `json:"call_gamma"`
	PutGamma    float64            `json:"put_gamma"`
	NetGamma    float64            `json:"net_gamma"`
	DollarGamma float64            `json:"dollar_gamma"`
	Contracts   int                `json:"contracts"`
	ByExpiry    map[string]float64 `json:"by_expiry"`
}

// ComputeDollarGamma returns (Σcall − Σput of gamma·openInterest·multiplier)
// scaled by mark²·0.01. The chain is not modified.
func ComputeDollarGamma(chain *model.OptionsChain) (float64, error) {
	exp, err := Compute(chain)
	if err != nil {
		return 0, err
	}
	return exp.DollarGamma, nil
}

// Compute is ComputeDollarGamma with the per-side and per-expiry sums kept.
func Compute(chain *model.OptionsChain) (Exposure, error) {
	if chain == nil {
		return Exposure{}, &MalformedChainError{Field: "chain"}
	}
	if chain.Underlying == nil {
		return Exposure{}, &MalformedChainError{Field: "underlying"}
	}
	if chain.Underlying.Mark == nil {
		return Exposure{}, &MalformedChainError{Field: "underlying.mark"}
	}
	if chain.IsEmpty() {
		return Exposure{}, ErrInvalidChain
	}

	mark := *chain.Underlying.Mark
	scale := mark * mark * 0.01

	exp := Exposure{
		Symbol:   chain.Symbol,
		Mark:     mark,
		ByExpiry: make(map[string]float64),
	}
	if exp.Symbol == "" {
		exp.Symbol = chain.Underlying.Symbol
	}

	perExpiry := make(map[string]float64)

	calls, n, err := sumSide("call", chain.CallExpDateMap, perExpiry, 1)
	if err != nil {
		return Exposure{}, err
	}
	exp.Contracts += n

	puts, n, err := sumSide("put", chain.PutExpDateMap, perExpiry, -1)
	if err != nil {
		return Exposure{}, err
	}
	exp.Contracts += n

	exp.CallGamma = calls
	exp.PutGamma = puts
	exp.NetGamma = calls - puts
	exp.DollarGamma = exp.NetGamma * scale
	if !finite(exp.DollarGamma) {
		return Exposure{}, ErrNonFinite
	}
	for expiry, g := range perExpiry {
		v := g * scale
		if !finite(v) {
			return Exposure{}, fmt.Errorf("expiry %s: %w", expiry, ErrNonFinite)
		}
		exp.ByExpiry[expiry] = v
	}
	return exp, nil
}

// sumSide adds gamma·openInterest·multiplier over one side of the chain.
// sign is applied only to the per-expiry accumulator; the returned total
// is unsigned.
func sumSide(side string, m model.ExpDateMap, perExpiry map[string]float64, sign float64) (float64, int, error) {
	var total float64
	var count int
	for expiry, strikes := range m {
		for strike, contracts := range strikes {
			for i := range contracts {
				g, missing := contribution(&contracts[i])
				if missing != "" {
					return 0, 0, &MalformedChainError{
						Field:  missing,
						Side:   side,
						Expiry: expiry,
						Strike: strike,
						Index:  i,
					}
				}
				total += g
				perExpiry[expiry] += sign * g
				count++
			}
		}
	}
	return total, count, nil
}

// contribution returns the contract's raw gamma weight, or the name of
// the first missing field.
func contribution(c *model.OptionContract) (float64, string) {
	switch {
	case c.Gamma == nil:
		return 0, "gamma"
	case c.OpenInterest == nil:
		return 0, "openInterest"
	case c.Multiplier == nil:
		return 0, "multiplier"
	}
	return *c.Gamma * float64(*c.OpenInterest) * *c.Multiplier, ""
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
