package gamma

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaExposure/internal/model"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func contract(g float64, oi int64, mult float64) model.OptionContract {
	return model.OptionContract{Gamma: f64(g), OpenInterest: i64(oi), Multiplier: f64(mult)}
}

func chainWith(mark *float64, calls, puts model.ExpDateMap) *model.OptionsChain {
	return &model.OptionsChain{
		Symbol:         "SPY",
		Underlying:     &model.Underlying{Symbol: "SPY", Mark: mark},
		CallExpDateMap: calls,
		PutExpDateMap:  puts,
	}
}

func TestComputeDollarGamma(t *testing.T) {
	t.Run("empty chain is invalid", func(t *testing.T) {
		_, err := ComputeDollarGamma(chainWith(f64(50), model.ExpDateMap{}, model.ExpDateMap{}))
		assert.ErrorIs(t, err, ErrInvalidChain)
		assert.False(t, errors.Is(err, ErrMalformedChain))
	})

	t.Run("single call", func(t *testing.T) {
		calls := model.ExpDateMap{"2020-08-21:30": {"50.0": {contract(0.05, 100, 100)}}}
		exp, err := Compute(chainWith(f64(50), calls, nil))
		require.NoError(t, err)
		assert.InDelta(t, 500.0, exp.NetGamma, 1e-9)
		assert.InDelta(t, 12500.0, exp.DollarGamma, 1e-6)
		assert.Equal(t, 1, exp.Contracts)
		assert.InDelta(t, 12500.0, exp.ByExpiry["2020-08-21:30"], 1e-6)
	})

	t.Run("identical call and put cancel", func(t *testing.T) {
		calls := model.ExpDateMap{"2020-08-21:30": {"50.0": {contract(0.05, 100, 100)}}}
		puts := model.ExpDateMap{"2020-08-21:30": {"50.0": {contract(0.05, 100, 100)}}}
		got, err := ComputeDollarGamma(chainWith(f64(50), calls, puts))
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("puts only is negative", func(t *testing.T) {
		puts := model.ExpDateMap{"2020-08-21:30": {"45.0": {contract(0.04, 10, 100)}}}
		got, err := ComputeDollarGamma(chainWith(f64(50), nil, puts))
		require.NoError(t, err)
		assert.InDelta(t, -0.04*10*100*2500*0.01, got, 1e-6)
	})

	t.Run("negative gamma is summed as-is", func(t *testing.T) {
		calls := model.ExpDateMap{"e": {"1": {contract(-0.01, 100, 100), contract(0.03, 100, 100)}}}
		got, err := ComputeDollarGamma(chainWith(f64(10), calls, nil))
		require.NoError(t, err)
		assert.InDelta(t, 200.0*100*0.01, got, 1e-9)
	})

	t.Run("expiries without contracts yield zero", func(t *testing.T) {
		calls := model.ExpDateMap{"e": {}}
		got, err := ComputeDollarGamma(chainWith(f64(10), calls, nil))
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})
}

func TestComputeDollarGammaOrderIndependent(t *testing.T) {
	calls := model.ExpDateMap{}
	puts := model.ExpDateMap{}
	for e, expiry := range []string{"2020-07-17:5", "2020-07-24:12", "2020-08-21:40"} {
		calls[expiry] = map[string][]model.OptionContract{}
		puts[expiry] = map[string][]model.OptionContract{}
		for s, strike := range []string{"300.0", "310.0", "320.0", "330.0"} {
			g := 0.001 * float64(1+e+s)
			calls[expiry][strike] = []model.OptionContract{contract(g, int64(100*(s+1)), 100)}
			puts[expiry][strike] = []model.OptionContract{contract(g/3, int64(70*(e+1)), 100)}
		}
	}

	want, err := ComputeDollarGamma(chainWith(f64(315.25), calls, puts))
	require.NoError(t, err)

	// Map iteration order is randomised per range; repeated runs exercise
	// different visit orders over the same snapshot.
	for i := 0; i < 50; i++ {
		got, err := ComputeDollarGamma(chainWith(f64(315.25), calls, puts))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-6*abs(want))
	}
}

func TestComputeDollarGammaMarkSign(t *testing.T) {
	calls := model.ExpDateMap{"e": {"1": {contract(0.05, 100, 100)}}}
	puts := model.ExpDateMap{"e": {"1": {contract(0.08, 100, 100)}}}

	pos, err := ComputeDollarGamma(chainWith(f64(50), calls, nil))
	require.NoError(t, err)
	neg, err := ComputeDollarGamma(chainWith(f64(-50), calls, nil))
	require.NoError(t, err)
	assert.Greater(t, pos, 0.0)
	assert.Equal(t, pos, neg)

	pos, err = ComputeDollarGamma(chainWith(f64(50), calls, puts))
	require.NoError(t, err)
	neg, err = ComputeDollarGamma(chainWith(f64(-50), calls, puts))
	require.NoError(t, err)
	assert.Less(t, pos, 0.0)
	assert.Equal(t, pos, neg)
}

func TestComputeDollarGammaMalformed(t *testing.T) {
	good := contract(0.05, 100, 100)

	tests := []struct {
		name  string
		chain *model.OptionsChain
		field string
	}{
		{"nil chain", nil, "chain"},
		{"missing underlying", &model.OptionsChain{CallExpDateMap: model.ExpDateMap{"e": {"1": {good}}}}, "underlying"},
		{"missing mark", chainWith(nil, model.ExpDateMap{"e": {"1": {good}}}, nil), "underlying.mark"},
		{"missing mark on empty chain", chainWith(nil, nil, nil), "underlying.mark"},
		{"call missing gamma", chainWith(f64(50), model.ExpDateMap{"e": {"1": {good, {OpenInterest: i64(1), Multiplier: f64(100)}}}}, nil), "gamma"},
		{"put missing open interest", chainWith(f64(50), model.ExpDateMap{"e": {"1": {good}}}, model.ExpDateMap{"e": {"1": {{Gamma: f64(0.1), Multiplier: f64(100)}}}}), "openInterest"},
		{"put missing multiplier", chainWith(f64(50), nil, model.ExpDateMap{"e": {"1": {good, good, {Gamma: f64(0.1), OpenInterest: i64(1)}}}}), "multiplier"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeDollarGamma(tc.chain)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedChain)

			var mErr *MalformedChainError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, tc.field, mErr.Field)
		})
	}
}

func TestComputeDollarGammaNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		chain *model.OptionsChain
	}{
		{"mark squared overflows", chainWith(f64(1e200), model.ExpDateMap{"e": {"1": {contract(0.05, 100, 100)}}}, nil)},
		{"sum overflows", chainWith(f64(50), model.ExpDateMap{"e": {"1": {contract(1e308, 100, 100)}}}, nil)},
		{"inf minus inf", chainWith(f64(50),
			model.ExpDateMap{"e": {"1": {contract(1e308, 100, 100)}}},
			model.ExpDateMap{"e": {"1": {contract(1e308, 100, 100)}}})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exp, err := Compute(tc.chain)
			assert.ErrorIs(t, err, ErrNonFinite)
			assert.ErrorIs(t, err, ErrMalformedChain)
			assert.Zero(t, exp.DollarGamma)
		})
	}
}

func TestComputeDoesNotMutate(t *testing.T) {
	calls := model.ExpDateMap{"e": {"1": {contract(0.05, 100, 100)}}}
	chain := chainWith(f64(50), calls, nil)

	_, err := Compute(chain)
	require.NoError(t, err)
	assert.Equal(t, 0.05, *chain.CallExpDateMap["e"]["1"][0].Gamma)
	assert.Equal(t, 50.0, *chain.Underlying.Mark)
	assert.Nil(t, chain.PutExpDateMap)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
