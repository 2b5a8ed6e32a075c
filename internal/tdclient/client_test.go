package tdclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"GammaExposure/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1/", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"}))
}

func TestBuildChainRequest(t *testing.T) {
	now := time.Date(2020, 7, 12, 15, 30, 0, 0, time.UTC)
	req := BuildChainRequest(" spx ", now, 3)

	v := req.Values()
	assert.Equal(t, "SPX", v.Get("symbol"))
	assert.Equal(t, "ALL", v.Get("contractType"))
	assert.Equal(t, "2020-07-12", v.Get("fromDate"))
	assert.Equal(t, "2020-10-12", v.Get("toDate"))
	assert.Equal(t, "TRUE", v.Get("includeQuotes"))
	assert.Empty(t, v.Get("strikeCount"))
}

func TestGetOptionsChain(t *testing.T) {
	req := BuildChainRequest("spy", time.Date(2020, 7, 12, 0, 0, 0, 0, time.UTC), 3)

	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/marketdata/chains", r.URL.Path)
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			assert.Equal(t, "SPY", r.URL.Query().Get("symbol"))
			_, _ = w.Write([]byte(`{"symbol":"SPY","status":"SUCCESS","underlying":{"mark":320.5},
				"callExpDateMap":{"2020-08-21:40":{"315.0":[{"gamma":0.02,"openInterest":10,"multiplier":100}]}},"putExpDateMap":{}}`))
		})

		chain, err := c.GetOptionsChain(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "SPY", chain.Symbol)
		assert.Len(t, chain.CallExpDateMap, 1)
	})

	t.Run("wrong shape gamma", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"symbol":"SPY","status":"SUCCESS","underlying":{"mark":320.5},
				"callExpDateMap":{"2020-08-21:40":{"315.0":[{"gamma":"NaN","openInterest":10,"multiplier":100}]}}}`))
		})
		_, err := c.GetOptionsChain(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrMalformedChain)
		assert.NotErrorIs(t, err, ErrNoChain)
	})

	t.Run("null body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("null"))
		})
		_, err := c.GetOptionsChain(context.Background(), req)
		assert.ErrorIs(t, err, ErrNoChain)
	})

	t.Run("failed status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"symbol":"SPY","status":"FAILED","callExpDateMap":{},"putExpDateMap":{}}`))
		})
		_, err := c.GetOptionsChain(context.Background(), req)
		assert.ErrorIs(t, err, ErrNoChain)
	})

	t.Run("unauthorized", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.GetOptionsChain(context.Background(), req)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.GetOptionsChain(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoChain)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestGetUserPrincipals(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/userprincipals", r.URL.Path)
		assert.Equal(t, "streamerSubscriptionKeys,streamerConnectionInfo", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"userId":"u","streamerInfo":{"streamerSocketUrl":"streamer.example.com","appId":"app"},
			"accounts":[{"accountId":"123","company":"AMER"}]}`))
	})

	p, err := c.GetUserPrincipals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wss://streamer.example.com/ws", p.SocketURL())
	assert.Equal(t, "123", p.Accounts[0].AccountID)
}
