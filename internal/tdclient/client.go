// Package tdclient talks to the brokerage REST API.
package tdclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"

	"GammaExposure/internal/model"
)

var (
	// ErrNoChain is returned when the provider answers without a usable
	// chain (empty body, "null", or status FAILED).
	ErrNoChain = errors.New("no options chain returned")

	// ErrUnauthorized is returned for HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient authenticates every request with a bearer token from src.
func NewClient(baseURL string, src oauth2.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &oauth2.Transport{
				Source: src,
				Base:   http.DefaultTransport,
			},
		},
	}
}

// GetOptionsChain fetches the chain described by req.
func (c *Client) GetOptionsChain(ctx context.Context, req ChainRequest) (*model.OptionsChain, error) {
	ctx, span := otel.Tracer("tdclient").Start(ctx, "GetOptionsChain")
	defer span.End()

	body, err := c.get(ctx, "/marketdata/chains?"+req.Values().Encode())
	if err != nil {
		return nil, fmt.Errorf("options chain %s: %w", req.Symbol, err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, fmt.Errorf("options chain %s: %w", req.Symbol, ErrNoChain)
	}

	var chain model.OptionsChain
	if err := json.Unmarshal(trimmed, &chain); err != nil {
		return nil, fmt.Errorf("options chain %s: %w: %w", req.Symbol, model.ErrMalformedChain, err)
	}
	if strings.EqualFold(chain.Status, "FAILED") {
		return nil, fmt.Errorf("options chain %s: status %s: %w", req.Symbol, chain.Status, ErrNoChain)
	}

	log.Debugf("[TD] chain %s: %d call expiries, %d put expiries", req.Symbol, len(chain.CallExpDateMap), len(chain.PutExpDateMap))
	return &chain, nil
}

// GetUserPrincipals fetches the streamer connection info and keys.
func (c *Client) GetUserPrincipals(ctx context.Context) (*model.UserPrincipals, error) {
	ctx, span := otel.Tracer("tdclient").Start(ctx, "GetUserPrincipals")
	defer span.End()

	body, err := c.get(ctx, "/userprincipals?fields=streamerSubscriptionKeys,streamerConnectionInfo")
	if err != nil {
		return nil, fmt.Errorf("user principals: %w", err)
	}

	var p model.UserPrincipals
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("user principals: decode: %w", err)
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case res.StatusCode/100 != 2:
		return nil, fmt.Errorf("GET %s: %s: %s", path, res.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
