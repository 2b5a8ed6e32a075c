// Package app wires the brokerage session, the chain provider and the
// gamma computation into the operations the binaries expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"GammaExposure/internal/gamma"
	"GammaExposure/internal/model"
	"GammaExposure/internal/notify"
	"GammaExposure/internal/tdclient"
)

type ChainFetcher interface {
	GetOptionsChain(ctx context.Context, req tdclient.ChainRequest) (*model.OptionsChain, error)
}

type Authenticator interface {
	Login(ctx context.Context) error
}

// GammaService computes dollar gamma for a symbol from a freshly fetched
// chain.
type GammaService struct {
	chains       ChainFetcher
	auth         Authenticator
	ntf          notify.Notifier
	windowMonths int
	now          func() time.Time
}

func NewGammaService(chains ChainFetcher, auth Authenticator, ntf notify.Notifier, windowMonths int) *GammaService {
	if ntf == nil {
		ntf = notify.Discard{}
	}
	return &GammaService{
		chains:       chains,
		auth:         auth,
		ntf:          ntf,
		windowMonths: windowMonths,
		now:          time.Now,
	}
}

// Exposure fetches the chain for symbol and reduces it. Failures are
// reported to the notifier before being returned.
func (s *GammaService) Exposure(ctx context.Context, symbol string) (gamma.Exposure, error) {
	ctx, span := otel.Tracer("app").Start(ctx, "GammaService.Exposure")
	defer span.End()

	req := tdclient.BuildChainRequest(symbol, s.now(), s.windowMonths)

	exp, err := s.exposure(ctx, req)
	if err != nil {
		log.Errorf("[GAMMA] %s: %v", req.Symbol, err)
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		if nerr := s.ntf.Send(nctx, notify.GammaUnavailable(req.Symbol, err, s.now())); nerr != nil {
			log.Warnf("[GAMMA] notify: %v", nerr)
		}
		cancel()
		return gamma.Exposure{}, err
	}

	log.Infof("[GAMMA] %s: net=%.4f mark=%.2f dollar=%.2f (%d contracts)", req.Symbol, exp.NetGamma, exp.Mark, exp.DollarGamma, exp.Contracts)
	return exp, nil
}

func (s *GammaService) exposure(ctx context.Context, req tdclient.ChainRequest) (gamma.Exposure, error) {
	chain, err := s.fetch(ctx, req)
	if err != nil {
		return gamma.Exposure{}, err
	}
	return gamma.Compute(chain)
}

// fetch gets the chain, logging in again and retrying once when the
// provider comes back without one.
func (s *GammaService) fetch(ctx context.Context, req tdclient.ChainRequest) (*model.OptionsChain, error) {
	chain, err := s.chains.GetOptionsChain(ctx, req)
	if !needsLogin(chain, err) {
		return chain, err
	}

	log.Warnf("[GAMMA] %s: no chain (%v); logging in again", req.Symbol, err)
	if lerr := s.auth.Login(ctx); lerr != nil {
		return nil, fmt.Errorf("re-login: %w", lerr)
	}

	chain, err = s.chains.GetOptionsChain(ctx, req)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, fmt.Errorf("options chain %s: %w", req.Symbol, tdclient.ErrNoChain)
	}
	return chain, nil
}

func needsLogin(chain *model.OptionsChain, err error) bool {
	if err == nil {
		return chain == nil
	}
	return errors.Is(err, tdclient.ErrNoChain) || errors.Is(err, tdclient.ErrUnauthorized)
}
