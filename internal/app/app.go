package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Handle is a running component and the way to stop it.
type Handle struct {
	Name string
	Addr string
	Stop func(ctx context.Context)
}

// StartHTTP binds addr and serves h in the background. The returned
// handle's Addr is the bound address, which differs from addr when addr
// asks for an ephemeral port.
func StartHTTP(ctx context.Context, name, addr string, h http.Handler) (*Handle, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		log.Infof("[%s] listening on http://%s", name, ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[%s] server stopped: %v", name, err)
		}
	}()

	return &Handle{
		Name: name,
		Addr: ln.Addr().String(),
		Stop: func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				log.Warnf("[%s] shutdown: %v", name, err)
				return
			}
			log.Infof("[%s] gracefully stopped", name)
		},
	}, nil
}
