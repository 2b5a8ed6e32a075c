// Package servers exposes the hit counter and the gamma service over HTTP.
package servers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"GammaExposure/internal/gamma"
)

const requestIDHeader = "X-Request-ID"

type HitCounter interface {
	Hit(ctx context.Context) (int64, error)
}

type GammaSource interface {
	Exposure(ctx context.Context, symbol string) (gamma.Exposure, error)
}

// CodeExchanger completes the authorization-code flow.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) error
}

type Deps struct {
	Hits  HitCounter
	Gamma GammaSource
	Auth  CodeExchanger
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, requestLog)

	r.HandleFunc("/", d.index).Methods(http.MethodGet)
	r.HandleFunc("/symbol/{symbol}", d.symbol).Methods(http.MethodGet)
	r.HandleFunc("/symbol/{symbol}/exposure", d.exposure).Methods(http.MethodGet)
	r.HandleFunc("/auth/callback", d.callback).Methods(http.MethodGet)
	return r
}

func (d Deps) index(w http.ResponseWriter, r *http.Request) {
	n, err := d.Hits.Hit(r.Context())
	if err != nil {
		log.Errorf("[HTTP] hit counter: %v", err)
		http.Error(w, "hit counter unavailable", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintf(w, "Hello! Hit count: %d", n)
}

func (d Deps) symbol(w http.ResponseWriter, r *http.Request) {
	exp, err := d.Gamma.Exposure(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		w.WriteHeader(statusFor(err))
		_, _ = w.Write([]byte("gamma: unavailable"))
		return
	}
	_, _ = w.Write([]byte(FormatGamma(exp.DollarGamma)))
}

func (d Deps) exposure(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	exp, err := d.Gamma.Exposure(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}

	body, err := json.Marshal(exp)
	if err != nil {
		log.Errorf("[HTTP] encode exposure %s: %v", exp.Symbol, err)
		writeJSONError(w, http.StatusBadGateway, err)
		return
	}
	_, _ = w.Write(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (d Deps) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if err := d.Auth.Exchange(r.Context(), code); err != nil {
		log.Errorf("[AUTH] code exchange: %v", err)
		http.Error(w, "login failed", http.StatusBadGateway)
		return
	}
	_, _ = w.Write([]byte("logged in"))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, gamma.ErrInvalidChain):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"request_id": w.Header().Get(requestIDHeader),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"elapsed":    time.Since(start).String(),
		}).Info("[HTTP] request")
	})
}
