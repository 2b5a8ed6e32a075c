// Package wsclient is a client for the brokerage websocket streamer.
package wsclient

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"GammaExposure/internal/model"
)

const (
	readTimeout  = 30 * time.Second
	pingInterval = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// Streamer is one logged-in streamer connection. Next must be called from
// a single goroutine; the other methods may be called concurrently.
type Streamer struct {
	ws         *websocket.Conn
	principals *model.UserPrincipals
	account    string

	writeMu sync.Mutex
	nextID  int64

	closeOnce sync.Once
	stopPing  chan struct{}

	// set once a cancelled Next has cut the read short
	interrupted atomic.Bool
}

// Dial connects to the streamer advertised in principals and logs in.
func Dial(ctx context.Context, principals *model.UserPrincipals) (*Streamer, error) {
	return DialURL(ctx, principals.SocketURL(), principals)
}

// DialURL is Dial against an explicit websocket URL.
func DialURL(ctx context.Context, url string, principals *model.UserPrincipals) (*Streamer, error) {
	acct, err := principals.PrimaryAccount()
	if err != nil {
		return nil, err
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("[WS] dial %s: %w", url, err)
	}
	log.Infof("[WS] connected to %s", url)

	s := &Streamer{
		ws:         ws,
		principals: principals,
		account:    acct.AccountID,
		stopPing:   make(chan struct{}),
	}

	if err := s.login(ctx); err != nil {
		ws.Close()
		return nil, err
	}

	s.keepAlive()
	return s, nil
}

// keepAlive pings the server and extends the read deadline on every pong.
func (s *Streamer) keepAlive() {
	s.ws.SetReadDeadline(time.Now().Add(readTimeout))
	s.ws.SetPongHandler(func(string) error {
		if s.interrupted.Load() {
			return nil
		}
		return s.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopPing:
				return
			case <-ticker.C:
				if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					log.Warnf("[WS] ping error: %v", err)
					return
				}
			}
		}
	}()
}

func (s *Streamer) request(service, command string, params map[string]string) model.StreamRequest {
	id := atomic.AddInt64(&s.nextID, 1) - 1
	return model.StreamRequest{
		Service:    service,
		RequestID:  strconv.FormatInt(id, 10),
		Command:    command,
		Account:    s.account,
		Source:     s.principals.StreamerInfo.AppID,
		Parameters: params,
	}
}

func (s *Streamer) send(ctx context.Context, reqs ...model.StreamRequest) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.ws.SetWriteDeadline(deadline)
	return s.ws.WriteJSON(model.StreamRequests{Requests: reqs})
}

// Close logs out and closes the connection. It is safe to call more than once.
func (s *Streamer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopPing)
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if lerr := s.send(ctx, s.request("ADMIN", "LOGOUT", map[string]string{})); lerr != nil {
			log.Debugf("[WS] logout: %v", lerr)
		}
		err = s.ws.Close()
		log.Info("[WS] closed")
	})
	return err
}
