package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"GammaExposure/internal/model"
)

// Next blocks until the next decodable frame arrives. Frames that are not
// JSON are logged and skipped. Cancelling ctx interrupts a blocked read;
// the connection cannot be read from afterwards.
func (s *Streamer) Next(ctx context.Context) (*model.StreamMessage, error) {
	stop := context.AfterFunc(ctx, func() {
		s.interrupted.Store(true)
		s.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		deadline := time.Now().Add(readTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		s.ws.SetReadDeadline(deadline)

		// Checked after the deadline is set so a cancellation racing with
		// it is not lost.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, raw, err := s.ws.ReadMessage()
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			return nil, fmt.Errorf("[WS] read: %w", err)
		}

		var msg model.StreamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warnf("[WS] malformed message: %s", string(raw))
			continue
		}
		return &msg, nil
	}
}
