package wsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Subscribe sends SUBS for symbols on service. The response arrives on
// Next like any other frame.
func (s *Streamer) Subscribe(ctx context.Context, service string, symbols []string, fields []int) error {
	fs := make([]string, len(fields))
	for i, f := range fields {
		fs[i] = strconv.Itoa(f)
	}

	req := s.request(service, "SUBS", map[string]string{
		"keys":   strings.Join(symbols, ","),
		"fields": strings.Join(fs, ","),
	})
	if err := s.send(ctx, req); err != nil {
		return fmt.Errorf("[WS] subscribe %s: %w", service, err)
	}
	log.Infof("[WS] subscribed %s to %d symbols", service, len(symbols))
	return nil
}

// Unsubscribe sends UNSUBS for every symbol on service.
func (s *Streamer) Unsubscribe(ctx context.Context, service string) error {
	req := s.request(service, "UNSUBS", map[string]string{})
	if err := s.send(ctx, req); err != nil {
		return fmt.Errorf("[WS] unsubscribe %s: %w", service, err)
	}
	log.Infof("[WS] unsubscribed %s", service)
	return nil
}
