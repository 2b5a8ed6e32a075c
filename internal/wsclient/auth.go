package wsclient

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// login sends ADMIN/LOGIN and waits for its response.
func (s *Streamer) login(ctx context.Context) error {
	creds, err := s.principals.Credentials()
	if err != nil {
		return err
	}

	req := s.request("ADMIN", "LOGIN", map[string]string{
		"credential": creds.Encode(),
		"token":      s.principals.StreamerInfo.Token,
		"version":    "1.0",
	})

	log.Infof("[WS] sending login request (account=%s)", s.account)
	if err := s.send(ctx, req); err != nil {
		return fmt.Errorf("[WS] login request: %w", err)
	}
	return s.waitForResponse(ctx, req.Service, req.Command)
}

// waitForResponse reads frames until the response to service/command
// arrives. Frames received before it are dropped.
func (s *Streamer) waitForResponse(ctx context.Context, service, command string) error {
	for {
		msg, err := s.Next(ctx)
		if err != nil {
			return err
		}
		for _, r := range msg.Response {
			if r.Service != service || r.Command != command {
				continue
			}
			if r.Content.Code != 0 {
				return fmt.Errorf("[WS] %s/%s failed: code %d: %s", service, command, r.Content.Code, r.Content.Msg)
			}
			log.Infof("[WS] %s/%s succeeded", service, command)
			return nil
		}
	}
}
