package notify

import (
	"context"
	"fmt"
	"html"
	"time"
)

// GammaUnavailable formats the alert sent when dollar gamma could not be
// computed for symbol.
func GammaUnavailable(symbol string, err error, at time.Time) string {
	return fmt.Sprintf(
		"<b>[GAMMA] unavailable</b>\nsymbol=%s\ntime=%s\nerror=<code>%s</code>",
		html.EscapeString(symbol),
		at.UTC().Format(time.RFC3339),
		html.EscapeString(err.Error()),
	)
}

// Discard drops every message. It stands in when no notifier is configured.
type Discard struct{}

func (Discard) Send(context.Context, string) error { return nil }
