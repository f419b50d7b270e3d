// Package notify announces platform lifecycle events (market resolutions,
// platform resets) to operator channels. Every registered sender receives
// each announcement; senders can be filtered by event type so a channel
// only carries the events its operators subscribed to.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event identifies the kind of announcement being dispatched.
type Event string

const (
	EventMarketCreated  Event = "market_created"
	EventMarketResolved Event = "market_resolved"
	EventPlatformReset  Event = "platform_reset"
)

// Sender delivers one announcement to a single channel.
type Sender interface {
	// Send delivers an announcement with the given title and body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel (e.g. "discord").
	Name() string
}

// Notifier fans announcements out to all registered senders. When an allow
// list of events is configured, Announce drops events outside it; an empty
// allow list means every event passes.
type Notifier struct {
	senders []Sender
	allowed map[Event]bool
	logger  *slog.Logger
}

// New creates a Notifier delivering to the given senders, forwarding only
// the listed events (all events when the list is empty).
func New(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[Event]bool, len(events))
	for _, e := range events {
		allowed[Event(strings.TrimSpace(e))] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Announce dispatches an event announcement to every configured sender,
// subject to the event allow list. A failing sender does not block delivery
// to the others; failures are combined into the returned error.
func (n *Notifier) Announce(ctx context.Context, event Event, title, message string) error {
	if len(n.allowed) > 0 && !n.allowed[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", string(event)),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var failures []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "announcement sent",
			slog.String("sender", s.Name()),
			slog.String("event", string(event)),
		)
	}

	if len(failures) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}
