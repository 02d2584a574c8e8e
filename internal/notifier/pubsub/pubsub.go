// Package pubsub forwards announcement batches to a message publisher.
package pubsub

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// Event is the name attached to every published batch.
const Event = "leagues.open"

// Publisher abstracts the message bus.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// Announcement is the published payload.
type Announcement struct {
	PublishedAt time.Time       `json:"published_at"`
	Lines       []string        `json:"lines"`
	Leagues     []league.League `json:"leagues"`
}

type nower interface {
	Now() time.Time
}

// Notifier publishes non-empty batches.
type Notifier struct {
	pub    Publisher
	clock  nower
	logger *zap.Logger
}

var _ league.Notifier = (*Notifier)(nil)

// New wraps pub.
func New(pub Publisher, clock nower, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{pub: pub, clock: clock, logger: logger.Named("pubsub")}
}

// Notify publishes one message holding every league. Empty batches are not
// published.
func (n *Notifier) Notify(ctx context.Context, leagues []league.League) error {
	if len(leagues) == 0 {
		return nil
	}
	lines := make([]string, 0, len(leagues))
	for _, l := range leagues {
		lines = append(lines, league.FormatLine(l))
	}
	msg := Announcement{
		PublishedAt: n.clock.Now().UTC(),
		Lines:       lines,
		Leagues:     leagues,
	}
	id, err := n.pub.Publish(ctx, Event, msg)
	if err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}
	n.logger.Debug("announcement published", zap.String("message_id", id), zap.Int("leagues", len(leagues)))
	return nil
}
