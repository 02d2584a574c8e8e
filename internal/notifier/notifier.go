// Package notifier fans league announcements out to delivery targets.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// Named pairs a notifier with a label for logs.
type Named struct {
	Name     string
	Notifier league.Notifier
}

// Multi delivers to every target. One failing target does not stop the rest.
type Multi struct {
	targets []Named
	logger  *zap.Logger
}

var _ league.Notifier = (*Multi)(nil)

// NewMulti builds a Multi over targets. Nil notifiers are skipped.
func NewMulti(logger *zap.Logger, targets ...Named) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Named, 0, len(targets))
	for _, t := range targets {
		if t.Notifier != nil {
			kept = append(kept, t)
		}
	}
	return &Multi{targets: kept, logger: logger.Named("notifier")}
}

// Len returns the number of targets.
func (m *Multi) Len() int { return len(m.targets) }

// Notify calls every target in order and joins their errors.
func (m *Multi) Notify(ctx context.Context, leagues []league.League) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Notifier.Notify(ctx, leagues); err != nil {
			m.logger.Warn("notifier failed", zap.String("target", t.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
