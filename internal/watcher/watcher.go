// Package watcher runs one poll cycle: fetch, normalize, filter, detect,
// announce, and persist.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

var (
	// ErrFetch marks a cycle skipped because the league API was unreachable.
	ErrFetch = errors.New("fetch leagues")
	// ErrNormalize marks a cycle aborted by a malformed league record.
	ErrNormalize = errors.New("normalize leagues")
	// ErrStore marks a cycle that could not read or write previous results.
	ErrStore = errors.New("result store")
)

// Cycle statuses carried by Report.Status and passed to the Observer.
const (
	StatusSuccess     = "success"
	StatusFetchFailed = "fetch_failed"
	StatusInvalid     = "invalid"
	StatusStoreFailed = "store_failed"
)

// Config holds the cycle parameters.
type Config struct {
	SignupBaseURL string
	Criteria      league.Criteria
	// OpenStatus is the stored status that triggers a re-announcement.
	OpenStatus string
}

// Observer receives the outcome of every cycle.
type Observer interface {
	ObserveCycle(status string, matched, announced int, finished time.Time)
}

// Deps are the collaborators of a Watcher. Observer and IDs are optional.
type Deps struct {
	Fetcher  league.Fetcher
	Store    league.ResultStore
	Notifier league.Notifier
	Clock    league.Clock
	IDs      league.IDGenerator
	Observer Observer
}

// Report summarizes one cycle.
type Report struct {
	CycleID    string          `json:"cycle_id"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Fetched    int             `json:"fetched"`
	Matched    int             `json:"matched"`
	Announced  []league.League `json:"announced"`
	Error      string          `json:"error,omitempty"`

	// Filtered is the set that was persisted.
	Filtered []league.League `json:"-"`
}

// Watcher runs cycles. RunCycle is safe for concurrent use; calls are
// serialized.
type Watcher struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger

	cycleMu sync.Mutex

	lastMu sync.RWMutex
	last   *Report
}

// New validates deps and builds a Watcher.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Watcher, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("fetcher is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("result store is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case deps.Clock == nil:
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{deps: deps, cfg: cfg, logger: logger.Named("watcher")}, nil
}

// Last returns the report of the most recent cycle.
func (w *Watcher) Last() (Report, bool) {
	w.lastMu.RLock()
	defer w.lastMu.RUnlock()
	if w.last == nil {
		return Report{}, false
	}
	return *w.last, true
}

// RunCycle performs one full cycle and returns its report. Fetch, normalize,
// and load failures leave both the notifier and the store untouched. Notifier
// failures are logged and do not fail the cycle.
func (w *Watcher) RunCycle(ctx context.Context) (Report, error) {
	w.cycleMu.Lock()
	defer w.cycleMu.Unlock()

	start := w.deps.Clock.Now()
	rep := Report{CycleID: w.cycleID(start), StartedAt: start, Announced: []league.League{}}
	log := w.logger.With(zap.String("cycle_id", rep.CycleID))
	log.Info("cycle started")

	err := w.run(ctx, log, &rep)

	finished := w.deps.Clock.Now()
	rep.DurationMS = finished.Sub(start).Milliseconds()
	rep.Status = statusOf(err)
	if err != nil {
		rep.Error = err.Error()
		log.Error("cycle failed", zap.String("status", rep.Status), zap.Error(err))
	} else {
		log.Info("cycle complete",
			zap.Int("fetched", rep.Fetched),
			zap.Int("matched", rep.Matched),
			zap.Int("announced", len(rep.Announced)),
		)
	}
	if w.deps.Observer != nil {
		w.deps.Observer.ObserveCycle(rep.Status, rep.Matched, len(rep.Announced), finished)
	}

	w.lastMu.Lock()
	saved := rep
	w.last = &saved
	w.lastMu.Unlock()
	return rep, err
}

func (w *Watcher) run(ctx context.Context, log *zap.Logger, rep *Report) error {
	body, err := w.deps.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	all, err := league.Normalize(body, w.cfg.SignupBaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNormalize, err)
	}
	rep.Fetched = len(all)

	matched := league.Filter(all, w.cfg.Criteria)
	rep.Matched = len(matched)
	rep.Filtered = matched
	log.Debug("leagues filtered",
		zap.String("play_level", w.cfg.Criteria.PlayLevel),
		zap.String("day", w.cfg.Criteria.Day),
		zap.Int("matched", len(matched)),
	)

	previous, err := w.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}

	announce := league.Detect(matched, previous, w.cfg.OpenStatus)
	if err := w.deps.Notifier.Notify(ctx, announce); err != nil {
		log.Warn("announcement delivery incomplete", zap.Error(err))
	}
	rep.Announced = announce

	if err := w.deps.Store.Save(ctx, matched); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

func (w *Watcher) cycleID(start time.Time) string {
	if w.deps.IDs != nil {
		id, err := w.deps.IDs.NewID()
		if err == nil {
			return id
		}
		w.logger.Warn("cycle id generation failed", zap.Error(err))
	}
	return start.UTC().Format(time.RFC3339Nano)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrFetch):
		return StatusFetchFailed
	case errors.Is(err, ErrNormalize):
		return StatusInvalid
	default:
		return StatusStoreFailed
	}
}
