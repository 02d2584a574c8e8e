package league

import (
	"context"
	"time"
)

// Fetcher retrieves the raw all-leagues response body.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// ResultStore persists the filtered set of the previous poll.
type ResultStore interface {
	Load(ctx context.Context) ([]League, error)
	Save(ctx context.Context, leagues []League) error
}

// Notifier announces leagues to a delivery target.
type Notifier interface {
	Notify(ctx context.Context, leagues []League) error
}

// Clock returns the current time and sleeps (useful for testing).
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// IDGenerator produces cycle IDs.
type IDGenerator interface {
	NewID() (string, error)
}
