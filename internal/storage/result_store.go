package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// DefaultObjectName is where the previous poll's leagues are kept.
const DefaultObjectName = "previous_results.json"

// ResultStore keeps the previous poll as a pretty-printed JSON array in a
// BlobStore.
type ResultStore struct {
	blobs  BlobStore
	object string
	logger *zap.Logger
}

var _ league.ResultStore = (*ResultStore)(nil)

// NewResultStore builds a ResultStore writing to object inside blobs.
func NewResultStore(blobs BlobStore, object string, logger *zap.Logger) (*ResultStore, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if strings.TrimSpace(object) == "" {
		object = DefaultObjectName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultStore{blobs: blobs, object: object, logger: logger.Named("result_store")}, nil
}

// Load returns the stored leagues. A missing or unparsable object yields an
// empty slice so the next cycle treats every league as new.
func (s *ResultStore) Load(ctx context.Context) ([]league.League, error) {
	data, err := s.blobs.GetObject(ctx, s.object)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("no previous results", zap.String("object", s.object))
		return []league.League{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.object, err)
	}

	var out []league.League
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("previous results unreadable, starting fresh",
			zap.String("object", s.object),
			zap.Error(err),
		)
		return []league.League{}, nil
	}
	if out == nil {
		out = []league.League{}
	}
	return out, nil
}

// Save overwrites the stored object with leagues.
func (s *ResultStore) Save(ctx context.Context, leagues []league.League) error {
	if leagues == nil {
		leagues = []league.League{}
	}
	data, err := json.MarshalIndent(leagues, "", "    ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	uri, err := s.blobs.PutObject(ctx, s.object, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("save %s: %w", s.object, err)
	}
	s.logger.Debug("results saved", zap.String("uri", uri), zap.Int("leagues", len(leagues)))
	return nil
}
