package datasource

import (
	"context"
	_ "embed"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/models"
)

//go:embed fixture.json
var fixtureJSON []byte

// FixtureSource serves the bundled optimization fixture. The first fetch
// simulates network latency the way the live endpoint behaves; the decoded
// dataset is then memoized, so warm fetches return immediately.
type FixtureSource struct {
	raw     []byte
	latency time.Duration
	logger  *logrus.Logger

	mu     sync.Mutex
	cached *models.OptimizationDataset
}

// NewFixtureSource creates a data source backed by the embedded fixture.
func NewFixtureSource(latency time.Duration, logger *logrus.Logger) *FixtureSource {
	return NewFixtureSourceFromBytes(fixtureJSON, latency, logger)
}

// NewFixtureSourceFromBytes creates a fixture source over arbitrary payload
// bytes. Used by tests to inject malformed datasets.
func NewFixtureSourceFromBytes(raw []byte, latency time.Duration, logger *logrus.Logger) *FixtureSource {
	return &FixtureSource{
		raw:     raw,
		latency: latency,
		logger:  logger,
	}
}

// Fetch returns the fixture dataset. A cold fetch sleeps for the configured
// simulated latency (respecting context cancellation) before validating and
// decoding the payload. Validation failures surface as DataIntegrityError
// on every fetch; nothing is memoized for invalid payloads.
func (s *FixtureSource) Fetch(ctx context.Context) (*models.OptimizationDataset, error) {
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	dataset, err := DecodeDataset(s.raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = dataset
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"surge_zones":     len(dataset.SurgeZones),
		"recommendations": len(dataset.Recommendations),
		"last_updated":    dataset.LastUpdated,
	}).Debug("Loaded optimization fixture")

	return dataset, nil
}

// Reset drops the memoized dataset so the next fetch is cold again.
func (s *FixtureSource) Reset() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
