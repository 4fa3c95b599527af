package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/cache"
	"github.com/earnwise/earnwise-go/internal/config"
	"github.com/earnwise/earnwise-go/internal/datasource"
	"github.com/earnwise/earnwise-go/internal/models"
)

// ErrStaleRequest is returned when a fetch completes after a newer request
// for the same service has been issued. Callers discard the result and keep
// the newer one; in-flight work is never cancelled.
var ErrStaleRequest = errors.New("optimization request superseded by a newer one")

// DefaultConfidenceThreshold is the cut-off for FilterHighConfidence when the
// caller does not supply one. Matching is strictly greater-than.
var DefaultConfidenceThreshold = decimal.NewFromFloat(0.8)

// RecommendationQuery narrows and sizes a recommendation request. Zero
// values mean "no filtering" for Type/Platform/MinConfidence and "service
// default cap" for Limit. HighConfidence applies the service's configured
// threshold when no explicit MinConfidence is given.
type RecommendationQuery struct {
	Type           models.RecommendationType
	Platform       string
	MinConfidence  *decimal.Decimal
	HighConfidence bool
	Limit          int
}

func (q RecommendationQuery) cacheKey() string {
	minConf := ""
	if q.MinConfidence != nil {
		minConf = q.MinConfidence.String()
	} else if q.HighConfidence {
		minConf = "high"
	}
	return fmt.Sprintf("optimization:recs:%s:%s:%s:%d",
		q.Type, strings.ToLower(q.Platform), minConf, q.Limit)
}

// OptimizationService runs the recommendation pipeline: fetch, validate
// (inside the data source), filter, rank, limit. The data source is an
// injected dependency so tests substitute fakes without global state.
type OptimizationService struct {
	source        datasource.DataSource
	cache         *cache.QueryCache
	logger        *logrus.Logger
	maxRecs       int
	minConfidence decimal.Decimal
	fetchSeq      atomic.Uint64
}

// NewOptimizationService creates the pipeline service. The cache may be nil,
// in which case every query goes to the data source. The configured
// confidence threshold backs HighConfidence queries; an unset threshold
// falls back to DefaultConfidenceThreshold.
func NewOptimizationService(source datasource.DataSource, queryCache *cache.QueryCache, cfg *config.OptimizationConfig, logger *logrus.Logger) *OptimizationService {
	maxRecs := cfg.MaxRecommendations
	if maxRecs <= 0 {
		maxRecs = 20
	}
	minConfidence := DefaultConfidenceThreshold
	if cfg.ConfidenceThreshold > 0 {
		minConfidence = decimal.NewFromFloat(cfg.ConfidenceThreshold)
	}
	return &OptimizationService{
		source:        source,
		cache:         queryCache,
		logger:        logger,
		maxRecs:       maxRecs,
		minConfidence: minConfidence,
	}
}

// FilterByType keeps recommendations of the given type, preserving input
// order. Pure: the input slice is never mutated.
func FilterByType(recs []models.Recommendation, recType models.RecommendationType) []models.Recommendation {
	filtered := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Type == recType {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// FilterByPlatform keeps recommendations whose platform matches exactly but
// case-insensitively, preserving input order.
func FilterByPlatform(recs []models.Recommendation, platform string) []models.Recommendation {
	filtered := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if strings.EqualFold(rec.Platform, platform) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// FilterHighConfidence keeps recommendations with confidence strictly greater
// than the threshold, preserving input order.
func FilterHighConfidence(recs []models.Recommendation, threshold decimal.Decimal) []models.Recommendation {
	filtered := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Confidence.GreaterThan(threshold) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Rank sorts by confidence descending, breaking ties by estimated earnings
// descending. The sort is stable: elements equal on both keys keep their
// input order, so the output is deterministic. Returns a new slice.
func Rank(recs []models.Recommendation) []models.Recommendation {
	ranked := make([]models.Recommendation, len(recs))
	copy(ranked, recs)

	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Confidence.Cmp(ranked[j].Confidence); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].EstimatedEarnings.Cmp(ranked[j].EstimatedEarnings) > 0
	})
	return ranked
}

// Limit truncates to the first maxItems elements. A maxItems of zero or less
// is the identity. Limiting only makes sense on an already-ranked sequence;
// the orchestrator always ranks first.
func Limit(recs []models.Recommendation, maxItems int) []models.Recommendation {
	if maxItems <= 0 || maxItems >= len(recs) {
		return recs
	}
	return recs[:maxItems]
}

// GetRecommendations composes the full pipeline: cache lookup, fetch,
// optional type/platform/confidence filters, rank, limit. Any stage failure
// propagates typed to the caller; no stage swallows an earlier error.
func (s *OptimizationService) GetRecommendations(ctx context.Context, query RecommendationQuery) ([]models.Recommendation, error) {
	key := query.cacheKey()
	if s.cache != nil {
		var cached []models.Recommendation
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	token := s.fetchSeq.Add(1)

	dataset, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	// A newer request was issued while this fetch was in flight; its result
	// wins and this one is discarded.
	if s.fetchSeq.Load() != token {
		return nil, ErrStaleRequest
	}

	recs := dataset.Recommendations
	if query.Type != "" {
		recs = FilterByType(recs, query.Type)
	}
	if query.Platform != "" {
		recs = FilterByPlatform(recs, query.Platform)
	}
	if query.MinConfidence != nil {
		recs = FilterHighConfidence(recs, *query.MinConfidence)
	} else if query.HighConfidence {
		recs = FilterHighConfidence(recs, s.minConfidence)
	}

	recs = Rank(recs)

	limit := query.Limit
	if limit <= 0 {
		limit = s.maxRecs
	}
	recs = Limit(recs, limit)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recs); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to cache recommendations")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"type":     query.Type,
		"platform": query.Platform,
		"count":    len(recs),
	}).Debug("Served recommendations")

	return recs, nil
}

// GetSurgeData returns the full validated dataset. Validation failures
// surface as DataIntegrityError; a partially-populated dataset is never
// returned.
func (s *OptimizationService) GetSurgeData(ctx context.Context) (*models.OptimizationDataset, error) {
	return s.source.Fetch(ctx)
}

// GetSurgeZones returns surge zones, optionally narrowed to one platform
// (case-insensitive), in source order.
func (s *OptimizationService) GetSurgeZones(ctx context.Context, platform string) ([]models.SurgeZone, error) {
	key := "optimization:zones:" + strings.ToLower(platform)
	if s.cache != nil {
		var cached []models.SurgeZone
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	dataset, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	zones := dataset.SurgeZones
	if platform != "" {
		filtered := make([]models.SurgeZone, 0, len(zones))
		for _, zone := range zones {
			if strings.EqualFold(zone.Platform, platform) {
				filtered = append(filtered, zone)
			}
		}
		zones = filtered
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, zones); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to cache surge zones")
		}
	}

	return zones, nil
}
