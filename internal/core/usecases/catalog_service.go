package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abgtour/planttour/internal/core/domain"
	"github.com/abgtour/planttour/internal/core/ports"
	"github.com/abgtour/planttour/internal/pkg/logging"
	"github.com/abgtour/planttour/internal/pkg/metrics"
	"github.com/abgtour/planttour/internal/pkg/telemetry"
)

const catalogCacheKey = "catalog:csv"

// CatalogStatus describes the most recent successful parse.
type CatalogStatus struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	ParseStats
}

// CatalogService fetches the raw catalog through an optional cache and
// parses it. It is the only place the tour touches external catalog I/O.
type CatalogService struct {
	source     ports.CatalogSource
	cache      ports.CacheService
	layout     CSVLayout
	ttlSeconds int

	mu     sync.RWMutex
	status CatalogStatus
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(source ports.CatalogSource, cache ports.CacheService, layout CSVLayout, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		source:     source,
		cache:      cache,
		layout:     layout,
		ttlSeconds: int(cacheTTL / time.Second),
		status:     CatalogStatus{Source: source.Name()},
	}
}

// Load returns the raw catalog text. Source failures come back as
// *domain.FetchError; cache failures only cost a refetch.
func (s *CatalogService) Load(ctx context.Context) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCatalogLoad)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrCatalogSource, s.source.Name()))

	if s.cache != nil && s.ttlSeconds > 0 {
		if data, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
			metrics.CacheHits.WithLabelValues("catalog").Inc()
			span.SetAttributes(attribute.Bool(telemetry.AttrCatalogCached, true))
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("catalog").Inc()
	}

	start := time.Now()
	raw, err := s.source.Fetch(ctx)
	metrics.CatalogFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogFetchErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog fetch failed")

		var fe *domain.FetchError
		if errors.As(err, &fe) {
			return "", err
		}
		return "", &domain.FetchError{Source: s.source.Name(), Err: err}
	}

	if s.cache != nil && s.ttlSeconds > 0 {
		if err := s.cache.Set(ctx, catalogCacheKey, []byte(raw), s.ttlSeconds); err != nil {
			logging.FromContext(ctx).Warn("catalog cache set failed", "error", err)
		}
	}
	return raw, nil
}

// Records loads and parses the catalog.
func (s *CatalogService) Records(ctx context.Context) ([]domain.PlantRecord, error) {
	raw, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanCatalogParse)
	records, stats := ParseCatalogStats(raw, s.layout)
	span.End()

	metrics.CatalogRows.WithLabelValues("accepted").Add(float64(stats.Accepted))
	metrics.CatalogRows.WithLabelValues("dropped").Add(float64(stats.Dropped))

	s.mu.Lock()
	s.status.LoadedAt = time.Now()
	s.status.ParseStats = stats
	s.mu.Unlock()

	return records, nil
}

// Invalidate drops the cached catalog text so the next Load refetches.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, catalogCacheKey)
}

// Watch invalidates the cached catalog whenever sub reports an update.
func (s *CatalogService) Watch(ctx context.Context, sub ports.EventSubscriber) error {
	return sub.SubscribeCatalogUpdates(ctx, func(ctx context.Context, records int) error {
		logging.FromContext(ctx).Info("catalog updated, dropping cached copy", "records", records)
		return s.Invalidate(ctx)
	})
}

// Status returns the stats of the last successful parse.
func (s *CatalogService) Status() CatalogStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
