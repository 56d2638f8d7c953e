package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/log"
)

// Calculator is the recomputation contract the sync engine drives. A
// failure from any method participates in the engine's per-event retry.
type Calculator interface {
	// RecomputeScopeAggregate recomputes the capacity aggregate for
	// one scope (team) and refreshes its cache entry
	RecomputeScopeAggregate(ctx context.Context, scopeID string) error

	// RecomputeGlobalTotals recomputes the company-wide totals and
	// refreshes the global summary cache entry
	RecomputeGlobalTotals(ctx context.Context) error

	// WarmupCaches repopulates the critical cache entries after a
	// full clear
	WarmupCaches(ctx context.Context) error
}

// AggregateSource supplies the raw numbers aggregates are computed
// from. In production this is backed by the persistent store; tests
// use StaticSource.
type AggregateSource interface {
	ListScopes(ctx context.Context) ([]string, error)
	ScopeCapacity(ctx context.Context, scopeID string) (float64, error)
}

// ScopeAggregate is the cached result of one scope recomputation
type ScopeAggregate struct {
	ScopeID    string    `json:"scopeId"`
	Capacity   float64   `json:"capacity"`
	ComputedAt time.Time `json:"computedAt"`
}

// GlobalTotals is the cached company-wide summary
type GlobalTotals struct {
	TotalCapacity float64   `json:"totalCapacity"`
	ScopeCount    int       `json:"scopeCount"`
	ComputedAt    time.Time `json:"computedAt"`
}

// Service computes aggregates from an AggregateSource and writes the
// results into the cache store
type Service struct {
	source AggregateSource
	cache  cache.Cache
}

// NewService creates a calculation service over the given source and
// cache store
func NewService(source AggregateSource, c cache.Cache) *Service {
	return &Service{source: source, cache: c}
}

// RecomputeScopeAggregate recomputes one scope's capacity and caches it
func (s *Service) RecomputeScopeAggregate(ctx context.Context, scopeID string) error {
	capacity, err := s.source.ScopeCapacity(ctx, scopeID)
	if err != nil {
		return fmt.Errorf("failed to compute capacity for scope %s: %w", scopeID, err)
	}

	agg := ScopeAggregate{
		ScopeID:    scopeID,
		Capacity:   capacity,
		ComputedAt: time.Now(),
	}
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal scope aggregate: %w", err)
	}
	return s.cache.Put(ctx, cache.NamespaceTeamAggregates, scopeID, data)
}

// RecomputeGlobalTotals sums every scope's capacity and caches the
// company-wide summary
func (s *Service) RecomputeGlobalTotals(ctx context.Context) error {
	totals, err := s.ComputeGlobalTotals(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("failed to marshal global totals: %w", err)
	}
	return s.cache.Put(ctx, cache.NamespaceSummary, cache.KeyGlobalSummary, data)
}

// ComputeGlobalTotals computes the company-wide summary without
// touching the cache. The engine's consistency check uses this as the
// independent second path.
func (s *Service) ComputeGlobalTotals(ctx context.Context) (GlobalTotals, error) {
	scopes, err := s.source.ListScopes(ctx)
	if err != nil {
		return GlobalTotals{}, fmt.Errorf("failed to list scopes: %w", err)
	}

	var total float64
	for _, scopeID := range scopes {
		capacity, err := s.source.ScopeCapacity(ctx, scopeID)
		if err != nil {
			return GlobalTotals{}, fmt.Errorf("failed to compute capacity for scope %s: %w", scopeID, err)
		}
		total += capacity
	}

	return GlobalTotals{
		TotalCapacity: total,
		ScopeCount:    len(scopes),
		ComputedAt:    time.Now(),
	}, nil
}

// WarmupCaches recomputes every scope aggregate plus the global totals
func (s *Service) WarmupCaches(ctx context.Context) error {
	scopes, err := s.source.ListScopes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scopes for warmup: %w", err)
	}

	logger := log.WithComponent("calc")
	for _, scopeID := range scopes {
		if err := s.RecomputeScopeAggregate(ctx, scopeID); err != nil {
			logger.Warn().Err(err).Str("scope_id", scopeID).Msg("warmup skipped scope")
			continue
		}
	}

	return s.RecomputeGlobalTotals(ctx)
}

// CachedGlobalTotals reads the cached company-wide summary. The bool
// reports whether the summary was present.
func (s *Service) CachedGlobalTotals(ctx context.Context) (GlobalTotals, bool, error) {
	data, found, err := s.cache.Get(ctx, cache.NamespaceSummary, cache.KeyGlobalSummary)
	if err != nil || !found {
		return GlobalTotals{}, false, err
	}
	var totals GlobalTotals
	if err := json.Unmarshal(data, &totals); err != nil {
		return GlobalTotals{}, false, fmt.Errorf("failed to decode cached totals: %w", err)
	}
	return totals, true, nil
}

// StaticSource is an in-memory AggregateSource for tests and the
// single-binary demo mode
type StaticSource struct {
	mu         sync.RWMutex
	capacities map[string]float64
}

// NewStaticSource creates a StaticSource with the given scope
// capacities
func NewStaticSource(capacities map[string]float64) *StaticSource {
	m := make(map[string]float64, len(capacities))
	for k, v := range capacities {
		m[k] = v
	}
	return &StaticSource{capacities: m}
}

// SetCapacity sets one scope's capacity
func (s *StaticSource) SetCapacity(scopeID string, capacity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities[scopeID] = capacity
}

// ListScopes returns all known scope IDs
func (s *StaticSource) ListScopes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scopes := make([]string, 0, len(s.capacities))
	for scopeID := range s.capacities {
		scopes = append(scopes, scopeID)
	}
	return scopes, nil
}

// ScopeCapacity returns one scope's capacity. Unknown scopes compute
// as zero rather than failing, matching how an empty team reads.
func (s *StaticSource) ScopeCapacity(ctx context.Context, scopeID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacities[scopeID], nil
}
