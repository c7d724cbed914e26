package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// Eligibility errors. ErrBudgetExceeded stays its own sentinel so operators
// can tell spend problems apart from throughput problems.
var (
	ErrProviderUnavailable  = errors.New("no eligible provider")
	ErrProviderNotFound     = errors.New("provider not found")
	ErrProviderDisabled     = errors.New("provider disabled")
	ErrRateLimited          = errors.New("provider rate limit reached")
	ErrConcurrencyLimit     = errors.New("provider concurrency limit reached")
	ErrBudgetExceeded       = errors.New("provider monthly budget exceeded")
	ErrProviderUnhealthy    = errors.New("provider unhealthy")
	ErrProviderTypeMismatch = errors.New("provider type mismatch")
)

// defaultFailureThreshold is how many consecutive failed requests mark a
// provider unhealthy until a connection test clears it.
const defaultFailureThreshold = 3

// Alerter receives operator notifications from the selector. Optional; a nil
// alerter disables notifications.
type Alerter interface {
	ProviderUnhealthy(provider string, consecutiveFailures int)
	BudgetExceeded(provider string, currentUsage, monthlyBudget float64)
}

// SelectedProvider is the outcome of a successful selection.
type SelectedProvider struct {
	Provider     *models.APIProvider
	UsedFallback bool
}

// ProviderRuntimeStatus is a point-in-time snapshot of a provider's
// load-balancing state, for the admin status endpoint.
type ProviderRuntimeStatus struct {
	ProviderID          int64     `json:"provider_id"`
	CurrentLoad         int       `json:"current_load"`
	MinuteCount         int       `json:"minute_count"`
	HourCount           int       `json:"hour_count"`
	IsHealthy           bool      `json:"is_healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastHealthCheck     time.Time `json:"last_health_check"`
}

// providerState is the per-provider runtime counter set. Every read or write
// happens under mu: the per-provider lock is the single-writer boundary that
// keeps concurrent requests from losing counter updates.
type providerState struct {
	mu sync.Mutex

	currentLoad int

	minuteBucket time.Time
	minuteCount  int
	hourBucket   time.Time
	hourCount    int

	isHealthy           bool
	consecutiveFailures int
	lastHealthCheck     time.Time
}

// ProviderSelector decides which provider instance serves a request,
// honouring rate limits, concurrency caps, budget and health, and records
// usage back onto the provider record.
type ProviderSelector struct {
	providers        repository.ProviderRepository
	logger           *zap.Logger
	alerter          Alerter
	failureThreshold int

	mu     sync.Mutex
	states map[int64]*providerState

	now       func() time.Time
	randFloat func() float64
}

func NewProviderSelector(providers repository.ProviderRepository, alerter Alerter, logger *zap.Logger) *ProviderSelector {
	return &ProviderSelector{
		providers:        providers,
		logger:           logger,
		alerter:          alerter,
		failureThreshold: defaultFailureThreshold,
		states:           make(map[int64]*providerState),
		now:              time.Now,
		randFloat:        rand.Float64,
	}
}

// state returns the runtime state for a provider, creating it healthy on
// first access.
func (s *ProviderSelector) state(providerID int64) *providerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[providerID]
	if !ok {
		st = &providerState{isHealthy: true}
		s.states[providerID] = st
	}
	return st
}

// Select tries the rule's primary provider, then the fallback, returning the
// first candidate that passes every eligibility check. The returned provider
// has an in-flight slot acquired; the caller must finish with RecordUsage (or
// Release if the request was never issued). When neither candidate is
// eligible the combined reasons are wrapped in ErrProviderUnavailable.
func (s *ProviderSelector) Select(primaryID, fallbackID *int64, requiredType models.ProviderType, estimatedCost float64) (*SelectedProvider, error) {
	reasons := []error{ErrProviderUnavailable}

	for i, id := range []*int64{primaryID, fallbackID} {
		if id == nil {
			continue
		}

		provider, err := s.providers.GetByID(*id)
		if err != nil {
			return nil, fmt.Errorf("load provider %d: %w", *id, err)
		}
		if provider == nil {
			reasons = append(reasons, fmt.Errorf("provider %d: %w", *id, ErrProviderNotFound))
			continue
		}

		if err := s.tryAcquire(provider, requiredType, estimatedCost); err != nil {
			s.logger.Warn("Provider not eligible",
				zap.String("provider", provider.Name),
				zap.Bool("fallback", i == 1),
				zap.Error(err))
			reasons = append(reasons, fmt.Errorf("provider %s: %w", provider.Name, err))
			continue
		}

		return &SelectedProvider{Provider: provider, UsedFallback: i == 1}, nil
	}

	return nil, errors.Join(reasons...)
}

// SelectByType picks among all enabled providers of a type when a rule binds
// no specific provider. The choice between eligible candidates is weighted
// random, proportional to each provider's weight.
func (s *ProviderSelector) SelectByType(requiredType models.ProviderType, estimatedCost float64) (*SelectedProvider, error) {
	candidates, err := s.providers.GetEnabledByType(requiredType)
	if err != nil {
		return nil, fmt.Errorf("load providers: %w", err)
	}

	reasons := []error{ErrProviderUnavailable}

	remaining := make([]*models.APIProvider, 0, len(candidates))
	for i := range candidates {
		remaining = append(remaining, &candidates[i])
	}

	for len(remaining) > 0 {
		idx := s.weightedPick(remaining)
		provider := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		if err := s.tryAcquire(provider, requiredType, estimatedCost); err != nil {
			reasons = append(reasons, fmt.Errorf("provider %s: %w", provider.Name, err))
			continue
		}
		return &SelectedProvider{Provider: provider}, nil
	}

	return nil, errors.Join(reasons...)
}

// weightedPick returns an index into providers chosen with probability
// proportional to weight. Non-positive weights count as 1.
func (s *ProviderSelector) weightedPick(providers []*models.APIProvider) int {
	total := 0
	for _, p := range providers {
		total += normalizeWeight(p.Weight)
	}

	target := s.randFloat() * float64(total)
	cumulative := 0.0
	for i, p := range providers {
		cumulative += float64(normalizeWeight(p.Weight))
		if target < cumulative {
			return i
		}
	}
	return len(providers) - 1
}

func normalizeWeight(w int) int {
	if w <= 0 {
		return 1
	}
	return w
}

// tryAcquire runs the eligibility checks and, when all pass, takes an
// in-flight slot and counts the request against both rate windows. Checks
// run in a fixed order so the returned reason is stable: enabled, rate
// windows, concurrency, budget, health.
func (s *ProviderSelector) tryAcquire(provider *models.APIProvider, requiredType models.ProviderType, estimatedCost float64) error {
	if provider.ProviderType != requiredType {
		return ErrProviderTypeMismatch
	}

	st := s.state(provider.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !provider.IsEnabled {
		return ErrProviderDisabled
	}

	now := s.now()
	st.refreshWindows(now)

	if provider.MaxRequestsPerMinute > 0 && st.minuteCount >= provider.MaxRequestsPerMinute {
		return ErrRateLimited
	}
	if provider.MaxRequestsPerHour > 0 && st.hourCount >= provider.MaxRequestsPerHour {
		return ErrRateLimited
	}

	if provider.MaxConcurrentRequests > 0 && st.currentLoad >= provider.MaxConcurrentRequests {
		return ErrConcurrencyLimit
	}

	if !provider.IsWithinBudget(estimatedCost) {
		if s.alerter != nil {
			s.alerter.BudgetExceeded(provider.Name, provider.CurrentUsage, provider.MonthlyBudget)
		}
		return ErrBudgetExceeded
	}

	if !st.isHealthy {
		return ErrProviderUnhealthy
	}

	st.currentLoad++
	st.minuteCount++
	st.hourCount++
	return nil
}

// refreshWindows lazily resets the rate counters when the wall clock has
// moved into a new minute or hour bucket. Buckets are fixed wall-clock
// windows, not sliding ones.
func (st *providerState) refreshWindows(now time.Time) {
	minute := now.Truncate(time.Minute)
	if !minute.Equal(st.minuteBucket) {
		st.minuteBucket = minute
		st.minuteCount = 0
	}

	hour := now.Truncate(time.Hour)
	if !hour.Equal(st.hourBucket) {
		st.hourBucket = hour
		st.hourCount = 0
	}
}

// Release frees an in-flight slot without recording usage. For requests
// that were selected but never issued; a request that completed goes through
// RecordUsage instead.
func (s *ProviderSelector) Release(providerID int64) {
	st := s.state(providerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.currentLoad > 0 {
		st.currentLoad--
	}
}

// RecordUsage folds one completed request into the provider's counters and
// frees its in-flight slot. The whole read-modify-write runs under the
// provider's lock, so concurrent reporters cannot lose increments.
func (s *ProviderSelector) RecordUsage(providerID int64, tokensUsed int64, cost float64, success bool, responseTime float64) error {
	st := s.state(providerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	provider, err := s.providers.GetByID(providerID)
	if err != nil {
		return fmt.Errorf("load provider %d: %w", providerID, err)
	}
	if provider == nil {
		return fmt.Errorf("provider %d: %w", providerID, ErrProviderNotFound)
	}

	provider.UpdateUsage(tokensUsed, cost, success, responseTime)

	if st.currentLoad > 0 {
		st.currentLoad--
	}

	if success {
		st.consecutiveFailures = 0
	} else {
		st.consecutiveFailures++
		if st.isHealthy && st.consecutiveFailures >= s.failureThreshold {
			st.isHealthy = false
			s.logger.Warn("Provider marked unhealthy",
				zap.String("provider", provider.Name),
				zap.Int("consecutive_failures", st.consecutiveFailures))
			if s.alerter != nil {
				s.alerter.ProviderUnhealthy(provider.Name, st.consecutiveFailures)
			}
		}
	}

	if err := s.providers.UpdateUsageStats(provider); err != nil {
		return fmt.Errorf("persist usage stats for provider %d: %w", providerID, err)
	}
	return nil
}

// SetHealth overrides a provider's health flag. The connection tester calls
// this after an admin-triggered check; a passing check clears the failure
// streak.
func (s *ProviderSelector) SetHealth(providerID int64, healthy bool) {
	st := s.state(providerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.isHealthy = healthy
	st.lastHealthCheck = s.now()
	if healthy {
		st.consecutiveFailures = 0
	}
}

// Status returns a snapshot of the provider's runtime counters.
func (s *ProviderSelector) Status(providerID int64) ProviderRuntimeStatus {
	st := s.state(providerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.refreshWindows(s.now())

	return ProviderRuntimeStatus{
		ProviderID:          providerID,
		CurrentLoad:         st.currentLoad,
		MinuteCount:         st.minuteCount,
		HourCount:           st.hourCount,
		IsHealthy:           st.isHealthy,
		ConsecutiveFailures: st.consecutiveFailures,
		LastHealthCheck:     st.lastHealthCheck,
	}
}
