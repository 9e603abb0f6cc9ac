package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacnavial/tacnavial/internal/geocoding"
	"github.com/tacnavial/tacnavial/internal/metrics"
)

// WarmJob geocodes a fixed set of addresses so later lookups hit the cache.
type WarmJob struct {
	config   WarmConfig
	geocoder geocoding.Geocoder
	region   geocoding.Region
	logger   zerolog.Logger

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics.
type WarmMetrics struct {
	mu sync.RWMutex

	TotalRuns  int64
	Resolved   int64
	Unresolved int64
	Failed     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config   WarmConfig
	Geocoder geocoding.Geocoder // nil when the maps API key is missing
	Region   geocoding.Region
	Logger   zerolog.Logger
}

// NewWarmJob creates a new warm job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config.Targets = DefaultWarmTargets()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	region := cfg.Region
	if region.Code == "" && region.Bounds.IsZero() {
		region = geocoding.TacnaRegion
	}

	return &WarmJob{
		config:   config,
		geocoder: cfg.Geocoder,
		region:   region,
		logger:   cfg.Logger,
		metrics:  &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Total     int
	// Unresolved addresses returned no result; they are not failures.
	Resolved   int
	Unresolved int
	Failed     int
	Errors     []WarmError
}

// WarmError records a failed lookup.
type WarmError struct {
	Address string
	Error   string
}

// Run warms every configured address.
func (j *WarmJob) Run(ctx context.Context) *WarmResult {
	return j.Warm(ctx, j.config.AllAddresses())
}

// Warm geocodes the given addresses with the job's concurrency and timeout.
// Without a geocoder every address is skipped.
func (j *WarmJob) Warm(ctx context.Context, addresses []string) *WarmResult {
	startTime := time.Now()
	result := &WarmResult{
		StartTime: startTime,
		Total:     len(addresses),
	}

	if j.geocoder == nil {
		j.logger.Warn().Int("addresses", len(addresses)).Msg("geocoder not configured, skipping warm")
		result.EndTime = time.Now()
		return result
	}

	j.logger.Info().
		Int("addresses", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting geocode warm")

	work := make(chan string, len(addresses))
	results := make(chan lookupResult, len(addresses))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.lookupWorker(ctx, work, results)
		}()
	}

	for _, a := range addresses {
		work <- a
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for lr := range results {
		switch {
		case lr.err == nil:
			result.Resolved++
		case lr.unresolved:
			result.Unresolved++
		default:
			result.Failed++
			result.Errors = append(result.Errors, WarmError{Address: lr.address, Error: lr.err.Error()})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("resolved", result.Resolved).
		Int("unresolved", result.Unresolved).
		Int("failed", result.Failed).
		Msg("geocode warm completed")

	return result
}

type lookupResult struct {
	address    string
	unresolved bool
	err        error
}

func (j *WarmJob) lookupWorker(ctx context.Context, addresses <-chan string, results chan<- lookupResult) {
	for address := range addresses {
		select {
		case <-ctx.Done():
			results <- lookupResult{address: address, err: ctx.Err()}
		default:
			results <- j.lookup(ctx, address)
		}
	}
}

func (j *WarmJob) lookup(ctx context.Context, address string) lookupResult {
	lookupCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.geocoder.Geocode(lookupCtx, geocoding.Request{Address: address, Region: j.region})
	if err == nil {
		metrics.GeocodeRequests.WithLabelValues("warm", "ok").Inc()
		return lookupResult{address: address}
	}

	unresolved := errors.Is(err, geocoding.ErrNoResults) || errors.Is(err, geocoding.ErrInvalidAddress)
	if unresolved {
		metrics.GeocodeRequests.WithLabelValues("warm", "no_results").Inc()
		j.logger.Debug().Str("address", address).Msg("warm address did not resolve")
	} else {
		metrics.GeocodeRequests.WithLabelValues("warm", "error").Inc()
		j.logger.Warn().Err(err).Str("address", address).Msg("warm lookup failed")
	}
	return lookupResult{address: address, unresolved: unresolved, err: err}
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.Resolved += int64(result.Resolved)
	j.metrics.Unresolved += int64(result.Unresolved)
	j.metrics.Failed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		Resolved:        j.metrics.Resolved,
		Unresolved:      j.metrics.Unresolved,
		Failed:          j.metrics.Failed,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for the health endpoint.
func (j *WarmJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_runs":        m.TotalRuns,
		"resolved":          m.Resolved,
		"unresolved":        m.Unresolved,
		"failed":            m.Failed,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
