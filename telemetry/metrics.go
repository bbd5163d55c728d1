// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsHandled       *prometheus.CounterVec
	CategoryLookups       prometheus.Counter
	CategoryLookupsFailed prometheus.Counter
	WarningLookups        prometheus.Counter
	WarningLookupsFailed  prometheus.Counter
	CacheHits             *prometheus.CounterVec
	CacheMisses           *prometheus.CounterVec
	RateLimitWarnings     prometheus.Counter

	// Histograms (seconds)
	CategoryLookupDuration prometheus.Observer
	WarningLookupDuration  prometheus.Observer

	// Gauges
	JoinedChannelsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cwbot_commands_handled_total", Help: "Chat commands handled, by command"}, []string{"command"})
		CategoryLookups = promauto.NewCounter(prometheus.CounterOpts{Name: "cwbot_category_lookups_total", Help: "Channel category lookups performed"})
		CategoryLookupsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "cwbot_category_lookups_failed_total", Help: "Channel category lookups that failed"})
		WarningLookups = promauto.NewCounter(prometheus.CounterOpts{Name: "cwbot_warning_lookups_total", Help: "Content-warning lookups performed"})
		WarningLookupsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "cwbot_warning_lookups_failed_total", Help: "Content-warning lookups that failed"})
		CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cwbot_cache_hits_total", Help: "TTL cache hits, by cache"}, []string{"cache"})
		CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{Name: "cwbot_cache_misses_total", Help: "TTL cache misses, by cache"}, []string{"cache"})
		RateLimitWarnings = promauto.NewCounter(prometheus.CounterOpts{Name: "cwbot_rate_limit_warnings_total", Help: "Times the Twitch rate-limit budget dropped below the warning threshold"})
		CategoryLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "cwbot_category_lookup_duration_seconds", Help: "Channel category lookup duration seconds", Buckets: prometheus.DefBuckets})
		WarningLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "cwbot_warning_lookup_duration_seconds", Help: "Content-warning lookup duration seconds", Buckets: prometheus.DefBuckets})
		JoinedChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "cwbot_joined_channels", Help: "Current number of joined chat channels"})
	})
}

// CountCommand increments the per-command counter if metrics are initialized.
func CountCommand(name string) {
	if CommandsHandled != nil {
		CommandsHandled.WithLabelValues(name).Inc()
	}
}

// CountCacheHit records a hit for the named cache.
func CountCacheHit(cacheName string) {
	if CacheHits != nil {
		CacheHits.WithLabelValues(cacheName).Inc()
	}
}

// CountCacheMiss records a miss for the named cache.
func CountCacheMiss(cacheName string) {
	if CacheMisses != nil {
		CacheMisses.WithLabelValues(cacheName).Inc()
	}
}

// CountRateLimitWarning increments the rate-limit proximity counter.
func CountRateLimitWarning() {
	if RateLimitWarnings != nil {
		RateLimitWarnings.Inc()
	}
}

// SetJoinedChannels records the current joined-channel count.
func SetJoinedChannels(n int) {
	if JoinedChannelsGauge != nil {
		JoinedChannelsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
