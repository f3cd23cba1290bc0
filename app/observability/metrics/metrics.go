package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationRequestsTotal metric.Int64Counter
	RecommendationDuration      metric.Float64Histogram
	TierAttemptsTotal           metric.Int64Counter
	TierFallbacksTotal          metric.Int64Counter
	GeoSearchAttempts           metric.Int64Histogram
	GeoQueryDurationSeconds     metric.Float64Histogram
	GeoQueryErrorsTotal         metric.Int64Counter
	ReasoningCallsTotal         metric.Int64Counter
	ReasoningRejectionsTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments once, using
// the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("poi-recommender")
		var err error
		m := &AppMetrics{}

		m.RecommendationRequestsTotal, err = meter.Int64Counter(
			"recommendation_requests_total",
			metric.WithDescription("Total number of recommendation requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_requests_total: %v", err)
		}

		m.RecommendationDuration, err = meter.Float64Histogram(
			"recommendation_duration_seconds",
			metric.WithDescription("Duration of recommendation requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_duration_seconds: %v", err)
		}

		m.TierAttemptsTotal, err = meter.Int64Counter(
			"tier_attempts_total",
			metric.WithDescription("Tier attempts, labelled by tier and outcome"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tier_attempts_total: %v", err)
		}

		m.TierFallbacksTotal, err = meter.Int64Counter(
			"tier_fallbacks_total",
			metric.WithDescription("Cascades from one tier to the next"),
			metric.WithUnit("{fallback}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tier_fallbacks_total: %v", err)
		}

		m.GeoSearchAttempts, err = meter.Int64Histogram(
			"geo_search_attempts",
			metric.WithDescription("Geo index attempts needed per retrieval, including the island-wide fallback"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geo_search_attempts: %v", err)
		}

		m.GeoQueryDurationSeconds, err = meter.Float64Histogram(
			"geo_query_duration_seconds",
			metric.WithDescription("Duration of geo index queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geo_query_duration_seconds: %v", err)
		}

		m.GeoQueryErrorsTotal, err = meter.Int64Counter(
			"geo_query_errors_total",
			metric.WithDescription("Total number of geo index query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geo_query_errors_total: %v", err)
		}

		m.ReasoningCallsTotal, err = meter.Int64Counter(
			"reasoning_calls_total",
			metric.WithDescription("Calls to the reasoning service, labelled by phase"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create reasoning_calls_total: %v", err)
		}

		m.ReasoningRejectionsTotal, err = meter.Int64Counter(
			"reasoning_rejections_total",
			metric.WithDescription("Reasoning service responses rejected by validation"),
			metric.WithUnit("{rejection}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create reasoning_rejections_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. InitAppMetrics
// must have been called at startup.
func Get() *AppMetrics {
	if appMetrics == nil {
		log.Fatal("Metrics: Get() called before InitAppMetrics()")
	}
	return appMetrics
}
