package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded by the scheduler and dispatcher
type Metrics struct {
	PollPasses          metric.Int64Counter
	PassDuration        metric.Float64Histogram
	RemindersDispatched metric.Int64Counter
	DispatchFailures    metric.Int64Counter
	CredentialRefreshes metric.Int64Counter
}

// NewMetrics registers the service instruments on the given provider
func NewMetrics(mp *sdkmetric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("assistant-backend")

	pollPasses, err := meter.Int64Counter("scheduler_poll_passes_total",
		metric.WithDescription("Completed reminder poll passes"))
	if err != nil {
		return nil, fmt.Errorf("failed to create poll pass counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram("scheduler_pass_duration_seconds",
		metric.WithDescription("Duration of one full poll pass"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pass duration histogram: %w", err)
	}

	dispatched, err := meter.Int64Counter("reminders_dispatched_total",
		metric.WithDescription("Reminders successfully delivered, by channel"))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch counter: %w", err)
	}

	failures, err := meter.Int64Counter("reminder_dispatch_failures_total",
		metric.WithDescription("Reminder dispatch attempts that gave up for the pass"))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch failure counter: %w", err)
	}

	refreshes, err := meter.Int64Counter("credential_refreshes_total",
		metric.WithDescription("OAuth token refreshes, by provider and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh counter: %w", err)
	}

	return &Metrics{
		PollPasses:          pollPasses,
		PassDuration:        passDuration,
		RemindersDispatched: dispatched,
		DispatchFailures:    failures,
		CredentialRefreshes: refreshes,
	}, nil
}

// RecordDispatch counts one delivered reminder on the given channel
func (m *Metrics) RecordDispatch(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.RemindersDispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordDispatchFailure counts one reminder deferred to the next pass
func (m *Metrics) RecordDispatchFailure(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.DispatchFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordRefresh counts one token refresh attempt outcome
func (m *Metrics) RecordRefresh(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.CredentialRefreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordPass counts one completed poll pass and its duration
func (m *Metrics) RecordPass(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.PollPasses.Add(ctx, 1)
	m.PassDuration.Record(ctx, seconds)
}

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}
