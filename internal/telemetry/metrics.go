package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
)

const (
	namespaceRoot = "relayer"
)

var (
	BestSourceNonceGauge      *Int64SyncGauge
	BestTargetNonceGauge      *Int64SyncGauge
	RaceFailuresCounter       api.Int64Counter
	QueuedHeadersGauge        *Int64SyncGauge
	SubmittedHeadersCounter   api.Int64Counter
	EquivocationReportCounter api.Int64Counter

	meter = otel.Meter(name)
)

func InitializeMetrics() error {
	var err error

	// create the instrument "relayer.race.best_source_nonce"
	name := fmt.Sprintf("%s.race.best_source_nonce", namespaceRoot)
	if BestSourceNonceGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("latest message nonce known to be sent at the source chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.race.best_target_nonce"
	name = fmt.Sprintf("%s.race.best_target_nonce", namespaceRoot)
	if BestTargetNonceGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("latest message nonce known to be received at the target chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.race.failures"
	name = fmt.Sprintf("%s.race.failures", namespaceRoot)
	if RaceFailuresCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of races terminated by a failed client"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.headers_sync.queued_headers"
	name = fmt.Sprintf("%s.headers_sync.queued_headers", namespaceRoot)
	if QueuedHeadersGauge, err = NewInt64SyncGauge(
		meter,
		name,
		api.WithUnit("1"),
		api.WithDescription("number of headers in the sync queue per status"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.headers_sync.submitted_headers"
	name = fmt.Sprintf("%s.headers_sync.submitted_headers", namespaceRoot)
	if SubmittedHeadersCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of headers submitted to the target chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	// create the instrument "relayer.equivocation.reports"
	name = fmt.Sprintf("%s.equivocation.reports", namespaceRoot)
	if EquivocationReportCounter, err = meter.Int64Counter(
		name,
		api.WithUnit("1"),
		api.WithDescription("number of equivocation reports submitted to the source chain"),
	); err != nil {
		return fmt.Errorf("failed to create the instrument %s: %v", name, err)
	}

	return nil
}

// The helpers below are no-ops until InitializeMetrics has been called.

func SetBestSourceNonce(race string, nonce uint64) {
	if BestSourceNonceGauge != nil {
		BestSourceNonceGauge.Set(int64(nonce), attribute.String("race", race))
	}
}

func SetBestTargetNonce(race string, nonce uint64) {
	if BestTargetNonceGauge != nil {
		BestTargetNonceGauge.Set(int64(nonce), attribute.String("race", race))
	}
}

func AddRaceFailure(ctx context.Context, race, failedClient string) {
	if RaceFailuresCounter != nil {
		RaceFailuresCounter.Add(ctx, 1, api.WithAttributes(
			attribute.String("race", race),
			attribute.String("failed_client", failedClient),
		))
	}
}

func SetQueuedHeaders(status string, count int) {
	if QueuedHeadersGauge != nil {
		QueuedHeadersGauge.Set(int64(count), attribute.String("status", status))
	}
}

func AddSubmittedHeaders(ctx context.Context, count int) {
	if SubmittedHeadersCounter != nil {
		SubmittedHeadersCounter.Add(ctx, int64(count))
	}
}

func AddEquivocationReport(ctx context.Context, sourceChainID string) {
	if EquivocationReportCounter != nil {
		EquivocationReportCounter.Add(ctx, 1, api.WithAttributes(
			attribute.String("source_chain_id", sourceChainID),
		))
	}
}

func NewPrometheusExporter(addr string) (*prometheus.Exporter, error) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger := log.GetLogger().WithModule("telemetry")
			logger.Fatal("Prometheus exporter server failed", err)
		}
	}()

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create the Prometheus Exporter: %v", err)
	}

	return exporter, nil
}
