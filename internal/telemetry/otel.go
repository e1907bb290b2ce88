package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const name = "github.com/hyperledger-labs/yui-bridge-relayer"

// exporter selection, cf. https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/
var (
	propagatorsEnv = envList{key: "OTEL_PROPAGATORS", fallback: "tracecontext,baggage"}
	tracesEnv      = envList{key: "OTEL_TRACES_EXPORTER", fallback: "otlp"}
	metricsEnv     = envList{key: "OTEL_METRICS_EXPORTER", fallback: "otlp"}
	logsEnv        = envList{key: "OTEL_LOGS_EXPORTER", fallback: "otlp"}

	prometheusHostEnv = envList{key: "OTEL_EXPORTER_PROMETHEUS_HOST", fallback: "localhost"}
	prometheusPortEnv = envList{key: "OTEL_EXPORTER_PROMETHEUS_PORT", fallback: "9464"}

	// relayer specific, OTEL does not define these
	consoleTracesWriterEnv  = envList{key: "OTEL_EXPORTER_CONSOLE_TRACES_WRITER", fallback: "stdout"}
	consoleMetricsWriterEnv = envList{key: "OTEL_EXPORTER_CONSOLE_METRICS_WRITER", fallback: "stdout"}
	consoleLogsWriterEnv    = envList{key: "OTEL_EXPORTER_CONSOLE_LOGS_WRITER", fallback: "stdout"}
)

// envList is an environment variable holding a comma separated list
type envList struct {
	key      string
	fallback string
}

func (e envList) value() string {
	if v := os.Getenv(e.key); v != "" {
		return v
	}
	return e.fallback
}

func (e envList) values() []string {
	return strings.Split(e.value(), ",")
}

func (e envList) unsupported(v string) error {
	return fmt.Errorf("unsupported value %q of %s=%q", v, e.key, os.Getenv(e.key))
}

func (e envList) writer() (io.Writer, error) {
	switch v := e.value(); v {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, e.unsupported(v)
	}
}

type setupOptions struct {
	prometheusAddr string
}

type Option func(*setupOptions)

// WithPrometheusAddr enables the Prometheus exporter at the address in addition to the
// exporters selected by OTEL_METRICS_EXPORTER
func WithPrometheusAddr(addr string) Option {
	return func(o *setupOptions) {
		o.prometheusAddr = addr
	}
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline from the OTEL_* environment variables.
// If it does not return an error, make sure to call shutdown for proper cleanup.
//
// An unknown exporter or propagator is an error rather than a warning.
func SetupOTelSDK(ctx context.Context, opts ...Option) (shutdown func(context.Context) error, err error) {
	var o setupOptions
	for _, opt := range opts {
		opt(&o)
	}

	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range slices.Backward(shutdownFuncs) {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	fail := func(inErr error) (func(context.Context) error, error) {
		return nil, errors.Join(inErr, shutdown(ctx))
	}

	prop, err := newPropagator()
	if err != nil {
		return fail(err)
	}
	otel.SetTextMapPropagator(prop)

	tp, err := newTracerProvider(ctx)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mp, err := newMeterProvider(ctx, o.prometheusAddr)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	otel.SetMeterProvider(mp)

	lp, err := newLoggerProvider(ctx)
	if err != nil {
		return fail(err)
	}
	shutdownFuncs = append(shutdownFuncs, lp.Shutdown)
	global.SetLoggerProvider(lp)

	return shutdown, nil
}

// SetupPrometheusMetrics exports the metrics at the address only, without tracing and logging
func SetupPrometheusMetrics(addr string) (shutdown func(context.Context) error, err error) {
	exp, err := NewPrometheusExporter(addr)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func newPropagator() (propagation.TextMapPropagator, error) {
	var propagators []propagation.TextMapPropagator
	for _, v := range propagatorsEnv.values() {
		switch v {
		case "tracecontext":
			propagators = append(propagators, propagation.TraceContext{})
		case "baggage":
			propagators = append(propagators, propagation.Baggage{})
		default:
			return nil, propagatorsEnv.unsupported(v)
		}
	}
	return propagation.NewCompositeTextMapPropagator(propagators...), nil
}

func newTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	var opts []sdktrace.TracerProviderOption
	for _, v := range tracesEnv.values() {
		var (
			exp sdktrace.SpanExporter
			err error
		)
		switch v {
		case "otlp":
			exp, err = otlptracegrpc.New(ctx)
		case "console":
			var w io.Writer
			if w, err = consoleTracesWriterEnv.writer(); err == nil {
				exp, err = stdouttrace.New(stdouttrace.WithWriter(w))
			}
		case "none":
			continue
		default:
			err = tracesEnv.unsupported(v)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, prometheusAddr string) (*sdkmetric.MeterProvider, error) {
	var opts []sdkmetric.Option
	for _, v := range metricsEnv.values() {
		var (
			reader sdkmetric.Reader
			err    error
		)
		switch v {
		case "otlp":
			var exp sdkmetric.Exporter
			if exp, err = otlpmetricgrpc.New(ctx); err == nil {
				reader = sdkmetric.NewPeriodicReader(exp)
			}
		case "console":
			var w io.Writer
			if w, err = consoleMetricsWriterEnv.writer(); err == nil {
				var exp sdkmetric.Exporter
				if exp, err = stdoutmetric.New(stdoutmetric.WithWriter(w)); err == nil {
					reader = sdkmetric.NewPeriodicReader(exp)
				}
			}
		case "prometheus":
			addr := prometheusAddr
			if addr == "" {
				addr = fmt.Sprintf("%s:%s", prometheusHostEnv.value(), prometheusPortEnv.value())
			}
			reader, err = NewPrometheusExporter(addr)
		case "none":
			continue
		default:
			err = metricsEnv.unsupported(v)
		}
		if err != nil {
			return nil, err
		}
		if reader != nil {
			opts = append(opts, sdkmetric.WithReader(reader))
		}
	}
	if prometheusAddr != "" && !slices.Contains(metricsEnv.values(), "prometheus") {
		exp, err := NewPrometheusExporter(prometheusAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(exp))
	}
	return sdkmetric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context) (*sdklog.LoggerProvider, error) {
	var opts []sdklog.LoggerProviderOption
	for _, v := range logsEnv.values() {
		var (
			exp sdklog.Exporter
			err error
		)
		switch v {
		case "otlp":
			exp, err = otlploggrpc.New(ctx)
		case "console":
			var w io.Writer
			if w, err = consoleLogsWriterEnv.writer(); err == nil {
				exp, err = stdoutlog.New(stdoutlog.WithWriter(w))
			}
		case "none":
			continue
		default:
			err = logsEnv.unsupported(v)
		}
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)))
	}
	return sdklog.NewLoggerProvider(opts...), nil
}
