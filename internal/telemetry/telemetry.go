// Package telemetry wires logging, tracing, and metrics for the query
// execution core. Logging mirrors the teacher's daemonLogger idiom
// (slog.New(slog.NewTextHandler(...)), with NewJSONLogger as a JSON-handler
// variant); tracing and metrics are plain
// OpenTelemetry, exporting to the OTLP collector named by
// OTEL_EXPORTER_OTLP_ENDPOINT when set, and to stdout otherwise so a
// developer running qxenginectl locally still sees something.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Logger wraps *slog.Logger the way the teacher's daemonLogger does,
// re-leveling at runtime when internal/sysparam's er_log_debug flips.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewLogger builds a text-format Logger writing to w, starting at Info
// level (or Debug when debug is true).
func NewLogger(w io.Writer, debug bool) *Logger {
	lv := &slog.LevelVar{}
	if debug {
		lv.Set(slog.LevelDebug)
	}
	return &Logger{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})),
		level:  lv,
	}
}

// NewJSONLogger builds a JSON-format Logger writing to w, with the same
// level handling as NewLogger. Nothing in the module picks it from a
// session's trace format.
func NewJSONLogger(w io.Writer, debug bool) *Logger {
	lv := &slog.LevelVar{}
	if debug {
		lv.Set(slog.LevelDebug)
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})),
		level:  lv,
	}
}

// Discard builds a Logger that drops everything, for tests.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler), level: &slog.LevelVar{}}
}

// SetDebug flips the logger's level, wired to sysparam.Manager.OnChange so
// er_log_debug can be hot-reloaded without restarting the process.
func (l *Logger) SetDebug(debug bool) {
	if debug {
		l.level.Set(slog.LevelDebug)
	} else {
		l.level.Set(slog.LevelInfo)
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Slog exposes the underlying *slog.Logger for callers that want to pass it
// through unwrapped (e.g. into a third-party library's logger adapter).
func (l *Logger) Slog() *slog.Logger { return l.logger }

// Providers bundles the tracer and meter providers the rest of the core
// pulls spans and instruments from, plus a Shutdown to flush both on exit.
type Providers struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Shutdown func(context.Context) error
}

// NewProviders builds OpenTelemetry tracer/meter providers. When
// OTEL_EXPORTER_OTLP_ENDPOINT is set, spans and metrics export to that OTLP
// collector over HTTP; otherwise both export to stdout, matching
// SPEC_FULL.md's "stdout export otherwise" fallback for local development.
func NewProviders(ctx context.Context, serviceName string) (*Providers, error) {
	var (
		traceExporter sdktrace.SpanExporter
		metricReader  sdkmetric.Reader
		err           error
	)

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		traceExporter, err = otlptracehttp.New(ctx)
		if err != nil {
			return nil, err
		}
		metricExporter, merr := otlpmetrichttp.New(ctx)
		if merr != nil {
			return nil, merr
		}
		metricReader = sdkmetric.NewPeriodicReader(metricExporter)
	} else {
		traceExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		metricExporter, merr := stdoutmetric.New()
		if merr != nil {
			return nil, merr
		}
		metricReader = sdkmetric.NewPeriodicReader(metricExporter)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Providers{
		Tracer: tp.Tracer(serviceName),
		Meter:  mp.Meter(serviceName),
		Shutdown: func(ctx context.Context) error {
			if err := tp.Shutdown(ctx); err != nil {
				return err
			}
			return mp.Shutdown(ctx)
		},
	}, nil
}
