package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const otelLoggerName = "github.com/hyperledger-labs/yui-bridge-relayer/log"

type RelayLogger struct {
	*slog.Logger
}

var relayLogger *RelayLogger

func InitLogger(logLevel, format, output string, enableTelemetry bool) error {
	var writer io.Writer
	switch output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		return errors.Newf("invalid log output: %s", output)
	}
	return InitLoggerWithWriter(logLevel, format, writer, enableTelemetry)
}

func InitLoggerWithWriter(logLevel, format string, writer io.Writer, enableTelemetry bool) error {
	var slogLevel slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "INFO":
		slogLevel = slog.LevelInfo
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		return errors.Newf("invalid log level: %s", logLevel)
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: true,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return errors.Newf("invalid log format: %s", format)
	}

	if enableTelemetry {
		handler = slogmulti.Fanout(
			handler,
			otelslog.NewHandler(otelLoggerName, otelslog.WithSource(true)),
		)
	}

	relayLogger = &RelayLogger{slog.New(handler)}
	return nil
}

// GetLogger returns the global logger. A discarding logger is returned if InitLogger has not been called.
func GetLogger() *RelayLogger {
	if relayLogger == nil {
		return &RelayLogger{slog.New(slog.NewTextHandler(io.Discard, nil))}
	}
	return relayLogger
}

// log emits a record whose source is the caller `skip` frames above the caller of log.
func (rl *RelayLogger) log(level slog.Level, skip int, msg string, args ...any) {
	rl.logContext(context.Background(), level, skip+1, msg, args...)
}

func (rl *RelayLogger) logContext(ctx context.Context, level slog.Level, skip int, msg string, args ...any) {
	if !rl.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, logContext, caller of logContext]
	runtime.Callers(skip+2, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = rl.Handler().Handle(ctx, r)
}

func withStack(err error, args []any) []any {
	cError := errors.NewWithDepth(2, err.Error())
	return append([]any{"error", err, "stack", fmt.Sprintf("%+v", cError)}, args...)
}

func (rl *RelayLogger) Error(msg string, err error, otherArgs ...any) {
	rl.logContext(context.Background(), slog.LevelError, 1, msg, withStack(err, otherArgs)...)
}

func (rl *RelayLogger) ErrorContext(ctx context.Context, msg string, err error, otherArgs ...any) {
	rl.logContext(ctx, slog.LevelError, 1, msg, withStack(err, otherArgs)...)
}

func (rl *RelayLogger) Fatal(msg string, err error, otherArgs ...any) {
	rl.logContext(context.Background(), slog.LevelError, 1, msg, withStack(err, otherArgs)...)
	os.Exit(1)
}

func (rl *RelayLogger) WithChain(chainID string) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"chain_id", chainID,
		),
	}
}

func (rl *RelayLogger) WithRace(
	name string,
	sourceChainID string,
	targetChainID string,
) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"race", name,
			"source_chain_id", sourceChainID,
			"target_chain_id", targetChainID,
		),
	}
}

func (rl *RelayLogger) WithRelay(name string) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"relay", name,
		),
	}
}

func (rl *RelayLogger) WithModule(moduleName string) *RelayLogger {
	return &RelayLogger{
		rl.With(
			"module", moduleName,
		),
	}
}
