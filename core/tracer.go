package core

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore/semconv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("github.com/hyperledger-labs/yui-bridge-relayer/core")
)

func GetRaceLogger(name, sourceChainID, targetChainID string) *log.RelayLogger {
	return log.GetLogger().
		WithRace(name, sourceChainID, targetChainID).
		WithModule("core.race")
}

func GetLaneLogger(name, sourceChainID, targetChainID string) *log.RelayLogger {
	return log.GetLogger().
		WithRace(name, sourceChainID, targetChainID).
		WithModule("core.lane")
}

func GetRelayLogger(name string) *log.RelayLogger {
	return log.GetLogger().
		WithRelay(name).
		WithModule("core.service")
}

func GetChainLogger(chainID string) *log.RelayLogger {
	return log.GetLogger().
		WithChain(chainID).
		WithModule("chain")
}

func WithChainAttributes(chainID string) trace.SpanStartOption {
	return trace.WithAttributes(
		semconv.ChainIDKey.String(chainID),
	)
}

func WithRelayAttributes(name string) trace.SpanStartOption {
	return trace.WithAttributes(
		semconv.RelayKey.String(name),
	)
}

func WithRaceAttributes(name, sourceChainID, targetChainID string) trace.SpanStartOption {
	return trace.WithAttributes(slices.Concat(
		[]attribute.KeyValue{semconv.RaceKey.String(name)},
		semconv.AttributeGroup("source", semconv.ChainIDKey.String(sourceChainID)),
		semconv.AttributeGroup("target", semconv.ChainIDKey.String(targetChainID)),
	)...)
}

// WithNonceRangeAttributes converts the range to strings because the attribute package does not support uint64
func WithNonceRangeAttributes(nonces NonceRange) trace.SpanStartOption {
	return trace.WithAttributes(
		semconv.NonceBeginKey.String(fmt.Sprint(nonces.Begin)),
		semconv.NonceEndKey.String(fmt.Sprint(nonces.End)),
	)
}

func WithHeaderAttributes(id HeaderID) trace.SpanStartOption {
	return trace.WithAttributes(
		semconv.HeaderNumberKey.String(fmt.Sprint(id.Number)),
		semconv.HeaderHashKey.String(id.Hash.Hex()),
	)
}

// withPackage adds the package name of the function/method `v`
func withPackage(v any) trace.SpanStartOption {
	return trace.WithAttributes(semconv.PackageKey.String(getPackageName(v)))
}

func getPackageName(v any) string {
	if v == nil {
		return ""
	}

	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	return rt.PkgPath()
}
