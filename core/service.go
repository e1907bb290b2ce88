package core

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRestartAttempts = 5
	DefaultRestartDelay    = 2 * time.Second
)

var rtyErr = retry.LastErrorOnly(true)

// ServiceParams control the restarts of failed relays
type ServiceParams struct {
	// RestartAttempts is the number of runs of a relay before the service gives up
	RestartAttempts uint
	RestartDelay    time.Duration
}

func (p *ServiceParams) setDefaults() {
	if p.RestartAttempts == 0 {
		p.RestartAttempts = DefaultRestartAttempts
	}
	if p.RestartDelay <= 0 {
		p.RestartDelay = DefaultRestartDelay
	}
}

// Relay is a long running relay between two chains
type Relay interface {
	// Name returns the name of the relay which is unique in the configuration
	Name() string
	// Run runs the relay until the context is cancelled or an unrecoverable error occurs
	Run(ctx context.Context) error
}

// StartService runs all given relays concurrently. The service stops when the context is cancelled
// or one of the relays fails after all its retries.
func StartService(ctx context.Context, params ServiceParams, relays ...Relay) error {
	if len(relays) == 0 {
		return fmt.Errorf("no relays to start")
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, r := range relays {
		srv := NewRelayService(r, params)
		eg.Go(func() error {
			return srv.Start(ctx)
		})
	}
	return eg.Wait()
}

type RelayService struct {
	relay  Relay
	params ServiceParams
}

// NewRelayService returns a new service
func NewRelayService(relay Relay, params ServiceParams) *RelayService {
	params.setDefaults()
	return &RelayService{relay: relay, params: params}
}

// Start starts a relay service
func (srv *RelayService) Start(ctx context.Context) error {
	logger := GetRelayLogger(srv.relay.Name())
	logger.InfoContext(ctx, "starting relay")
	err := retry.Do(func() error {
		return srv.Serve(ctx)
	}, retry.Attempts(srv.params.RestartAttempts), retry.Delay(srv.params.RestartDelay), rtyErr, retry.Context(ctx), retry.OnRetry(func(n uint, err error) {
		logger.InfoContext(ctx,
			"retrying to serve relay",
			"try", n+1,
			"try_limit", srv.params.RestartAttempts,
			"error", err.Error(),
		)
	}))
	if ctx.Err() != nil {
		logger.InfoContext(ctx, "relay stopped")
		return nil
	}
	return err
}

// Serve runs the relay once
func (srv *RelayService) Serve(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RelayService.Serve", WithRelayAttributes(srv.relay.Name()), withPackage(srv.relay))
	defer span.End()
	logger := GetRelayLogger(srv.relay.Name())

	if err := srv.relay.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.ErrorContext(ctx, "relay failed", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
