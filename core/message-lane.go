package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hyperledger-labs/yui-bridge-relayer/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval = 6 * time.Second
	// DefaultMaxUnconfirmedNoncesAtTarget is the default limit of messages received by the target
	// chain whose delivery is not confirmed at the source chain
	DefaultMaxUnconfirmedNoncesAtTarget = 128
)

type LaneParams struct {
	// Name is used in logs and metrics
	Name   string
	LaneID string

	StallTimeout       time.Duration
	MaxMessagesInBatch uint64
	// MaxUnconfirmedNoncesAtTarget stops the delivery while this many messages are received by the
	// target and not confirmed at the source
	MaxUnconfirmedNoncesAtTarget uint64
	// PollInterval is the interval of reading the states of both chains
	PollInterval time.Duration
	// ReconnectBoth makes a connection error of one client reconnect both clients.
	// Enable it when both clients share the same transport.
	ReconnectBoth bool
	// ReconnectDelay is the delay before reconnecting failed clients
	ReconnectDelay time.Duration
}

func (p *LaneParams) setDefaults() {
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.ReconnectDelay <= 0 {
		p.ReconnectDelay = ConnectionErrorDelay
	}
	if p.StallTimeout <= 0 {
		p.StallTimeout = DefaultStallTimeout
	}
	if p.MaxUnconfirmedNoncesAtTarget == 0 {
		p.MaxUnconfirmedNoncesAtTarget = DefaultMaxUnconfirmedNoncesAtTarget
	}
}

// RunMessageLane delivers messages of the lane from the source to the target and confirms their
// delivery back at the source until the context is cancelled. Failed clients are reconnected and
// both races are restarted from a fresh state.
func RunMessageLane(ctx context.Context, params LaneParams, source LaneSource, target LaneTarget) error {
	params.setDefaults()
	logger := GetLaneLogger(params.Name, source.ChainID(), target.ChainID())

	for {
		err := runLaneOnce(ctx, params, source, target)
		if ctx.Err() != nil {
			return nil
		}
		failed, ok := AsFailedClient(err)
		if !ok {
			return err
		}
		if params.ReconnectBoth {
			failed = FailedClientBoth
		}
		logger.WarnContext(ctx, "restarting message lane", "failed_client", failed.String(), "reconnect_in", params.ReconnectDelay)

		for {
			if err := wait(ctx, params.ReconnectDelay); err != nil {
				return nil
			}
			if err := reconnectClients(ctx, failed, source, target); err != nil {
				logger.ErrorContext(ctx, "failed to reconnect", err, "failed_client", failed.String())
				continue
			}
			break
		}
	}
}

func runLaneOnce(ctx context.Context, params LaneParams, source LaneSource, target LaneTarget) error {
	sourceUpdates := make(chan ClientState)
	targetUpdates := make(chan ClientState)
	// the receiving race relays from the target to the source
	receivingSourceUpdates := make(chan ClientState)
	receivingTargetUpdates := make(chan ClientState)

	logger := GetLaneLogger(params.Name, source.ChainID(), target.ChainID())

	ctx, span := tracer.Start(ctx, "MessageLane.Race", WithRaceAttributes(params.Name, source.ChainID(), target.ChainID()))
	defer span.End()

	confirmed := &confirmedNonce{}
	delivery := NewMessageDeliveryStrategy(params.MaxMessagesInBatch).
		WithUnconfirmedLimit(params.MaxUnconfirmedNoncesAtTarget, confirmed.get)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return pollClientState(ctx, logger, params.PollInterval, source, FailedClientSource, sourceUpdates, receivingTargetUpdates)
	})
	eg.Go(func() error {
		return pollClientState(ctx, logger, params.PollInterval, target, FailedClientTarget, targetUpdates, receivingSourceUpdates)
	})
	eg.Go(func() error {
		return RunRace(
			ctx,
			RaceParams{Name: params.Name, StallTimeout: params.StallTimeout},
			source, sourceUpdates,
			target, targetUpdates,
			delivery,
		)
	})
	eg.Go(func() error {
		err := RunRace(
			ctx,
			RaceParams{Name: params.Name + "-receiving", StallTimeout: params.StallTimeout},
			receivingSource{target}, receivingSourceUpdates,
			receivingTarget{LaneSource: source, confirmed: confirmed}, receivingTargetUpdates,
			NewMessageReceivingStrategy(),
		)
		return reverseFailedClient(err)
	})
	return eg.Wait()
}

// confirmedNonce is the latest nonce confirmed at the source chain. The receiving race writes it
// and the delivery race reads it.
type confirmedNonce struct {
	nonce atomic.Uint64
	known atomic.Bool
}

func (c *confirmedNonce) set(nonce MessageNonce) {
	c.nonce.Store(nonce)
	c.known.Store(true)
}

func (c *confirmedNonce) get() (MessageNonce, bool) {
	if !c.known.Load() {
		return 0, false
	}
	return c.nonce.Load(), true
}

// receivingSource proves the nonces received by the target chain
type receivingSource struct {
	LaneTarget
}

func (s receivingSource) GenerateProof(ctx context.Context, at HeaderID, nonces NonceRange) (HeaderID, NonceRange, Proof, error) {
	return s.ProveReceiving(ctx, at, nonces)
}

// receivingTarget confirms the received nonces at the source chain
type receivingTarget struct {
	LaneSource
	confirmed *confirmedNonce
}

func (t receivingTarget) LatestNonce(ctx context.Context, at HeaderID) (HeaderID, MessageNonce, error) {
	id, nonce, err := t.LatestConfirmedNonce(ctx, at)
	if err == nil {
		t.confirmed.set(nonce)
	}
	return id, nonce, err
}

func (t receivingTarget) SubmitProof(ctx context.Context, generatedAt HeaderID, nonces NonceRange, proof Proof) (NonceRange, error) {
	return t.SubmitReceivingProof(ctx, generatedAt, nonces, proof)
}

// reverseFailedClient maps a failure of the receiving race to the clients of the lane
func reverseFailedClient(err error) error {
	failed, ok := AsFailedClient(err)
	if !ok {
		return err
	}
	switch failed {
	case FailedClientSource:
		return FailedClientTarget
	case FailedClientTarget:
		return FailedClientSource
	default:
		return failed
	}
}

// pollClientState reads the state of the client every poll interval and sends it to every updates channel.
func pollClientState(ctx context.Context, logger *log.RelayLogger, interval time.Duration, client StateClient, side FailedClient, updates ...chan<- ClientState) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := client.ClientState(ctx)
		switch {
		case err == nil:
			for _, ch := range updates {
				select {
				case ch <- st:
				case <-ctx.Done():
					return nil
				}
			}
		case IsConnectionError(err):
			if ctx.Err() != nil {
				return nil
			}
			logger.ErrorContext(ctx, "failed to read client state", err, "client", side.String())
			return side
		default:
			logger.WarnContext(ctx, "failed to read client state", "client", side.String(), "error", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func reconnectClients(ctx context.Context, failed FailedClient, source, target StateClient) error {
	if failed.Source() {
		if err := source.Reconnect(ctx); err != nil {
			return err
		}
	}
	if failed.Target() {
		if err := target.Reconnect(ctx); err != nil {
			return err
		}
	}
	return nil
}
