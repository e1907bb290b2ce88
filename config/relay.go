package config

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/equivocation"
	"github.com/hyperledger-labs/yui-bridge-relayer/headersync"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/hyperledger-labs/yui-bridge-relayer/config")

const (
	RelayTypeMessages     = "messages"
	RelayTypeHeaders      = "headers"
	RelayTypeEquivocation = "equivocation"
)

// RelayConfig is a relay between two configured chains
type RelayConfig struct {
	Name   string      `yaml:"name" json:"name"`
	Type   string      `yaml:"type" json:"type"`
	Source string      `yaml:"source" json:"source"`
	Target string      `yaml:"target" json:"target"`
	Lane   string      `yaml:"lane,omitempty" json:"lane,omitempty"`
	Params RelayParams `yaml:"params" json:"params"`
}

// RelayParams are the parameters of all relay types. Zero values are replaced by defaults.
type RelayParams struct {
	StallTimeout                 string `yaml:"stall_timeout,omitempty" json:"stall_timeout,omitempty"`
	ReconnectDelay               string `yaml:"reconnect_delay,omitempty" json:"reconnect_delay,omitempty"`
	MaxMessagesInBatch           uint64 `yaml:"max_messages_in_batch,omitempty" json:"max_messages_in_batch,omitempty"`
	MaxUnconfirmedNoncesAtTarget uint64 `yaml:"max_unconfirmed_nonces_at_target,omitempty" json:"max_unconfirmed_nonces_at_target,omitempty"`
	ReconnectBoth                bool   `yaml:"reconnect_both,omitempty" json:"reconnect_both,omitempty"`
	PollInterval                 string `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`
	Tick                         string `yaml:"tick,omitempty" json:"tick,omitempty"`

	headersync.Params `yaml:",inline"`
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Newf("negative duration: %s", s)
	}
	return d, nil
}

// durations parses the duration parameters in the order of the given names
func (p RelayParams) durations(names ...string) ([]time.Duration, error) {
	values := map[string]string{
		"stall_timeout":   p.StallTimeout,
		"reconnect_delay": p.ReconnectDelay,
		"poll_interval":   p.PollInterval,
		"tick":            p.Tick,
	}
	ds := make([]time.Duration, len(names))
	for i, name := range names {
		d, err := parseDuration(values[name])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", name)
		}
		ds[i] = d
	}
	return ds, nil
}

// Validate checks the relay against the initialized chains
func (rc RelayConfig) Validate(chains Chains) error {
	if rc.Name == "" {
		return errors.New("relay name is empty")
	}
	if rc.Source == rc.Target {
		return errors.Newf("source and target are the same chain %s", rc.Source)
	}
	if _, err := chains.Gets(rc.Source, rc.Target); err != nil {
		return err
	}
	switch rc.Type {
	case RelayTypeMessages:
		if rc.Lane == "" {
			return errors.New("messages relay needs a lane")
		}
	case RelayTypeHeaders, RelayTypeEquivocation:
	default:
		return errors.Newf("unknown relay type '%v'", rc.Type)
	}
	_, err := rc.Params.durations("stall_timeout", "reconnect_delay", "poll_interval", "tick")
	return err
}

// BuildRelay builds the relay of the given name
func (c *Config) BuildRelay(name string) (core.Relay, error) {
	rc, err := c.GetRelay(name)
	if err != nil {
		return nil, err
	}
	switch rc.Type {
	case RelayTypeMessages:
		source, target, err := c.MessageLane(name)
		if err != nil {
			return nil, err
		}
		ds, err := rc.Params.durations("stall_timeout", "reconnect_delay", "poll_interval")
		if err != nil {
			return nil, err
		}
		return &messagesRelay{
			params: core.LaneParams{
				Name:                         rc.Name,
				LaneID:                       rc.Lane,
				StallTimeout:                 ds[0],
				ReconnectDelay:               ds[1],
				PollInterval:                 ds[2],
				MaxMessagesInBatch:           rc.Params.MaxMessagesInBatch,
				MaxUnconfirmedNoncesAtTarget: rc.Params.MaxUnconfirmedNoncesAtTarget,
				ReconnectBoth:                rc.Params.ReconnectBoth,
			},
			source: source,
			target: target,
		}, nil
	case RelayTypeHeaders:
		return c.buildHeadersRelay(rc)
	case RelayTypeEquivocation:
		return c.buildEquivocationRelay(rc)
	default:
		return nil, errors.Newf("unknown relay type '%v'", rc.Type)
	}
}

// BuildRelays builds the relays of the given names, or all relays if no name is given
func (c *Config) BuildRelays(names ...string) ([]core.Relay, error) {
	if len(names) == 0 {
		for _, rc := range c.Relays {
			names = append(names, rc.Name)
		}
	}
	relays := make([]core.Relay, 0, len(names))
	for _, name := range names {
		r, err := c.BuildRelay(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build relay %s", name)
		}
		relays = append(relays, r)
	}
	return relays, nil
}

// MessageLane returns both ends of the lane of the messages relay. Calls to the ends are traced.
func (c *Config) MessageLane(name string) (core.LaneSource, core.LaneTarget, error) {
	rc, err := c.GetRelay(name)
	if err != nil {
		return nil, nil, err
	}
	if rc.Type != RelayTypeMessages {
		return nil, nil, errors.Newf("relay %s is not a messages relay", name)
	}
	chains, err := c.chains.Gets(rc.Source, rc.Target)
	if err != nil {
		return nil, nil, err
	}
	src, ok := chains[rc.Source].(core.MessageLaneChain)
	if !ok {
		return nil, nil, errors.Newf("chain %s does not support message lanes", rc.Source)
	}
	dst, ok := chains[rc.Target].(core.MessageLaneChain)
	if !ok {
		return nil, nil, errors.Newf("chain %s does not support message lanes", rc.Target)
	}
	source, err := src.OutboundLane(rc.Lane, rc.Target)
	if err != nil {
		return nil, nil, err
	}
	target, err := dst.InboundLane(rc.Lane, rc.Source)
	if err != nil {
		return nil, nil, err
	}
	return otelcore.NewLaneSource(source, rc.Lane, tracer), otelcore.NewLaneTarget(target, rc.Lane, tracer), nil
}

func (c *Config) buildHeadersRelay(rc *RelayConfig) (core.Relay, error) {
	chains, err := c.chains.Gets(rc.Source, rc.Target)
	if err != nil {
		return nil, err
	}
	src, ok := chains[rc.Source].(headersync.SourceChain)
	if !ok {
		return nil, errors.Newf("chain %s can't be a headers source", rc.Source)
	}
	dst, ok := chains[rc.Target].(headersync.TargetChain)
	if !ok {
		return nil, errors.Newf("chain %s can't be a headers target", rc.Target)
	}
	source, err := src.HeaderSource(rc.Target)
	if err != nil {
		return nil, err
	}
	target, err := dst.HeaderTarget(rc.Source)
	if err != nil {
		return nil, err
	}
	ds, err := rc.Params.durations("stall_timeout", "reconnect_delay", "tick")
	if err != nil {
		return nil, err
	}
	return &headersRelay{
		params: headersync.LoopParams{
			Name:           rc.Name,
			SourceTick:     ds[2],
			TargetTick:     ds[2],
			Sync:           rc.Params.Params,
			StallTimeout:   ds[0],
			ReconnectDelay: ds[1],
		},
		source: source,
		target: target,
	}, nil
}

func (c *Config) buildEquivocationRelay(rc *RelayConfig) (core.Relay, error) {
	chains, err := c.chains.Gets(rc.Source, rc.Target)
	if err != nil {
		return nil, err
	}
	src, ok := chains[rc.Source].(equivocation.SourceChain)
	if !ok {
		return nil, errors.Newf("chain %s can't be an equivocation source", rc.Source)
	}
	dst, ok := chains[rc.Target].(equivocation.TargetChain)
	if !ok {
		return nil, errors.Newf("chain %s can't be an equivocation target", rc.Target)
	}
	source, err := src.EquivocationSource(rc.Target)
	if err != nil {
		return nil, err
	}
	target, err := dst.EquivocationTarget(rc.Source)
	if err != nil {
		return nil, err
	}
	ds, err := rc.Params.durations("tick", "reconnect_delay")
	if err != nil {
		return nil, err
	}
	return &equivocationRelay{
		params: equivocation.LoopParams{
			Name:           rc.Name,
			Tick:           ds[0],
			ReconnectDelay: ds[1],
		},
		source: source,
		target: target,
	}, nil
}

type messagesRelay struct {
	params core.LaneParams
	source core.LaneSource
	target core.LaneTarget
}

func (r *messagesRelay) Name() string {
	return r.params.Name
}

func (r *messagesRelay) Run(ctx context.Context) error {
	return core.RunMessageLane(ctx, r.params, r.source, r.target)
}

type headersRelay struct {
	params headersync.LoopParams
	source headersync.SourceClient
	target headersync.TargetClient
}

func (r *headersRelay) Name() string {
	return r.params.Name
}

func (r *headersRelay) Run(ctx context.Context) error {
	return headersync.Run(ctx, r.params, r.source, r.target)
}

type equivocationRelay struct {
	params equivocation.LoopParams
	source equivocation.SourceClient
	target equivocation.TargetClient
}

func (r *equivocationRelay) Name() string {
	return r.params.Name
}

func (r *equivocationRelay) Run(ctx context.Context) error {
	return equivocation.Run(ctx, r.params, r.source, r.target, equivocation.VoteEquivocationsFinder{})
}
