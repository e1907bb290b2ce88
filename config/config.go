package config

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hyperledger-labs/yui-bridge-relayer/core"
)

type Config struct {
	Global GlobalConfig           `yaml:"global" json:"global"`
	Chains []*core.AnyChainConfig `yaml:"chains" json:"chains"`
	Relays []RelayConfig          `yaml:"relays" json:"relays"`

	// cache
	chains Chains `yaml:"-" json:"-"`

	ConfigPath string `yaml:"-" json:"-"`
}

type GlobalConfig struct {
	Timeout         string `yaml:"timeout" json:"timeout"`
	LogLevel        string `yaml:"log_level" json:"log_level"`
	LogFormat       string `yaml:"log_format" json:"log_format"`
	LogOutput       string `yaml:"log_output" json:"log_output"`
	RestartDelay    string `yaml:"restart_delay" json:"restart_delay"`
	RestartAttempts uint   `yaml:"restart_attempts" json:"restart_attempts"`
}

func DefaultConfig(configPath string) Config {
	return Config{
		Global:     newDefaultGlobalConfig(),
		Chains:     []*core.AnyChainConfig{},
		Relays:     []RelayConfig{},
		ConfigPath: configPath,
	}
}

// newDefaultGlobalConfig returns a global config with defaults set
func newDefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Timeout:         "10s",
		LogLevel:        "DEBUG",
		LogFormat:       "json",
		LogOutput:       "stderr",
		RestartDelay:    core.DefaultRestartDelay.String(),
		RestartAttempts: core.DefaultRestartAttempts,
	}
}

// ServiceParams returns the restart parameters of the relay service
func (g GlobalConfig) ServiceParams() (core.ServiceParams, error) {
	delay, err := parseDuration(g.RestartDelay)
	if err != nil {
		return core.ServiceParams{}, errors.Wrap(err, "invalid restart delay")
	}
	return core.ServiceParams{
		RestartAttempts: g.RestartAttempts,
		RestartDelay:    delay,
	}, nil
}

func (c *Config) GetChain(chainID string) (core.Chain, error) {
	return c.chains.Get(chainID)
}

// GetChains returns the initialized chains
func (c *Config) GetChains() Chains {
	return c.chains
}

// AddChain adds an additional chain to the config
func (c *Config) AddChain(typeURL string, cconfig core.ChainConfig, homePath string, debug bool) error {
	cc, err := core.NewAnyChainConfig(typeURL, cconfig)
	if err != nil {
		return err
	}
	chain, err := c.initChain(cc, homePath, debug)
	if err != nil {
		return err
	}
	if _, err := c.GetChain(chain.ChainID()); err == nil {
		return fmt.Errorf("chain with ID %s already exists in config", chain.ChainID())
	}
	c.Chains = append(c.Chains, cc)
	c.chains = append(c.chains, chain)
	return nil
}

// GetRelay returns the relay configuration of the given name
func (c *Config) GetRelay(name string) (*RelayConfig, error) {
	for i := range c.Relays {
		if c.Relays[i].Name == name {
			return &c.Relays[i], nil
		}
	}
	return nil, fmt.Errorf("relay '%v' not found", name)
}

func (c *Config) timeout() (time.Duration, error) {
	to, err := time.ParseDuration(c.Global.Timeout)
	if err != nil {
		return 0, fmt.Errorf("did you remember to run 'yrly-bridge config init' error:%w", err)
	}
	return to, nil
}

func (c *Config) initChain(cc *core.AnyChainConfig, homePath string, debug bool) (core.Chain, error) {
	to, err := c.timeout()
	if err != nil {
		return nil, err
	}
	if err := cc.Init(); err != nil {
		return nil, err
	}
	chain, err := cc.Build()
	if err != nil {
		return nil, err
	}
	if err := chain.Init(homePath, to, debug); err != nil {
		return nil, fmt.Errorf("failed to initialize chain %s: %w", chain.ChainID(), err)
	}
	return chain, nil
}

// InitChains builds and initializes the configured chains and validates the relays
func (c *Config) InitChains(homePath string, debug bool) error {
	c.chains = nil
	for i, cc := range c.Chains {
		chain, err := c.initChain(cc, homePath, debug)
		if err != nil {
			return errors.Wrapf(err, "chains[%d]", i)
		}
		if _, err := c.GetChain(chain.ChainID()); err == nil {
			return errors.Newf("chain with ID %s is duplicated", chain.ChainID())
		}
		c.chains = append(c.chains, chain)
	}
	return c.validateRelays()
}

func (c *Config) validateRelays() error {
	names := make(map[string]struct{})
	for _, r := range c.Relays {
		if _, ok := names[r.Name]; ok {
			return errors.Newf("relay %s is duplicated", r.Name)
		}
		names[r.Name] = struct{}{}
		if err := r.Validate(c.chains); err != nil {
			return errors.Wrapf(err, "invalid relay %s", r.Name)
		}
	}
	return nil
}
