package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// TypeKey is the JSON field that carries the type of a chain configuration
const TypeKey = "@type"

// ChainConfig defines a chain configuration and its builder
type ChainConfig interface {
	Build() (Chain, error)
	Validate() error
}

var (
	chainConfigsMu sync.RWMutex
	chainConfigs   = make(map[string]func() ChainConfig)
)

// RegisterChainConfig registers a constructor of empty chain configurations of the given type.
// It panics if the type is already registered.
func RegisterChainConfig(typeURL string, newConfig func() ChainConfig) {
	chainConfigsMu.Lock()
	defer chainConfigsMu.Unlock()
	if _, ok := chainConfigs[typeURL]; ok {
		panic(fmt.Sprintf("chain config type %s is already registered", typeURL))
	}
	chainConfigs[typeURL] = newConfig
}

// RegisteredChainConfigTypes returns the registered types in order
func RegisteredChainConfigTypes() []string {
	chainConfigsMu.RLock()
	defer chainConfigsMu.RUnlock()
	types := make([]string, 0, len(chainConfigs))
	for t := range chainConfigs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// AnyChainConfig is a chain configuration of any registered type. It is encoded as the JSON
// object of the configuration with an additional "@type" field.
type AnyChainConfig struct {
	typeURL string
	raw     json.RawMessage

	// cache
	config ChainConfig
}

var (
	_ json.Marshaler   = (*AnyChainConfig)(nil)
	_ json.Unmarshaler = (*AnyChainConfig)(nil)
)

// NewAnyChainConfig returns a new config instance
func NewAnyChainConfig(typeURL string, config ChainConfig) (*AnyChainConfig, error) {
	bz, err := json.Marshal(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chain config")
	}
	return &AnyChainConfig{typeURL: typeURL, raw: bz, config: config}, nil
}

func (c *AnyChainConfig) TypeURL() string {
	return c.typeURL
}

// Init resolves the type of the configuration and validates it
func (c *AnyChainConfig) Init() error {
	chainConfigsMu.RLock()
	newConfig, ok := chainConfigs[c.typeURL]
	chainConfigsMu.RUnlock()
	if !ok {
		return errors.Newf("unknown chain config type: %q", c.typeURL)
	}
	config := newConfig()
	if err := json.Unmarshal(c.raw, config); err != nil {
		return errors.Wrapf(err, "failed to unmarshal chain config of type %s", c.typeURL)
	}
	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid chain config")
	}
	c.config = config
	return nil
}

// GetChainConfig returns the cached ChainConfig instance
func (c *AnyChainConfig) GetChainConfig() (ChainConfig, error) {
	if c.config == nil {
		return nil, errors.New("chain config is not initialized")
	}
	return c.config, nil
}

// Build returns a new Chain instance
func (c *AnyChainConfig) Build() (Chain, error) {
	config, err := c.GetChainConfig()
	if err != nil {
		return nil, err
	}
	return config.Build()
}

func (c *AnyChainConfig) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if len(c.raw) > 0 {
		if err := json.Unmarshal(c.raw, &fields); err != nil {
			return nil, err
		}
	}
	typeURL, err := json.Marshal(c.typeURL)
	if err != nil {
		return nil, err
	}
	fields[TypeKey] = typeURL
	return json.Marshal(fields)
}

func (c *AnyChainConfig) UnmarshalJSON(bz []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(bz, &fields); err != nil {
		return err
	}
	rawType, ok := fields[TypeKey]
	if !ok {
		return errors.Newf("chain config has no %s field", TypeKey)
	}
	var typeURL string
	if err := json.Unmarshal(rawType, &typeURL); err != nil {
		return errors.Wrapf(err, "invalid %s field", TypeKey)
	}
	delete(fields, TypeKey)
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	c.typeURL = typeURL
	c.raw = raw
	c.config = nil
	return nil
}
