package semconv

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	// ChainIDKey represents the chain ID.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "rialto"
	ChainIDKey = attribute.Key("chain_id")

	// RaceKey represents the name of a relay race.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "rialto-to-millau-messages"
	RaceKey = attribute.Key("race")

	// RelayKey represents the name of a configured relay.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "rialto-millau"
	RelayKey = attribute.Key("relay")

	// LaneIDKey represents the message lane.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "00000000"
	LaneIDKey = attribute.Key("lane_id")

	// DirectionKey represents the side of a race.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "source", "target"
	DirectionKey = attribute.Key("direction")

	// HeaderNumberKey represents the number of a header.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "123"
	HeaderNumberKey = attribute.Key("header.number")

	// HeaderHashKey represents the hash of a header.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "0x6fd1…c2a3"
	HeaderHashKey = attribute.Key("header.hash")

	// NonceBeginKey represents the first nonce of a range.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "1"
	NonceBeginKey = attribute.Key("nonces.begin")

	// NonceEndKey represents the last nonce of a range.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "4"
	NonceEndKey = attribute.Key("nonces.end")

	// FailedClientKey represents the client that made a race fail.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "source", "target", "both"
	FailedClientKey = attribute.Key("failed_client")

	// StatusKey represents the status of a queued header.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "ready"
	StatusKey = attribute.Key("status")

	// PackageKey represents the package of the function that started a span.
	//
	// Type: string
	// RequirementLevel: Recommended
	// Stability: Development
	// Examples: "github.com/hyperledger-labs/yui-bridge-relayer/core"
	PackageKey = attribute.Key("package")
)

// AttributeGroup prefixes the given key to all attributes.
//
// For example, if the key is "foo" and the key of an attribute is "bar", the new key will be "foo.bar".
func AttributeGroup(key string, attributes ...attribute.KeyValue) []attribute.KeyValue {
	newAttrs := make([]attribute.KeyValue, 0, len(attributes))
	for _, attr := range attributes {
		newAttrs = append(newAttrs, attribute.KeyValue{
			Key:   attribute.Key(key + "." + string(attr.Key)),
			Value: attr.Value,
		})

	}
	return newAttrs
}
