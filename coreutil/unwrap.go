package coreutil

import (
	"fmt"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore"
)

// UnwrapLaneSource finds the first value in the LaneSource field that matches the specified
// type argument.
//
// In the following example, UnwrapLaneSource returns a *mock.OutboundLane value:
//
//	lane, err := coreutil.UnwrapLaneSource[*mock.OutboundLane](source)
func UnwrapLaneSource[S core.LaneSource](s core.LaneSource) (S, error) {
	source := s
	for {
		switch unwrapped := source.(type) {
		case *otelcore.LaneSource:
			source = unwrapped.LaneSource
		case S:
			return unwrapped, nil
		default:
			var zero S
			return zero, fmt.Errorf("failed to unwrap lane source: expected=%T, actual=%T", zero, unwrapped)
		}
	}
}

// UnwrapLaneTarget finds the first value in the LaneTarget field that matches the specified
// type argument.
func UnwrapLaneTarget[T core.LaneTarget](t core.LaneTarget) (T, error) {
	target := t
	for {
		switch unwrapped := target.(type) {
		case *otelcore.LaneTarget:
			target = unwrapped.LaneTarget
		case T:
			return unwrapped, nil
		default:
			var zero T
			return zero, fmt.Errorf("failed to unwrap lane target: expected=%T, actual=%T", zero, unwrapped)
		}
	}
}
