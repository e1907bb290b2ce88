package coreutil_test

import (
	"errors"
	"testing"

	"github.com/hyperledger-labs/yui-bridge-relayer/core"
	"github.com/hyperledger-labs/yui-bridge-relayer/coreutil"
	"github.com/hyperledger-labs/yui-bridge-relayer/otelcore"
)

func TestUnwrapLaneSource(t *testing.T) {
	type testSource struct {
		core.LaneSource
		initialized bool
	}
	type anotherTestSource struct {
		core.LaneSource
	}
	type wrapperSource struct {
		core.LaneSource
	}

	wantSource := testSource{
		initialized: true,
	}

	tests := []struct {
		name   string
		source core.LaneSource
		target any
		err    error
	}{
		{
			name:   "target source pointer",
			source: &wantSource,
			target: &testSource{},
			err:    nil,
		},
		{
			name:   "target source",
			source: wantSource,
			target: testSource{},
			err:    nil,
		},
		{
			name:   "traced target source pointer",
			source: otelcore.NewLaneSource(&wantSource, "00000000", nil),
			target: &testSource{},
			err:    nil,
		},
		{
			name:   "traced target source traced twice",
			source: otelcore.NewLaneSource(otelcore.NewLaneSource(wantSource, "00000000", nil), "00000000", nil),
			target: testSource{},
			err:    nil,
		},
		{
			name:   "different struct",
			source: otelcore.NewLaneSource(anotherTestSource{}, "00000000", nil),
			target: testSource{},
			err:    errors.New("failed to unwrap lane source: expected=coreutil_test.testSource, actual=coreutil_test.anotherTestSource"),
		},
		{
			name:   "target source wrapped by an unknown source",
			source: wrapperSource{wantSource},
			target: testSource{},
			err:    errors.New("failed to unwrap lane source: expected=coreutil_test.testSource, actual=coreutil_test.wrapperSource"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			switch s := tt.target.(type) {
			case testSource:
				s, err = coreutil.UnwrapLaneSource[testSource](tt.source)
				if err == nil && s != wantSource {
					t.Errorf("s = %v, want %v", s, wantSource)
				}
			case *testSource:
				s, err = coreutil.UnwrapLaneSource[*testSource](tt.source)
				if err == nil && s != &wantSource {
					t.Errorf("unwrapped source has an unexpected address")
				}
			}
			if err != tt.err && (err == nil || tt.err == nil || err.Error() != tt.err.Error()) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestUnwrapLaneTarget(t *testing.T) {
	type testTarget struct {
		core.LaneTarget
		initialized bool
	}
	type anotherTestTarget struct {
		core.LaneTarget
	}

	wantTarget := testTarget{
		initialized: true,
	}
	tests := []struct {
		name   string
		lane   core.LaneTarget
		target any
		err    error
	}{
		{
			name:   "target pointer",
			lane:   &wantTarget,
			target: &testTarget{},
			err:    nil,
		},
		{
			name:   "traced target",
			lane:   otelcore.NewLaneTarget(wantTarget, "00000000", nil),
			target: testTarget{},
			err:    nil,
		},
		{
			name:   "different struct",
			lane:   otelcore.NewLaneTarget(anotherTestTarget{}, "00000000", nil),
			target: testTarget{},
			err:    errors.New("failed to unwrap lane target: expected=coreutil_test.testTarget, actual=coreutil_test.anotherTestTarget"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			switch l := tt.target.(type) {
			case testTarget:
				l, err = coreutil.UnwrapLaneTarget[testTarget](tt.lane)
				if err == nil && l != wantTarget {
					t.Errorf("l = %v, want %v", l, wantTarget)
				}
			case *testTarget:
				l, err = coreutil.UnwrapLaneTarget[*testTarget](tt.lane)
				if err == nil && l != &wantTarget {
					t.Errorf("unwrapped target has an unexpected address")
				}
			}
			if err != tt.err && (err == nil || tt.err == nil || err.Error() != tt.err.Error()) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
		})
	}
}
