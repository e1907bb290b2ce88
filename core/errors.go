package core

import (
	"github.com/cockroachdb/errors"
)

// FailedClient tells which client of a race has failed.
type FailedClient int

const (
	FailedClientSource FailedClient = iota + 1
	FailedClientTarget
	FailedClientBoth
)

func (fc FailedClient) String() string {
	switch fc {
	case FailedClientSource:
		return "source"
	case FailedClientTarget:
		return "target"
	case FailedClientBoth:
		return "both"
	default:
		return "unknown"
	}
}

func (fc FailedClient) Error() string {
	return fc.String() + " client failed"
}

// Source reports whether the source client needs to be reconnected.
func (fc FailedClient) Source() bool {
	return fc == FailedClientSource || fc == FailedClientBoth
}

// Target reports whether the target client needs to be reconnected.
func (fc FailedClient) Target() bool {
	return fc == FailedClientTarget || fc == FailedClientBoth
}

// AsFailedClient extracts a FailedClient from the error chain.
func AsFailedClient(err error) (FailedClient, bool) {
	var fc FailedClient
	if errors.As(err, &fc) {
		return fc, true
	}
	return 0, false
}

// ErrConnection marks errors caused by the connection to a chain node.
// Such errors require the client to be reconnected.
var ErrConnection = errors.New("connection error")

// NewConnectionError marks err as a connection error.
func NewConnectionError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrConnection)
}

func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}
