// Package agent defines the contract the relay needs from an agent
// invocation backend, plus the backends the service ships with.
package agent

import (
	"context"

	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
)

// Stream yields one invocation's events strictly in arrival order. Recv
// returns io.EOF when the upstream sequence ends normally; any other error
// is fatal to the invocation.
type Stream interface {
	Recv() (trace.Event, error)
	Close() error
}

// Source starts agent invocations. Implementations decide how the backing
// service is reached and authenticated; the relay only consumes the event
// sequence.
type Source interface {
	Invoke(ctx context.Context, sessionID, inputText string) (Stream, error)
}
