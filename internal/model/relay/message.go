package relay

import (
	"time"

	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
)

// Outbound message types delivered to session subscribers.
const (
	TypeResponseChunk = "response_chunk"
	TypeTraceUpdate   = "trace_update"
	TypeRelayError    = "relay_error"
)

// Message is one outbound payload delivered to every subscriber of a
// session room.
type Message struct {
	Type      string            `json:"type"`
	SessionID string            `json:"sessionId,omitempty"`
	Content   string            `json:"content,omitempty"`
	Trace     *trace.Normalized `json:"trace,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewChunkMessage wraps a streamed response fragment.
func NewChunkMessage(sessionID, content string) Message {
	return Message{
		Type:      TypeResponseChunk,
		SessionID: sessionID,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
}

// NewTraceMessage wraps a normalized trace record.
func NewTraceMessage(sessionID string, t *trace.Normalized) Message {
	return Message{
		Type:      TypeTraceUpdate,
		SessionID: sessionID,
		Trace:     t,
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorMessage wraps a terminal invocation failure.
func NewErrorMessage(sessionID, errMsg string) Message {
	return Message{
		Type:      TypeRelayError,
		SessionID: sessionID,
		Error:     errMsg,
		Timestamp: time.Now().Unix(),
	}
}

// Result aggregates one invocation's outcome for the HTTP caller.
type Result struct {
	Message string             `json:"message"`
	Traces  []trace.Normalized `json:"traces"`
}
