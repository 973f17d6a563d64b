package trace

import "encoding/json"

// Phase identifies the agent pipeline stage a typed trace belongs to.
type Phase string

const (
	PhasePreProcessing  Phase = "PRE_PROCESSING"
	PhaseOrchestration  Phase = "ORCHESTRATION"
	PhasePostProcessing Phase = "POST_PROCESSING"
)

// Caller identifies one participant in a collaboration chain.
type Caller struct {
	AgentAliasArn string `json:"agentAliasArn"`
}

// Chunk is a streamed fragment of the final response text.
type Chunk struct {
	Content string `json:"content"`
}

// Payload is a trace record as received from the agent source. A record
// carrying a non-empty Type is "typed" and exposes the structured fields;
// anything else is kept verbatim in Raw.
type Payload struct {
	Type                  Phase          `json:"type,omitempty"`
	ModelInvocationInput  map[string]any `json:"modelInvocationInput,omitempty"`
	ModelInvocationOutput map[string]any `json:"modelInvocationOutput,omitempty"`
	Rationale             map[string]any `json:"rationale,omitempty"`
	Observation           map[string]any `json:"observation,omitempty"`
	CallerChain           []Caller       `json:"callerChain,omitempty"`
	Raw                   map[string]any `json:"-"`
}

// Typed reports whether the record carries a phase tag.
func (p *Payload) Typed() bool {
	return p != nil && p.Type != ""
}

// RationaleText extracts the agent's stated reasoning, if any.
func (p *Payload) RationaleText() string {
	if p == nil || p.Rationale == nil {
		return ""
	}
	text, _ := p.Rationale["text"].(string)
	return text
}

// MultiParticipant reports whether the caller chain signals that more than
// one collaborating agent is involved.
func (p *Payload) MultiParticipant() bool {
	return p != nil && len(p.CallerChain) > 1
}

// Event is one element of an invocation's stream. Exactly one of Chunk or
// Trace is set; events are immutable once received.
type Event struct {
	Chunk *Chunk
	Trace *Payload
}

// UnmarshalJSON decodes the wire form `{"chunk": {...}}` or
// `{"trace": {...}}`. Trace records without a recognizable type tag are
// preserved untyped rather than dropped.
func (e *Event) UnmarshalJSON(data []byte) error {
	var probe struct {
		Chunk *Chunk          `json:"chunk"`
		Trace json.RawMessage `json:"trace"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Chunk != nil {
		e.Chunk = probe.Chunk
		return nil
	}

	if len(probe.Trace) == 0 {
		return nil
	}

	var tag struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(probe.Trace, &tag)

	if tag.Type != "" {
		var payload Payload
		if err := json.Unmarshal(probe.Trace, &payload); err != nil {
			return err
		}
		e.Trace = &payload
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(probe.Trace, &raw); err != nil {
		return err
	}
	e.Trace = &Payload{Raw: raw}
	return nil
}
