package trace

import (
	"encoding"
	"fmt"
	"time"
)

// Normalized is the outbound projection of a trace record. Typed records
// keep their phase plus a phase-specific output projection; untyped records
// carry the canonicalized raw payload instead.
type Normalized struct {
	Type                  Phase          `json:"type,omitempty"`
	ModelInvocationInput  map[string]any `json:"modelInvocationInput,omitempty"`
	ModelInvocationOutput map[string]any `json:"modelInvocationOutput,omitempty"`
	Raw                   map[string]any `json:"raw,omitempty"`
	Summary               string         `json:"summary"`
}

// Normalize builds the outbound projection for a trace record. The output
// projection for ORCHESTRATION is {rationale, observation}; PRE and POST
// processing forward the raw model output. The source record is never
// mutated.
func Normalize(p *Payload) Normalized {
	if p == nil {
		return Normalized{}
	}

	if !p.Typed() {
		return Normalized{Raw: canonicalMap(p.Raw)}
	}

	n := Normalized{
		Type:                 p.Type,
		ModelInvocationInput: canonicalMap(p.ModelInvocationInput),
	}

	switch p.Type {
	case PhaseOrchestration:
		out := map[string]any{}
		if p.Rationale != nil {
			out["rationale"] = Canonicalize(p.Rationale)
		}
		if p.Observation != nil {
			out["observation"] = Canonicalize(p.Observation)
		}
		n.ModelInvocationOutput = out
	default:
		n.ModelInvocationOutput = canonicalMap(p.ModelInvocationOutput)
	}

	return n
}

// SetRationale overrides the rationale projection with refined text.
func (n *Normalized) SetRationale(text string) {
	if n.ModelInvocationOutput == nil {
		n.ModelInvocationOutput = map[string]any{}
	}
	n.ModelInvocationOutput["rationale"] = map[string]any{"text": text}
}

// Canonicalize recursively converts a payload value into a form that
// always survives JSON encoding: timestamps become RFC 3339 strings, byte
// slices become text, and anything else unrecognized is rendered through
// fmt. Maps and slices are copied, never modified in place.
func Canonicalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	case map[string]any:
		return canonicalMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Canonicalize(item)
		}
		return out
	case encoding.TextMarshaler:
		text, err := val.MarshalText()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(text)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func canonicalMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Canonicalize(v)
	}
	return out
}
