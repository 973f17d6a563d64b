package rationale

import "github.com/solenlabs/agent-relay/backend/internal/model/trace"

// State tracks rationale handling for a single invocation. It is owned by
// exactly one worker and threaded explicitly through the pipeline; it must
// never be shared across invocations.
type State struct {
	isFirst      bool
	pendingText  string
	pendingTrace *trace.Payload
	history      []string
}

// NewState starts a fresh invocation: first rationale still unseen, empty
// history, empty look-ahead buffer.
func NewState() *State {
	return &State{isFirst: true}
}

// IsFirst reports whether the invocation's first rationale is still unseen.
func (s *State) IsFirst() bool {
	return s.isFirst
}

// BufferFirst stores the very first rationale of the invocation, undecided,
// until a later structural signal confirms multi-agent delegation. The
// first-rationale transition happens here exactly once, independent of
// whether the buffered text is ever emitted.
func (s *State) BufferFirst(text string, p *trace.Payload) bool {
	if !s.isFirst {
		return false
	}
	s.isFirst = false
	s.pendingText = text
	s.pendingTrace = p
	return true
}

// HasPending reports whether a buffered first rationale awaits resolution.
func (s *State) HasPending() bool {
	return s.pendingText != ""
}

// TakePending releases the buffered first rationale and clears the buffer.
// The buffer is cleared at most once; a second call reports no pending text.
func (s *State) TakePending() (string, *trace.Payload, bool) {
	if s.pendingText == "" {
		return "", nil, false
	}
	text, p := s.pendingText, s.pendingTrace
	s.pendingText = ""
	s.pendingTrace = nil
	return text, p, true
}

// History returns the accepted rationales in acceptance order.
func (s *State) History() []string {
	return append([]string(nil), s.history...)
}

// Append records an accepted rationale.
func (s *State) Append(text string) {
	s.history = append(s.history, text)
}
