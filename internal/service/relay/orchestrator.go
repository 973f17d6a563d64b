package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	relaymodel "github.com/solenlabs/agent-relay/backend/internal/model/relay"
	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
	"github.com/solenlabs/agent-relay/backend/internal/service/agent"
	"github.com/solenlabs/agent-relay/backend/internal/service/rationale"
	"github.com/solenlabs/agent-relay/backend/internal/service/room"
)

// ErrStreamStalled is returned when the upstream event stream produces
// nothing for longer than the configured idle timeout.
var ErrStreamStalled = errors.New("agent stream stalled")

// Summarizer attaches reader-facing summaries to trace records.
type Summarizer interface {
	Summarize(ctx context.Context, p *trace.Payload) string
}

// Orchestrator drives one invocation's event stream end-to-end: events are
// consumed strictly sequentially, classified, refined, and broadcast to the
// session's room in arrival order. Multiple invocations may run concurrently
// as independent workers sharing only the room registry.
type Orchestrator struct {
	source      agent.Source
	classifier  *rationale.Classifier
	summarizer  Summarizer
	rooms       *room.Registry
	idleTimeout time.Duration
}

// New wires an Orchestrator. idleTimeout <= 0 disables the stall policy.
func New(source agent.Source, classifier *rationale.Classifier, summarizer Summarizer, rooms *room.Registry, idleTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		source:      source,
		classifier:  classifier,
		summarizer:  summarizer,
		rooms:       rooms,
		idleTimeout: idleTimeout,
	}
}

// invocation is the per-run working state; it lives on one worker only.
type invocation struct {
	id            string
	sessionID     string
	userInput     string
	finalResponse string
	traces        []trace.Normalized
}

// Run processes one agent invocation for the session. It returns the
// aggregate result on normal stream end, or the upstream error after
// broadcasting a terminal error message to the room. A buffered first
// rationale is never flushed on failure.
func (o *Orchestrator) Run(ctx context.Context, sessionID, inputText string) (*relaymodel.Result, error) {
	stream, err := o.source.Invoke(ctx, sessionID, inputText)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke agent: %w", err)
	}
	defer stream.Close()

	inv := &invocation{
		id:        uuid.NewString(),
		sessionID: sessionID,
		userInput: inputText,
	}
	st := rationale.NewState()

	log.Printf("[relay] invocation %s started session=%s", inv.id, sessionID)

	for {
		ev, err := o.recv(ctx, stream)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("[relay] invocation %s failed session=%s: %v", inv.id, sessionID, err)
			o.rooms.Broadcast(sessionID, relaymodel.NewErrorMessage(sessionID, err.Error()))
			return nil, fmt.Errorf("agent stream failed: %w", err)
		}
		o.handleEvent(ctx, inv, st, ev)
	}

	log.Printf("[relay] invocation %s done session=%s traces=%d", inv.id, sessionID, len(inv.traces))
	return &relaymodel.Result{Message: inv.finalResponse, Traces: inv.traces}, nil
}

// recv waits for the next event, applying the idle-timeout policy when one
// is configured.
func (o *Orchestrator) recv(ctx context.Context, stream agent.Stream) (trace.Event, error) {
	if o.idleTimeout <= 0 {
		return stream.Recv()
	}

	type received struct {
		ev  trace.Event
		err error
	}
	ch := make(chan received, 1)
	go func() {
		ev, err := stream.Recv()
		ch <- received{ev: ev, err: err}
	}()

	timer := time.NewTimer(o.idleTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.ev, r.err
	case <-timer.C:
		return trace.Event{}, ErrStreamStalled
	case <-ctx.Done():
		return trace.Event{}, ctx.Err()
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, inv *invocation, st *rationale.State, ev trace.Event) {
	switch {
	case ev.Chunk != nil:
		// Last chunk wins as the invocation's final response.
		inv.finalResponse = ev.Chunk.Content
		o.rooms.Broadcast(inv.sessionID, relaymodel.NewChunkMessage(inv.sessionID, ev.Chunk.Content))
	case ev.Trace != nil:
		o.handleTrace(ctx, inv, st, ev.Trace)
	}
}

func (o *Orchestrator) handleTrace(ctx context.Context, inv *invocation, st *rationale.State, p *trace.Payload) {
	// Look-ahead resolution comes first: a caller chain longer than one
	// confirms multi-agent delegation and releases the buffered first
	// rationale at this point in the stream.
	if p.MultiParticipant() && st.HasPending() {
		o.releasePending(ctx, inv, st)
	}

	if p.Type == trace.PhaseOrchestration {
		if text := p.RationaleText(); text != "" {
			o.handleRationale(ctx, inv, st, p, text)
			return
		}
	}

	norm := o.normalize(ctx, p)
	o.emitTrace(inv, norm)
}

// handleRationale routes orchestration-phase rationale text through the
// refinement pipeline. The very first rationale is buffered undecided;
// subsequent ones are classified against the acceptance history, and a
// rejected rationale suppresses its governing event entirely.
func (o *Orchestrator) handleRationale(ctx context.Context, inv *invocation, st *rationale.State, p *trace.Payload, text string) {
	if st.IsFirst() {
		st.BufferFirst(text, p)
		return
	}

	dec := o.classifier.Classify(ctx, text, st.History(), false, inv.userInput)
	if dec.Rejected {
		log.Printf("[relay] invocation %s dropped redundant rationale", inv.id)
		return
	}
	st.Append(dec.Text)

	norm := o.normalize(ctx, p)
	norm.SetRationale(dec.Text)
	o.emitTrace(inv, norm)
}

// releasePending classifies and emits the buffered first rationale. The
// first rationale is never rejected.
func (o *Orchestrator) releasePending(ctx context.Context, inv *invocation, st *rationale.State) {
	text, p, ok := st.TakePending()
	if !ok {
		return
	}

	dec := o.classifier.Classify(ctx, text, st.History(), true, inv.userInput)
	st.Append(dec.Text)

	norm := o.normalize(ctx, p)
	norm.SetRationale(dec.Text)
	o.emitTrace(inv, norm)
}

func (o *Orchestrator) normalize(ctx context.Context, p *trace.Payload) trace.Normalized {
	norm := trace.Normalize(p)
	norm.Summary = o.summarizer.Summarize(ctx, p)
	return norm
}

func (o *Orchestrator) emitTrace(inv *invocation, norm trace.Normalized) {
	inv.traces = append(inv.traces, norm)
	o.rooms.Broadcast(inv.sessionID, relaymodel.NewTraceMessage(inv.sessionID, &norm))
}
