package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/solenlabs/agent-relay/backend/internal/model/trace"
	"github.com/solenlabs/agent-relay/backend/pkg/retry"
)

// FallbackSummary is substituted when the rewriting service stays
// unreachable after every retry. A missing summary must never abort the
// relay.
const FallbackSummary = "Processing step"

const summarizeSystemPrompt = `You summarize one step of an agent run for a live audience.
Reply with a single sentence of at most 10 words, present tense, first person.
Do not mention models, prompts, or internal architecture; treat them as confidential.`

const rewriteSystemPrompt = `You rewrite an agent's stated reasoning for a live audience.
Reply with a single sentence of at most 15 words, present tense, first person.
Strip technical jargon and never name internal components.
If the text is a bare greeting with no reasoning, reply with exactly REJECT.`

// generator abstracts the compiled eino chain so tests can inject fakes.
type generator interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// Service is the client of the external text-rewriting model. It produces
// trace summaries and rationale rewrites, each guarded by the Backoff
// Executor. With no model, or with summaries administratively disabled, it
// degrades to deterministic labels.
type Service struct {
	gen     generator
	exec    *retry.Executor
	enabled bool
}

// NewService compiles the rewriting chain over the supplied chat model.
// A nil model or enabled=false yields a label-only service.
func NewService(ctx context.Context, chatModel model.ChatModel, exec *retry.Executor, enabled bool) (*Service, error) {
	s := &Service{exec: exec}
	if chatModel == nil || !enabled {
		return s, nil
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile summary chain: %w", err)
	}

	s.gen = runnable
	s.enabled = true
	return s, nil
}

// Enabled reports whether model-generated summaries are active.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Summarize produces a short reader-facing summary for a trace record.
// It never fails: exhausted retries yield FallbackSummary, and disabled
// summaries yield the deterministic label.
func (s *Service) Summarize(ctx context.Context, p *trace.Payload) string {
	if !s.enabled {
		return Label(labelSource(p))
	}

	encoded, err := json.Marshal(trace.Canonicalize(payloadMap(p)))
	if err != nil {
		log.Printf("[summary] failed to encode trace payload: %v", err)
		return FallbackSummary
	}

	query := fmt.Sprintf("Summarize this agent trace step:\n%s", encoded)
	out, err := s.generate(ctx, summarizeSystemPrompt, query)
	if err != nil {
		log.Printf("[summary] summarize failed, using fallback: %v", err)
		return FallbackSummary
	}
	return out
}

// Rewrite refines rationale text. Callers fall back to the original text on
// error; the error is surfaced so they can decide.
func (s *Service) Rewrite(ctx context.Context, text, userInput string) (string, error) {
	if !s.enabled {
		return text, nil
	}

	var query strings.Builder
	query.WriteString("Agent reasoning:\n")
	query.WriteString(text)
	if userInput != "" {
		query.WriteString("\n\nThe user asked:\n")
		query.WriteString(userInput)
	}

	return s.generate(ctx, rewriteSystemPrompt, query.String())
}

func (s *Service) generate(ctx context.Context, system, query string) (string, error) {
	return s.exec.Execute(ctx, func(ctx context.Context) (string, error) {
		if strings.TrimSpace(query) == "" {
			return "", fmt.Errorf("%w: empty prompt", retry.ErrInvalidInput)
		}

		msg, err := s.gen.Invoke(ctx, map[string]any{
			"system": system,
			"query":  query,
		})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(msg.Content), nil
	})
}

// labelSource picks the map the deterministic label is derived from.
func labelSource(p *trace.Payload) map[string]any {
	if p == nil {
		return nil
	}
	if len(p.Raw) > 0 {
		return p.Raw
	}
	if p.Typed() {
		return map[string]any{phaseKey(p.Type): struct{}{}}
	}
	return nil
}

// phaseKey renders a phase as the camel-case key the original payloads use,
// so "ORCHESTRATION" labels as "Orchestration Trace".
func phaseKey(phase trace.Phase) string {
	parts := strings.Split(strings.ToLower(string(phase)), "_")
	for i := 1; i < len(parts); i++ {
		parts[i] = capitalize(parts[i])
	}
	return strings.Join(parts, "") + "Trace"
}

func payloadMap(p *trace.Payload) map[string]any {
	if p == nil {
		return nil
	}
	if !p.Typed() {
		return p.Raw
	}

	out := map[string]any{"type": string(p.Type)}
	if p.ModelInvocationInput != nil {
		out["modelInvocationInput"] = p.ModelInvocationInput
	}
	if p.ModelInvocationOutput != nil {
		out["modelInvocationOutput"] = p.ModelInvocationOutput
	}
	if p.Rationale != nil {
		out["rationale"] = p.Rationale
	}
	if p.Observation != nil {
		out["observation"] = p.Observation
	}
	return out
}
