package rationale

import (
	"context"
	"log"
	"strings"
	"unicode"
)

// Decision is the outcome of classifying one rationale. A rejected decision
// means the governing event is discarded entirely: no broadcast, no history
// entry.
type Decision struct {
	Text     string
	Rejected bool
}

// Rewriter produces a short reader-friendly rendition of rationale text.
// Implementations may fail; the classifier falls back to the original text.
type Rewriter interface {
	Rewrite(ctx context.Context, text, userInput string) (string, error)
}

// Classifier decides whether a candidate rationale is shown to subscribers.
// The accept/reject decision is a pure function of the candidate text, the
// acceptance history, and the position in the invocation; only the rewording
// goes through the Rewriter.
type Classifier struct {
	rewriter Rewriter
}

// NewClassifier builds a Classifier. A nil rewriter keeps rationales verbatim.
func NewClassifier(rw Rewriter) *Classifier {
	return &Classifier{rewriter: rw}
}

// Classify evaluates one rationale. The first rationale of an invocation is
// never rejected. For subsequent rationales, rejection wins over rewriting
// whenever both would apply.
func (c *Classifier) Classify(ctx context.Context, text string, history []string, first bool, userInput string) Decision {
	if !first && shouldReject(text, history) {
		return Decision{Rejected: true}
	}
	return Decision{Text: c.rewrite(ctx, text, userInput)}
}

// rewrite asks the Rewriter for a refined rendition, falling back to the
// original text on failure or a degenerate result.
func (c *Classifier) rewrite(ctx context.Context, text, userInput string) string {
	if c.rewriter == nil {
		return text
	}

	out, err := c.rewriter.Rewrite(ctx, text, userInput)
	if err != nil {
		log.Printf("[rationale] rewrite failed, keeping original text: %v", err)
		return text
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, "REJECT") {
		return text
	}
	return out
}

// genericPhrases match greeting, generic-assistance, and meta statements
// that carry no information about the current step.
var genericPhrases = []string{
	"hello",
	"hi there",
	"how can i help",
	"how can i assist",
	"happy to help",
	"i am here to help",
	"i am an ai",
	"as an ai",
	"i will do my best to assist",
	"let me know if you need anything",
}

// internalComponents are routing internals that must never be surfaced to
// subscribers by name.
var internalComponents = []string{
	"routing classifier",
	"knowledge base",
	"lambda function",
	"action group",
	"guardrail",
	"supervisor agent",
	"collaborator agent",
	"agent alias",
	"preprocessing prompt",
}

func shouldReject(text string, history []string) bool {
	norm := normalize(text)
	if norm == "" {
		return true
	}

	for _, prior := range history {
		p := normalize(prior)
		if p == "" {
			continue
		}
		if p == norm || strings.Contains(p, norm) || strings.Contains(norm, p) {
			return true
		}
	}

	for _, phrase := range genericPhrases {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	for _, name := range internalComponents {
		if strings.Contains(norm, name) {
			return true
		}
	}
	return false
}

// normalize lowercases the text and collapses every non-alphanumeric run
// into a single space so formatting differences do not defeat comparison.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
