package rationale

import (
	"context"
	"errors"
	"testing"
)

type stubRewriter struct {
	out string
	err error
}

func (s *stubRewriter) Rewrite(_ context.Context, text, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func TestClassifyFirstRationaleNeverRejected(t *testing.T) {
	c := NewClassifier(&stubRewriter{out: "I check the catalog."})
	ctx := context.Background()

	texts := []string{
		"Hello! How can I help you today?",
		"The routing classifier selected a collaborator agent.",
		"",
	}
	for _, text := range texts {
		dec := c.Classify(ctx, text, nil, true, "what is in stock")
		if dec.Rejected {
			t.Fatalf("first rationale must not be rejected, input %q", text)
		}
		if dec.Text == "" {
			t.Fatalf("first rationale yielded empty text for input %q", text)
		}
	}
}

func TestClassifyFirstFallsBackOnRewriteFailure(t *testing.T) {
	c := NewClassifier(&stubRewriter{err: errors.New("model down")})

	dec := c.Classify(context.Background(), "Looking up order status", nil, true, "")
	if dec.Rejected {
		t.Fatal("first rationale rejected")
	}
	if dec.Text != "Looking up order status" {
		t.Fatalf("expected verbatim fallback, got %q", dec.Text)
	}
}

func TestClassifyFirstFallsBackOnDegenerateRewrite(t *testing.T) {
	for _, degenerate := range []string{"", "   ", "REJECT", "reject"} {
		c := NewClassifier(&stubRewriter{out: degenerate})
		dec := c.Classify(context.Background(), "Checking inventory", nil, true, "")
		if dec.Text != "Checking inventory" {
			t.Fatalf("rewrite %q: expected verbatim fallback, got %q", degenerate, dec.Text)
		}
	}
}

func TestClassifyRejectsExactDuplicate(t *testing.T) {
	c := NewClassifier(nil)
	history := []string{"I check the product catalog."}

	dec := c.Classify(context.Background(), "I check the product catalog.", history, false, "")
	if !dec.Rejected {
		t.Fatal("expected duplicate rationale to be rejected")
	}
}

func TestClassifyRejectsNormalizedDuplicate(t *testing.T) {
	c := NewClassifier(nil)
	history := []string{"I check the product catalog."}

	dec := c.Classify(context.Background(), "  i CHECK the product, catalog!  ", history, false, "")
	if !dec.Rejected {
		t.Fatal("expected normalized duplicate to be rejected")
	}
}

func TestClassifyRejectsGreetings(t *testing.T) {
	c := NewClassifier(nil)

	for _, text := range []string{
		"Hello! How can I help you today?",
		"I am an AI assistant and happy to help.",
		"Hi there, let me know if you need anything else.",
	} {
		dec := c.Classify(context.Background(), text, nil, false, "")
		if !dec.Rejected {
			t.Fatalf("expected greeting %q to be rejected", text)
		}
	}
}

func TestClassifyRejectsInternalComponentReferences(t *testing.T) {
	c := NewClassifier(nil)

	dec := c.Classify(context.Background(), "Forwarding the request to the routing classifier.", nil, false, "")
	if !dec.Rejected {
		t.Fatal("expected internal component reference to be rejected")
	}
}

func TestClassifyRejectionWinsOverRewrite(t *testing.T) {
	// A rewriter that would happily rewrite must not resurrect a text that
	// matches a rejection rule.
	c := NewClassifier(&stubRewriter{out: "I look things up."})

	dec := c.Classify(context.Background(), "Hello, how can I assist?", nil, false, "")
	if !dec.Rejected {
		t.Fatal("rejection must win over rewrite")
	}
}

func TestClassifyAcceptsFreshRationale(t *testing.T) {
	c := NewClassifier(&stubRewriter{out: "I compare two shipping options."})
	history := []string{"I check the product catalog."}

	dec := c.Classify(context.Background(), "Comparing shipping options for the user's region", history, false, "")
	if dec.Rejected {
		t.Fatal("fresh rationale must be accepted")
	}
	if dec.Text != "I compare two shipping options." {
		t.Fatalf("unexpected rewritten text %q", dec.Text)
	}
}

func TestStateBuffersFirstExactlyOnce(t *testing.T) {
	st := NewState()
	if !st.IsFirst() {
		t.Fatal("fresh state must report first rationale unseen")
	}

	if !st.BufferFirst("first", nil) {
		t.Fatal("first buffer attempt must succeed")
	}
	if st.IsFirst() {
		t.Fatal("first-rationale flag must flip on observation")
	}
	if st.BufferFirst("second", nil) {
		t.Fatal("second buffer attempt must be refused")
	}

	text, _, ok := st.TakePending()
	if !ok || text != "first" {
		t.Fatalf("unexpected pending release: %q ok=%v", text, ok)
	}
	if _, _, ok := st.TakePending(); ok {
		t.Fatal("buffer must be cleared exactly once")
	}
}

func TestStateHistoryIsCopied(t *testing.T) {
	st := NewState()
	st.Append("one")

	h := st.History()
	h[0] = "mutated"

	if st.History()[0] != "one" {
		t.Fatal("History must return a copy")
	}
}
