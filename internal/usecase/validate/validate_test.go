package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/domain/language"
	"github.com/triskell-ai/answerdex/internal/domain/validation"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
	calls      int
	lastPrompt string
}

func (m *mockCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.calls++
	if len(req.Messages) > 0 {
		m.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	return m.completeFn(ctx, req)
}

func ctxWith(id, content string) domain.ScoredContext {
	return domain.ScoredContext{
		Document: domain.Document{ID: id, Content: content, Answer: "answer for " + id},
		Score:    0.8,
	}
}

func fixedResponse(text string) *mockCompleter {
	return &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{Text: text}, nil
		},
	}
}

func TestValidateEmptyBranchesSkipsLLM(t *testing.T) {
	completer := fixedResponse("RELEVANT_IDS: EN_1")
	agent := New(completer)

	res := agent.Validate(context.Background(), "pricing?", nil, nil, language.FR)

	if !res.IsFallback() {
		t.Fatal("want fallback for empty branches")
	}
	if res.Message() != language.FR.NoInformationFound() {
		t.Errorf("message = %q, want localized no-information text", res.Message())
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times, want 0", completer.calls)
	}
}

func TestValidateSelectsTaggedCandidates(t *testing.T) {
	completer := fixedResponse("RELEVANT_IDS: EN_2, FR_1\nREASONING: Both directly address pricing.")
	agent := New(completer)

	en := []domain.ScoredContext{ctxWith("a", "What is the product?"), ctxWith("b", "What is the pricing?")}
	fr := []domain.ScoredContext{ctxWith("c", "Quel est le tarif ?")}

	res := agent.Validate(context.Background(), "pricing?", en, fr, language.EN)

	if res.IsFallback() {
		t.Fatalf("want success, got fallback: %s", res.Reason())
	}
	got := res.Contexts()
	if len(got) != 2 || got[0].Document.ID != "b" || got[1].Document.ID != "c" {
		t.Fatalf("contexts = %+v, want [b c] in model order", got)
	}
	if !strings.Contains(res.Message(), "2 Q&A pairs") {
		t.Errorf("message = %q, want pair count", res.Message())
	}
	if !strings.Contains(res.Message(), "Both directly address pricing.") {
		t.Errorf("message = %q, want reasoning included", res.Message())
	}
	// prompt should carry the branch-tagged candidates
	for _, tag := range []string{"ID: EN_1", "ID: EN_2", "ID: FR_1"} {
		if !strings.Contains(completer.lastPrompt, tag) {
			t.Errorf("prompt missing %q", tag)
		}
	}
}

func TestValidateAcceptsBracketedIDs(t *testing.T) {
	agent := New(fixedResponse("RELEVANT_IDS: [EN_1, FR_1]"))

	en := []domain.ScoredContext{ctxWith("a", "q1")}
	fr := []domain.ScoredContext{ctxWith("b", "q2")}

	res := agent.Validate(context.Background(), "q", en, fr, language.EN)
	if res.IsFallback() {
		t.Fatalf("want success, got fallback: %s", res.Reason())
	}
	if len(res.Contexts()) != 2 {
		t.Errorf("got %d contexts, want 2", len(res.Contexts()))
	}
}

func TestValidateFallbackCases(t *testing.T) {
	en := []domain.ScoredContext{ctxWith("a", "q1")}

	cases := []struct {
		name       string
		response   string
		wantReason string
	}{
		{"none token", "RELEVANT_IDS: NONE\nREASONING: nothing matches", "no relevant Q&A pairs found for this query"},
		{"bracketed none", "RELEVANT_IDS: [NONE]", "no relevant Q&A pairs found for this query"},
		{"missing ids line", "I think EN_1 looks good.", "could not parse validation result"},
		{"unresolvable ids", "RELEVANT_IDS: EN_9, FR_3", "selected IDs not found in candidates"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := New(fixedResponse(tc.response)).Validate(context.Background(), "q", en, nil, language.EN)
			if !res.IsFallback() {
				t.Fatal("want fallback")
			}
			if res.Message() != language.EN.CannotAnswer() {
				t.Errorf("message = %q, want localized cannot-answer text", res.Message())
			}
			if res.Reason() != tc.wantReason {
				t.Errorf("reason = %q, want %q", res.Reason(), tc.wantReason)
			}
			if len(res.Contexts()) != 0 {
				t.Errorf("fallback carries %d contexts, want 0", len(res.Contexts()))
			}
		})
	}
}

func TestValidateSkipsUnresolvableButKeepsValid(t *testing.T) {
	agent := New(fixedResponse("RELEVANT_IDS: EN_1, EN_7"))

	en := []domain.ScoredContext{ctxWith("a", "q1")}
	res := agent.Validate(context.Background(), "q", en, nil, language.EN)

	if res.IsFallback() {
		t.Fatalf("want success, got fallback: %s", res.Reason())
	}
	if len(res.Contexts()) != 1 || res.Contexts()[0].Document.ID != "a" {
		t.Errorf("contexts = %+v, want only the resolvable pair", res.Contexts())
	}
}

func TestValidateCompleterErrorBecomesFallback(t *testing.T) {
	completer := &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{}, errors.New("provider down")
		},
	}

	en := []domain.ScoredContext{ctxWith("a", "q1")}
	res := New(completer).Validate(context.Background(), "q", en, nil, language.FR)

	if !res.IsFallback() {
		t.Fatal("want fallback on completer error")
	}
	if res.Status() != validation.StatusFallback {
		t.Errorf("status = %s", res.Status())
	}
	if res.Message() != language.FR.CannotAnswer() {
		t.Errorf("message = %q, want localized cannot-answer text", res.Message())
	}
	if !strings.Contains(res.Reason(), "provider down") {
		t.Errorf("reason = %q, want error text", res.Reason())
	}
}
