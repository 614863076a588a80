package generate

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

func successResult() validation.Result {
	return validation.Success([]domain.ScoredContext{
		{
			Document: domain.Document{ID: "1", Content: "What is Triskell?", Answer: "A PPM platform."},
			Score:    0.9,
		},
	}, "Relevant information found (1 Q&A pairs).")
}

func TestGenerateFallbackPassesThroughVerbatim(t *testing.T) {
	completer := &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{Text: "should not be called"}, nil
		},
	}
	agent := New(completer)

	msg := language.FR.NoInformationFound()
	got := agent.Generate(context.Background(), "q", validation.Fallback(msg, "empty branches"), language.FR)

	if got != msg {
		t.Errorf("Generate() = %q, want fallback message byte-for-byte", got)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for fallback, want 0", completer.calls)
	}
}

func TestGenerateBuildsQABlocksWithoutScores(t *testing.T) {
	completer := &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{Text: "Triskell is a PPM platform."}, nil
		},
	}
	agent := New(completer)

	got := agent.Generate(context.Background(), "What is Triskell?", successResult(), language.EN)

	if got != "Triskell is a PPM platform." {
		t.Errorf("Generate() = %q", got)
	}
	if !strings.Contains(completer.lastPrompt, "Q: What is Triskell?\nA: A PPM platform.") {
		t.Errorf("prompt missing Q/A block:\n%s", completer.lastPrompt)
	}
	if strings.Contains(completer.lastPrompt, "0.9") {
		t.Error("prompt leaks the relevance score")
	}
}

func TestGenerateUsesFrenchTemplateForFrench(t *testing.T) {
	completer := &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{Text: "Triskell est une plateforme PPM."}, nil
		},
	}
	agent := New(completer)

	agent.Generate(context.Background(), "Qu'est-ce que Triskell ?", successResult(), language.FR)

	if !strings.Contains(completer.lastPrompt, "spécialiste Triskell Software PPM") {
		t.Errorf("prompt is not the French template:\n%s", completer.lastPrompt)
	}
}

func TestGenerateErrorReturnsLocalizedApology(t *testing.T) {
	completer := &mockCompleter{
		completeFn: func(context.Context, domain.CompletionRequest) (domain.CompletionResult, error) {
			return domain.CompletionResult{}, errors.New("provider down")
		},
	}
	agent := New(completer)

	if got := agent.Generate(context.Background(), "q", successResult(), language.FR); got != language.FR.Apology() {
		t.Errorf("Generate() = %q, want French apology", got)
	}
	if got := agent.Generate(context.Background(), "q", successResult(), language.EN); got != language.EN.Apology() {
		t.Errorf("Generate() = %q, want English apology", got)
	}
}

func TestPostProcessStripsVerbosePhrases(t *testing.T) {
	raw := "Based on the information provided, Triskell supports Gantt charts.\n\n\nFurthermore, it offers   dashboards.\nI hope this helps"
	got := postProcess(raw)

	for _, phrase := range []string{"Based on the information provided", "Furthermore,", "I hope this helps"} {
		if strings.Contains(got, phrase) {
			t.Errorf("postProcess() kept %q: %q", phrase, got)
		}
	}
	if strings.Contains(got, "  ") {
		t.Errorf("postProcess() kept repeated spaces: %q", got)
	}
	if strings.Contains(got, "\n\n") {
		t.Errorf("postProcess() kept blank lines: %q", got)
	}
}

func TestPostProcessKeepsBulletStructure(t *testing.T) {
	raw := "Key capabilities:\n- Portfolio management\n- Resource planning"
	if got := postProcess(raw); got != raw {
		t.Errorf("postProcess() = %q, want unchanged", got)
	}
}
