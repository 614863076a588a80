package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/domain/language"
	"github.com/triskell-ai/answerdex/internal/domain/validation"
)

type mockRewriter struct {
	en, fr string
}

func (m *mockRewriter) Rewrite(context.Context, string) (string, string) {
	return m.en, m.fr
}

type mockSearcher struct {
	mu       sync.Mutex
	searchFn func(query string) ([]domain.ScoredContext, error)
	queries  []string
}

func (m *mockSearcher) HybridSearch(_ context.Context, query string, _ int, _ float64) ([]domain.ScoredContext, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	return m.searchFn(query)
}

func (m *mockSearcher) VectorWeight() float64 { return 0.7 }

type mockValidator struct {
	validateFn func(en, fr []domain.ScoredContext, lang language.Language) validation.Result
	gotEN      []domain.ScoredContext
	gotFR      []domain.ScoredContext
}

func (m *mockValidator) Validate(_ context.Context, _ string, en, fr []domain.ScoredContext, lang language.Language) validation.Result {
	m.gotEN, m.gotFR = en, fr
	return m.validateFn(en, fr, lang)
}

type mockGenerator struct {
	generateFn func(result validation.Result, lang language.Language) string
}

func (m *mockGenerator) Generate(_ context.Context, _ string, result validation.Result, lang language.Language) string {
	return m.generateFn(result, lang)
}

type mockJudge struct {
	judgeFn func(draft string) (string, bool)
	calls   int
}

func (m *mockJudge) Judge(_ context.Context, _, _, draft string, _ []domain.ScoredContext, _ language.Language) (string, bool) {
	m.calls++
	return m.judgeFn(draft)
}

func scored(id string) domain.ScoredContext {
	return domain.ScoredContext{
		Document: domain.Document{ID: id, Content: "q " + id, Answer: "a " + id},
		Score:    0.8,
	}
}

func TestProcessQuestionSuccessPath(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(query string) ([]domain.ScoredContext, error) {
			if query == "query en" {
				return []domain.ScoredContext{scored("en1")}, nil
			}
			return []domain.ScoredContext{scored("fr1")}, nil
		},
	}
	validator := &mockValidator{
		validateFn: func(en, fr []domain.ScoredContext, _ language.Language) validation.Result {
			return validation.Success(append(en, fr...), "found")
		},
	}
	generator := &mockGenerator{
		generateFn: func(validation.Result, language.Language) string { return "draft answer" },
	}
	judge := &mockJudge{
		judgeFn: func(string) (string, bool) { return "judged answer", false },
	}

	o := New(&mockRewriter{en: "query en", fr: "query fr"}, searcher, validator, generator, judge, 3)

	res, err := o.ProcessQuestion(context.Background(), "What does Triskell offer for resource planning?")
	if err != nil {
		t.Fatalf("ProcessQuestion() error = %v", err)
	}

	if res.Answer != "judged answer" {
		t.Errorf("answer = %q, want judged output", res.Answer)
	}
	if res.Language != language.EN {
		t.Errorf("language = %s, want en", res.Language)
	}
	if res.RewrittenEN != "query en" || res.RewrittenFR != "query fr" {
		t.Errorf("rewrites = (%q, %q)", res.RewrittenEN, res.RewrittenFR)
	}
	if len(searcher.queries) != 2 {
		t.Fatalf("ran %d searches, want 2 (one per branch)", len(searcher.queries))
	}
	if len(validator.gotEN) != 1 || validator.gotEN[0].Document.ID != "en1" {
		t.Errorf("validator EN branch = %+v", validator.gotEN)
	}
	if len(validator.gotFR) != 1 || validator.gotFR[0].Document.ID != "fr1" {
		t.Errorf("validator FR branch = %+v", validator.gotFR)
	}
	if judge.calls != 1 {
		t.Errorf("judge called %d times, want 1", judge.calls)
	}
	if !res.Trace.Judged || res.Trace.JudgeRetried {
		t.Errorf("trace judge flags = (%v, %v)", res.Trace.Judged, res.Trace.JudgeRetried)
	}
	if res.Trace.Draft != "draft answer" {
		t.Errorf("trace draft = %q", res.Trace.Draft)
	}
	for _, stage := range []string{"rewrite", "retrieve", "validate", "generate", "judge"} {
		if _, ok := res.Trace.StageDurations[stage]; !ok {
			t.Errorf("trace missing stage duration %q", stage)
		}
	}
}

func TestProcessQuestionFallbackSkipsJudge(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(string) ([]domain.ScoredContext, error) { return nil, nil },
	}
	fallbackMsg := language.FR.NoInformationFound()
	validator := &mockValidator{
		validateFn: func(_, _ []domain.ScoredContext, _ language.Language) validation.Result {
			return validation.Fallback(fallbackMsg, "both retrieval branches returned no results")
		},
	}
	generator := &mockGenerator{
		generateFn: func(result validation.Result, _ language.Language) string { return result.Message() },
	}
	judge := &mockJudge{
		judgeFn: func(string) (string, bool) { return "must not run", false },
	}

	o := New(&mockRewriter{en: "q", fr: "q"}, searcher, validator, generator, judge, 3)

	res, err := o.ProcessQuestion(context.Background(), "Quelles sont les fonctionnalités de gestion des ressources ?")
	if err != nil {
		t.Fatalf("ProcessQuestion() error = %v", err)
	}

	if res.Answer != fallbackMsg {
		t.Errorf("answer = %q, want untouched fallback message", res.Answer)
	}
	if res.Language != language.FR {
		t.Errorf("language = %s, want fr", res.Language)
	}
	if judge.calls != 0 {
		t.Errorf("judge called %d times on fallback, want 0", judge.calls)
	}
	if res.Trace.Judged {
		t.Error("trace marks fallback as judged")
	}
	if len(res.ContextsUsed) != 0 {
		t.Errorf("fallback carries %d contexts", len(res.ContextsUsed))
	}
}

func TestProcessQuestionOneBranchFailureDegrades(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(query string) ([]domain.ScoredContext, error) {
			if query == "query fr" {
				return nil, errors.New("redis timeout")
			}
			return []domain.ScoredContext{scored("en1")}, nil
		},
	}
	validator := &mockValidator{
		validateFn: func(en, _ []domain.ScoredContext, _ language.Language) validation.Result {
			return validation.Success(en, "found")
		},
	}
	generator := &mockGenerator{
		generateFn: func(validation.Result, language.Language) string { return "draft" },
	}
	judge := &mockJudge{judgeFn: func(d string) (string, bool) { return d, false }}

	o := New(&mockRewriter{en: "query en", fr: "query fr"}, searcher, validator, generator, judge, 3)

	res, err := o.ProcessQuestion(context.Background(), "What does Triskell offer for resource planning?")
	if err != nil {
		t.Fatalf("ProcessQuestion() error = %v, want degraded success", err)
	}
	if validator.gotFR != nil {
		t.Errorf("failed branch passed %d contexts to validation", len(validator.gotFR))
	}
	if len(res.Trace.BranchEN) != 1 {
		t.Errorf("surviving branch lost: %+v", res.Trace.BranchEN)
	}
}

func TestProcessQuestionBothBranchesFailing(t *testing.T) {
	searcher := &mockSearcher{
		searchFn: func(string) ([]domain.ScoredContext, error) {
			return nil, domain.ErrRetrievalUnavailable
		},
	}
	validator := &mockValidator{
		validateFn: func(_, _ []domain.ScoredContext, _ language.Language) validation.Result {
			t.Fatal("validation must not run when retrieval is fully down")
			return validation.Result{}
		},
	}
	generator := &mockGenerator{generateFn: func(validation.Result, language.Language) string { return "" }}
	judge := &mockJudge{judgeFn: func(d string) (string, bool) { return d, false }}

	o := New(&mockRewriter{en: "q en", fr: "q fr"}, searcher, validator, generator, judge, 3)

	_, err := o.ProcessQuestion(context.Background(), "What does Triskell offer for resource planning?")
	if !errors.Is(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want language.Language
	}{
		{"What reporting capabilities does the platform provide?", language.EN},
		{"Quelles sont les fonctionnalités de gestion des ressources ?", language.FR},
	}
	for _, tc := range cases {
		if got := DetectLanguage(tc.text); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}
