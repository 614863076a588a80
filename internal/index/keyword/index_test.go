package keyword

import (
	"context"
	"testing"

	"github.com/triskell-ai/answerdex/internal/domain"
)

func corpus() []domain.Document {
	return []domain.Document{
		{ID: "1", Content: "What is Triskell pricing?", Answer: "Contact sales."},
		{ID: "2", Content: "How does resource management work?", Answer: "Via capacity planning."},
		{ID: "3", Content: "What reporting does Triskell offer?", Answer: "Dashboards and exports."},
	}
}

func TestSearchRanksMatchingTermsFirst(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())

	results, err := ix.Search(context.Background(), "triskell pricing", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected matches")
	}
	if results[0].Document.ID != "1" {
		t.Errorf("top result = %s, want doc 1 (matches both terms)", results[0].Document.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestSearchMatchesCaseInsensitively(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())

	results, err := ix.Search(context.Background(), "TRISKELL", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want the 2 docs mentioning triskell", len(results))
	}
}

func TestSearchNoMatchingTerms(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())

	results, err := ix.Search(context.Background(), "kubernetes", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestSearchEmptyIndexAndEmptyQuery(t *testing.T) {
	ix := New()

	if res, _ := ix.Search(context.Background(), "anything", 5); res != nil {
		t.Errorf("empty index returned %v", res)
	}

	ix.Rebuild(corpus())
	if res, _ := ix.Search(context.Background(), "   ", 5); res != nil {
		t.Errorf("empty query returned %v", res)
	}
	if res, _ := ix.Search(context.Background(), "triskell", 0); res != nil {
		t.Errorf("k=0 returned %v", res)
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())

	results, err := ix.Search(context.Background(), "triskell", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix := New()
	ix.Rebuild([]domain.Document{
		{ID: "a", Content: "identical question text"},
		{ID: "b", Content: "identical question text"},
	})

	for i := 0; i < 5; i++ {
		results, err := ix.Search(context.Background(), "identical question", 10)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 2 || results[0].Document.ID != "a" || results[1].Document.ID != "b" {
			t.Fatalf("run %d: order = %v, want [a b]", i, []string{results[0].Document.ID, results[1].Document.ID})
		}
	}
}

func TestAddExtendsIndex(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())

	if ix.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ix.Len())
	}

	ix.Add(domain.Document{ID: "4", Content: "What about gantt charts?"})
	if ix.Len() != 4 {
		t.Errorf("Len() = %d after Add, want 4", ix.Len())
	}

	results, err := ix.Search(context.Background(), "gantt", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Document.ID != "4" {
		t.Errorf("results = %v, want just the added doc", results)
	}
}

func TestRebuildReplacesIndex(t *testing.T) {
	ix := New()
	ix.Rebuild(corpus())
	ix.Rebuild([]domain.Document{{ID: "x", Content: "fresh corpus"}})

	if ix.Len() != 1 {
		t.Errorf("Len() = %d after Rebuild, want 1", ix.Len())
	}
	if res, _ := ix.Search(context.Background(), "triskell", 10); len(res) != 0 {
		t.Errorf("old corpus still searchable: %v", res)
	}
}
