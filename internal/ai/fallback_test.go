package ai

import (
	"strings"
	"testing"
)

func TestBuildFallbackIsDeterministic(t *testing.T) {
	req := testRequest(3)
	first := buildFallback(req)
	for i := 0; i < 5; i++ {
		again := buildFallback(req)
		if *again != *first {
			t.Fatalf("fallback differs between runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestBuildFallbackContent(t *testing.T) {
	req := Request{
		Type: AnalysisSituation,
		Articles: []ArticleInput{
			{Title: "Strikes hit Kharkiv", Content: "c", RiskLevel: "critical", Location: "Kharkiv", Source: "wire-a"},
			{Title: "Aid convoy delayed", Content: "c", RiskLevel: "high", Location: "Sudan", Source: "wire-b"},
			{Title: "Markets steady", Content: "c", RiskLevel: "low", Source: "wire-a"},
		},
	}

	result := buildFallback(req)

	if result.Title != "Situation Report" {
		t.Errorf("title = %q", result.Title)
	}
	if result.SourcesCount != 2 {
		t.Errorf("sources count = %d, want 2", result.SourcesCount)
	}
	for _, want := range []string{
		"1 critical, 1 high, 1 low",
		"Kharkiv, Sudan",
		"- Strikes hit Kharkiv (risk: critical; Kharkiv; wire-a)",
	} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("content missing %q:\n%s", want, result.Content)
		}
	}
}
