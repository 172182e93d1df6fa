package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeProvider struct {
	name      string
	available bool
	err       error
	calls     int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Generate(_ context.Context, req Request) (*Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Result{
		Title:        "analysis from " + f.name,
		Content:      "generated content",
		SourcesCount: len(req.Articles),
	}, nil
}

func testRequest(n int) Request {
	req := Request{Type: AnalysisBriefing}
	for i := 0; i < n; i++ {
		req.Articles = append(req.Articles, ArticleInput{
			Title:     fmt.Sprintf("title %d", i),
			Content:   fmt.Sprintf("content %d", i),
			RiskLevel: "high",
			Location:  "Kyiv",
			Source:    fmt.Sprintf("source-%d", i),
		})
	}
	return req
}

func TestGenerateAnalysisFailsOverInPriorityOrder(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: Transient("a", errors.New("rate limited"))}
	b := &fakeProvider{name: "b", available: false}
	c := &fakeProvider{name: "c", available: true}
	client := NewClient([]Provider{a, b, c}, Options{})

	result, err := client.GenerateAnalysis(context.Background(), testRequest(2))
	if err != nil {
		t.Fatalf("GenerateAnalysis: %v", err)
	}

	if result.Provider != "c" {
		t.Errorf("provider = %s, want c", result.Provider)
	}
	if result.IsFallback {
		t.Error("result marked as fallback")
	}
	if a.calls != 1 {
		t.Errorf("provider a called %d times, want 1", a.calls)
	}
	if b.calls != 0 {
		t.Errorf("unavailable provider b was invoked %d times", b.calls)
	}
	if result.ID == "" || result.GeneratedAt.IsZero() {
		t.Error("result missing ID or timestamp")
	}
}

func TestGenerateAnalysisMalformedTriggersFailover(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: Malformed("a", errors.New("bad json"))}
	b := &fakeProvider{name: "b", available: true}
	client := NewClient([]Provider{a, b}, Options{})

	result, err := client.GenerateAnalysis(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("GenerateAnalysis: %v", err)
	}
	if result.Provider != "b" {
		t.Errorf("provider = %s, want b", result.Provider)
	}
}

func TestGenerateAnalysisFallbackWhenAllFail(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: Transient("a", errors.New("timeout"))}
	b := &fakeProvider{name: "b", available: false}
	client := NewClient([]Provider{a, b}, Options{})

	result, err := client.GenerateAnalysis(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("GenerateAnalysis must not fail on provider trouble: %v", err)
	}

	if !result.IsFallback {
		t.Error("result not marked as fallback")
	}
	if result.Provider != "fallback" {
		t.Errorf("provider = %s, want fallback", result.Provider)
	}
	if result.Content == "" {
		t.Error("fallback content is empty")
	}
	if result.SourcesCount != 3 {
		t.Errorf("sources count = %d, want 3", result.SourcesCount)
	}
}

func TestGenerateAnalysisNoProvidersStillSucceeds(t *testing.T) {
	client := NewClient(nil, Options{})
	result, err := client.GenerateAnalysis(context.Background(), testRequest(1))
	if err != nil {
		t.Fatalf("GenerateAnalysis: %v", err)
	}
	if !result.IsFallback {
		t.Error("expected fallback result with no providers")
	}
}

func TestGenerateAnalysisEmptyBatch(t *testing.T) {
	client := NewClient([]Provider{&fakeProvider{name: "a", available: true}}, Options{})
	_, err := client.GenerateAnalysis(context.Background(), Request{Type: AnalysisBriefing})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("err = %v, want ErrEmptyBatch", err)
	}
}

func TestGenerateAnalysisIncompleteArticle(t *testing.T) {
	client := NewClient([]Provider{&fakeProvider{name: "a", available: true}}, Options{})
	req := Request{Articles: []ArticleInput{{Title: "has title only"}}}
	_, err := client.GenerateAnalysis(context.Background(), req)
	if !errors.Is(err, ErrIncompleteArticle) {
		t.Errorf("err = %v, want ErrIncompleteArticle", err)
	}
}

func TestGenerateAnalysisFatalPropagates(t *testing.T) {
	fatal := Fatal("a", errors.New("nil request body"))
	a := &fakeProvider{name: "a", available: true, err: fatal}
	b := &fakeProvider{name: "b", available: true}
	client := NewClient([]Provider{a, b}, Options{})

	_, err := client.GenerateAnalysis(context.Background(), testRequest(1))
	if err == nil {
		t.Fatal("fatal provider error was swallowed")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindFatal {
		t.Errorf("err = %v, want fatal ProviderError", err)
	}
	if b.calls != 0 {
		t.Error("failover continued past a fatal error")
	}
}

func TestCooldownSkipsRecentlyFailedProvider(t *testing.T) {
	a := &fakeProvider{name: "a", available: true, err: Transient("a", errors.New("down"))}
	b := &fakeProvider{name: "b", available: true}
	client := NewClient([]Provider{a, b}, Options{Cooldown: time.Minute})

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	if _, err := client.GenerateAnalysis(context.Background(), testRequest(1)); err != nil {
		t.Fatal(err)
	}
	if a.calls != 1 {
		t.Fatalf("provider a calls = %d, want 1", a.calls)
	}

	// Within the window the dead provider is skipped entirely.
	now = now.Add(30 * time.Second)
	if _, err := client.GenerateAnalysis(context.Background(), testRequest(1)); err != nil {
		t.Fatal(err)
	}
	if a.calls != 1 {
		t.Errorf("provider a retried during cooldown: calls = %d", a.calls)
	}

	// After the window it is eligible again.
	now = now.Add(2 * time.Minute)
	if _, err := client.GenerateAnalysis(context.Background(), testRequest(1)); err != nil {
		t.Fatal(err)
	}
	if a.calls != 2 {
		t.Errorf("provider a not retried after cooldown: calls = %d", a.calls)
	}
}
