package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"intel-system/internal/extract"
	"intel-system/internal/notify"
	"intel-system/internal/policy"
	"intel-system/internal/store"
)

const (
	kyivText = "Heavy shelling and missile strikes hit Kyiv overnight. The military offensive " +
		"killed dozens and destroyed residential blocks, NATO officials said, warning of " +
		"further escalation and violence along the frontline."
	businessText = "Regional markets posted steady growth this quarter as trade volumes " +
		"recovered. The central bank reported stable inflation and rising investment across the region."
)

func seedStore() *store.Memory {
	m := store.NewMemory()

	published := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	m.AddArticle(store.Article{
		ID: "art-1", Title: "Untitled wire item", Source: "wire", Language: "en", PublishedAt: published,
	})

	kyiv := kyivText
	m.AddArticle(store.Article{
		ID: "art-2", Title: "Strikes hit Kyiv", Content: &kyiv,
		Source: "wire", Language: "en", PublishedAt: published,
	})

	business := businessText
	m.AddArticle(store.Article{
		ID: "art-3", Title: "Markets steady", Content: &business,
		Source: "biz-wire", Language: "en", PublishedAt: published,
	})

	return m
}

func newOrchestrator(s store.Store, n notify.Notifier) *Orchestrator {
	return NewOrchestrator(s, extract.NewLexicon(), policy.Default(), nil, n, Config{
		BatchSize:        10,
		MinContentLength: 40,
	})
}

// checkInvariant asserts risk_level is non-null exactly when an enrichment
// row exists.
func checkInvariant(t *testing.T, m *store.Memory, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		a, err := m.GetArticle(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		_, hasResult := m.Result(id)
		if (a.RiskLevel != nil) != hasResult {
			t.Errorf("invariant broken for %s: risk=%v result=%v", id, a.RiskLevel, hasResult)
		}
	}
}

func TestProcessBatchEndToEnd(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	o := newOrchestrator(m, nil)

	stats, err := o.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if stats.Processed != 3 || stats.Errors != 0 {
		t.Fatalf("stats = %+v, want 3 processed, 0 errors", stats)
	}
	checkInvariant(t, m, "art-1", "art-2", "art-3")

	// Null content still reaches a terminal enriched state, as unknown.
	r1, ok := m.Result("art-1")
	if !ok {
		t.Fatal("art-1 not enriched")
	}
	if r1.Category != store.CategoryUnknown || r1.Sentiment != 0.0 {
		t.Errorf("art-1 = %s/%.2f, want unknown/0", r1.Category, r1.Sentiment)
	}

	r2, _ := m.Result("art-2")
	if r2.Category != store.CategoryMilitary {
		t.Errorf("art-2 category = %s, want military", r2.Category)
	}
	found := false
	for _, loc := range r2.Entities.Locations {
		if loc == "Kyiv" {
			found = true
		}
	}
	if !found {
		t.Errorf("art-2 locations = %v, want Kyiv", r2.Entities.Locations)
	}
	a2, _ := m.GetArticle(ctx, "art-2")
	if a2.RiskLevel == nil || (*a2.RiskLevel != store.RiskHigh && *a2.RiskLevel != store.RiskCritical) {
		t.Errorf("art-2 risk = %v, want high or critical", a2.RiskLevel)
	}
	if r2.Summary == "" {
		t.Error("art-2 has no summary")
	}

	a3, _ := m.GetArticle(ctx, "art-3")
	if a3.RiskLevel == nil || *a3.RiskLevel != store.RiskLow {
		t.Errorf("art-3 risk = %v, want low", a3.RiskLevel)
	}
}

func TestProcessBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	o := newOrchestrator(m, nil)

	if _, err := o.ProcessBatch(ctx); err != nil {
		t.Fatal(err)
	}
	stats, err := o.ProcessBatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Processed != 0 || stats.Errors != 0 {
		t.Errorf("second run stats = %+v, want no work", stats)
	}
}

func TestResetReturnsArticleToQueue(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	o := newOrchestrator(m, nil)

	if _, err := o.ProcessBatch(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Reset(ctx, "art-2"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	checkInvariant(t, m, "art-1", "art-2", "art-3")

	stats, err := o.ProcessBatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Processed != 1 {
		t.Errorf("reprocess stats = %+v, want exactly the reset article", stats)
	}
	checkInvariant(t, m, "art-2")
}

// failingStore injects a write failure for one article.
type failingStore struct {
	*store.Memory
	failID string
}

func (f *failingStore) WriteEnrichment(ctx context.Context, articleID string, result store.EnrichmentResult, risk store.RiskLevel) error {
	if articleID == f.failID {
		return errors.New("injected write failure")
	}
	return f.Memory.WriteEnrichment(ctx, articleID, result, risk)
}

func TestProcessBatchContinuesPastArticleFailure(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	o := newOrchestrator(&failingStore{Memory: m, failID: "art-2"}, nil)

	stats, err := o.ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if stats.Processed != 2 || stats.Errors != 1 {
		t.Errorf("stats = %+v, want 2 processed, 1 error", stats)
	}
	checkInvariant(t, m, "art-1", "art-2", "art-3")

	// The failed article is back in the queue for the next run.
	queue, err := m.FetchUnenriched(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 1 || queue[0].ID != "art-2" {
		t.Errorf("queue = %v, want only art-2", queue)
	}
}

func TestProcessBatchSkipsConcurrentlyClaimedArticle(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	o := newOrchestrator(m, nil)

	// Simulate another orchestrator instance holding art-2.
	if ok, _ := m.Claim(ctx, "art-2"); !ok {
		t.Fatal("pre-claim failed")
	}

	stats, err := o.ProcessBatch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Processed != 2 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want 2 processed, 0 errors", stats)
	}
	if _, enriched := m.Result("art-2"); enriched {
		t.Error("claimed article was double-processed")
	}
}

// brokenResetStore simulates a reset that fails without partial effects, the
// guarantee the transactional stores provide.
type brokenResetStore struct {
	*store.Memory
}

func (b *brokenResetStore) ResetEnrichment(context.Context, string) error {
	return errors.New("injected reset failure")
}

func TestResetFailureLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	m := seedStore()

	if _, err := newOrchestrator(m, nil).ProcessBatch(ctx); err != nil {
		t.Fatal(err)
	}

	o := newOrchestrator(&brokenResetStore{Memory: m}, nil)
	if err := o.Reset(ctx, "art-2"); err == nil {
		t.Fatal("expected reset error")
	}

	// Both halves must survive together: result row and risk level.
	if _, ok := m.Result("art-2"); !ok {
		t.Error("enrichment row lost on failed reset")
	}
	a, _ := m.GetArticle(ctx, "art-2")
	if a.RiskLevel == nil {
		t.Error("risk level lost on failed reset")
	}
	checkInvariant(t, m, "art-2")
}

type recordingNotifier struct {
	alerts []notify.Alert
}

func (r *recordingNotifier) Send(_ context.Context, alert notify.Alert) error {
	r.alerts = append(r.alerts, alert)
	return nil
}

func TestCriticalRiskEmitsAlert(t *testing.T) {
	ctx := context.Background()
	m := seedStore()
	rec := &recordingNotifier{}
	o := newOrchestrator(m, rec)

	if _, err := o.ProcessBatch(ctx); err != nil {
		t.Fatal(err)
	}

	a2, _ := m.GetArticle(ctx, "art-2")
	if a2.RiskLevel != nil && *a2.RiskLevel == store.RiskCritical {
		if len(rec.alerts) == 0 {
			t.Fatal("critical article produced no alert")
		}
		if rec.alerts[0].Title != "Critical risk: Strikes hit Kyiv" {
			t.Errorf("alert title = %q", rec.alerts[0].Title)
		}
	} else if len(rec.alerts) != 0 {
		t.Errorf("non-critical batch produced alerts: %v", rec.alerts)
	}
}

func TestShortContentGetsNeutralResult(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	short := "War."
	m.AddArticle(store.Article{
		ID: "short-1", Title: "Too short", Content: &short,
		Source: "wire", Language: "en", PublishedAt: time.Now(),
	})

	o := newOrchestrator(m, nil)
	if _, err := o.ProcessBatch(ctx); err != nil {
		t.Fatal(err)
	}

	r, ok := m.Result("short-1")
	if !ok {
		t.Fatal("short article not enriched")
	}
	if r.Category != store.CategoryUnknown {
		t.Errorf("category = %s, want unknown for short content", r.Category)
	}
}

func TestExcerptTruncatesOnRuneBoundary(t *testing.T) {
	long := "a" + strings.Repeat("б", 300)

	got := excerpt(long)

	if !utf8.ValidString(got) {
		t.Fatalf("excerpt produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("excerpt of long text must end with ellipsis, got %q", got)
	}
	if len(got) > summaryMaxLen+len("…") {
		t.Errorf("excerpt length = %d bytes, want at most %d", len(got), summaryMaxLen+len("…"))
	}

	sentence := "Короткое предложение. И ещё одно."
	if got := excerpt(sentence); got != "Короткое предложение." {
		t.Errorf("excerpt = %q, want first sentence", got)
	}
}
