package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LJTian/TreasuryHub/internal/collector"
	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/storage"
)

type fakeFetcher struct {
	name  string
	items []collector.NewsItem
	err   error
	calls int32
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context) ([]collector.NewsItem, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.items, f.err
}

type memStore struct {
	mu    sync.Mutex
	doc   *storage.Document
	saves int
	err   error
}

func (m *memStore) Load(ctx context.Context) (*storage.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, storage.ErrNoDocument
	}
	return m.doc, nil
}

func (m *memStore) Save(ctx context.Context, doc *storage.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.doc = doc
	m.saves++
	return nil
}

type fakeArchive struct {
	runID string
	n     int
	err   error
}

func (a *fakeArchive) SaveBatch(items []processor.ProcessedNews, runID string) error {
	a.runID = runID
	a.n = len(items)
	return a.err
}

type fakePublisher struct {
	n int
}

func (p *fakePublisher) Publish(ctx context.Context, articles []storage.Article) error {
	p.n = len(articles)
	return errors.New("broker down")
}

var fixedNow = time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC)

func sampleFetchers() []collector.Fetcher {
	return []collector.Fetcher{
		&fakeFetcher{name: "google_news:a", items: []collector.NewsItem{
			{Title: "Metaplanet buys 1,000 BTC - CoinDesk", Link: "https://example.com/1", PublishedAt: fixedNow.Add(-2 * time.Hour)},
			{Title: "SharpLink adds 2,000 ETH to treasury", Link: "https://example.com/2", PublishedAt: fixedNow.Add(-time.Hour)},
		}},
		&fakeFetcher{name: "google_news:b", err: errors.New("unexpected status 503")},
		&fakeFetcher{name: "feed:CoinDesk", items: []collector.NewsItem{
			{Title: "Metaplanet Buys 1,000 BTC - Decrypt", Link: "https://example.com/3", PublishedAt: fixedNow},
		}},
	}
}

func TestRunOnceSkipsFailingSource(t *testing.T) {
	store := &memStore{}
	arch := &fakeArchive{}
	pub := &fakePublisher{}

	s, err := New("*/30 * * * *", sampleFetchers(), processor.NewSimpleProcessor(), store,
		WithPacing(0), WithClock(func() time.Time { return fixedNow }), WithArchive(arch), WithPublisher(pub))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	doc, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(doc.Articles) != 2 {
		t.Fatalf("expected 2 articles after dedupe, got %d", len(doc.Articles))
	}
	if doc.Articles[0].Link != "https://example.com/2" {
		t.Fatalf("expected newest first, got %s", doc.Articles[0].Link)
	}
	if !doc.LastUpdated.Equal(fixedNow) {
		t.Fatalf("last_updated = %v", doc.LastUpdated)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
	if arch.n != 2 || arch.runID == "" {
		t.Fatalf("archive not called correctly: %+v", arch)
	}
	if pub.n != 2 {
		t.Fatalf("publisher got %d articles", pub.n)
	}
}

func TestRunOnceSaveError(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	s, err := New("*/30 * * * *", sampleFetchers(), processor.NewSimpleProcessor(), store, WithPacing(0))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
}

func TestRunOnceNoSourcesWritesEmptyDocument(t *testing.T) {
	store := &memStore{}
	s, err := New("@every 1h", nil, processor.NewSimpleProcessor(), store, WithPacing(0))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	doc, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if doc.Articles == nil || len(doc.Articles) != 0 {
		t.Fatalf("expected empty non-nil articles, got %#v", doc.Articles)
	}
}

func TestRunOnceCanceledContext(t *testing.T) {
	store := &memStore{}
	s, err := New("@every 1h", sampleFetchers(), processor.NewSimpleProcessor(), store, WithPacing(time.Hour))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.RunOnce(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if store.saves != 0 {
		t.Fatalf("nothing should be saved")
	}
}

func TestRunOnceSerialized(t *testing.T) {
	store := &memStore{}
	f := &fakeFetcher{name: "slow"}
	s, err := New("@every 1h", []collector.Fetcher{f}, processor.NewSimpleProcessor(), store, WithPacing(0))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RunOnce(context.Background()); err != nil {
				t.Errorf("run once: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.saves != 4 || atomic.LoadInt32(&f.calls) != 4 {
		t.Fatalf("expected 4 serialized runs, saves=%d calls=%d", store.saves, f.calls)
	}
}

func TestNewInvalidSpec(t *testing.T) {
	if _, err := New("not a cron spec", nil, processor.NewSimpleProcessor(), &memStore{}); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}
