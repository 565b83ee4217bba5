package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/TreasuryHub/internal/config"
)

var fixedNow = time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC)

func testWindow() Window {
	return Window{Age: 24 * time.Hour, Now: func() time.Time { return fixedNow }}
}

func rssDate(d time.Duration) string {
	return fixedNow.Add(-d).Format(time.RFC1123Z)
}

func googleNewsFeed() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item>
  <title>Strategy buys 155 BTC for its bitcoin treasury - CoinTelegraph</title>
  <link>https://news.google.com/rss/articles/abc?oc=5</link>
  <pubDate>%s</pubDate>
  <description><![CDATA[<a href="https://news.google.com/rss/articles/abc?url=https%%3A%%2F%%2Fexample.com%%2Fstrategy&amp;oc=5" target="_blank">Strategy buys 155 BTC</a>]]></description>
  <source url="https://cointelegraph.com">CoinTelegraph</source>
</item>
<item>
  <title>Metaplanet buys more bitcoin for treasury</title>
  <link>https://news.google.com/rss/articles/old</link>
  <pubDate>%s</pubDate>
  <description>old news</description>
</item>
<item>
  <title>Bitcoin treasury price prediction for August</title>
  <link>https://news.google.com/rss/articles/noise</link>
  <pubDate>%s</pubDate>
  <description>noise</description>
</item>
<item>
  <title>SharpLink adds 10,000 ETH to treasury</title>
  <link>https://news.example.com/sharplink</link>
  <pubDate>%s</pubDate>
  <description>plain text only</description>
</item>
</channel></rss>`, rssDate(time.Hour), rssDate(48*time.Hour), rssDate(2*time.Hour), rssDate(3*time.Hour))
}

func TestGoogleNewsFetcherFiltersAndResolves(t *testing.T) {
	const query = "bitcoin treasury announcement"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != query {
			t.Errorf("q = %q, want %q", got, query)
		}
		if r.URL.Query().Get("ceid") != "US:en" {
			t.Errorf("missing ceid parameter: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(googleNewsFeed()))
	}))
	defer srv.Close()

	f := NewGoogleNewsFetcher(srv.URL+"/rss/", query, srv.Client(), &Resolver{}, testWindow())
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (old and noisy dropped), got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Link != "https://example.com/strategy" {
		t.Fatalf("link should be unwrapped from description, got %q", first.Link)
	}
	if first.Source != "CoinTelegraph" {
		t.Fatalf("source = %q, want CoinTelegraph", first.Source)
	}
	if first.Query != query {
		t.Fatalf("query = %q", first.Query)
	}
	if !first.PublishedAt.Equal(fixedNow.Add(-time.Hour)) {
		t.Fatalf("published = %s", first.PublishedAt)
	}

	second := items[1]
	if second.Link != "https://news.example.com/sharplink" {
		t.Fatalf("plain link should be kept, got %q", second.Link)
	}
	if second.Source != "Unknown" {
		t.Fatalf("missing source should be Unknown, got %q", second.Source)
	}
}

func TestGoogleNewsSearchURLEncodesSpaces(t *testing.T) {
	f := NewGoogleNewsFetcher("https://news.google.com/rss", "crypto treasury announcement", nil, nil, Window{})
	want := "https://news.google.com/rss/search?q=crypto%20treasury%20announcement&hl=en-US&gl=US&ceid=US:en"
	if got := f.SearchURL(); got != want {
		t.Fatalf("SearchURL = %q, want %q", got, want)
	}
}

func TestGoogleNewsFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewGoogleNewsFetcher(srv.URL, "q", srv.Client(), nil, testWindow())
	items, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error for 503, got %d items", len(items))
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("error should mention status: %v", err)
	}
}

func TestFeedFetcherPrefilterAndLabels(t *testing.T) {
	feed := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>CoinDesk</title>
<item>
  <title>Tether announces new bitcoin treasury strategy</title>
  <link>https://www.coindesk.com/business/tether-treasury</link>
  <pubDate>%s</pubDate>
  <description>Tether announced plans to add bitcoin to its reserves.</description>
</item>
<item>
  <title>Ether ETFs see record inflows</title>
  <link>https://www.coindesk.com/markets/etf</link>
  <pubDate>%s</pubDate>
  <description>Flows continue.</description>
</item>
</channel></rss>`, rssDate(30*time.Minute), rssDate(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	f := &FeedFetcher{
		SourceName: "CoinDesk",
		URL:        srv.URL,
		Query:      "coindesk_rss",
		Prefilter:  true,
		Client:     srv.Client(),
		Window:     testWindow(),
	}
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Source != "CoinDesk" || items[0].Query != "coindesk_rss" {
		t.Fatalf("unexpected labels: %+v", items[0])
	}
	if items[0].Link != "https://www.coindesk.com/business/tether-treasury" {
		t.Fatalf("feed links are kept as-is, got %q", items[0].Link)
	}
}

func TestFeedFetcherRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	f := &FeedFetcher{SourceName: "broken", URL: srv.URL, Client: srv.Client(), Window: testWindow()}
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPublishedAtFallbacks(t *testing.T) {
	parsed := time.Date(2025, 7, 29, 8, 0, 0, 0, time.UTC)
	if got := publishedAt(&parsed, "ignored", fixedNow); !got.Equal(parsed) {
		t.Fatalf("parsed time should win, got %s", got)
	}

	want := time.Date(2025, 7, 29, 10, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"Tue, 29 Jul 2025 10:00:00 GMT",
		"Tue, 29 Jul 2025 10:00:00",
		"2025-07-29T10:00:00Z",
	} {
		if got := publishedAt(nil, raw, fixedNow); !got.Equal(want) {
			t.Fatalf("publishedAt(%q) = %s, want %s", raw, got, want)
		}
	}

	if got := publishedAt(nil, "yesterday-ish", fixedNow); !got.Equal(fixedNow) {
		t.Fatalf("unparseable date should fall back to now, got %s", got)
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	follow := func(final string, err error) func(context.Context, string) (string, error) {
		return func(context.Context, string) (string, error) { return final, err }
	}

	cases := []struct {
		name        string
		resolver    *Resolver
		description string
		rssLink     string
		want        string
	}{
		{
			name:        "google wrapper in description",
			resolver:    &Resolver{},
			description: `<a href="https://news.google.com/articles/x?url=https%3A%2F%2Fsite.com%2Fa%3Fb%3D1&amp;oc=5">t</a>`,
			rssLink:     "https://news.google.com/rss/articles/x",
			want:        "https://site.com/a?b=1",
		},
		{
			name:        "plain href in description",
			resolver:    &Resolver{},
			description: `<p>see <a href="https://site.com/b">here</a> and <a href="https://other.com">there</a></p>`,
			rssLink:     "https://news.google.com/rss/articles/y",
			want:        "https://site.com/b",
		},
		{
			name:     "url parameter on rss link",
			resolver: &Resolver{Follow: follow("", errors.New("should not be called"))},
			rssLink:  "https://news.google.com/rss/articles/z?url=https%3A%2F%2Fsite.com%2Fc",
			want:     "https://site.com/c",
		},
		{
			name:     "followed redirect",
			resolver: &Resolver{Follow: follow("https://site.com/final", nil)},
			rssLink:  "https://news.google.com/rss/articles/w",
			want:     "https://site.com/final",
		},
		{
			name:     "followed redirect still wrapped",
			resolver: &Resolver{Follow: follow("https://news.google.com/x?url=https%3A%2F%2Fsite.com%2Fd", nil)},
			rssLink:  "https://news.google.com/rss/articles/v",
			want:     "https://site.com/d",
		},
		{
			name:     "follow error falls back",
			resolver: &Resolver{Follow: follow("", errors.New("timeout"))},
			rssLink:  "https://news.google.com/rss/articles/u",
			want:     "https://news.google.com/rss/articles/u",
		},
		{
			name:    "nil resolver",
			rssLink: "https://example.com/e",
			want:    "https://example.com/e",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.resolver.Resolve(ctx, tc.description, tc.rssLink); got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildFetchersOrder(t *testing.T) {
	src := config.DefaultSources()
	fetchers := BuildFetchers(src, nil, nil, Window{})
	if len(fetchers) != len(src.GoogleNews.Queries)+len(src.Feeds) {
		t.Fatalf("unexpected fetcher count %d", len(fetchers))
	}
	if fetchers[0].Name() != "google_news:crypto treasury announcement" {
		t.Fatalf("first fetcher = %q", fetchers[0].Name())
	}
	if fetchers[len(fetchers)-1].Name() != "feed:CoinDesk" {
		t.Fatalf("last fetcher = %q", fetchers[len(fetchers)-1].Name())
	}
}
