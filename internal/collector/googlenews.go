package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/LJTian/TreasuryHub/internal/classifier"
	"github.com/mmcdole/gofeed/rss"
	"github.com/sirupsen/logrus"
)

// GoogleNewsFetcher 针对一个搜索词抓取 Google News RSS
type GoogleNewsFetcher struct {
	BaseURL  string
	Query    string
	Client   *http.Client
	Resolver *Resolver
	Window   Window
}

func NewGoogleNewsFetcher(baseURL, query string, client *http.Client, resolver *Resolver, window Window) *GoogleNewsFetcher {
	return &GoogleNewsFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Query:    query,
		Client:   client,
		Resolver: resolver,
		Window:   window,
	}
}

func (g *GoogleNewsFetcher) Name() string {
	return "google_news:" + g.Query
}

// SearchURL 生成查询对应的 RSS 地址，空格编码为 %20
func (g *GoogleNewsFetcher) SearchURL() string {
	q := strings.ReplaceAll(url.QueryEscape(g.Query), "+", "%20")
	return fmt.Sprintf("%s/search?q=%s&hl=en-US&gl=US&ceid=US:en", g.BaseURL, q)
}

func (g *GoogleNewsFetcher) Fetch(ctx context.Context) ([]NewsItem, error) {
	feedURL := g.SearchURL()
	logrus.Infof("fetching news from: %s", feedURL)

	body, err := getFeed(ctx, g.Client, feedURL)
	if err != nil {
		return nil, fmt.Errorf("google news %q: %w", g.Query, err)
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google news %q: parse feed: %w", g.Query, err)
	}

	now := g.Window.now()
	cutoff := g.Window.cutoff()
	results := make([]NewsItem, 0, len(feed.Items))

	for _, it := range feed.Items {
		if it == nil {
			continue
		}

		pub := publishedAt(it.PubDateParsed, it.PubDate, now)
		if pub.Before(cutoff) {
			continue
		}
		if !classifier.IsTreasuryAnnouncement(it.Title, it.Description) {
			continue
		}

		source := unknownSource
		if it.Source != nil && strings.TrimSpace(it.Source.Title) != "" {
			source = strings.TrimSpace(it.Source.Title)
		}

		results = append(results, NewsItem{
			Title:       it.Title,
			Description: it.Description,
			Link:        g.Resolver.Resolve(ctx, it.Description, it.Link),
			PublishedAt: pub,
			Source:      source,
			Query:       g.Query,
		})
		logrus.WithField("query", g.Query).Infof("found treasury article: %s", it.Title)
	}

	return results, nil
}

// getFeed 拉取一个 feed 的原始内容，限制响应大小
func getFeed(ctx context.Context, client *http.Client, feedURL string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, feedMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
