package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/LJTian/TreasuryHub/internal/classifier"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
)

// prefilterKeywords 是进入分类器前的宽松预筛
var prefilterKeywords = []string{
	"treasury", "bitcoin", "ethereum", "crypto", "cryptocurrency",
	"acquisition", "purchase", "buys", "adds", "announces",
	"launches", "investment", "reserves", "holdings",
}

// FeedFetcher 抓取普通 RSS/Atom 源（例如 CoinDesk），链接原样保留
type FeedFetcher struct {
	SourceName string
	URL        string
	Query      string
	Prefilter  bool
	Client     *http.Client
	Window     Window
}

func (f *FeedFetcher) Name() string {
	return "feed:" + f.SourceName
}

func (f *FeedFetcher) Fetch(ctx context.Context) ([]NewsItem, error) {
	logrus.Infof("fetching news from %s rss: %s", f.SourceName, f.URL)

	body, err := getFeed(ctx, f.Client, f.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.SourceName, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", f.SourceName, err)
	}

	now := f.Window.now()
	cutoff := f.Window.cutoff()
	results := make([]NewsItem, 0, len(feed.Items))

	for _, it := range feed.Items {
		if it == nil {
			continue
		}

		pub := publishedAt(it.PublishedParsed, it.Published, now)
		if pub.Before(cutoff) {
			continue
		}

		if f.Prefilter && !containsAnyFold(it.Title+" "+it.Description, prefilterKeywords) {
			continue
		}
		if !classifier.IsTreasuryAnnouncement(it.Title, it.Description) {
			continue
		}

		results = append(results, NewsItem{
			Title:       it.Title,
			Description: it.Description,
			Link:        it.Link,
			PublishedAt: pub,
			Source:      f.SourceName,
			Query:       f.Query,
		})
		logrus.WithField("source", f.SourceName).Infof("found treasury article: %s", it.Title)
	}

	return results, nil
}

func containsAnyFold(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
