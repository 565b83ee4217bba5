package collector

import (
	"net/http"

	"github.com/LJTian/TreasuryHub/internal/config"
)

// BuildFetchers 按配置顺序生成采集器：先 Google News 各查询，再普通 RSS 源
func BuildFetchers(src *config.Sources, client *http.Client, resolver *Resolver, window Window) []Fetcher {
	fetchers := make([]Fetcher, 0, len(src.GoogleNews.Queries)+len(src.Feeds))
	for _, q := range src.GoogleNews.Queries {
		fetchers = append(fetchers, NewGoogleNewsFetcher(src.GoogleNews.BaseURL, q, client, resolver, window))
	}
	for _, f := range src.Feeds {
		fetchers = append(fetchers, &FeedFetcher{
			SourceName: f.Name,
			URL:        f.URL,
			Query:      f.Query,
			Prefilter:  f.Prefilter,
			Client:     client,
			Window:     window,
		})
	}
	return fetchers
}
