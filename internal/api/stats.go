package api

import (
	"sort"
	"time"

	"github.com/LJTian/TreasuryHub/internal/classifier"
	"github.com/LJTian/TreasuryHub/internal/storage"
)

const (
	topN          = 5
	unknownSource = "Unknown"
)

type Stats struct {
	TotalArticles    int            `json:"total_articles"`
	TotalSources     int            `json:"total_sources"`
	NewAnnouncements int            `json:"new_announcements"`
	TopSources       map[string]int `json:"top_sources"`
	TopQueries       map[string]int `json:"top_queries"`
	LastUpdated      *time.Time     `json:"last_updated"`
}

func computeStats(doc *storage.Document) Stats {
	st := Stats{
		TopSources: map[string]int{},
		TopQueries: map[string]int{},
	}
	if doc == nil {
		return st
	}

	sources := make(map[string]int)
	queries := make(map[string]int)
	for _, a := range doc.Articles {
		sources[orUnknown(a.Source)]++
		queries[orUnknown(a.Query)]++
		if classifier.TypeOf(a.Title, a.Description) == classifier.TypeAnnouncement {
			st.NewAnnouncements++
		}
	}

	updated := doc.LastUpdated
	st.TotalArticles = len(doc.Articles)
	st.TotalSources = len(sources)
	st.TopSources = top(sources, topN)
	st.TopQueries = top(queries, topN)
	st.LastUpdated = &updated
	return st
}

// top 取计数最高的 n 项，计数相同按名称排序保证结果稳定
func top(counts map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make(map[string]int, len(keys))
	for _, k := range keys {
		out[k] = counts[k]
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return unknownSource
	}
	return s
}
