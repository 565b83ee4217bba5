package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultGoogleNewsBase = "https://news.google.com/rss"

var (
	ErrNoSources      = errors.New("at least one query or feed is required")
	ErrFeedMissingURL = errors.New("feed url is required")
)

// Sources 描述一轮采集要访问的全部数据源
type Sources struct {
	GoogleNews GoogleNewsSources `yaml:"google_news"`
	Feeds      []FeedSource      `yaml:"feeds"`
}

type GoogleNewsSources struct {
	BaseURL string   `yaml:"base_url"`
	Queries []string `yaml:"queries"`
}

// FeedSource 是一个普通 RSS/Atom 源，例如 CoinDesk
type FeedSource struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Query string `yaml:"query"`
	// Prefilter 为 true 时先做一次宽松的关键词预筛，再进入分类器
	Prefilter bool `yaml:"prefilter"`
}

// DefaultSources 返回内置的查询列表与 CoinDesk 源
func DefaultSources() *Sources {
	return &Sources{
		GoogleNews: GoogleNewsSources{
			BaseURL: DefaultGoogleNewsBase,
			Queries: []string{
				"crypto treasury announcement",
				"bitcoin treasury announcement",
				"ethereum treasury announcement",
				"cryptocurrency treasury announcement",
				"crypto company announces bitcoin",
				"crypto company announces ethereum",
				"crypto company announces treasury",
				"bitcoin treasury acquisition announcement",
				"ethereum treasury purchase announcement",

				"crypto treasury strategy announcement",
				"crypto treasury policy announcement",
				"crypto treasury program announcement",
				"crypto treasury initiative announcement",

				"crypto company adds bitcoin today",
				"crypto company adds ethereum today",
				"crypto company buys bitcoin today",
				"crypto company buys ethereum today",
				"treasury bitcoin acquisition today",
				"treasury ethereum acquisition today",

				"crypto treasury investment program",
				"crypto treasury acquisition program",
				"crypto treasury expansion program",

				"crypto trading desk launch",
				"crypto treasury desk announcement",
				"digital asset treasury launch",
				"crypto treasury trading desk",
				"company launches crypto treasury",
				"corporation crypto treasury announcement",
			},
		},
		Feeds: []FeedSource{
			{
				Name:      "CoinDesk",
				URL:       "https://www.coindesk.com/arc/outboundfeeds/rss/",
				Query:     "coindesk_rss",
				Prefilter: true,
			},
		},
	}
}

// LoadSources 读取 YAML 数据源配置；path 为空时使用内置默认值
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var src Sources
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &src, nil
}

// Validate 检查配置并补齐默认值
func (s *Sources) Validate() error {
	if s.GoogleNews.BaseURL == "" {
		s.GoogleNews.BaseURL = DefaultGoogleNewsBase
	}
	s.GoogleNews.BaseURL = strings.TrimRight(s.GoogleNews.BaseURL, "/")

	queries := s.GoogleNews.Queries[:0]
	for _, q := range s.GoogleNews.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	s.GoogleNews.Queries = queries

	for i := range s.Feeds {
		f := &s.Feeds[i]
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("feeds[%d]: %w", i, ErrFeedMissingURL)
		}
		if f.Name == "" {
			f.Name = f.URL
		}
		if f.Query == "" {
			f.Query = f.Name
		}
	}

	if len(s.GoogleNews.Queries) == 0 && len(s.Feeds) == 0 {
		return ErrNoSources
	}
	return nil
}
