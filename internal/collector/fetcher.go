package collector

import (
	"context"
	"time"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRecencyWindow = 24 * time.Hour
	feedMaxResponseBytes = 5 << 20 // 5MB
	userAgent            = "TreasuryHubBot/1.0"
	unknownSource        = "Unknown"
)

// NewsItem 统一采集后的基础结构，已通过时间窗口与分类器筛选
type NewsItem struct {
	Title string
	// Description 保留源站原文，可能含 HTML
	Description string
	Link        string
	PublishedAt time.Time
	Source      string
	// Query 记录这条结果来自哪个查询或源
	Query string
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]NewsItem, error)
}

// Window 描述时间窗口：早于 Now()-Age 的条目丢弃
type Window struct {
	Age time.Duration
	Now func() time.Time
}

func (w Window) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w Window) cutoff() time.Time {
	age := w.Age
	if age <= 0 {
		age = defaultRecencyWindow
	}
	return w.now().Add(-age)
}
