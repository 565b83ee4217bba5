package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/LJTian/TreasuryHub/internal/classifier"
	"github.com/LJTian/TreasuryHub/internal/collector"
	"github.com/sirupsen/logrus"
)

// ProcessedNews 是写入存储层前的统一结构
type ProcessedNews struct {
	ID              string
	Title           string
	Description     string
	Link            string
	Source          string
	Query           string
	PublishedAt     time.Time
	NormalizedTitle string
	Type            string
}

// SimpleProcessor 对所有查询的结果做跨源去重与排序
type SimpleProcessor struct{}

func NewSimpleProcessor() *SimpleProcessor {
	return &SimpleProcessor{}
}

// Process 按输入顺序单遍扫描：链接或规整标题任一重复即丢弃，
// 结果按发布时间倒序
func (p *SimpleProcessor) Process(items []collector.NewsItem) []ProcessedNews {
	out := make([]ProcessedNews, 0, len(items))
	seenLinks := make(map[string]struct{})
	seenTitles := make(map[string]struct{})

	for _, it := range items {
		if _, ok := seenLinks[it.Link]; ok {
			logrus.Debugf("duplicate link found: %s", it.Title)
			continue
		}

		key := NormalizeTitle(it.Title)
		if _, ok := seenTitles[key]; ok {
			logrus.Debugf("duplicate title found: %s -> %s", it.Title, key)
			continue
		}

		seenLinks[it.Link] = struct{}{}
		seenTitles[key] = struct{}{}

		out = append(out, ProcessedNews{
			ID:              HashURL(it.Link),
			Title:           strings.TrimSpace(it.Title),
			Description:     it.Description,
			Link:            it.Link,
			Source:          it.Source,
			Query:           it.Query,
			PublishedAt:     it.PublishedAt,
			NormalizedTitle: key,
			Type:            classifier.TypeOf(it.Title, it.Description),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	return out
}

// HashURL 返回链接的 sha1 十六进制摘要，用作文章 ID
func HashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
