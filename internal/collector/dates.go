package collector

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var fallbackDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 02 Jan 2006 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// publishedAt 优先使用解析器给出的时间；否则按常见格式兜底解析，
// 仍失败时记一条警告并视为当前时间
func publishedAt(parsed *time.Time, raw string, now time.Time) time.Time {
	if parsed != nil && !parsed.IsZero() {
		return parsed.UTC()
	}

	raw = strings.TrimSpace(raw)
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	logrus.Warnf("could not parse date: %q", raw)
	return now
}
