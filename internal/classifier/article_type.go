package classifier

import "strings"

const (
	TypeAnnouncement = "New Announcement"
	TypeExpansion    = "Expansion"
	TypeActivity     = "Treasury Activity"
)

// 仪表盘筛选项
const (
	FilterAll           = "all"
	FilterAnnouncements = "announcements"
	FilterExpansions    = "expansions"
)

var primaryAnnouncementKeywords = []string{
	"announces", "announced", "announcement", "launches", "launched", "launch",
	"reveals", "revealed", "reveal", "unveils", "unveiled", "unveil",
	"introduces", "introduced", "starts", "started", "begins", "began",
}

var expansionKeywords = []string{
	"buys", "bought", "purchases", "purchased", "acquires", "acquired",
	"adds", "added", "expands", "expanded", "increases", "increased",
}

// TypeOf 给已通过分类的文章打标签，公告优先于增持
func TypeOf(title, description string) string {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, primaryAnnouncementKeywords):
		return TypeAnnouncement
	case containsAny(text, expansionKeywords):
		return TypeExpansion
	default:
		return TypeActivity
	}
}

// NormalizeFilter 未知取值按 all 处理
func NormalizeFilter(filter string) string {
	switch filter {
	case FilterAnnouncements, FilterExpansions:
		return filter
	default:
		return FilterAll
	}
}

func MatchesFilter(articleType, filter string) bool {
	switch NormalizeFilter(filter) {
	case FilterAnnouncements:
		return articleType == TypeAnnouncement
	case FilterExpansions:
		return articleType == TypeAnnouncement || articleType == TypeExpansion
	default:
		return true
	}
}
