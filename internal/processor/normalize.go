package processor

import (
	"regexp"
	"strings"
)

var titlePrefixes = []string{
	"bitcoin news today:",
	"crypto news:",
	"breaking:",
	"latest:",
	"update:",
	"news:",
	"trending:",
}

var (
	companyRe     = regexp.MustCompile(`\b(strategy|matador|capital\s+b|bitmine|tether|microstrategy|tesla|square|coinbase|binance|sharplink|vivopower|bnc|trump\s+family)\b`)
	acquisitionRe = regexp.MustCompile(`\b(buys?|adds?|acquires?|purchases?)\s+(\d+)\s*(btc|bitcoin|eth|ethereum|bnb|sol|ada|dot|link|avax|matic)\b`)
	amountRe      = regexp.MustCompile(`\b(\d+)\s*(btc|bitcoin|eth|ethereum|bnb|sol|ada|dot|link|avax|matic)\b`)
	actionRe      = regexp.MustCompile(`\b(announces|announced|adds|added|acquires|acquired|buys|bought|purchases|purchased)\b`)

	// Strategy / MicroStrategy 专用：只有扩张类动词时也能归并
	strategyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(announces|announced)\s+(?:that\s+)?(?:it\s+)?(?:has\s+)?(?:will\s+)?(?:plans\s+to\s+)?(?:to\s+)?(?:add|acquire|buy|purchase|expand|increase)`),
		regexp.MustCompile(`\b(adds|added|acquires|acquired|buys|bought|purchases|purchased)\s+(?:an?\s+)?(?:additional\s+)?(?:more\s+)?(?:bitcoin|btc|ethereum|eth)`),
		regexp.MustCompile(`\b(expands|expanded|increases|increased|boosts|boosted)\s+(?:its\s+)?(?:treasury|holdings|reserves|portfolio)`),
	}
	strategyActionRe = regexp.MustCompile(`\b(announces?|announced|adds?|added|acquires?|acquired|buys?|bought|purchases?|purchased|expands?|expanded|increases?|increased|boosts?|boosted)\b`)
)

// NormalizeTitle 把标题规整为去重用的 key，例如
// "Strategy Buys 155 BTC - Cointelegraph" -> "strategy 155 btc"
func NormalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimSpace(normalized[len(prefix):])
		}
	}

	// 去掉 " - 媒体名" 后缀
	if idx := strings.Index(normalized, " - "); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	m := companyRe.FindStringSubmatch(normalized)
	if m == nil {
		return normalized
	}
	company := m[1]

	if m := acquisitionRe.FindStringSubmatch(normalized); m != nil {
		return company + " " + m[2] + " " + m[3]
	}
	if m := amountRe.FindStringSubmatch(normalized); m != nil {
		return company + " " + m[1] + " " + m[2]
	}
	if m := actionRe.FindStringSubmatch(normalized); m != nil {
		return company + " " + m[1]
	}

	if company == "strategy" || company == "microstrategy" {
		for _, re := range strategyPatterns {
			if !re.MatchString(normalized) {
				continue
			}
			if m := strategyActionRe.FindStringSubmatch(normalized); m != nil {
				return "microstrategy " + m[1]
			}
		}
		return "microstrategy announcement"
	}

	return normalized
}
