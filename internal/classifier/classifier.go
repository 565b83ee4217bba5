// Package classifier 判断一条新闻是否为"加密资产财库"类的新公告。
// 规则全部基于小写文本的子串与正则匹配，无状态、可并发调用。
package classifier

import (
	"regexp"
	"strings"
)

var cryptoKeywords = []string{
	"bitcoin", "ethereum", "solana", "cardano", "polkadot", "chainlink", "avalanche", "polygon",
	"crypto", "cryptocurrency", "blockchain", "defi", "nft", "web3", "digital assets",
	"btc", "eth", "sol", "ada", "dot", "link", "avax", "matic",
	"stablecoin", "altcoin", "token", "coin", "mining", "staking",
	"binance coin", "bnb", "ripple", "xrp", "litecoin", "ltc", "dogecoin", "doge",
	"uniswap", "uni", "aave", "compound", "maker", "mkr", "sushi",
}

var treasuryKeywords = []string{
	"treasury", "reserves", "holdings", "balance sheet", "cash reserves",
	"treasury management", "treasury operations", "treasury department",
	"financial reserves", "asset management", "portfolio management",
	"investment strategy", "treasury bonds", "treasury bills",
	"treasury securities", "treasury yield", "treasury curve",
	"corporate treasury", "company treasury", "institutional holdings",
}

// excludePhrases 命中任一即视为行情、分析类泛泛报道
var excludePhrases = []string{
	"collectively increased", "collectively added", "collectively grew", "collectively expanded",
	"entities collectively", "treasury entities", "bitcoin entities", "crypto entities",
	"were added", "was added", "have been added", "has been added",
	"market analysis", "market commentary", "market overview", "market report",
	"sector analysis", "industry analysis", "market trend", "market movement",
	"price analysis", "price movement", "price trend", "technical analysis",
	"fundamental analysis", "trading volume", "trading activity",
	"price prediction", "price forecast", "market prediction", "market forecast",
	"technical indicator", "support level", "resistance level", "moving average",
	"rsi", "macd", "bollinger", "fibonacci", "elliot wave",
	"hodl", "diamond hands", "to the moon", "lambo", "wen",
	"daily update", "weekly update", "monthly update", "quarterly update",
	"earnings report", "financial results", "revenue report", "profit report",
}

const majorCompanies = `microstrategy|strategy|tesla|square|coinbase|binance|tether|matador|capital\s+b|sharplink|vivopower|bnc`

var announcementPatterns = compileAll(
	// 明确的公告动作
	`\b(announces|announced)\s+(?:that\s+)?(?:it\s+)?(?:has\s+)?(?:will\s+)?(?:plans\s+to\s+)?(?:to\s+)?(?:add|acquire|buy|purchase|expand|increase)`,
	`\b(announces|announced)\s+(?:strategic|new|major|significant)\s+(?:acquisition|investment|purchase|addition)`,
	`\b(announces|announced)\s+(?:plans\s+to\s+)?(?:expand|increase|boost)\s+(?:its\s+)?(?:treasury|holdings|reserves)`,
	`\b(announces|announced)\s+(?:a\s+)?(?:new\s+)?(?:treasury|investment|acquisition)\s+(?:strategy|initiative|program)`,
	`\b(launches|launched|reveals|revealed|unveils|unveiled)\s+(?:new\s+)?(?:treasury|investment|acquisition)`,
	`\b(launches|launched)\s+(?:new\s+)?(?:crypto|digital\s+asset|bitcoin|ethereum)\s+(?:treasury|trading\s+desk|investment)`,

	// 知名公司的增持
	`\b(`+majorCompanies+`)\s+(?:announces|announced|adds|added|acquires|acquired|buys|bought)`,

	// 任意公司启动加密财库
	`\b(company|corp|inc|ltd|llc|foundation|protocol|corporation)\s+(?:announces|announced|launches|launched)\s+(?:new\s+)?(?:crypto|digital\s+asset|bitcoin|ethereum)\s+(?:treasury|trading\s+desk|investment)`,
	`\b(announces|announced|launches|launched)\s+(?:new\s+)?(?:crypto|digital\s+asset|bitcoin|ethereum)\s+(?:treasury|trading\s+desk|investment)`,

	// 近期买入
	`\b(adds|added|acquires|acquired|buys|bought|purchases|purchased)\s+(?:an?\s+)?(?:additional\s+)?(?:more\s+)?(?:bitcoin|btc|ethereum|eth|solana|sol|bnb|altcoin)`,
	`\b(expands|expanded|increases|increased|boosts|boosted)\s+(?:its\s+)?(?:treasury|holdings|reserves|portfolio)`,

	`\b(introduces|introduced|starts|started|begins|began)\s+(?:new\s+)?(?:treasury|investment|acquisition)\s+(?:program|initiative|strategy)`,
	`\b(implements|implemented|adopts|adopted)\s+(?:new\s+)?(?:treasury|investment)\s+(?:policy|strategy|approach)`,

	`\b(`+majorCompanies+`)\s+(?:adds|added|acquires|acquired|buys|bought|purchases|purchased)`,

	`\b(expands|expanded|increases|increased|boosts|boosted)\s+(?:its\s+)?(?:treasury|holdings|reserves|portfolio)\s+(?:with|by|to)\s+(?:bitcoin|btc|ethereum|eth)`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// IsTreasuryAnnouncement 当且仅当文本同时包含加密关键词与财库关键词、
// 不含任何排除短语、且命中至少一个公告正则时返回 true
func IsTreasuryAnnouncement(title, description string) bool {
	text := strings.ToLower(title + " " + description)

	if !containsAny(text, cryptoKeywords) {
		return false
	}
	if !containsAny(text, treasuryKeywords) {
		return false
	}
	if containsAny(text, excludePhrases) {
		return false
	}

	for _, re := range announcementPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// containsAny 为子串匹配（与关键词表的设计一致，例如 "eth" 也会命中 "ethereum"）
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
