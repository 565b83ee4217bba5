package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const (
	googleNewsHost      = "news.google.com"
	resolverHeadTimeout = 10 * time.Second
)

var (
	urlParamRe    = regexp.MustCompile(`url=([^&]+)`)
	errNoFinalURL = errors.New("no final url")
)

// Resolver 从 Google News 的跳转包装里还原文章真实地址
type Resolver struct {
	// Follow 跟随跳转并返回最终地址；为 nil 时跳过这一步
	Follow func(ctx context.Context, link string) (string, error)
}

func NewResolver() *Resolver {
	return &Resolver{Follow: headFollower(resolverHeadTimeout)}
}

// Resolve 依次尝试：描述中的第一个链接、RSS 链接上的 url= 参数、HEAD 跟随跳转，
// 全部失败时原样返回 rssLink
func (r *Resolver) Resolve(ctx context.Context, description, rssLink string) string {
	if href := firstHref(description); href != "" {
		if target, ok := unwrapGoogleNews(href); ok {
			return target
		}
		return href
	}

	if target, ok := unwrapGoogleNews(rssLink); ok {
		return target
	}

	if r != nil && r.Follow != nil && rssLink != "" {
		final, err := r.Follow(ctx, rssLink)
		switch {
		case err != nil:
			logrus.Warnf("error following redirect: %v", err)
		case final != "":
			if target, ok := unwrapGoogleNews(final); ok {
				return target
			}
			return final
		}
	}

	return rssLink
}

func firstHref(description string) string {
	if !strings.Contains(description, "href") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}
	href, _ := doc.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}

// unwrapGoogleNews 仅对 news.google.com 链接生效，取出 url= 参数并解码
func unwrapGoogleNews(link string) (string, bool) {
	if !strings.Contains(link, googleNewsHost) {
		return "", false
	}
	m := urlParamRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil {
		return m[1], true
	}
	return decoded, true
}

// headFollower 用 colly 发 HEAD 请求，跟随跳转后返回 200 响应所在的地址
func headFollower(timeout time.Duration) func(ctx context.Context, link string) (string, error) {
	return func(ctx context.Context, link string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		c := colly.NewCollector(colly.UserAgent(userAgent))
		c.SetRequestTimeout(timeout)

		var final string
		c.OnResponse(func(resp *colly.Response) {
			if resp.StatusCode == http.StatusOK {
				final = resp.Request.URL.String()
			}
		})

		if err := c.Head(link); err != nil {
			return "", fmt.Errorf("head %s: %w", link, err)
		}
		if final == "" {
			return "", errNoFinalURL
		}
		return final, nil
	}
}
