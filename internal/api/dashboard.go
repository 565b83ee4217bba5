package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/TreasuryHub/internal/classifier"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
)

//go:embed templates/index.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const descriptionPreview = 250

type articleView struct {
	Title       string
	Link        string
	Description string
	Source      string
	Query       string
	Type        string
	Badge       string
	Published   string
}

type dashboardView struct {
	Filter           string
	Filters          []string
	TotalArticles    int
	TotalSources     int
	NewAnnouncements int
	LastUpdated      string
	Articles         []articleView
}

func (s *Server) dashboard(c *gin.Context) {
	filter := classifier.NormalizeFilter(c.Query("filter"))

	doc, err := s.store.Load(c.Request.Context())
	if err != nil && !errors.Is(err, storage.ErrNoDocument) {
		abortWithError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", buildDashboard(doc, filter, s.now()))
}

func buildDashboard(doc *storage.Document, filter string, now time.Time) dashboardView {
	st := computeStats(doc)
	v := dashboardView{
		Filter:           filter,
		Filters:          []string{classifier.FilterAll, classifier.FilterAnnouncements, classifier.FilterExpansions},
		TotalArticles:    st.TotalArticles,
		TotalSources:     st.TotalSources,
		NewAnnouncements: st.NewAnnouncements,
		LastUpdated:      "Never",
	}
	if doc == nil {
		return v
	}
	v.LastUpdated = timeAgo(doc.LastUpdated, now)

	for _, a := range doc.Articles {
		typ := classifier.TypeOf(a.Title, a.Description)
		if !classifier.MatchesFilter(typ, filter) {
			continue
		}
		v.Articles = append(v.Articles, articleView{
			Title:       a.Title,
			Link:        a.Link,
			Description: preview(plainText(a.Description), descriptionPreview),
			Source:      orUnknown(a.Source),
			Query:       orUnknown(a.Query),
			Type:        typ,
			Badge:       badgeClass(typ),
			Published:   a.Published.Format("Jan 02, 15:04"),
		})
	}
	return v
}

func badgeClass(typ string) string {
	switch typ {
	case classifier.TypeAnnouncement:
		return "badge-announcement"
	case classifier.TypeExpansion:
		return "badge-expansion"
	default:
		return "badge-activity"
	}
}

// timeAgo 生成 "12m ago" / "3h ago" 形式的相对时间
func timeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	minutes := int(now.Sub(t).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return fmt.Sprintf("%dh ago", minutes/60)
}

// plainText 去掉描述中的 HTML 标签
func plainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func preview(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "..."
}
