package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/LJTian/TreasuryHub/internal/config"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 500
)

// NewsStore 提供最新一轮的结果文档
type NewsStore interface {
	Load(ctx context.Context) (*storage.Document, error)
}

// Refresher 同步执行一轮采集
type Refresher interface {
	RunOnce(ctx context.Context) (*storage.Document, error)
}

type ArchiveReader interface {
	ListRecent(limit int) ([]storage.ArchivedArticle, error)
}

type Server struct {
	cfg       *config.Config
	store     NewsStore
	refresher Refresher
	archive   ArchiveReader
	now       func() time.Time
}

// NewServer 创建 API 服务；archive 可为 nil，此时 /api/archive 返回 404
func NewServer(cfg *config.Config, store NewsStore, refresher Refresher, archive ArchiveReader) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		refresher: refresher,
		archive:   archive,
		now:       time.Now,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(dashboardTemplate)

	r.GET("/health", s.health)
	r.GET("/", s.dashboard)

	refresh := []gin.HandlerFunc{s.refreshNews}
	if s.cfg != nil && s.cfg.RefreshRPS > 0 {
		refresh = append([]gin.HandlerFunc{RateLimit(s.cfg.RefreshRPS, s.cfg.RefreshBurst)}, refresh...)
	}

	g := r.Group("/api")
	{
		g.GET("/news", s.getNews)
		g.GET("/refresh", refresh...)
		g.POST("/refresh", refresh...)
		g.GET("/stats", s.getStats)
		g.GET("/archive", s.listArchive)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loadOrScrape 读取最新文档，尚无文档时立即采集一轮
func (s *Server) loadOrScrape(ctx context.Context) (*storage.Document, error) {
	doc, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNoDocument) {
		logrus.Info("no news document yet, running a scrape")
		return s.refresher.RunOnce(ctx)
	}
	return doc, err
}

func (s *Server) getNews(c *gin.Context) {
	doc, err := s.loadOrScrape(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) refreshNews(c *gin.Context) {
	doc, err := s.refresher.RunOnce(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"last_updated": doc.LastUpdated,
		"articles":     doc.Articles,
		"message":      "News refreshed successfully",
	})
}

func (s *Server) getStats(c *gin.Context) {
	doc, err := s.store.Load(c.Request.Context())
	if errors.Is(err, storage.ErrNoDocument) {
		c.JSON(http.StatusOK, computeStats(nil))
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, computeStats(doc))
}

func (s *Server) listArchive(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultArchiveLimit)))
	if err != nil || limit <= 0 {
		limit = defaultArchiveLimit
	}
	if limit > maxArchiveLimit {
		limit = maxArchiveLimit
	}

	list, err := s.archive.ListRecent(limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": list, "count": len(list)})
}

func abortWithError(c *gin.Context, err error) {
	logrus.Errorf("%s %s error: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
