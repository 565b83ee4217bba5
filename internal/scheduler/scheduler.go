package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LJTian/TreasuryHub/internal/collector"
	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Archiver 接收每轮去重后的结果做长期归档
type Archiver interface {
	SaveBatch(items []processor.ProcessedNews, runID string) error
}

// Publisher 把每轮刷新后的文章推送到下游
type Publisher interface {
	Publish(ctx context.Context, articles []storage.Article) error
}

type Option func(*Scheduler)

func WithArchive(a Archiver) Option {
	return func(s *Scheduler) { s.archive = a }
}

func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithPacing 设置相邻两个源之间的最小间隔，<=0 表示不限速
func WithPacing(d time.Duration) Option {
	return func(s *Scheduler) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

type Scheduler struct {
	cron      *cron.Cron
	fetchers  []collector.Fetcher
	processor *processor.SimpleProcessor
	store     storage.DocumentStore
	archive   Archiver
	publisher Publisher
	limiter   *rate.Limiter
	now       func() time.Time

	// 定时任务与手动刷新共用，保证同一时刻只有一轮采集
	mu sync.Mutex
}

func New(spec string, fetchers []collector.Fetcher, p *processor.SimpleProcessor, store storage.DocumentStore, opts ...Option) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:      c,
		fetchers:  fetchers,
		processor: p,
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	_, err := c.AddFunc(spec, s.runScheduled)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	return s, nil
}

// Start 启动定时任务，并在后台立即执行首轮采集
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.runScheduled()
}

// Stop 停止定时任务，返回的 ctx 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		logrus.Errorf("scheduled refresh error: %v", err)
	}
}

// RunOnce 执行一轮完整的采集、去重与保存，返回新写入的文档
func (s *Scheduler) RunOnce(ctx context.Context) (*storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)
	start := time.Now()
	log.Info("start collect job...")

	var all []collector.NewsItem
	for _, f := range s.fetchers {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("refresh interrupted: %w", err)
		}

		name := f.Name()
		items, err := f.Fetch(ctx)
		if err != nil {
			log.WithField("source", name).Warnf("fetch %s error: %v", name, err)
			continue
		}
		log.WithField("source", name).Debugf("fetch %s got %d items", name, len(items))
		all = append(all, items...)
	}

	processed := s.processor.Process(all)
	doc := storage.NewDocument(processed, s.now())

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveBatch(processed, runID); err != nil {
			log.Warnf("archive batch error: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, doc.Articles); err != nil {
			log.Warnf("publish error: %v", err)
		}
	}

	log.Infof("collect job done, fetched=%d saved=%d cost=%s", len(all), len(doc.Articles), time.Since(start).Round(time.Millisecond))
	return doc, nil
}
