package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/TreasuryHub/internal/api"
	"github.com/LJTian/TreasuryHub/internal/collector"
	"github.com/LJTian/TreasuryHub/internal/config"
	"github.com/LJTian/TreasuryHub/internal/logger"
	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/publisher"
	"github.com/LJTian/TreasuryHub/internal/scheduler"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("load .env: %v", err)
	}
	cfg := config.Load()

	closer := logger.Setup(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logrus.Fatalf("load sources failed: %v", err)
	}

	client := &http.Client{Timeout: cfg.FetchTimeout}
	window := collector.Window{Age: cfg.RecencyWindow, Now: config.Now}
	fetchers := collector.BuildFetchers(sources, client, collector.NewResolver(), window)
	logrus.Infof("registered %d fetchers", len(fetchers))

	// 最新文档落在本地 JSON 文件；配置了 Redis 时叠加读缓存
	var store storage.DocumentStore = storage.NewFileStore(cfg.NewsFile)
	if cfg.RedisAddr != "" {
		rdb := storage.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		store = storage.NewCachedStore(store, rdb)
	}

	opts := []scheduler.Option{scheduler.WithPacing(cfg.FetchPacing)}

	var archive api.ArchiveReader
	if cfg.PostgresDSN != "" {
		arc, err := storage.NewArchive(cfg.DBDriver, cfg.PostgresDSN)
		if err != nil {
			logrus.Fatalf("init archive failed: %v", err)
		}
		defer arc.Close()
		archive = arc
		opts = append(opts, scheduler.WithArchive(arc))
	}

	if cfg.KafkaBroker != "" {
		pub := publisher.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer pub.Close()
		opts = append(opts, scheduler.WithPublisher(pub))
	}

	p := processor.NewSimpleProcessor()
	s, err := scheduler.New(cfg.CronSpec, fetchers, p, store, opts...)
	if err != nil {
		logrus.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	r := gin.Default()
	r.Use(api.CORS(cfg.CORSOrigins))
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(cfg, store, s, archive)
	apiServer.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logrus.Infof("starting api server at %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server exit: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}

	// 等待正在执行的采集结束
	<-s.Stop().Done()
	logrus.Info("bye")
}
