package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/LJTian/TreasuryHub/internal/collector"
	"github.com/LJTian/TreasuryHub/internal/config"
	"github.com/LJTian/TreasuryHub/internal/logger"
	"github.com/LJTian/TreasuryHub/internal/processor"
	"github.com/LJTian/TreasuryHub/internal/scheduler"
	"github.com/LJTian/TreasuryHub/internal/storage"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

const (
	previewCount = 5
	titleWidth   = 72
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
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

	p := processor.NewSimpleProcessor()
	s, err := scheduler.New(cfg.CronSpec, fetchers, p, storage.NewFileStore(cfg.NewsFile), scheduler.WithPacing(cfg.FetchPacing))
	if err != nil {
		logrus.Fatalf("init scheduler failed: %v", err)
	}

	// 只执行一轮采集任务后退出
	doc, err := s.RunOnce(context.Background())
	if err != nil {
		logrus.Fatalf("collect failed: %v", err)
	}

	fmt.Printf("found %d treasury articles, saved to %s\n", len(doc.Articles), cfg.NewsFile)
	for i, a := range doc.Articles {
		if i >= previewCount {
			break
		}
		fmt.Printf("%d. %s\n   %s | %s\n", i+1,
			runewidth.Truncate(a.Title, titleWidth, "..."),
			a.Source, a.Published.Format("2006-01-02 15:04"))
	}
}
