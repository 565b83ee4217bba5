package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	AppPort string

	// NewsFile 是最新一轮结果的 JSON 文档路径，每轮整体覆盖
	NewsFile    string
	SourcesFile string

	CronSpec      string
	FetchPacing   time.Duration
	FetchTimeout  time.Duration
	RecencyWindow time.Duration

	// 以下三项均为可选：为空时对应组件不启用
	DBDriver    string
	PostgresDSN string
	RedisAddr   string

	KafkaBroker string
	KafkaTopic  string

	BasicAuthUser string
	BasicAuthPass string
	CORSOrigins   []string

	RefreshRPS   float64
	RefreshBurst int

	LogLevel string
	LogFile  string
}

func Load() *Config {
	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "5006"),
		NewsFile:      getEnv("NEWS_FILE", "crypto_treasury_news.json"),
		SourcesFile:   getEnv("SOURCES_FILE", ""),
		CronSpec:      getEnv("CRON_SPEC", "*/30 * * * *"),
		FetchPacing:   getDuration("FETCH_PACING", 2*time.Second),
		FetchTimeout:  getDuration("FETCH_TIMEOUT", 30*time.Second),
		RecencyWindow: getDuration("RECENCY_WINDOW", 24*time.Hour),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		KafkaBroker:   getEnv("KAFKA_BROKER", ""),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "treasury-news"),
		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		RefreshRPS:    getFloat("REFRESH_RPS", 0.2),
		RefreshBurst:  getInt("REFRESH_BURST", 2),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
	}

	logrus.Infof("config loaded: port=%s cron=%s file=%s", cfg.AppPort, cfg.CronSpec, cfg.NewsFile)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logrus.Warnf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.Warnf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		logrus.Warnf("config: invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
