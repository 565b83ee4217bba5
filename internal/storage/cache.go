package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	documentCacheKey = "treasury:news:document"
	documentCacheTTL = 5 * time.Minute
)

// NewRedisClient 连接 Redis；ping 失败只告警，缓存读写失败时会自动回落到下层存储
func NewRedisClient(addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.Warnf("redis ping failed: %v", err)
	}
	return rdb
}

// CachedStore 在 DocumentStore 之上加一层 Redis 读缓存，写入时同步刷新缓存
type CachedStore struct {
	next  DocumentStore
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedStore(next DocumentStore, rdb *redis.Client) *CachedStore {
	return &CachedStore{next: next, redis: rdb, ttl: documentCacheTTL}
}

func (c *CachedStore) Load(ctx context.Context) (*Document, error) {
	if c.redis != nil {
		if bs, err := c.redis.Get(ctx, documentCacheKey).Bytes(); err == nil {
			var cached Document
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	doc, err := c.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, doc)
	return doc, nil
}

func (c *CachedStore) Save(ctx context.Context, doc *Document) error {
	if err := c.next.Save(ctx, doc); err != nil {
		return err
	}
	c.put(ctx, doc)
	return nil
}

func (c *CachedStore) put(ctx context.Context, doc *Document) {
	if c.redis == nil {
		return
	}
	bs, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, documentCacheKey, bs, c.ttl).Err(); err != nil {
		logrus.Warnf("redis cache document: %v", err)
	}
}
