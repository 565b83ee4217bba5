package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/TreasuryHub/internal/processor"
)

// ErrNoDocument 表示尚未完成过任何一轮采集
var ErrNoDocument = errors.New("news document not found")

type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Published   time.Time `json:"published"`
	Source      string    `json:"source"`
	Query       string    `json:"query"`
}

// Document 是每轮采集后整体替换的结果文档
type Document struct {
	LastUpdated time.Time `json:"last_updated"`
	Articles    []Article `json:"articles"`
}

// DocumentStore 读写最新结果文档
type DocumentStore interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// NewDocument 将处理后的结果转换为持久化文档，保持输入顺序
func NewDocument(items []processor.ProcessedNews, updated time.Time) *Document {
	articles := make([]Article, 0, len(items))
	for _, it := range items {
		articles = append(articles, Article{
			Title:       toValidUTF8(it.Title),
			Description: toValidUTF8(it.Description),
			Link:        it.Link,
			Published:   it.PublishedAt,
			Source:      toValidUTF8(it.Source),
			Query:       it.Query,
		})
	}
	return &Document{LastUpdated: updated, Articles: articles}
}

// FileStore 把文档保存为本地 JSON 文件
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(ctx context.Context) (*Document, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	if doc.Articles == nil {
		doc.Articles = []Article{}
	}
	return &doc, nil
}

// Save 先写同目录下的临时文件再 rename，读者只会看到完整的旧文档或新文档
func (f *FileStore) Save(ctx context.Context, doc *Document) error {
	if doc.Articles == nil {
		doc.Articles = []Article{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，部分源站可能混入非法字节
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
