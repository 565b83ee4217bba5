package storage

import (
	"fmt"
	"time"

	"github.com/LJTian/TreasuryHub/internal/processor"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ArchivedArticle 累积保存历次采集到的文章，以链接为幂等键
type ArchivedArticle struct {
	ID          string            `gorm:"primaryKey;size:40" json:"id"`
	Title       string            `gorm:"size:512" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Link        string            `gorm:"size:768;uniqueIndex" json:"link"`
	Source      string            `gorm:"size:128;index" json:"source"`
	Query       string            `gorm:"size:256" json:"query"`
	Type        string            `gorm:"size:32;index" json:"type"`
	PublishedAt time.Time         `gorm:"index" json:"publishedAt"`
	ExtraData   datatypes.JSONMap `json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Archive struct {
	DB *gorm.DB
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func NewArchive(driver, dsn string) (*Archive, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ArchivedArticle{}); err != nil {
		return nil, err
	}

	return &Archive{DB: db}, nil
}

func toArchived(it processor.ProcessedNews, runID string) ArchivedArticle {
	return ArchivedArticle{
		ID:          it.ID,
		Title:       truncateRunesDB(toValidUTF8(it.Title), 512),
		Description: toValidUTF8(it.Description),
		Link:        it.Link,
		Source:      truncateRunesDB(toValidUTF8(it.Source), 128),
		Query:       truncateRunesDB(it.Query, 256),
		Type:        it.Type,
		PublishedAt: it.PublishedAt,
		ExtraData: datatypes.JSONMap{
			"normalized_title": it.NormalizedTitle,
			"run_id":           runID,
		},
	}
}

// SaveBatch 以链接为冲突键写入，已存在时更新标题、描述与最近一次的查询来源
func (a *Archive) SaveBatch(items []processor.ProcessedNews, runID string) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]ArchivedArticle, 0, len(items))
	for _, it := range items {
		if len([]rune(it.Link)) > 768 {
			continue
		}
		rows = append(rows, toArchived(it, runID))
	}

	return a.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "link"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "query", "type", "extra_data", "updated_at"}),
	}).CreateInBatches(rows, 100).Error
}

// ListRecent 按发布时间倒序返回最近的归档文章
func (a *Archive) ListRecent(limit int) ([]ArchivedArticle, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var list []ArchivedArticle
	err := a.DB.Order("published_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (a *Archive) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// truncateRunesDB 按 rune 数截断，避免超过字段长度导致整批写入失败
func truncateRunesDB(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
