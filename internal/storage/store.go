package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"placement-portal/internal/model"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound 表示文档不存在。
var ErrNotFound = errors.New("document not found")

// Config 本地数据库配置，Driver 取值 sqlite（默认）或 postgres。
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Store 封装本地数据库访问，负责快照镜像、订阅与上传记录。
type Store struct {
	db *gorm.DB
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(cfg Config) (*Store, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires dsn")
		}
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	default:
		path := cfg.Path
		if path == "" {
			path = "data/portal.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	if err := db.AutoMigrate(&model.Document{}, &model.Subscription{}, &model.UploadRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// ReadDocument 读取快照文档，不存在时返回 ErrNotFound。
func (s *Store) ReadDocument(ctx context.Context, path string) ([]byte, error) {
	var doc model.Document
	if err := s.db.WithContext(ctx).First(&doc, "path = ?", path).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return []byte(doc.Body), nil
}

// WriteDocument 按路径覆盖写入快照文档。
func (s *Store) WriteDocument(ctx context.Context, path string, body []byte) error {
	doc := model.Document{Path: path, Body: datatypes.JSON(body)}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&doc)
	if tx.Error != nil {
		return fmt.Errorf("write document %s: %w", path, tx.Error)
	}
	return nil
}

// CreateSubscription 新增订阅。
func (s *Store) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// ListSubscriptions 返回所有订阅记录。
func (s *Store) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// RecordUpload 写入上传记录。
func (s *Store) RecordUpload(ctx context.Context, rec *model.UploadRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// ListUploads 返回职位的上传记录，最新在前；jobID 为 0 时返回全部。
func (s *Store) ListUploads(ctx context.Context, jobID int) ([]model.UploadRecord, error) {
	var recs []model.UploadRecord
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if jobID > 0 {
		query = query.Where("job_id = ?", jobID)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return recs, nil
}
