package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document 本地镜像的快照文档，按路径唯一。
type Document struct {
	Path      string         `gorm:"primaryKey;size:255" json:"path"`
	Body      datatypes.JSON `json:"body"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Subscription 订阅偏好，Companies 为空时接收全部通知。
type Subscription struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Email     string            `gorm:"index" json:"email"`
	Channel   string            `json:"channel"`
	Companies datatypes.JSONMap `json:"companies"`
	CreatedAt time.Time         `json:"created_at"`
}

// UploadRecord 记录每次名单上传，ArchiveKey 为空表示未归档。
type UploadRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	JobID      int       `gorm:"index" json:"job_id"`
	FileName   string    `json:"file_name"`
	Rows       int       `json:"rows"`
	ArchiveKey string    `json:"archive_key"`
	CreatedAt  time.Time `json:"created_at"`
}
