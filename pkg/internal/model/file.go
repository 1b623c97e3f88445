package model

import (
	"time"
)

// File 文件元数据模型. 一行对应仓库数据目录中的一份最终文件.
// 回收和删除都先移除磁盘文件再删除该行，磁盘文件因此不会成为孤儿.
type File struct {
	// ID 文件标识（UUID）.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// FileName 上传时的原始文件名，仅用于展示与下载响应头.
	FileName string `gorm:"size:512;index" json:"file_name"`
	// StoredName 磁盘存储名（UUID+扩展名），与原始文件名解耦.
	StoredName  string `gorm:"size:512;uniqueIndex" json:"stored_name"`
	Size        int64  `gorm:"index"                json:"size"`
	ContentType string `gorm:"size:255"             json:"content_type"`
	// ShareCode 分享码，出现在分享链接中，全局唯一.
	ShareCode string `gorm:"size:32;uniqueIndex" json:"share_code"`
	// DownloadLimit 下载额度；DownloadCount 达到该值后文件不再可下载.
	DownloadLimit int `gorm:"not null" json:"download_limit"`
	DownloadCount int `gorm:"not null;default:0" json:"download_count"`
	// LastAccessedAt 最近一次成功下载的时刻，与额度占用在同一条 UPDATE 中写入.
	// 从未被下载的文件该字段为空.
	LastAccessedAt *time.Time `gorm:"index" json:"last_accessed_at,omitempty"`
	// ExpiresAt 过期时间，过期文件拒绝下载并等待回收器清理.
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired 判断文件在给定时刻是否已过期.
func (f *File) Expired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}

// QuotaExhausted 判断下载额度是否已用尽.
func (f *File) QuotaExhausted() bool {
	return f.DownloadLimit > 0 && f.DownloadCount >= f.DownloadLimit
}

// RemainingDownloads 返回剩余下载额度.
func (f *File) RemainingDownloads() int {
	if f.DownloadLimit <= 0 {
		return 0
	}

	if n := f.DownloadLimit - f.DownloadCount; n > 0 {
		return n
	}

	return 0
}

// 上传会话状态.
const (
	SessionStatusPending = "pending" // 接收分块中
	SessionStatusMerging = "merging" // 合并进行中
	SessionStatusDone    = "done"    // 已合并，会话终结
	SessionStatusFailed  = "failed"  // 合并失败或被放弃
)

// UploadSession 分块上传会话. 分块字节不入库，
// 落在仓库临时目录 <temp>/<upload_id>/ 下，会话行只记录装配所需的事实.
type UploadSession struct {
	// UploadID 会话标识（UUID），同时是临时目录名.
	UploadID string `gorm:"primaryKey;size:64" json:"upload_id"`
	FileName string `gorm:"size:512"           json:"file_name"`
	// TotalChunks 声明的总块数，合并前必须全部落盘.
	TotalChunks int       `gorm:"not null" json:"total_chunks"`
	TotalSize   int64     `json:"total_size"`
	ContentType string    `gorm:"size:255" json:"content_type"`
	Status      string    `gorm:"size:16;index;default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
