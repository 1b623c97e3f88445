package model

import "time"

// DownloadStat 下载审计记录，由 dv.file.downloaded 事件的消费者写入.
// 文件回收时这些行最后删除，保证统计在文件消失前仍可查询.
type DownloadStat struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	FileID string `gorm:"size:64;index" json:"file_id"`
	// ShareCode 冗余存储，文件删除后审计行仍可读.
	ShareCode    string    `gorm:"size:32;index" json:"share_code"`
	FileName     string    `gorm:"size:512"      json:"file_name"`
	ClientIP     string    `gorm:"size:64"       json:"client_ip"`
	UserAgent    string    `gorm:"size:512"      json:"user_agent"`
	BytesSent    int64     `json:"bytes_sent"`
	DownloadedAt time.Time `gorm:"index" json:"downloaded_at"`
}

// Visitor 访客记录，用于分享页在线人数统计.
// 同一访客（cookie 标识）只保留一行，LastSeen 滚动更新.
type Visitor struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// VisitorID 浏览器 cookie 中的访客标识（UUID）.
	VisitorID string    `gorm:"size:64;uniqueIndex" json:"visitor_id"`
	ClientIP  string    `gorm:"size:64"             json:"client_ip"`
	UserAgent string    `gorm:"size:512"            json:"user_agent"`
	Path      string    `gorm:"size:512"            json:"path"`
	LastSeen  time.Time `gorm:"index"               json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}
