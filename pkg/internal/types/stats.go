package types

import "time"

// SiteStatsResponse 站点统计.
type SiteStatsResponse struct {
	TotalFiles     int64 `json:"total_files"`
	TotalBytes     int64 `json:"total_bytes"`
	TotalDownloads int64 `json:"total_downloads"`
	// Visitors5m / Visitors10m 最近窗口内活跃访客数.
	Visitors5m  int64 `json:"visitors_5m"`
	Visitors10m int64 `json:"visitors_10m"`
	// DiskBytes / DiskFiles 数据目录实际占用，可能与元数据统计短暂不一致.
	DiskBytes int64 `json:"disk_bytes"`
	DiskFiles int   `json:"disk_files"`
}

// DownloadStatItem 单条下载审计记录.
type DownloadStatItem struct {
	FileID       string    `json:"file_id"`
	FileName     string    `json:"file_name"`
	ShareCode    string    `json:"share_code"`
	ClientIP     string    `json:"client_ip"`
	UserAgent    string    `json:"user_agent,omitempty"`
	BytesSent    int64     `json:"bytes_sent"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// DownloadStatsResponse 下载审计列表.
type DownloadStatsResponse struct {
	Total int64              `json:"total"`
	Items []DownloadStatItem `json:"items"`
}

// VisitorItem 单条访客记录.
type VisitorItem struct {
	VisitorID string    `json:"visitor_id"`
	ClientIP  string    `json:"client_ip"`
	UserAgent string    `json:"user_agent,omitempty"`
	Path      string    `json:"path,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
	FirstSeen time.Time `json:"first_seen"`
}

// VisitorsResponse 访客列表.
type VisitorsResponse struct {
	Total int64         `json:"total"`
	Items []VisitorItem `json:"items"`
}
