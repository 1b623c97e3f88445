package types

import "time"

// FileListItem 管理端文件列表项.
type FileListItem struct {
	FileID         string     `json:"file_id"`
	FileName       string     `json:"file_name"`
	Size           int64      `json:"size"`
	ContentType    string     `json:"content_type,omitempty"`
	ShareCode      string     `json:"share_code"`
	DownloadCount  int        `json:"download_count"`
	DownloadLimit  int        `json:"download_limit"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	Expired        bool       `json:"expired"`
}

// FileListResponse 管理端文件列表.
type FileListResponse struct {
	Total int64          `json:"total"`
	Items []FileListItem `json:"items"`
}

// UpdateSettingsRequest 运行时设置更新请求，零值字段保持不变.
type UpdateSettingsRequest struct {
	ChunkSizeMB            *int    `json:"chunk_size_mb,omitempty"            rule:"omitempty,min=1,max=1024"`
	MaxWorkers             *int    `json:"max_workers,omitempty"              rule:"omitempty,min=1,max=64"`
	BufferSizeKB           *int    `json:"buffer_size_kb,omitempty"           rule:"omitempty,min=4,max=65536"`
	DefaultExpireDays      *int    `json:"default_expire_days,omitempty"      rule:"omitempty,min=1,max=365"`
	MaxFileSizeGB          *int    `json:"max_file_size_gb,omitempty"         rule:"omitempty,min=1,max=1024"`
	MaxDownloadLimit       *int    `json:"max_download_limit,omitempty"       rule:"omitempty,min=1,max=100000"`
	AutoCleanupEnabled     *bool   `json:"auto_cleanup_enabled,omitempty"`
	CleanupIntervalMinutes *int    `json:"cleanup_interval_minutes,omitempty" rule:"omitempty,min=1,max=10080"`
	EnableChunkedUpload    *bool   `json:"enable_chunked_upload,omitempty"`
	EnableCompression      *bool   `json:"enable_compression,omitempty"`
	EnableCaching          *bool   `json:"enable_caching,omitempty"`
	ConnectionTimeout      *int    `json:"connection_timeout,omitempty"       rule:"omitempty,min=10,max=3600"`
	AdminPassword          *string `json:"admin_password,omitempty"           rule:"omitempty,min=6,max=128"`
}

// SettingsResponse 运行时设置视图，密码哈希不外发.
type SettingsResponse struct {
	ChunkSizeMB            int    `json:"chunk_size_mb"`
	MaxWorkers             int    `json:"max_workers"`
	BufferSizeKB           int    `json:"buffer_size_kb"`
	DefaultExpireDays      int    `json:"default_expire_days"`
	MaxFileSizeGB          int    `json:"max_file_size_gb"`
	MaxDownloadLimit       int    `json:"max_download_limit"`
	AutoCleanupEnabled     bool   `json:"auto_cleanup_enabled"`
	CleanupIntervalMinutes int    `json:"cleanup_interval_minutes"`
	EnableChunkedUpload    bool   `json:"enable_chunked_upload"`
	EnableCompression      bool   `json:"enable_compression"`
	EnableCaching          bool   `json:"enable_caching"`
	ConnectionTimeout      int    `json:"connection_timeout"`
	AdminUsername          string `json:"admin_username"`
}

// UpsertBannerRequest 新建/更新横幅请求（multipart，图片文件单独字段）.
type UpsertBannerRequest struct {
	Title     string `form:"title"      rule:"omitempty,max=255"`
	LinkURL   string `form:"link_url"   rule:"omitempty,url,max=1024"`
	SortOrder int    `form:"sort_order" rule:"omitempty,min=0,max=1000"`
	Enabled   *bool  `form:"enabled"`
}

// CleanupResponse 清理操作结果.
type CleanupResponse struct {
	RemovedFiles int   `json:"removed_files"`
	FreedBytes   int64 `json:"freed_bytes"`
}
