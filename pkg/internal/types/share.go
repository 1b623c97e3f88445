package types

import "time"

// ShareInfoResponse 分享页信息，不泄露存储名等内部细节.
type ShareInfoResponse struct {
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ShareCode   string    `json:"share_code"`
	ExpiresAt   time.Time `json:"expires_at"`
	// Remaining 剩余下载额度.
	Remaining int `json:"remaining"`
	// DownloadURL 直接下载地址.
	DownloadURL string `json:"download_url"`
	// QRCodeURL 分享二维码图片地址.
	QRCodeURL string       `json:"qrcode_url"`
	Banners   []BannerItem `json:"banners,omitempty"`
}

// BannerItem 分享页横幅项.
type BannerItem struct {
	ID        uint   `json:"id"`
	Title     string `json:"title,omitempty"`
	ImageURL  string `json:"image_url"`
	LinkURL   string `json:"link_url,omitempty"`
	SortOrder int    `json:"sort_order"`
}
