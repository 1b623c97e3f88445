package model

import "time"

// Banner 分享页横幅. 图片文件存放于仓库横幅目录，行内只记录相对路径.
type Banner struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255"   json:"title"`
	ImagePath string    `gorm:"size:512"   json:"image_path"`
	LinkURL   string    `gorm:"size:1024"  json:"link_url"`
	SortOrder int       `gorm:"index;default:0" json:"sort_order"`
	Enabled   bool      `gorm:"default:true"    json:"enabled"`
	Clicks    int64     `gorm:"default:0"       json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting 运行时策略配置，键值对存储.
// 与 viper 引导配置不同，这里的值由管理端在运行期修改并立即生效，
// 读取方每次从数据库取最新值，不做进程内缓存.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text"          json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels 返回需要迁移的全部模型.
func AllModels() []any {
	return []any{
		&File{},
		&UploadSession{},
		&DownloadStat{},
		&Visitor{},
		&Banner{},
		&Setting{},
	}
}
