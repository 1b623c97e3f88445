package configs

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultVaultDataDir     = "storage/files"          // 最终对象文件目录
	DefaultVaultTempDirName = "temp"                   // 分片上传临时目录（位于 data_dir 下）
	DefaultVaultBannerDir   = "static/uploads/banners" // 横幅图片目录
	DefaultMmapThresholdMB  = 100                      // 超过该大小的对象改用 mmap 读取
)

// VaultConfig 本地文件仓库配置.
// data_dir 存放已注册对象的最终字节；temp 子目录按 upload_id 分目录存放
// 未合并的分片，合并成功或会话废弃后保证清空.
type VaultConfig struct {
	DataDir string `mapstructure:"data_dir" rule:"required"`
	// TempDirName 临时目录名，相对于 DataDir
	TempDirName string `mapstructure:"temp_dir_name"`
	BannerDir   string `mapstructure:"banner_dir"`
	// MmapThresholdMB 下载传输策略阈值；两种策略输出字节完全一致，仅性能不同
	MmapThresholdMB int `mapstructure:"mmap_threshold_mb" rule:"min=1,max=10240"`
}

// GetTempDir 返回分片临时目录的完整路径.
func (c *VaultConfig) GetTempDir() string {
	return filepath.Join(c.DataDir, c.TempDirName)
}

// GetMmapThresholdBytes 返回 mmap 阈值（字节）.
func (c *VaultConfig) GetMmapThresholdBytes() int64 {
	return int64(c.MmapThresholdMB) * 1024 * 1024
}

// setDefaults 设置文件仓库配置的默认值.
func (c *VaultConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("vault.data_dir", DefaultVaultDataDir)
	v.SetDefault("vault.temp_dir_name", DefaultVaultTempDirName)
	v.SetDefault("vault.banner_dir", DefaultVaultBannerDir)
	v.SetDefault("vault.mmap_threshold_mb", DefaultMmapThresholdMB)
}
