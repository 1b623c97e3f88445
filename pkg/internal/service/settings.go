package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/types"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// 运行时设置键. 值在 settings 表中以文本存储，管理端修改立即生效.
const (
	KeyChunkSizeMB            = "chunk_size_mb"
	KeyMaxWorkers             = "max_workers"
	KeyBufferSizeKB           = "buffer_size_kb"
	KeyDefaultExpireDays      = "default_expire_days"
	KeyMaxFileSizeGB          = "max_file_size_gb"
	KeyMaxDownloadLimit       = "max_download_limit"
	KeyAutoCleanupEnabled     = "auto_cleanup_enabled"
	KeyCleanupIntervalMinutes = "cleanup_interval_minutes"
	KeyEnableChunkedUpload    = "enable_chunked_upload"
	KeyEnableCompression      = "enable_compression"
	KeyEnableCaching          = "enable_caching"
	KeyConnectionTimeout      = "connection_timeout"
	KeyAdminUsername          = "admin_username"
	KeyAdminPasswordHash      = "admin_password_hash"
)

// 出厂默认值. 首次启动时写入 settings 表，之后以表中数据为准.
const (
	DefaultChunkSizeMB            = 32
	DefaultMaxWorkers             = 8
	DefaultBufferSizeKB           = 2048
	DefaultExpireDays             = 30
	DefaultMaxFileSizeGB          = 25
	DefaultMaxDownloadLimit       = 100
	DefaultCleanupIntervalMinutes = 60
	DefaultConnectionTimeout      = 300
	DefaultAdminUsername          = "admin"
	// DefaultAdminPassword 首次启动的初始密码，落库时只存 bcrypt 哈希.
	DefaultAdminPassword = "admin123"
)

// SettingsService 读写运行时策略设置.
// 每次读取都查库，修改无需重启即可被后续请求看到.
type SettingsService struct {
	dbClient *db.Client
}

// NewSettingsService 从请求上下文构造设置服务.
func NewSettingsService(c context.Context) *SettingsService {
	return NewSettingsServiceWith(ctxPkg.GetDBClient(c))
}

// NewSettingsServiceWith 使用显式 DB 依赖构造设置服务.
func NewSettingsServiceWith(dbc *db.Client) *SettingsService {
	return &SettingsService{dbClient: dbc}
}

// Seed 写入缺失的默认设置，已存在的键不覆盖.
func (s *SettingsService) Seed(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	defaults := map[string]string{
		KeyChunkSizeMB:            strconv.Itoa(DefaultChunkSizeMB),
		KeyMaxWorkers:             strconv.Itoa(DefaultMaxWorkers),
		KeyBufferSizeKB:           strconv.Itoa(DefaultBufferSizeKB),
		KeyDefaultExpireDays:      strconv.Itoa(DefaultExpireDays),
		KeyMaxFileSizeGB:          strconv.Itoa(DefaultMaxFileSizeGB),
		KeyMaxDownloadLimit:       strconv.Itoa(DefaultMaxDownloadLimit),
		KeyAutoCleanupEnabled:     "false",
		KeyCleanupIntervalMinutes: strconv.Itoa(DefaultCleanupIntervalMinutes),
		KeyEnableChunkedUpload:    "true",
		KeyEnableCompression:      "true",
		KeyEnableCaching:          "true",
		KeyConnectionTimeout:      strconv.Itoa(DefaultConnectionTimeout),
		KeyAdminUsername:          DefaultAdminUsername,
		KeyAdminPasswordHash:      string(hash),
	}

	for key, value := range defaults {
		row := model.Setting{Key: key, Value: value}
		if err := s.dbClient.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	return nil
}

// get 读取单个设置值，键不存在时返回 fallback.
func (s *SettingsService) get(ctx context.Context, key, fallback string) string {
	var row model.Setting
	if err := s.dbClient.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return fallback
	}

	return row.Value
}

// getInt 读取整型设置值.
func (s *SettingsService) getInt(ctx context.Context, key string, fallback int) int {
	v, err := strconv.Atoi(s.get(ctx, key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}

	return v
}

// getBool 读取布尔设置值.
func (s *SettingsService) getBool(ctx context.Context, key string, fallback bool) bool {
	v, err := strconv.ParseBool(s.get(ctx, key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}

	return v
}

// set 写入单个设置值.
func (s *SettingsService) set(ctx context.Context, key, value string) error {
	row := model.Setting{Key: key, Value: value}

	return s.dbClient.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
}

// ChunkSizeBytes 返回建议分块大小（字节）.
func (s *SettingsService) ChunkSizeBytes(ctx context.Context) int64 {
	return int64(s.getInt(ctx, KeyChunkSizeMB, DefaultChunkSizeMB)) * 1024 * 1024
}

// MaxWorkers 返回合并阶段的并发读上限.
func (s *SettingsService) MaxWorkers(ctx context.Context) int {
	n := s.getInt(ctx, KeyMaxWorkers, DefaultMaxWorkers)
	if n < 1 {
		n = 1
	}

	return n
}

// BufferSizeBytes 返回流式读写缓冲区大小（字节）.
func (s *SettingsService) BufferSizeBytes(ctx context.Context) int {
	return s.getInt(ctx, KeyBufferSizeKB, DefaultBufferSizeKB) * 1024
}

// DefaultExpireDays 返回默认保存天数.
func (s *SettingsService) DefaultExpireDays(ctx context.Context) int {
	return s.getInt(ctx, KeyDefaultExpireDays, DefaultExpireDays)
}

// MaxFileSizeBytes 返回允许的最大文件大小（字节）.
func (s *SettingsService) MaxFileSizeBytes(ctx context.Context) int64 {
	return int64(s.getInt(ctx, KeyMaxFileSizeGB, DefaultMaxFileSizeGB)) * 1024 * 1024 * 1024
}

// MaxDownloadLimit 返回下载额度上限（同时也是默认额度）.
func (s *SettingsService) MaxDownloadLimit(ctx context.Context) int {
	return s.getInt(ctx, KeyMaxDownloadLimit, DefaultMaxDownloadLimit)
}

// AutoCleanupEnabled 返回自动回收开关. 回收任务每次触发都重新读取.
func (s *SettingsService) AutoCleanupEnabled(ctx context.Context) bool {
	return s.getBool(ctx, KeyAutoCleanupEnabled, false)
}

// CleanupIntervalMinutes 返回回收任务的生效间隔（分钟）.
func (s *SettingsService) CleanupIntervalMinutes(ctx context.Context) int {
	n := s.getInt(ctx, KeyCleanupIntervalMinutes, DefaultCleanupIntervalMinutes)
	if n < 1 {
		n = 1
	}

	return n
}

// ChunkedUploadEnabled 返回分块上传开关.
func (s *SettingsService) ChunkedUploadEnabled(ctx context.Context) bool {
	return s.getBool(ctx, KeyEnableChunkedUpload, true)
}

// CompressionEnabled 返回下载响应压缩开关.
func (s *SettingsService) CompressionEnabled(ctx context.Context) bool {
	return s.getBool(ctx, KeyEnableCompression, true)
}

// CachingEnabled 返回分享页元数据缓存开关.
func (s *SettingsService) CachingEnabled(ctx context.Context) bool {
	return s.getBool(ctx, KeyEnableCaching, true)
}

// ConnectionTimeoutSeconds 返回大文件传输的连接超时（秒）.
func (s *SettingsService) ConnectionTimeoutSeconds(ctx context.Context) int {
	return s.getInt(ctx, KeyConnectionTimeout, DefaultConnectionTimeout)
}

// AdminUsername 返回管理员用户名.
func (s *SettingsService) AdminUsername(ctx context.Context) string {
	return s.get(ctx, KeyAdminUsername, DefaultAdminUsername)
}

// VerifyAdmin 校验管理员凭据.
func (s *SettingsService) VerifyAdmin(ctx context.Context, username, password string) bool {
	if username != s.AdminUsername(ctx) {
		return false
	}

	hash := s.get(ctx, KeyAdminPasswordHash, "")
	if hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// View 返回当前全部运行时设置（不含密码哈希）.
func (s *SettingsService) View(ctx context.Context) types.SettingsResponse {
	return types.SettingsResponse{
		ChunkSizeMB:            s.getInt(ctx, KeyChunkSizeMB, DefaultChunkSizeMB),
		MaxWorkers:             s.MaxWorkers(ctx),
		BufferSizeKB:           s.getInt(ctx, KeyBufferSizeKB, DefaultBufferSizeKB),
		DefaultExpireDays:      s.DefaultExpireDays(ctx),
		MaxFileSizeGB:          s.getInt(ctx, KeyMaxFileSizeGB, DefaultMaxFileSizeGB),
		MaxDownloadLimit:       s.MaxDownloadLimit(ctx),
		AutoCleanupEnabled:     s.AutoCleanupEnabled(ctx),
		CleanupIntervalMinutes: s.CleanupIntervalMinutes(ctx),
		EnableChunkedUpload:    s.ChunkedUploadEnabled(ctx),
		EnableCompression:      s.CompressionEnabled(ctx),
		EnableCaching:          s.CachingEnabled(ctx),
		ConnectionTimeout:      s.ConnectionTimeoutSeconds(ctx),
		AdminUsername:          s.AdminUsername(ctx),
	}
}

// Update 应用设置变更，nil 字段跳过. 密码更新存 bcrypt 哈希.
func (s *SettingsService) Update(ctx context.Context, req *types.UpdateSettingsRequest) error {
	ints := map[string]*int{
		KeyChunkSizeMB:            req.ChunkSizeMB,
		KeyMaxWorkers:             req.MaxWorkers,
		KeyBufferSizeKB:           req.BufferSizeKB,
		KeyDefaultExpireDays:      req.DefaultExpireDays,
		KeyMaxFileSizeGB:          req.MaxFileSizeGB,
		KeyMaxDownloadLimit:       req.MaxDownloadLimit,
		KeyCleanupIntervalMinutes: req.CleanupIntervalMinutes,
		KeyConnectionTimeout:      req.ConnectionTimeout,
	}
	for key, val := range ints {
		if val == nil {
			continue
		}

		if err := s.set(ctx, key, strconv.Itoa(*val)); err != nil {
			return err
		}
	}

	bools := map[string]*bool{
		KeyAutoCleanupEnabled:  req.AutoCleanupEnabled,
		KeyEnableChunkedUpload: req.EnableChunkedUpload,
		KeyEnableCompression:   req.EnableCompression,
		KeyEnableCaching:       req.EnableCaching,
	}
	for key, val := range bools {
		if val == nil {
			continue
		}

		if err := s.set(ctx, key, strconv.FormatBool(*val)); err != nil {
			return err
		}
	}

	if req.AdminPassword != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		if err := s.set(ctx, KeyAdminPasswordHash, string(hash)); err != nil {
			return err
		}

		nlog.Logger().Info().Msg("admin password updated")
	}

	return nil
}

// Migrate 执行全量模型迁移并播种默认设置.
func Migrate(ctx context.Context, dbc *db.Client) error {
	if err := dbc.WithContext(ctx).AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := NewSettingsServiceWith(dbc).Seed(ctx); err != nil {
		return err
	}

	return nil
}
