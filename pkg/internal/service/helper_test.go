package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/storage/vault"
)

// newTestService 构造依赖内存 SQLite 与临时目录仓库的服务实例.
// 连接数限制为 1，避免 SQLite 并发写抖动影响断言.
func newTestService(t *testing.T) (*service.FileService, *db.Client, *vault.Vault) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	dbc := &db.Client{DB: gdb}

	if err := service.Migrate(context.Background(), dbc); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	v, err := vault.NewWithConfig(&configs.VaultConfig{
		DataDir:         filepath.Join(t.TempDir(), "files"),
		TempDirName:     "temp",
		BannerDir:       filepath.Join(t.TempDir(), "banners"),
		MmapThresholdMB: 100,
	})
	if err != nil {
		t.Fatalf("init vault: %v", err)
	}

	return service.NewFileServiceWith(dbc, v, nil, nil), dbc, v
}
