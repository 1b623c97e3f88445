// Package service 实现文件存储与分享的业务逻辑.
//
// 分层约定：handler 解析请求并映射错误码，service 持有业务规则，
// storage 层只提供字节与行的读写. service 间通过结构体组合复用，
// 运行期依赖（DB、文件仓库、KV、MQ）从请求上下文中取出.
package service

import (
	"context"

	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/storage/kv"
	"github.com/yeisme/dropvault/pkg/internal/storage/mq"
	"github.com/yeisme/dropvault/pkg/internal/storage/vault"
)

// FileService 文件上传、下载与回收的业务入口.
type FileService struct {
	dbClient *db.Client
	vault    *vault.Vault
	kvClient *kv.Client
	mqClient *mq.Client
	settings *SettingsService
}

// NewFileService 从请求上下文取出存储依赖构造服务.
func NewFileService(c context.Context) *FileService {
	return NewFileServiceWith(
		ctxPkg.GetDBClient(c),
		ctxPkg.GetVault(c),
		ctxPkg.GetKVClient(c),
		ctxPkg.GetMQClient(c),
	)
}

// NewFileServiceWith 使用显式依赖构造服务，便于测试注入.
func NewFileServiceWith(dbc *db.Client, v *vault.Vault, kvc *kv.Client, mqc *mq.Client) *FileService {
	return &FileService{
		dbClient: dbc,
		vault:    v,
		kvClient: kvc,
		mqClient: mqc,
		settings: NewSettingsServiceWith(dbc),
	}
}

// Settings 返回运行时设置访问器.
func (s *FileService) Settings() *SettingsService {
	return s.settings
}
