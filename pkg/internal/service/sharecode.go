package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/dropvault/pkg/internal/model"
)

const (
	// shareCodeLen 分享码长度.
	shareCodeLen = 12
	// shareCodeAlphabet 分享码字符集，去掉易混淆的 0/O/1/l/I.
	shareCodeAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// shareCodeRetries 冲突重试上限.
	shareCodeRetries = 5
)

// newShareCode 生成一个随机分享码.
func newShareCode() (string, error) {
	buf := make([]byte, shareCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share code: %w", err)
	}

	for i, b := range buf {
		buf[i] = shareCodeAlphabet[int(b)%len(shareCodeAlphabet)]
	}

	return string(buf), nil
}

// uniqueShareCode 生成未被占用的分享码.
// 56^12 的空间内冲突几率可忽略，重试只是兜底.
func (s *FileService) uniqueShareCode(ctx context.Context) (string, error) {
	for range shareCodeRetries {
		code, err := newShareCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.dbClient.WithContext(ctx).
			Model(&model.File{}).
			Where("share_code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}

		if count == 0 {
			return code, nil
		}
	}

	return "", gorm.ErrDuplicatedKey
}
