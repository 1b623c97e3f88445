package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// resolvePolicy 将请求中的可选策略参数归一为生效值.
// 未填字段取运行时设置默认值，额度不得超过设置上限.
func (s *FileService) resolvePolicy(ctx context.Context, opts types.UploadOptions) (expireDays, downloadLimit int) {
	expireDays = opts.ExpireDays
	if expireDays <= 0 {
		expireDays = s.settings.DefaultExpireDays(ctx)
	}

	maxLimit := s.settings.MaxDownloadLimit(ctx)

	downloadLimit = opts.DownloadLimit
	if downloadLimit <= 0 || downloadLimit > maxLimit {
		downloadLimit = maxLimit
	}

	return expireDays, downloadLimit
}

// registerFile 写入文件元数据行. size 传 0 表示先注册后灌流.
func (s *FileService) registerFile(ctx context.Context, fileName, contentType string, size int64, opts types.UploadOptions) (*model.File, error) {
	code, err := s.uniqueShareCode(ctx)
	if err != nil {
		return nil, err
	}

	expireDays, downloadLimit := s.resolvePolicy(ctx, opts)

	id := uuid.NewString()
	f := &model.File{
		ID:            id,
		FileName:      filepath.Base(fileName),
		StoredName:    id + filepath.Ext(fileName),
		Size:          size,
		ContentType:   contentType,
		ShareCode:     code,
		DownloadLimit: downloadLimit,
		ExpiresAt:     time.Now().Add(time.Duration(expireDays) * 24 * time.Hour),
	}

	if err := s.dbClient.WithContext(ctx).Create(f).Error; err != nil {
		return nil, fmt.Errorf("register file: %w", err)
	}

	return f, nil
}

// limitedReader 在读满 max 字节后返回 ErrSizeLimitExceeded，
// 用于流式写入时就地截断超限上传.
type limitedReader struct {
	r      io.Reader
	remain int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.remain <= 0 {
		return 0, ErrSizeLimitExceeded
	}

	if int64(len(p)) > lr.remain {
		p = p[:lr.remain]
	}

	n, err := lr.r.Read(p)
	lr.remain -= int64(n)

	return n, err
}

// SaveSingle 处理单次上传：先注册元数据行，再把数据流灌入仓库，
// 最后回填真实大小. 任一步失败则回滚已注册的行与落盘字节.
func (s *FileService) SaveSingle(ctx context.Context, fileName, contentType string, declaredSize int64, r io.Reader, opts types.UploadOptions) (*model.File, error) {
	maxSize := s.settings.MaxFileSizeBytes(ctx)
	if declaredSize > maxSize {
		return nil, ErrSizeLimitExceeded
	}

	f, err := s.registerFile(ctx, fileName, contentType, 0, opts)
	if err != nil {
		return nil, err
	}

	bufSize := s.settings.BufferSizeBytes(ctx)

	n, err := s.vault.SaveStream(ctx, f.StoredName, &limitedReader{r: r, remain: maxSize + 1}, bufSize)
	if err == nil && n > maxSize {
		err = ErrSizeLimitExceeded
	}

	if err != nil {
		s.rollbackFile(ctx, f)

		return nil, err
	}

	if err := s.FinalizeSize(ctx, f.ID, n); err != nil {
		s.rollbackFile(ctx, f)

		return nil, fmt.Errorf("finalize file size: %w", err)
	}

	f.Size = n

	metrics.UploadsTotal.WithLabelValues("single").Inc()
	s.publishStored(f, "single")

	nlog.Logger().Info().
		Str("file_id", f.ID).
		Str("file_name", f.FileName).
		Int64("size", n).
		Msg("file stored")

	return f, nil
}

// FinalizeSize 把流式写入的真实字节数回填到元数据行.
// 目标行不存在时不落任何更新，返回 ErrNotFound.
func (s *FileService) FinalizeSize(ctx context.Context, fileID string, size int64) error {
	res := s.dbClient.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", fileID).
		Update("size", size)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// rollbackFile 撤销半途失败的上传：先删磁盘字节，再删元数据行.
func (s *FileService) rollbackFile(ctx context.Context, f *model.File) {
	if err := s.vault.Remove(f.StoredName); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("rollback: remove blob failed")
	}

	if err := s.dbClient.WithContext(ctx).Delete(&model.File{}, "id = ?", f.ID).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("rollback: delete row failed")
	}
}

// publishStored 广播文件落库事件，MQ 未初始化时静默跳过.
func (s *FileService) publishStored(f *model.File, mode string) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	payload := queue.FileStoredPayload{
		File: queue.FileRef{
			FileID:      f.ID,
			FileName:    f.FileName,
			Size:        f.Size,
			ContentType: f.ContentType,
			ShareCode:   f.ShareCode,
		},
		Mode:      mode,
		ExpiresAt: f.ExpiresAt,
	}

	if err := queue.PublishFileStored(s.mqClient.Publisher(), payload, queue.WithProducer("dropvault")); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("publish file.stored failed")
	}
}
