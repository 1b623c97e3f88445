package service

import (
	"context"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// staleSessionAge 超过该时长仍未合并的会话视为被放弃.
const staleSessionAge = 24 * time.Hour

// CleanupExpired 回收所有已过期的文件，并清理被放弃的上传会话.
//
// 单个文件的回收顺序固定为 磁盘文件 → 元数据行 → 审计记录，
// 中途失败只可能留下等待重试的行，不会产生无主磁盘文件.
// 单个文件失败不中断整轮回收.
func (s *FileService) CleanupExpired(ctx context.Context) (*types.CleanupResponse, error) {
	var expired []model.File
	if err := s.dbClient.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Find(&expired).Error; err != nil {
		return nil, err
	}

	resp := &types.CleanupResponse{}

	for i := range expired {
		f := &expired[i]

		if err := s.removeFile(ctx, f); err != nil {
			nlog.Logger().Error().Err(err).
				Str("file_id", f.ID).
				Msg("evict file failed, will retry next round")

			continue
		}

		resp.RemovedFiles++
		resp.FreedBytes += f.Size

		metrics.EvictionsTotal.Inc()
		metrics.EvictedBytesTotal.Add(float64(f.Size))

		s.publishEvicted(f, "expired")
	}

	if err := s.cleanupStaleSessions(ctx); err != nil {
		nlog.Logger().Warn().Err(err).Msg("cleanup stale sessions failed")
	}

	if resp.RemovedFiles > 0 {
		nlog.Logger().Info().
			Int("removed", resp.RemovedFiles).
			Int64("freed_bytes", resp.FreedBytes).
			Msg("eviction round finished")
	}

	return resp, nil
}

// cleanupStaleSessions 清理超时未合并的上传会话及其临时分块.
func (s *FileService) cleanupStaleSessions(ctx context.Context) error {
	var stale []model.UploadSession
	if err := s.dbClient.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.SessionStatusPending, time.Now().Add(-staleSessionAge)).
		Find(&stale).Error; err != nil {
		return err
	}

	for i := range stale {
		sess := &stale[i]

		if err := s.vault.RemoveSession(sess.UploadID); err != nil {
			nlog.Logger().Warn().Err(err).Str("upload_id", sess.UploadID).Msg("remove stale session dir failed")

			continue
		}

		if err := s.dbClient.WithContext(ctx).
			Model(&model.UploadSession{}).
			Where("upload_id = ?", sess.UploadID).
			Update("status", model.SessionStatusFailed).Error; err != nil {
			nlog.Logger().Warn().Err(err).Str("upload_id", sess.UploadID).Msg("mark stale session failed")
		}
	}

	return nil
}

// PurgeAll 管理端清空仓库：删除全部文件（无论是否过期）.
func (s *FileService) PurgeAll(ctx context.Context) (*types.CleanupResponse, error) {
	var all []model.File
	if err := s.dbClient.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, err
	}

	resp := &types.CleanupResponse{}

	for i := range all {
		f := &all[i]

		if err := s.removeFile(ctx, f); err != nil {
			nlog.Logger().Error().Err(err).Str("file_id", f.ID).Msg("purge file failed")

			continue
		}

		resp.RemovedFiles++
		resp.FreedBytes += f.Size

		s.publishDeleted(f, "purge")
	}

	nlog.Logger().Info().
		Int("removed", resp.RemovedFiles).
		Int64("freed_bytes", resp.FreedBytes).
		Msg("vault purged")

	return resp, nil
}

func (s *FileService) publishEvicted(f *model.File, reason string) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	payload := queue.FileEvictedPayload{
		File: queue.FileRef{
			FileID:    f.ID,
			FileName:  f.FileName,
			Size:      f.Size,
			ShareCode: f.ShareCode,
		},
		Reason:     reason,
		ExpiredAt:  f.ExpiresAt,
		FreedBytes: f.Size,
	}

	if err := queue.PublishFileEvicted(s.mqClient.Publisher(), payload, queue.WithProducer("dropvault")); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("publish file.evicted failed")
	}
}
