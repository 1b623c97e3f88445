package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/dropvault/pkg/cache"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// shareInfoCacheTTL 分享页元数据缓存时长.
// 额度与过期在下载路径上总是查库判定，缓存只影响展示数据的新鲜度.
const shareInfoCacheTTL = 30 * time.Second

// LookupByCode 按分享码取文件行.
func (s *FileService) LookupByCode(ctx context.Context, code string) (*model.File, error) {
	var f model.File
	if err := s.dbClient.WithContext(ctx).
		First(&f, "share_code = ?", code).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &f, nil
}

// ShareInfo 返回分享页信息. enable_caching 打开时结果短暂缓存于 KV.
func (s *FileService) ShareInfo(ctx context.Context, code, baseURL string) (*types.ShareInfoResponse, error) {
	useCache := s.kvClient != nil && s.settings.CachingEnabled(ctx)
	cacheKey := "share:" + code

	if useCache {
		c := cache.NewCache(s.kvClient)
		if info, err := cache.Get[types.ShareInfoResponse](ctx, c, cacheKey); err == nil {
			return &info, nil
		}
	}

	f, err := s.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if f.Expired(time.Now()) {
		return nil, ErrExpired
	}

	banners, err := s.ListBanners(ctx, true)
	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("load banners failed")

		banners = nil
	}

	info := &types.ShareInfoResponse{
		FileName:    f.FileName,
		Size:        f.Size,
		ContentType: f.ContentType,
		ShareCode:   f.ShareCode,
		ExpiresAt:   f.ExpiresAt,
		Remaining:   f.RemainingDownloads(),
		DownloadURL: fmt.Sprintf("%s/d/%s", baseURL, f.ShareCode),
		QRCodeURL:   fmt.Sprintf("%s/s/%s/qrcode", baseURL, f.ShareCode),
		Banners:     banners,
	}

	if useCache {
		c := cache.NewCache(s.kvClient)
		if err := cache.Set(ctx, c, cacheKey, *info, shareInfoCacheTTL); err != nil {
			nlog.Logger().Debug().Err(err).Msg("cache share info failed")
		}
	}

	return info, nil
}

// DownloadStream 一次已获准的下载. 额度在打开时已占用，
// 调用方读完后必须 Close，并通过 Finish 上报传输结果.
type DownloadStream struct {
	File   *model.File
	reader io.ReadCloser
	// Mmap 指示本次传输使用内存映射策略. 两种策略输出字节一致.
	Mmap bool
}

// Read 实现 io.Reader.
func (d *DownloadStream) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

// Close 释放底层文件句柄或映射.
func (d *DownloadStream) Close() error {
	metrics.ActiveDownloads.Dec()

	return d.reader.Close()
}

// mmapReadCloser 把 mmap.ReaderAt 适配为顺序读取的 ReadCloser.
type mmapReadCloser struct {
	*io.SectionReader
	closer io.Closer
}

func (m *mmapReadCloser) Close() error { return m.closer.Close() }

// OpenDownload 校验并占用一次下载额度，返回可流式读取的下载流.
//
// 判定顺序：存在 → 未过期 → 额度占用. 过期文件的失败下载不消耗额度.
// 额度占用是一条带守卫条件的原子 UPDATE，并发到达额度边界时
// 恰好放行剩余次数，不会超发；最近访问时间在同一条 UPDATE 中回写.
func (s *FileService) OpenDownload(ctx context.Context, code string) (*DownloadStream, error) {
	f, err := s.LookupByCode(ctx, code)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("not_found").Inc()

		return nil, err
	}

	now := time.Now()

	if f.Expired(now) {
		metrics.DownloadsTotal.WithLabelValues("expired").Inc()

		return nil, ErrExpired
	}

	res := s.dbClient.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ? AND download_count < download_limit", f.ID).
		Updates(map[string]any{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_accessed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		metrics.DownloadsTotal.WithLabelValues("quota_exceeded").Inc()

		return nil, ErrQuotaExceeded
	}

	f.DownloadCount++
	f.LastAccessedAt = &now

	stream, err := s.openStream(f)
	if err != nil {
		return nil, err
	}

	metrics.DownloadsTotal.WithLabelValues("ok").Inc()
	metrics.ActiveDownloads.Inc()

	return stream, nil
}

// openStream 按文件大小选择传输策略：大文件 mmap，其余走带缓冲的顺序读.
func (s *FileService) openStream(f *model.File) (*DownloadStream, error) {
	if s.vault.UseMmap(f.Size) {
		ra, err := s.vault.OpenMmap(f.StoredName)
		if err != nil {
			return nil, fmt.Errorf("open mmap %s: %w", f.StoredName, err)
		}

		return &DownloadStream{
			File: f,
			reader: &mmapReadCloser{
				SectionReader: io.NewSectionReader(ra, 0, int64(ra.Len())),
				closer:        ra,
			},
			Mmap: true,
		}, nil
	}

	file, err := s.vault.Open(f.StoredName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.StoredName, err)
	}

	return &DownloadStream{File: f, reader: file}, nil
}

// FinishDownload 在传输完成后上报结果：累计字节指标并广播下载事件，
// 审计消费者据此写 download_stats.
func (s *FileService) FinishDownload(f *model.File, clientIP, userAgent string, bytesSent int64) {
	metrics.DownloadBytesTotal.Add(float64(bytesSent))

	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	payload := queue.FileDownloadedPayload{
		File: queue.FileRef{
			FileID:      f.ID,
			FileName:    f.FileName,
			Size:        f.Size,
			ContentType: f.ContentType,
			ShareCode:   f.ShareCode,
		},
		ClientIP:  clientIP,
		UserAgent: userAgent,
		BytesSent: bytesSent,
		Remaining: f.RemainingDownloads(),
	}

	if err := queue.PublishFileDownloaded(s.mqClient.Publisher(), payload, queue.WithProducer("dropvault")); err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("publish file.downloaded failed")
	}
}

// DeleteFile 管理端删除：先移除磁盘文件再删元数据行，最后清理审计记录.
// 操作幂等：磁盘文件缺失不视为错误，对已删除或不存在的 ID 重复调用直接成功.
func (s *FileService) DeleteFile(ctx context.Context, fileID string) error {
	var f model.File
	if err := s.dbClient.WithContext(ctx).First(&f, "id = ?", fileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}

		return err
	}

	if err := s.removeFile(ctx, &f); err != nil {
		return err
	}

	s.publishDeleted(&f, "admin")

	return nil
}

// removeFile 按 文件 → 元数据 → 审计 的顺序移除一份文件.
// 顺序保证中途失败只会留下可重试的元数据，不会留下无主的磁盘文件.
func (s *FileService) removeFile(ctx context.Context, f *model.File) error {
	if err := s.vault.Remove(f.StoredName); err != nil {
		return err
	}

	if err := s.dbClient.WithContext(ctx).
		Delete(&model.File{}, "id = ?", f.ID).Error; err != nil {
		return err
	}

	if err := s.dbClient.WithContext(ctx).
		Delete(&model.DownloadStat{}, "file_id = ?", f.ID).Error; err != nil {
		return err
	}

	if s.kvClient != nil {
		_ = s.kvClient.Delete(ctx, "share:"+f.ShareCode)
	}

	return nil
}

func (s *FileService) publishDeleted(f *model.File, reason string) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileDeleted, queue.FileDeletedPayload{
		File: queue.FileRef{
			FileID:    f.ID,
			FileName:  f.FileName,
			Size:      f.Size,
			ShareCode: f.ShareCode,
		},
		Reason: reason,
	}, queue.WithProducer("dropvault"))
	if err == nil {
		err = s.mqClient.Publisher().Publish(queue.TopicFileDeleted, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("publish file.deleted failed")
	}
}
