package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
	"github.com/yeisme/dropvault/pkg/metrics"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// InitChunkedUpload 建立分块上传会话.
// 会话行入库的同时创建仓库临时目录，分块按序号落在该目录下.
func (s *FileService) InitChunkedUpload(ctx context.Context, req *types.InitChunkedUploadRequest) (*types.InitChunkedUploadResponse, error) {
	if !s.settings.ChunkedUploadEnabled(ctx) {
		return nil, ErrChunkedUploadDisabled
	}

	if req.TotalSize > s.settings.MaxFileSizeBytes(ctx) {
		return nil, ErrSizeLimitExceeded
	}

	sess := &model.UploadSession{
		UploadID:    uuid.NewString(),
		FileName:    filepath.Base(req.FileName),
		TotalChunks: req.TotalChunks,
		TotalSize:   req.TotalSize,
		ContentType: req.ContentType,
		Status:      model.SessionStatusPending,
	}

	if err := s.dbClient.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}

	if _, err := s.vault.EnsureSessionDir(sess.UploadID); err != nil {
		_ = s.dbClient.WithContext(ctx).Delete(&model.UploadSession{}, "upload_id = ?", sess.UploadID).Error

		return nil, err
	}

	s.publishSessionCreated(sess)

	return &types.InitChunkedUploadResponse{
		UploadID:    sess.UploadID,
		ChunkSize:   s.settings.ChunkSizeBytes(ctx),
		TotalChunks: sess.TotalChunks,
	}, nil
}

// loadSession 取出仍可接收分块的会话.
// 已合并或已放弃的会话（含临时目录已清除的情况）按不存在处理.
func (s *FileService) loadSession(ctx context.Context, uploadID string) (*model.UploadSession, error) {
	var sess model.UploadSession
	if err := s.dbClient.WithContext(ctx).
		First(&sess, "upload_id = ?", uploadID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSessionNotFound
		}

		return nil, err
	}

	if sess.Status != model.SessionStatusPending {
		return nil, ErrSessionNotFound
	}

	return &sess, nil
}

// PutChunk 接收单个分块. 各分块相互独立，可乱序、可并发、可重传；
// 重传覆盖整块，不做部分追加.
func (s *FileService) PutChunk(ctx context.Context, uploadID string, index int, r io.Reader) (*types.ChunkUploadResponse, error) {
	sess, err := s.loadSession(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= sess.TotalChunks {
		return nil, fmt.Errorf("%w: chunk index %d out of range [0,%d)", ErrValidation, index, sess.TotalChunks)
	}

	n, err := s.vault.WriteChunk(ctx, uploadID, index, r, s.settings.BufferSizeBytes(ctx))
	if err != nil {
		return nil, err
	}

	received, err := s.vault.ReceivedChunks(uploadID)
	if err != nil {
		return nil, err
	}

	return &types.ChunkUploadResponse{
		UploadID:    uploadID,
		Index:       index,
		Size:        n,
		Received:    len(received),
		TotalChunks: sess.TotalChunks,
		Complete:    len(received) == sess.TotalChunks,
	}, nil
}

// SessionStatus 查询会话进度.
func (s *FileService) SessionStatus(ctx context.Context, uploadID string) (*types.SessionStatusResponse, error) {
	sess, err := s.loadSession(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	received, err := s.vault.ReceivedChunks(uploadID)
	if err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(received))
	for idx := range received {
		indices = append(indices, idx)
	}

	sort.Ints(indices)

	return &types.SessionStatusResponse{
		UploadID:    sess.UploadID,
		Status:      sess.Status,
		FileName:    sess.FileName,
		Received:    indices,
		TotalChunks: sess.TotalChunks,
		Complete:    len(received) == sess.TotalChunks,
	}, nil
}

// AbortUpload 放弃会话：清空临时目录并把会话标记为 failed.
func (s *FileService) AbortUpload(ctx context.Context, uploadID string) error {
	sess, err := s.loadSession(ctx, uploadID)
	if err != nil {
		return err
	}

	if err := s.vault.RemoveSession(uploadID); err != nil {
		return err
	}

	if err := s.dbClient.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("upload_id = ?", uploadID).
		Update("status", model.SessionStatusFailed).Error; err != nil {
		return err
	}

	s.publishSessionFailed(sess.UploadID, "aborted")

	return nil
}

// CompleteChunkedUpload 把收齐的分块装配为最终文件并注册元数据.
// 合并成功即清空临时目录，因此该操作不可重放：重复调用返回 ErrSessionNotFound.
func (s *FileService) CompleteChunkedUpload(ctx context.Context, uploadID string, opts types.UploadOptions) (*model.File, error) {
	sess, err := s.loadSession(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	received, err := s.vault.ReceivedChunks(uploadID)
	if err != nil {
		return nil, err
	}

	if len(received) != sess.TotalChunks {
		return nil, fmt.Errorf("%w: %d/%d chunks received", ErrSessionIncomplete, len(received), sess.TotalChunks)
	}

	var totalSize int64
	for _, size := range received {
		totalSize += size
	}

	if totalSize > s.settings.MaxFileSizeBytes(ctx) {
		return nil, ErrSizeLimitExceeded
	}

	// 标记合并中，挡住并发的第二次 complete
	res := s.dbClient.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("upload_id = ? AND status = ?", uploadID, model.SessionStatusPending).
		Update("status", model.SessionStatusMerging)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, ErrSessionNotFound
	}

	id := uuid.NewString()
	storedName := id + filepath.Ext(sess.FileName)

	start := time.Now()

	written, err := s.mergeChunks(ctx, uploadID, sess.TotalChunks, storedName)
	if err != nil {
		s.failSession(ctx, uploadID, err)

		return nil, err
	}

	metrics.MergeDuration.Observe(time.Since(start).Seconds())

	code, err := s.uniqueShareCode(ctx)
	if err != nil {
		_ = s.vault.Remove(storedName)
		s.failSession(ctx, uploadID, err)

		return nil, err
	}

	expireDays, downloadLimit := s.resolvePolicy(ctx, opts)

	f := &model.File{
		ID:            id,
		FileName:      sess.FileName,
		StoredName:    storedName,
		Size:          written,
		ContentType:   sess.ContentType,
		ShareCode:     code,
		DownloadLimit: downloadLimit,
		ExpiresAt:     time.Now().Add(time.Duration(expireDays) * 24 * time.Hour),
	}

	if err := s.dbClient.WithContext(ctx).Create(f).Error; err != nil {
		_ = s.vault.Remove(storedName)
		s.failSession(ctx, uploadID, err)

		return nil, fmt.Errorf("register merged file: %w", err)
	}

	// 会话终结：清空临时目录，状态置 done
	if err := s.vault.RemoveSession(uploadID); err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", uploadID).Msg("cleanup session dir failed")
	}

	if err := s.dbClient.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("upload_id = ?", uploadID).
		Update("status", model.SessionStatusDone).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", uploadID).Msg("mark session done failed")
	}

	metrics.UploadsTotal.WithLabelValues("chunked").Inc()
	s.publishSessionMerged(sess.UploadID, f, time.Since(start))
	s.publishStored(f, "chunked")

	nlog.Logger().Info().
		Str("upload_id", uploadID).
		Str("file_id", f.ID).
		Int("chunks", sess.TotalChunks).
		Int64("size", written).
		Dur("merge_time", time.Since(start)).
		Msg("chunked upload assembled")

	return f, nil
}

// failSession 合并失败的收尾：删除半成品文件由调用方负责，
// 这里只回写状态并广播失败事件.
func (s *FileService) failSession(ctx context.Context, uploadID string, cause error) {
	if err := s.dbClient.WithContext(ctx).
		Model(&model.UploadSession{}).
		Where("upload_id = ?", uploadID).
		Update("status", model.SessionStatusFailed).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", uploadID).Msg("mark session failed failed")
	}

	s.publishSessionFailed(uploadID, cause.Error())
}

// mergeChunks 将会话分块装配为最终文件，返回写入字节数.
//
// 读取端由 errgroup 并发执行，窗口大小取运行时设置 max_workers；
// 写入端单 goroutine 严格按 0..total-1 顺序落盘，写完一块释放一个
// 窗口名额，内存中同时驻留的分块不超过窗口大小. 输出先写 .part
// 再原子重命名，失败时不会留下半成品.
func (s *FileService) mergeChunks(ctx context.Context, uploadID string, total int, storedName string) (int64, error) {
	dst, err := s.vault.Path(storedName)
	if err != nil {
		return 0, err
	}

	part := dst + ".part"

	out, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create merge output: %w", err)
	}

	maxWorkers := s.settings.MaxWorkers(ctx)
	bufSize := s.settings.BufferSizeBytes(ctx)

	ready := make([]chan []byte, total)
	for i := range ready {
		ready[i] = make(chan []byte, 1)
	}

	sem := make(chan struct{}, maxWorkers)

	g, gctx := errgroup.WithContext(ctx)

	// 读取端：按序号发起读取，窗口名额由写入端写完释放
	g.Go(func() error {
		rg, rctx := errgroup.WithContext(gctx)

		for i := range total {
			select {
			case sem <- struct{}{}:
			case <-rctx.Done():
				return rctx.Err()
			}

			rg.Go(func() error {
				p, perr := s.vault.ChunkPath(uploadID, i)
				if perr != nil {
					return perr
				}

				data, rerr := os.ReadFile(p)
				if rerr != nil {
					return fmt.Errorf("read chunk %d: %w", i, rerr)
				}

				ready[i] <- data

				return nil
			})
		}

		return rg.Wait()
	})

	// 写入端：严格顺序写，保证字节序与分块序一致
	var written int64

	g.Go(func() error {
		w := bufio.NewWriterSize(out, bufSize)

		for i := range total {
			select {
			case data := <-ready[i]:
				n, werr := w.Write(data)

				written += int64(n)
				if werr != nil {
					return fmt.Errorf("write chunk %d: %w", i, werr)
				}

				<-sem
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return w.Flush()
	})

	if err := g.Wait(); err != nil {
		_ = out.Close()
		_ = os.Remove(part)

		return 0, err
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(part)

		return 0, fmt.Errorf("close merge output: %w", err)
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)

		return 0, fmt.Errorf("publish merge output: %w", err)
	}

	return written, nil
}

// ---------------------- 会话事件 ----------------------

func (s *FileService) publishSessionCreated(sess *model.UploadSession) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicUploadSessionCreated, queue.UploadSessionCreatedPayload{
		UploadID:    sess.UploadID,
		FileName:    sess.FileName,
		TotalChunks: sess.TotalChunks,
		TotalSize:   sess.TotalSize,
	}, queue.WithProducer("dropvault"))
	if err == nil {
		err = s.mqClient.Publisher().Publish(queue.TopicUploadSessionCreated, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", sess.UploadID).Msg("publish session.created failed")
	}
}

func (s *FileService) publishSessionMerged(uploadID string, f *model.File, took time.Duration) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicUploadSessionMerged, queue.UploadSessionMergedPayload{
		UploadID: uploadID,
		File: queue.FileRef{
			FileID:      f.ID,
			FileName:    f.FileName,
			Size:        f.Size,
			ContentType: f.ContentType,
			ShareCode:   f.ShareCode,
		},
		MergeMillis: took.Milliseconds(),
	}, queue.WithProducer("dropvault"))
	if err == nil {
		err = s.mqClient.Publisher().Publish(queue.TopicUploadSessionMerged, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", uploadID).Msg("publish session.merged failed")
	}
}

func (s *FileService) publishSessionFailed(uploadID, reason string) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicUploadSessionFailed, queue.UploadSessionFailedPayload{
		UploadID: uploadID,
		Error:    reason,
	}, queue.WithProducer("dropvault"))
	if err == nil {
		err = s.mqClient.Publisher().Publish(queue.TopicUploadSessionFailed, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("upload_id", uploadID).Msg("publish session.failed failed")
	}
}
