package service

import (
	"context"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/queue"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

// StartAuditConsumer 订阅 dv.file.downloaded 事件并落库下载审计记录.
// 消费在后台 goroutine 进行，ctx 取消后随订阅通道关闭而退出.
func (s *FileService) StartAuditConsumer(ctx context.Context) error {
	if s.mqClient == nil {
		return nil
	}

	ch, err := s.mqClient.Subscribe(ctx, queue.TopicFileDownloaded)
	if err != nil {
		return err
	}

	go func() {
		for msg := range ch {
			env, err := queue.ParseFileDownloaded(msg)
			if err != nil {
				nlog.Logger().Warn().Err(err).Msg("parse file.downloaded event failed")
				msg.Ack()

				continue
			}

			stat := model.DownloadStat{
				FileID:       env.Payload.File.FileID,
				ShareCode:    env.Payload.File.ShareCode,
				FileName:     env.Payload.File.FileName,
				ClientIP:     env.Payload.ClientIP,
				UserAgent:    env.Payload.UserAgent,
				BytesSent:    env.Payload.BytesSent,
				DownloadedAt: time.Now(),
			}

			if err := s.dbClient.WithContext(ctx).Create(&stat).Error; err != nil {
				nlog.Logger().Error().Err(err).
					Str("file_id", stat.FileID).
					Msg("write download stat failed")
				// 落库失败 Nack，让 broker 重投
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	nlog.Logger().Info().Str("topic", queue.TopicFileDownloaded).Msg("audit consumer started")

	return nil
}
