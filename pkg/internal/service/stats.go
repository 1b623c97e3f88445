package service

import (
	"context"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// 访客活跃窗口.
const (
	visitorWindowShort = 5 * time.Minute
	visitorWindowLong  = 10 * time.Minute
)

// SiteStats 聚合站点统计：文件量、占用字节、下载次数与活跃访客.
func (s *FileService) SiteStats(ctx context.Context) (*types.SiteStatsResponse, error) {
	db := s.dbClient.WithContext(ctx)

	resp := &types.SiteStatsResponse{}

	if err := db.Model(&model.File{}).Count(&resp.TotalFiles).Error; err != nil {
		return nil, err
	}

	var totalBytes *int64
	if err := db.Model(&model.File{}).
		Select("SUM(size)").Scan(&totalBytes).Error; err != nil {
		return nil, err
	}

	if totalBytes != nil {
		resp.TotalBytes = *totalBytes
	}

	if err := db.Model(&model.DownloadStat{}).Count(&resp.TotalDownloads).Error; err != nil {
		return nil, err
	}

	now := time.Now()

	if err := db.Model(&model.Visitor{}).
		Where("last_seen > ?", now.Add(-visitorWindowShort)).
		Count(&resp.Visitors5m).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Visitor{}).
		Where("last_seen > ?", now.Add(-visitorWindowLong)).
		Count(&resp.Visitors10m).Error; err != nil {
		return nil, err
	}

	diskBytes, diskFiles, err := s.vault.Usage()
	if err != nil {
		return nil, err
	}

	resp.DiskBytes = diskBytes
	resp.DiskFiles = diskFiles

	return resp, nil
}

// DownloadStats 返回下载审计记录，按时间倒序分页.
func (s *FileService) DownloadStats(ctx context.Context, offset, limit int) (*types.DownloadStatsResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	db := s.dbClient.WithContext(ctx)

	resp := &types.DownloadStatsResponse{}

	if err := db.Model(&model.DownloadStat{}).Count(&resp.Total).Error; err != nil {
		return nil, err
	}

	var rows []model.DownloadStat
	if err := db.Order("downloaded_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resp.Items = make([]types.DownloadStatItem, 0, len(rows))
	for _, r := range rows {
		resp.Items = append(resp.Items, types.DownloadStatItem{
			FileID:       r.FileID,
			FileName:     r.FileName,
			ShareCode:    r.ShareCode,
			ClientIP:     r.ClientIP,
			UserAgent:    r.UserAgent,
			BytesSent:    r.BytesSent,
			DownloadedAt: r.DownloadedAt,
		})
	}

	return resp, nil
}

// ListFiles 管理端文件列表，按创建时间倒序分页.
func (s *FileService) ListFiles(ctx context.Context, offset, limit int) (*types.FileListResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	db := s.dbClient.WithContext(ctx)

	resp := &types.FileListResponse{}

	if err := db.Model(&model.File{}).Count(&resp.Total).Error; err != nil {
		return nil, err
	}

	var rows []model.File
	if err := db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now()

	resp.Items = make([]types.FileListItem, 0, len(rows))
	for i := range rows {
		f := &rows[i]
		resp.Items = append(resp.Items, types.FileListItem{
			FileID:         f.ID,
			FileName:       f.FileName,
			Size:           f.Size,
			ContentType:    f.ContentType,
			ShareCode:      f.ShareCode,
			DownloadCount:  f.DownloadCount,
			DownloadLimit:  f.DownloadLimit,
			ExpiresAt:      f.ExpiresAt,
			CreatedAt:      f.CreatedAt,
			LastAccessedAt: f.LastAccessedAt,
			Expired:        f.Expired(now),
		})
	}

	return resp, nil
}
