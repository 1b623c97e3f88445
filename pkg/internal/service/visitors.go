package service

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// TrackVisitor 记录一次访客活动. 同一 visitorID 只保留一行，滚动更新 LastSeen.
func (s *FileService) TrackVisitor(ctx context.Context, visitorID, clientIP, userAgent, path string) error {
	if visitorID == "" {
		return nil
	}

	v := model.Visitor{
		VisitorID: visitorID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Path:      path,
		LastSeen:  time.Now(),
	}

	return s.dbClient.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"client_ip", "user_agent", "path", "last_seen"}),
		}).
		Create(&v).Error
}

// ListVisitors 管理端访客列表，按最后活跃时间倒序分页.
func (s *FileService) ListVisitors(ctx context.Context, offset, limit int) (*types.VisitorsResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	db := s.dbClient.WithContext(ctx)

	resp := &types.VisitorsResponse{}

	if err := db.Model(&model.Visitor{}).Count(&resp.Total).Error; err != nil {
		return nil, err
	}

	var rows []model.Visitor
	if err := db.Order("last_seen DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resp.Items = make([]types.VisitorItem, 0, len(rows))
	for _, v := range rows {
		resp.Items = append(resp.Items, types.VisitorItem{
			VisitorID: v.VisitorID,
			ClientIP:  v.ClientIP,
			UserAgent: v.UserAgent,
			Path:      v.Path,
			LastSeen:  v.LastSeen,
			FirstSeen: v.CreatedAt,
		})
	}

	return resp, nil
}

// SweepVisitors 清理长期不活跃的访客行，控制表规模.
func (s *FileService) SweepVisitors(ctx context.Context, olderThan time.Duration) (int64, error) {
	res := s.dbClient.WithContext(ctx).
		Where("last_seen < ?", time.Now().Add(-olderThan)).
		Delete(&model.Visitor{})

	return res.RowsAffected, res.Error
}
