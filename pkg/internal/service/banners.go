package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// bannerMaxBytes 横幅图片大小上限.
const bannerMaxBytes = 10 * 1024 * 1024

// ListBanners 返回横幅列表，onlyEnabled 时过滤停用项，按 sort_order 升序.
func (s *FileService) ListBanners(ctx context.Context, onlyEnabled bool) ([]types.BannerItem, error) {
	q := s.dbClient.WithContext(ctx).Model(&model.Banner{})
	if onlyEnabled {
		q = q.Where("enabled = ?", true)
	}

	var rows []model.Banner
	if err := q.Order("sort_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]types.BannerItem, 0, len(rows))
	for _, b := range rows {
		items = append(items, types.BannerItem{
			ID:        b.ID,
			Title:     b.Title,
			ImageURL:  "/static/uploads/banners/" + b.ImagePath,
			LinkURL:   b.LinkURL,
			SortOrder: b.SortOrder,
		})
	}

	return items, nil
}

// CreateBanner 保存横幅图片并登记数据库行. 图片以随机名落盘，避免覆盖.
func (s *FileService) CreateBanner(ctx context.Context, req *types.UpsertBannerRequest, imageName string, image io.Reader) (*model.Banner, error) {
	ext := filepath.Ext(imageName)
	fileName := uuid.NewString() + ext
	dst := filepath.Join(s.vault.BannerDir(), fileName)

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create banner image: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(image, bannerMaxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}

	if err == nil && n > bannerMaxBytes {
		err = ErrSizeLimitExceeded
	}

	if err != nil {
		_ = os.Remove(dst)

		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	b := &model.Banner{
		Title:     req.Title,
		ImagePath: fileName,
		LinkURL:   req.LinkURL,
		SortOrder: req.SortOrder,
		Enabled:   enabled,
	}

	if err := s.dbClient.WithContext(ctx).Create(b).Error; err != nil {
		_ = os.Remove(dst)

		return nil, err
	}

	return b, nil
}

// ClickBanner 累计一次横幅点击并返回跳转链接. 停用的横幅按不存在处理.
func (s *FileService) ClickBanner(ctx context.Context, id uint) (string, error) {
	var b model.Banner
	if err := s.dbClient.WithContext(ctx).
		First(&b, "id = ? AND enabled = ?", id, true).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrNotFound
		}

		return "", err
	}

	if err := s.dbClient.WithContext(ctx).
		Model(&model.Banner{}).
		Where("id = ?", b.ID).
		Update("clicks", gorm.Expr("clicks + 1")).Error; err != nil {
		return "", err
	}

	return b.LinkURL, nil
}

// UpdateBanner 更新横幅属性（不含图片）.
func (s *FileService) UpdateBanner(ctx context.Context, id uint, req *types.UpsertBannerRequest) error {
	updates := map[string]any{
		"title":      req.Title,
		"link_url":   req.LinkURL,
		"sort_order": req.SortOrder,
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}

	res := s.dbClient.WithContext(ctx).
		Model(&model.Banner{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteBanner 删除横幅：先删图片文件再删行，图片缺失不报错.
func (s *FileService) DeleteBanner(ctx context.Context, id uint) error {
	var b model.Banner
	if err := s.dbClient.WithContext(ctx).First(&b, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}

		return err
	}

	if b.ImagePath != "" {
		path := filepath.Join(s.vault.BannerDir(), b.ImagePath)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return s.dbClient.WithContext(ctx).Delete(&model.Banner{}, b.ID).Error
}
