package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

func TestBannerLifecycle(t *testing.T) {
	svc, _, v := newTestService(t)
	ctx := context.Background()

	enabled := true
	b, err := svc.CreateBanner(ctx, &types.UpsertBannerRequest{
		Title:     "promo",
		LinkURL:   "https://example.com/promo",
		SortOrder: 3,
		Enabled:   &enabled,
	}, "promo.png", strings.NewReader("fake-png-bytes"))
	if err != nil {
		t.Fatalf("create banner: %v", err)
	}

	if _, err := os.Stat(filepath.Join(v.BannerDir(), b.ImagePath)); err != nil {
		t.Fatalf("banner image not on disk: %v", err)
	}

	items, err := svc.ListBanners(ctx, true)
	if err != nil {
		t.Fatalf("list banners: %v", err)
	}

	if len(items) != 1 || items[0].Title != "promo" || items[0].SortOrder != 3 {
		t.Fatalf("unexpected list: %+v", items)
	}

	if err := svc.DeleteBanner(ctx, b.ID); err != nil {
		t.Fatalf("delete banner: %v", err)
	}

	if _, err := os.Stat(filepath.Join(v.BannerDir(), b.ImagePath)); !os.IsNotExist(err) {
		t.Fatalf("banner image still on disk after delete")
	}

	if err := svc.DeleteBanner(ctx, b.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestClickBannerCountsAndReturnsLink(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBanner(ctx, &types.UpsertBannerRequest{
		LinkURL: "https://example.com/landing",
	}, "ad.jpg", strings.NewReader("jpg"))
	if err != nil {
		t.Fatalf("create banner: %v", err)
	}

	for range 3 {
		link, err := svc.ClickBanner(ctx, b.ID)
		if err != nil {
			t.Fatalf("click: %v", err)
		}

		if link != "https://example.com/landing" {
			t.Fatalf("got link %q", link)
		}
	}

	var clicks int64
	if err := dbc.Table("banners").Where("id = ?", b.ID).
		Select("clicks").Scan(&clicks).Error; err != nil {
		t.Fatalf("load clicks: %v", err)
	}

	if clicks != 3 {
		t.Fatalf("got %d clicks, want 3", clicks)
	}
}

func TestClickDisabledBannerNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	disabled := false
	b, err := svc.CreateBanner(ctx, &types.UpsertBannerRequest{
		LinkURL: "https://example.com",
		Enabled: &disabled,
	}, "off.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("create banner: %v", err)
	}

	if _, err := svc.ClickBanner(ctx, b.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListVisitorsOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.TrackVisitor(ctx, "visitor-a", "10.0.0.1", "curl/8", "/s/one"); err != nil {
		t.Fatalf("track a: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if err := svc.TrackVisitor(ctx, "visitor-b", "10.0.0.2", "curl/8", "/s/two"); err != nil {
		t.Fatalf("track b: %v", err)
	}

	resp, err := svc.ListVisitors(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list visitors: %v", err)
	}

	if resp.Total != 2 || len(resp.Items) != 2 {
		t.Fatalf("got total=%d items=%d, want 2/2", resp.Total, len(resp.Items))
	}

	// 最近活跃的排前面
	if resp.Items[0].VisitorID != "visitor-b" {
		t.Fatalf("got first visitor %q, want visitor-b", resp.Items[0].VisitorID)
	}
}
