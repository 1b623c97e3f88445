package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

func TestTrackVisitorUpsert(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	const visitorID = "11111111-2222-3333-4444-555555555555"

	if err := svc.TrackVisitor(ctx, visitorID, "10.0.0.1", "curl/8", "/s/abc"); err != nil {
		t.Fatalf("first track: %v", err)
	}

	if err := svc.TrackVisitor(ctx, visitorID, "10.0.0.2", "curl/8", "/d/abc"); err != nil {
		t.Fatalf("second track: %v", err)
	}

	var rows []model.Visitor
	if err := dbc.Find(&rows).Error; err != nil {
		t.Fatalf("load visitors: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	if rows[0].ClientIP != "10.0.0.2" || rows[0].Path != "/d/abc" {
		t.Fatalf("row not updated: %+v", rows[0])
	}
}

func TestSweepVisitors(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.TrackVisitor(ctx, "active-visitor", "10.0.0.1", "", "/"); err != nil {
		t.Fatalf("track: %v", err)
	}

	stale := model.Visitor{VisitorID: "stale-visitor", LastSeen: time.Now().Add(-48 * time.Hour)}
	if err := dbc.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale visitor: %v", err)
	}

	removed, err := svc.SweepVisitors(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	var count int64
	if err := dbc.Model(&model.Visitor{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if count != 1 {
		t.Fatalf("rows left = %d, want 1", count)
	}
}

func TestSiteStats(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	a := uploadFixture(t, svc, []byte("aaaa"), types.UploadOptions{})
	b := uploadFixture(t, svc, []byte("bbbbbb"), types.UploadOptions{})

	if err := dbc.Create(&model.DownloadStat{
		FileID: a.ID, ShareCode: a.ShareCode, FileName: a.FileName, DownloadedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("seed stat: %v", err)
	}

	if err := svc.TrackVisitor(ctx, "v-1", "10.0.0.1", "", "/"); err != nil {
		t.Fatalf("track: %v", err)
	}

	stats, err := svc.SiteStats(ctx)
	if err != nil {
		t.Fatalf("site stats: %v", err)
	}

	if stats.TotalFiles != 2 {
		t.Fatalf("total_files = %d, want 2", stats.TotalFiles)
	}

	if want := a.Size + b.Size; stats.TotalBytes != want {
		t.Fatalf("total_bytes = %d, want %d", stats.TotalBytes, want)
	}

	if stats.TotalDownloads != 1 {
		t.Fatalf("total_downloads = %d, want 1", stats.TotalDownloads)
	}

	if stats.Visitors5m != 1 || stats.Visitors10m != 1 {
		t.Fatalf("visitors = %d/%d, want 1/1", stats.Visitors5m, stats.Visitors10m)
	}

	if stats.DiskFiles != 2 || stats.DiskBytes != a.Size+b.Size {
		t.Fatalf("disk usage = %d files / %d bytes", stats.DiskFiles, stats.DiskBytes)
	}
}
