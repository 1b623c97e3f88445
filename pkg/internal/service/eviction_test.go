package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

func TestCleanupExpiredRemovesFileCompletely(t *testing.T) {
	svc, dbc, v := newTestService(t)
	ctx := context.Background()

	content := []byte("soon to expire")
	f := uploadFixture(t, svc, content, types.UploadOptions{})
	expireFile(t, dbc, f.ID)

	// 预置一条审计行，验证回收时一并清理
	if err := dbc.Create(&model.DownloadStat{
		FileID:       f.ID,
		ShareCode:    f.ShareCode,
		FileName:     f.FileName,
		DownloadedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("seed stat row: %v", err)
	}

	resp, err := svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if resp.RemovedFiles != 1 || resp.FreedBytes != int64(len(content)) {
		t.Fatalf("resp = %+v", resp)
	}

	if _, err := v.Stat(f.StoredName); err == nil {
		t.Fatal("blob should be gone")
	}

	if _, err := svc.LookupByCode(ctx, f.ShareCode); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("lookup err = %v, want ErrNotFound", err)
	}

	var stats int64
	if err := dbc.Model(&model.DownloadStat{}).Where("file_id = ?", f.ID).Count(&stats).Error; err != nil {
		t.Fatalf("count stats: %v", err)
	}

	if stats != 0 {
		t.Fatalf("stat rows left: %d", stats)
	}
}

func TestCleanupKeepsLiveFiles(t *testing.T) {
	svc, dbc, v := newTestService(t)
	ctx := context.Background()

	live := uploadFixture(t, svc, []byte("still good"), types.UploadOptions{})
	dead := uploadFixture(t, svc, []byte("gone"), types.UploadOptions{})
	expireFile(t, dbc, dead.ID)

	resp, err := svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if resp.RemovedFiles != 1 {
		t.Fatalf("removed = %d, want 1", resp.RemovedFiles)
	}

	if _, err := v.Stat(live.StoredName); err != nil {
		t.Fatalf("live blob missing: %v", err)
	}

	if _, err := svc.LookupByCode(ctx, live.ShareCode); err != nil {
		t.Fatalf("live lookup failed: %v", err)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("once"), types.UploadOptions{})
	expireFile(t, dbc, f.ID)

	if _, err := svc.CleanupExpired(ctx); err != nil {
		t.Fatalf("first cleanup: %v", err)
	}

	resp, err := svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}

	if resp.RemovedFiles != 0 {
		t.Fatalf("second round removed %d files", resp.RemovedFiles)
	}
}

func TestCleanupStaleSessions(t *testing.T) {
	svc, dbc, v := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "abandoned.bin",
		TotalChunks: 3,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	// 回拨会话建立时间，模拟被放弃超过 24 小时
	if err := dbc.Model(&model.UploadSession{}).
		Where("upload_id = ?", sess.UploadID).
		Update("created_at", time.Now().Add(-25*time.Hour)).Error; err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	if _, err := svc.CleanupExpired(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if v.SessionExists(sess.UploadID) {
		t.Fatal("stale session dir should be removed")
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 1, bytes.NewReader([]byte("y"))); !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("put after sweep err = %v, want ErrSessionNotFound", err)
	}
}

func TestPurgeAll(t *testing.T) {
	svc, _, v := newTestService(t)
	ctx := context.Background()

	files := []*model.File{
		uploadFixture(t, svc, []byte("one"), types.UploadOptions{}),
		uploadFixture(t, svc, []byte("two"), types.UploadOptions{}),
		uploadFixture(t, svc, []byte("three"), types.UploadOptions{}),
	}

	resp, err := svc.PurgeAll(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}

	if resp.RemovedFiles != len(files) {
		t.Fatalf("removed = %d, want %d", resp.RemovedFiles, len(files))
	}

	for _, f := range files {
		if _, err := v.Stat(f.StoredName); err == nil {
			t.Fatalf("blob %s should be gone", f.StoredName)
		}
	}
}
