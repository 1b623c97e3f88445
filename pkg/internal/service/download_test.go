package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/model"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/storage/db"
	"github.com/yeisme/dropvault/pkg/internal/storage/vault"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// uploadFixture 上传一份固定内容文件并返回元数据.
func uploadFixture(t *testing.T, svc *service.FileService, content []byte, opts types.UploadOptions) *model.File {
	t.Helper()

	f, err := svc.SaveSingle(context.Background(), "fixture.bin", "application/octet-stream",
		int64(len(content)), bytes.NewReader(content), opts)
	if err != nil {
		t.Fatalf("upload fixture: %v", err)
	}

	return f
}

// expireFile 将文件回拨为已过期.
func expireFile(t *testing.T, dbc *db.Client, fileID string) {
	t.Helper()

	if err := dbc.Model(&model.File{}).
		Where("id = ?", fileID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire file: %v", err)
	}
}

func TestDownloadStreamMatchesUpload(t *testing.T) {
	svc, _, _ := newTestService(t)

	content := bytes.Repeat([]byte("dropvault"), 4096)
	f := uploadFixture(t, svc, content, types.UploadOptions{})

	stream, err := svc.OpenDownload(context.Background(), f.ShareCode)
	if err != nil {
		t.Fatalf("open download: %v", err)
	}
	defer stream.Close()

	if stream.Mmap {
		t.Fatal("small file should not use mmap")
	}

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if !bytes.Equal(got, content) {
		t.Fatalf("content mismatch: got %d bytes, want %d", len(got), len(content))
	}
}

func TestDownloadMmapStrategySameBytes(t *testing.T) {
	_, dbc, _ := newTestService(t)

	// 阈值压到 1MB，让测试文件走 mmap 路径
	mv, err := vault.NewWithConfig(&configs.VaultConfig{
		DataDir:         filepath.Join(t.TempDir(), "files"),
		TempDirName:     "temp",
		BannerDir:       filepath.Join(t.TempDir(), "banners"),
		MmapThresholdMB: 1,
	})
	if err != nil {
		t.Fatalf("init vault: %v", err)
	}

	msvc := service.NewFileServiceWith(dbc, mv, nil, nil)

	content := bytes.Repeat([]byte{0xA5, 0x5A, 0x01, 0xFE}, 384*1024) // 1.5MB
	f := uploadFixture(t, msvc, content, types.UploadOptions{})

	stream, err := msvc.OpenDownload(context.Background(), f.ShareCode)
	if err != nil {
		t.Fatalf("open download: %v", err)
	}
	defer stream.Close()

	if !stream.Mmap {
		t.Fatal("file above threshold should use mmap")
	}

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read mmap stream: %v", err)
	}

	if !bytes.Equal(got, content) {
		t.Fatalf("mmap content mismatch: got %d bytes", len(got))
	}
}

func TestDownloadQuotaExhaustion(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("limited"), types.UploadOptions{DownloadLimit: 1})

	stream, err := svc.OpenDownload(ctx, f.ShareCode)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}

	_, _ = io.ReadAll(stream)
	_ = stream.Close()

	if _, err := svc.OpenDownload(ctx, f.ShareCode); !errors.Is(err, service.ErrQuotaExceeded) {
		t.Fatalf("second download err = %v, want ErrQuotaExceeded", err)
	}
}

func TestDownloadQuotaConcurrentBoundary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const limit = 3
	const attempts = 8

	f := uploadFixture(t, svc, []byte("contended"), types.UploadOptions{DownloadLimit: limit})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)

	for range attempts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			stream, err := svc.OpenDownload(ctx, f.ShareCode)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				ok++

				_ = stream.Close()
			case errors.Is(err, service.ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if ok != limit || rejected != attempts-limit {
		t.Fatalf("ok = %d, rejected = %d, want %d/%d", ok, rejected, limit, attempts-limit)
	}
}

func TestExpiredDownloadDoesNotConsumeQuota(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("stale"), types.UploadOptions{DownloadLimit: 5})
	expireFile(t, dbc, f.ID)

	if _, err := svc.OpenDownload(ctx, f.ShareCode); !errors.Is(err, service.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	var after model.File
	if err := dbc.First(&after, "id = ?", f.ID).Error; err != nil {
		t.Fatalf("reload file: %v", err)
	}

	if after.DownloadCount != 0 {
		t.Fatalf("expired attempt consumed quota: count = %d", after.DownloadCount)
	}
}

func TestDownloadUnknownCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.OpenDownload(context.Background(), "nosuchcode00"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestShareInfo(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("shared"), types.UploadOptions{DownloadLimit: 10})

	info, err := svc.ShareInfo(ctx, f.ShareCode, "http://localhost:8080")
	if err != nil {
		t.Fatalf("share info: %v", err)
	}

	if info.FileName != "fixture.bin" || info.Remaining != 10 {
		t.Fatalf("info = %+v", info)
	}

	if info.DownloadURL != "http://localhost:8080/d/"+f.ShareCode {
		t.Fatalf("download url = %q", info.DownloadURL)
	}
}

func TestDeleteFile(t *testing.T) {
	svc, _, v := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("doomed"), types.UploadOptions{})

	if err := svc.DeleteFile(ctx, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := v.Stat(f.StoredName); err == nil {
		t.Fatal("blob should be removed")
	}

	if _, err := svc.LookupByCode(ctx, f.ShareCode); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("lookup after delete err = %v, want ErrNotFound", err)
	}

	// 删除幂等：对同一 ID 重复删除不报错
	if err := svc.DeleteFile(ctx, f.ID); err != nil {
		t.Fatalf("second delete err = %v, want nil", err)
	}

	if err := svc.DeleteFile(ctx, "never-existed"); err != nil {
		t.Fatalf("delete unknown id err = %v, want nil", err)
	}
}

func TestDownloadStampsLastAccessed(t *testing.T) {
	svc, dbc, _ := newTestService(t)
	ctx := context.Background()

	f := uploadFixture(t, svc, []byte("touched"), types.UploadOptions{DownloadLimit: 5})

	var before model.File
	if err := dbc.First(&before, "id = ?", f.ID).Error; err != nil {
		t.Fatalf("reload file: %v", err)
	}

	if before.LastAccessedAt != nil {
		t.Fatalf("fresh upload should have no last access, got %v", before.LastAccessedAt)
	}

	opened := time.Now()

	stream, err := svc.OpenDownload(ctx, f.ShareCode)
	if err != nil {
		t.Fatalf("open download: %v", err)
	}

	_, _ = io.ReadAll(stream)
	_ = stream.Close()

	var after model.File
	if err := dbc.First(&after, "id = ?", f.ID).Error; err != nil {
		t.Fatalf("reload file: %v", err)
	}

	if after.DownloadCount != 1 {
		t.Fatalf("download count = %d, want 1", after.DownloadCount)
	}

	if after.LastAccessedAt == nil {
		t.Fatal("last access not recorded")
	}

	if after.LastAccessedAt.Before(opened.Add(-time.Second)) {
		t.Fatalf("last access %v predates download at %v", after.LastAccessedAt, opened)
	}
}

func TestFinalizeSizeUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.FinalizeSize(context.Background(), "no-such-file", 1024)
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveSingleRejectsOversizeDeclared(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	one := 1
	if err := svc.Settings().Update(ctx, &types.UpdateSettingsRequest{MaxFileSizeGB: &one}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	_, err := svc.SaveSingle(ctx, "big.bin", "", 2<<30, bytes.NewReader(nil), types.UploadOptions{})
	if !errors.Is(err, service.ErrSizeLimitExceeded) {
		t.Fatalf("err = %v, want ErrSizeLimitExceeded", err)
	}
}
