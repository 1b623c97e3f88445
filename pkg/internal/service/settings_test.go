package service_test

import (
	"context"
	"testing"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

func TestSettingsSeedDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view := svc.Settings().View(ctx)

	if view.ChunkSizeMB != service.DefaultChunkSizeMB {
		t.Fatalf("chunk_size_mb = %d, want %d", view.ChunkSizeMB, service.DefaultChunkSizeMB)
	}

	if view.MaxDownloadLimit != service.DefaultMaxDownloadLimit {
		t.Fatalf("max_download_limit = %d, want %d", view.MaxDownloadLimit, service.DefaultMaxDownloadLimit)
	}

	if view.AutoCleanupEnabled {
		t.Fatal("auto_cleanup should be off by default")
	}

	if !view.EnableChunkedUpload || !view.EnableCompression || !view.EnableCaching {
		t.Fatal("feature toggles should be on by default")
	}

	if view.AdminUsername != service.DefaultAdminUsername {
		t.Fatalf("admin_username = %q", view.AdminUsername)
	}
}

func TestSettingsSeedIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	limit := 7
	if err := svc.Settings().Update(ctx, &types.UpdateSettingsRequest{MaxDownloadLimit: &limit}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// 二次播种不应覆盖已修改的值
	if err := svc.Settings().Seed(ctx); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	if got := svc.Settings().MaxDownloadLimit(ctx); got != 7 {
		t.Fatalf("max_download_limit after re-seed = %d, want 7", got)
	}
}

func TestVerifyAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if !svc.Settings().VerifyAdmin(ctx, service.DefaultAdminUsername, service.DefaultAdminPassword) {
		t.Fatal("default credentials should pass")
	}

	if svc.Settings().VerifyAdmin(ctx, service.DefaultAdminUsername, "wrong") {
		t.Fatal("wrong password should fail")
	}

	if svc.Settings().VerifyAdmin(ctx, "nobody", service.DefaultAdminPassword) {
		t.Fatal("wrong username should fail")
	}
}

func TestSettingsUpdateTakesEffectImmediately(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	disabled := false
	newPassword := "s3cret-pass"

	err := svc.Settings().Update(ctx, &types.UpdateSettingsRequest{
		EnableChunkedUpload: &disabled,
		AdminPassword:       &newPassword,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if svc.Settings().ChunkedUploadEnabled(ctx) {
		t.Fatal("chunked upload should be disabled")
	}

	if svc.Settings().VerifyAdmin(ctx, service.DefaultAdminUsername, service.DefaultAdminPassword) {
		t.Fatal("old password should no longer pass")
	}

	if !svc.Settings().VerifyAdmin(ctx, service.DefaultAdminUsername, newPassword) {
		t.Fatal("new password should pass")
	}
}
