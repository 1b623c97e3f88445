package vault_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeisme/dropvault/pkg/configs"
	"github.com/yeisme/dropvault/pkg/internal/storage/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()

	cfg := &configs.VaultConfig{
		DataDir:         filepath.Join(t.TempDir(), "files"),
		TempDirName:     "temp",
		BannerDir:       filepath.Join(t.TempDir(), "banners"),
		MmapThresholdMB: 100,
	}

	v, err := vault.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("init vault: %v", err)
	}

	return v
}

func TestSaveStreamAndOpen(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	payload := []byte("hello vault")

	n, err := v.SaveStream(ctx, "obj-1.bin", bytes.NewReader(payload), 8)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if n != int64(len(payload)) {
		t.Fatalf("wrote %d bytes, want %d", n, len(payload))
	}

	f, err := v.Open("obj-1.bin")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()

	got, _ := io.ReadAll(f)
	if !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch: %q", got)
	}
}

// failingReader 在输出部分数据后返回错误，模拟中断的上传流.
type failingReader struct {
	data []byte
	off  int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, errors.New("connection reset")
	}

	n := copy(p, r.data[r.off:])
	r.off += n

	return n, nil
}

func TestSaveStreamFailureLeavesNoFile(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.SaveStream(ctx, "broken.bin", &failingReader{data: []byte("partial")}, 4)
	if err == nil {
		t.Fatal("expected write error")
	}

	if _, err := v.Stat("broken.bin"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected no final file, stat err = %v", err)
	}

	// .part 残留也应被清理
	entries, _ := os.ReadDir(v.DataDir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") {
			t.Fatalf("leftover part file: %s", e.Name())
		}
	}
}

func TestRemoveIdempotent(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if _, err := v.SaveStream(ctx, "gone.bin", strings.NewReader("x"), 0); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := v.Remove("gone.bin"); err != nil {
		t.Fatalf("first remove failed: %v", err)
	}

	if err := v.Remove("gone.bin"); err != nil {
		t.Fatalf("second remove should succeed: %v", err)
	}
}

func TestWriteChunkAndReceived(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	const uploadID = "11111111-2222-3333-4444-555555555555"

	for i, part := range []string{"aaaa", "bb", "cccccc"} {
		if _, err := v.WriteChunk(ctx, uploadID, i, strings.NewReader(part), 2); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	received, err := v.ReceivedChunks(uploadID)
	if err != nil {
		t.Fatalf("received chunks: %v", err)
	}

	if len(received) != 3 {
		t.Fatalf("got %d chunks, want 3", len(received))
	}

	if received[1] != 2 {
		t.Fatalf("chunk 1 size = %d, want 2", received[1])
	}

	// 重传同一分块应整体替换
	if _, err := v.WriteChunk(ctx, uploadID, 1, strings.NewReader("BBBB"), 2); err != nil {
		t.Fatalf("rewrite chunk 1: %v", err)
	}

	received, _ = v.ReceivedChunks(uploadID)
	if received[1] != 4 {
		t.Fatalf("chunk 1 size after rewrite = %d, want 4", received[1])
	}

	if err := v.RemoveSession(uploadID); err != nil {
		t.Fatalf("remove session: %v", err)
	}

	if v.SessionExists(uploadID) {
		t.Fatal("session dir should be gone")
	}

	// 会话删除后再删一次仍应成功
	if err := v.RemoveSession(uploadID); err != nil {
		t.Fatalf("second remove session: %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	v := newTestVault(t)

	for _, bad := range []string{"", "../etc/passwd", "a/b", `a\b`, ".."} {
		if _, err := v.Path(bad); err == nil {
			t.Fatalf("expected error for name %q", bad)
		}
	}
}
