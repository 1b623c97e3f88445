package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/types"
)

// chunkData 生成确定性分块数据，每块字节值不同，装配错序立即暴露.
func chunkData(index, size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte('A' + index)
	}

	return b
}

func TestChunkedUploadAssemblesInOrder(t *testing.T) {
	svc, _, v := newTestService(t)
	ctx := context.Background()

	sizes := []int{10, 10, 10, 7}

	var total int64
	for _, s := range sizes {
		total += int64(s)
	}

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "report.bin",
		TotalChunks: len(sizes),
		TotalSize:   total,
		ContentType: "application/octet-stream",
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	// 乱序上传
	for _, idx := range []int{2, 0, 3, 1} {
		resp, err := svc.PutChunk(ctx, sess.UploadID, idx, bytes.NewReader(chunkData(idx, sizes[idx])))
		if err != nil {
			t.Fatalf("put chunk %d: %v", idx, err)
		}

		if resp.Size != int64(sizes[idx]) {
			t.Fatalf("chunk %d size = %d, want %d", idx, resp.Size, sizes[idx])
		}
	}

	status, err := svc.SessionStatus(ctx, sess.UploadID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}

	if !status.Complete || len(status.Received) != len(sizes) {
		t.Fatalf("status = %+v, want complete", status)
	}

	f, err := svc.CompleteChunkedUpload(ctx, sess.UploadID, types.UploadOptions{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if f.Size != total {
		t.Fatalf("merged size = %d, want %d", f.Size, total)
	}

	// 装配产物必须严格按分块序号拼接
	var want bytes.Buffer
	for i, s := range sizes {
		want.Write(chunkData(i, s))
	}

	blob, err := v.Open(f.StoredName)
	if err != nil {
		t.Fatalf("open merged file: %v", err)
	}
	defer blob.Close()

	got, _ := io.ReadAll(blob)
	if !bytes.Equal(got, want.Bytes()) {
		t.Fatalf("merged content mismatch: got %d bytes", len(got))
	}

	// 临时目录已清空
	if v.SessionExists(sess.UploadID) {
		t.Fatal("session dir should be removed after merge")
	}
}

func TestChunkResendReplacesWhole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "resend.bin",
		TotalChunks: 2,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("short"))); err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	// 重传覆盖整块
	resp, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("a-longer-chunk")))
	if err != nil {
		t.Fatalf("resend chunk: %v", err)
	}

	if resp.Size != int64(len("a-longer-chunk")) {
		t.Fatalf("resent size = %d", resp.Size)
	}

	if resp.Received != 1 {
		t.Fatalf("received = %d, want 1", resp.Received)
	}
}

func TestPutChunkIndexOutOfRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "range.bin",
		TotalChunks: 3,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	for _, idx := range []int{-1, 3, 99} {
		if _, err := svc.PutChunk(ctx, sess.UploadID, idx, bytes.NewReader([]byte("x"))); !errors.Is(err, service.ErrValidation) {
			t.Fatalf("index %d: err = %v, want ErrValidation", idx, err)
		}
	}
}

func TestCompleteIncompleteSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "partial.bin",
		TotalChunks: 3,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("only one"))); err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	if _, err := svc.CompleteChunkedUpload(ctx, sess.UploadID, types.UploadOptions{}); !errors.Is(err, service.ErrSessionIncomplete) {
		t.Fatalf("err = %v, want ErrSessionIncomplete", err)
	}

	// 失败的 complete 不应终结会话，补齐后仍可合并
	for _, idx := range []int{1, 2} {
		if _, err := svc.PutChunk(ctx, sess.UploadID, idx, bytes.NewReader([]byte("rest"))); err != nil {
			t.Fatalf("put chunk %d: %v", idx, err)
		}
	}

	if _, err := svc.CompleteChunkedUpload(ctx, sess.UploadID, types.UploadOptions{}); err != nil {
		t.Fatalf("complete after filling: %v", err)
	}
}

func TestCompleteNotReplayable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "once.bin",
		TotalChunks: 1,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("payload"))); err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	if _, err := svc.CompleteChunkedUpload(ctx, sess.UploadID, types.UploadOptions{}); err != nil {
		t.Fatalf("first complete: %v", err)
	}

	if _, err := svc.CompleteChunkedUpload(ctx, sess.UploadID, types.UploadOptions{}); !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("second complete err = %v, want ErrSessionNotFound", err)
	}
}

func TestAbortUpload(t *testing.T) {
	svc, _, v := newTestService(t)
	ctx := context.Background()

	sess, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "aborted.bin",
		TotalChunks: 2,
	})
	if err != nil {
		t.Fatalf("init session: %v", err)
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 0, bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("put chunk: %v", err)
	}

	if err := svc.AbortUpload(ctx, sess.UploadID); err != nil {
		t.Fatalf("abort: %v", err)
	}

	if v.SessionExists(sess.UploadID) {
		t.Fatal("session dir should be gone after abort")
	}

	if _, err := svc.PutChunk(ctx, sess.UploadID, 1, bytes.NewReader([]byte("y"))); !errors.Is(err, service.ErrSessionNotFound) {
		t.Fatalf("put after abort err = %v, want ErrSessionNotFound", err)
	}
}

func TestInitChunkedUploadDisabled(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	disabled := false
	if err := svc.Settings().Update(ctx, &types.UpdateSettingsRequest{EnableChunkedUpload: &disabled}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	_, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "nope.bin",
		TotalChunks: 2,
	})
	if !errors.Is(err, service.ErrChunkedUploadDisabled) {
		t.Fatalf("err = %v, want ErrChunkedUploadDisabled", err)
	}
}

func TestInitChunkedUploadSizeLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	one := 1
	if err := svc.Settings().Update(ctx, &types.UpdateSettingsRequest{MaxFileSizeGB: &one}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	_, err := svc.InitChunkedUpload(ctx, &types.InitChunkedUploadRequest{
		FileName:    "huge.bin",
		TotalChunks: 10,
		TotalSize:   2 << 30,
	})
	if !errors.Is(err, service.ErrSizeLimitExceeded) {
		t.Fatalf("err = %v, want ErrSizeLimitExceeded", err)
	}
}
