// Package vault 处理文件仓库的本地磁盘存储操作.
//
// 目录布局：
//
//	<data_dir>/                最终文件，以存储名（UUID+扩展名）命名
//	<data_dir>/<temp>/<id>/    分块上传会话目录，分块文件名为 chunk_%06d
//	<banner_dir>/              分享页横幅图片
//
// 所有写入先落到 .part 临时文件再原子重命名，被截断的流不会
// 覆盖已完整落盘的文件.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/yeisme/dropvault/pkg/configs"
	nlog "github.com/yeisme/dropvault/pkg/log"
)

const (
	// chunkFilePattern 会话目录内分块文件的命名模式.
	chunkFilePattern = "chunk_%06d"
	// partSuffix 写入中的临时文件后缀.
	partSuffix = ".part"
	// dirPerm 仓库目录权限.
	dirPerm = 0o755
)

// Vault 管理数据目录下的文件读写.
type Vault struct {
	dataDir       string
	tempDir       string
	bannerDir     string
	mmapThreshold int64
}

// New 初始化文件仓库，创建数据目录、临时目录与横幅目录.
func New(ctx context.Context) (*Vault, error) {
	cfg := configs.GetConfig().Vault

	return NewWithConfig(&cfg)
}

// NewWithConfig 使用给定配置初始化文件仓库.
func NewWithConfig(cfg *configs.VaultConfig) (*Vault, error) {
	v := &Vault{
		dataDir:       cfg.DataDir,
		tempDir:       cfg.GetTempDir(),
		bannerDir:     cfg.BannerDir,
		mmapThreshold: cfg.GetMmapThresholdBytes(),
	}

	for _, dir := range []string{v.dataDir, v.tempDir, v.bannerDir} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("create vault dir %s: %w", dir, err)
		}
	}

	nlog.Logger().Info().
		Str("data_dir", v.dataDir).
		Str("temp_dir", v.tempDir).
		Msg("file vault initialized")

	return v, nil
}

// DataDir 返回最终文件所在目录.
func (v *Vault) DataDir() string { return v.dataDir }

// BannerDir 返回横幅图片目录.
func (v *Vault) BannerDir() string { return v.bannerDir }

// MmapThreshold 返回启用 mmap 读取的文件大小阈值（字节）.
func (v *Vault) MmapThreshold() int64 { return v.mmapThreshold }

// UseMmap 判断给定大小的文件是否应当使用 mmap 读取.
func (v *Vault) UseMmap(size int64) bool {
	return v.mmapThreshold > 0 && size >= v.mmapThreshold
}

// validName 拒绝包含路径分隔符或上跳的存储名.
func validName(name string) error {
	if name == "" || name != filepath.Base(name) ||
		strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid stored name: %q", name)
	}

	return nil
}

// Path 返回存储名对应的磁盘路径.
func (v *Vault) Path(storedName string) (string, error) {
	if err := validName(storedName); err != nil {
		return "", err
	}

	return filepath.Join(v.dataDir, storedName), nil
}

// SaveStream 将数据流写入仓库，返回写入字节数.
// 先写 <name>.part 再原子重命名，失败时清理残留.
func (v *Vault) SaveStream(ctx context.Context, storedName string, r io.Reader, bufSize int) (int64, error) {
	dst, err := v.Path(storedName)
	if err != nil {
		return 0, err
	}

	return writeAtomic(ctx, dst, r, bufSize)
}

// Open 打开存储文件用于顺序读取.
func (v *Vault) Open(storedName string) (*os.File, error) {
	p, err := v.Path(storedName)
	if err != nil {
		return nil, err
	}

	return os.Open(p)
}

// OpenMmap 以内存映射方式打开存储文件，适用于大文件的随机/整段读取.
func (v *Vault) OpenMmap(storedName string) (*mmap.ReaderAt, error) {
	p, err := v.Path(storedName)
	if err != nil {
		return nil, err
	}

	return mmap.Open(p)
}

// Stat 返回存储文件信息.
func (v *Vault) Stat(storedName string) (fs.FileInfo, error) {
	p, err := v.Path(storedName)
	if err != nil {
		return nil, err
	}

	return os.Stat(p)
}

// Remove 删除存储文件. 文件不存在视为成功，保证删除操作幂等.
func (v *Vault) Remove(storedName string) error {
	p, err := v.Path(storedName)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", storedName, err)
	}

	return nil
}

// Usage 统计数据目录下最终文件的总字节数与数量（不含临时目录）.
func (v *Vault) Usage() (totalBytes int64, count int, err error) {
	entries, err := os.ReadDir(v.dataDir)
	if err != nil {
		return 0, 0, err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		info, ierr := e.Info()
		if ierr != nil {
			continue
		}

		totalBytes += info.Size()
		count++
	}

	return totalBytes, count, nil
}

// ---------------------- 分块上传会话 ----------------------

// SessionDir 返回会话目录路径.
func (v *Vault) SessionDir(uploadID string) (string, error) {
	if err := validName(uploadID); err != nil {
		return "", err
	}

	return filepath.Join(v.tempDir, uploadID), nil
}

// EnsureSessionDir 创建并返回会话目录.
func (v *Vault) EnsureSessionDir(uploadID string) (string, error) {
	dir, err := v.SessionDir(uploadID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	return dir, nil
}

// SessionExists 判断会话目录是否存在.
func (v *Vault) SessionExists(uploadID string) bool {
	dir, err := v.SessionDir(uploadID)
	if err != nil {
		return false
	}

	info, err := os.Stat(dir)

	return err == nil && info.IsDir()
}

// ChunkPath 返回会话中第 index 块的磁盘路径.
func (v *Vault) ChunkPath(uploadID string, index int) (string, error) {
	dir, err := v.SessionDir(uploadID)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, fmt.Sprintf(chunkFilePattern, index)), nil
}

// WriteChunk 将单个分块写入会话目录，重复写入同一 index 会整体替换.
// 写入走 .part + rename，中断的传输不会留下半截分块.
func (v *Vault) WriteChunk(ctx context.Context, uploadID string, index int, r io.Reader, bufSize int) (int64, error) {
	if _, err := v.EnsureSessionDir(uploadID); err != nil {
		return 0, err
	}

	dst, err := v.ChunkPath(uploadID, index)
	if err != nil {
		return 0, err
	}

	return writeAtomic(ctx, dst, r, bufSize)
}

// ChunkStat 返回分块文件信息，不存在时返回 fs.ErrNotExist.
func (v *Vault) ChunkStat(uploadID string, index int) (fs.FileInfo, error) {
	p, err := v.ChunkPath(uploadID, index)
	if err != nil {
		return nil, err
	}

	return os.Stat(p)
}

// ReceivedChunks 返回会话目录中已完整落盘的分块序号集合.
func (v *Vault) ReceivedChunks(uploadID string) (map[int]int64, error) {
	dir, err := v.SessionDir(uploadID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	received := make(map[int]int64, len(entries))

	for _, e := range entries {
		var idx int
		if _, serr := fmt.Sscanf(e.Name(), chunkFilePattern, &idx); serr != nil {
			continue
		}

		if strings.HasSuffix(e.Name(), partSuffix) {
			continue
		}

		info, ierr := e.Info()
		if ierr != nil {
			continue
		}

		received[idx] = info.Size()
	}

	return received, nil
}

// RemoveSession 删除整个会话目录及其分块. 目录不存在视为成功.
func (v *Vault) RemoveSession(uploadID string) error {
	dir, err := v.SessionDir(uploadID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session %s: %w", uploadID, err)
	}

	return nil
}

// ---------------------- 内部工具 ----------------------

// writeAtomic 将 r 写入 dst.part 后重命名为 dst.
func writeAtomic(ctx context.Context, dst string, r io.Reader, bufSize int) (int64, error) {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}

	part := dst + partSuffix

	f, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}

	buf := make([]byte, bufSize)

	n, err := io.CopyBuffer(f, &ctxReader{ctx: ctx, r: r}, buf)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(part)

		return n, fmt.Errorf("write %s: %w", dst, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(part)

		return n, fmt.Errorf("close %s: %w", part, err)
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)

		return n, fmt.Errorf("rename %s: %w", dst, err)
	}

	return n, nil
}

// ctxReader 在每次 Read 前检查上下文是否已取消.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
