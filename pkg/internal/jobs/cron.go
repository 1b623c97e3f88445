// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	ctxPkg "github.com/yeisme/dropvault/pkg/context"
	"github.com/yeisme/dropvault/pkg/internal/service"
	"github.com/yeisme/dropvault/pkg/internal/storage"
	"github.com/yeisme/dropvault/pkg/log"
	"github.com/yeisme/dropvault/pkg/scheduler"
)

// evictionTickInterval 回收检查的基础节拍.
// 实际回收间隔由运行时设置 cleanup_interval_minutes 决定，
// 每个节拍重新读取设置，管理端修改后下一拍即生效.
const evictionTickInterval = time.Minute

// visitorRetention 访客行保留时长，超过后由每日任务清掉.
const visitorRetention = 30 * 24 * time.Hour

// RegisterCronJobs 配置业务定时任务：
//   - 每分钟检查一次是否到达回收周期，开关与间隔实时读取运行时设置
//   - 每天 04:15 清理长期不活跃的访客记录
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	var (
		mu      sync.Mutex
		lastRun time.Time
	)

	// 回收节拍：到点且开关打开才真正执行
	_ = sched.AddInterval(JobEvictionTick, evictionTickInterval, func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()

		lastRun = runEvictionTick(ctx, lastRun)
	}, baseCtx)

	// 每天 04:15 清理访客表
	_ = sched.AddCron(JobVisitorSweep, CronVisitorSweep, func(ctx context.Context) {
		runVisitorSweep(ctx)
	}, baseCtx)

	return nil
}

// runEvictionTick 判定是否到达回收周期，到达则执行一轮回收并返回新的执行时间.
func runEvictionTick(ctx context.Context, lastRun time.Time) time.Time {
	l := log.Logger().With().Str("job", JobEvictionTick).Logger()

	svc := service.NewFileService(ctx)

	if !svc.Settings().AutoCleanupEnabled(ctx) {
		return lastRun
	}

	interval := time.Duration(svc.Settings().CleanupIntervalMinutes(ctx)) * time.Minute
	if !lastRun.IsZero() && time.Since(lastRun) < interval {
		return lastRun
	}

	resp, err := svc.CleanupExpired(ctx)
	if err != nil {
		l.Error().Err(err).Msg("eviction round failed")

		return lastRun
	}

	if resp.RemovedFiles > 0 {
		l.Info().
			Int("removed", resp.RemovedFiles).
			Int64("freed_bytes", resp.FreedBytes).
			Msg("scheduled eviction done")
	}

	return time.Now()
}

// runVisitorSweep 清理长期不活跃的访客记录.
func runVisitorSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobVisitorSweep).Logger()

	svc := service.NewFileService(ctx)

	removed, err := svc.SweepVisitors(ctx, visitorRetention)
	if err != nil {
		l.Error().Err(err).Msg("visitor sweep failed")

		return
	}

	if removed > 0 {
		l.Info().Int64("removed", removed).Msg("visitor rows swept")
	}
}
