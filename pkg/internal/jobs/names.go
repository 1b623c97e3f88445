package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobEvictionTick = "vault.eviction.tick"
	JobVisitorSweep = "visitors.sweep"
)

// Cron 表达式常量（可选，但推荐一并集中管理）.
const (
	CronVisitorSweep = "15 4 * * *"
)
