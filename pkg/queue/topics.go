// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：dv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：file(文件生命周期)、upload(分块上传会话)
// 动作：存储相关(stored/deleted/evicted)、访问相关(downloaded)、会话相关(created/merged/failed)

const (
	// 文件生命周期领域.
	TopicFileStored     = "dv.file.stored"     // 文件落库完成（单次上传或分块合并后），元数据已写入数据库
	TopicFileDownloaded = "dv.file.downloaded" // 文件被成功下载，审计消费者据此落库下载统计
	TopicFileDeleted    = "dv.file.deleted"    // 文件被主动删除（管理端操作）
	TopicFileEvicted    = "dv.file.evicted"    // 文件被回收器清理（过期或配额耗尽）

	// 分块上传会话领域.
	TopicUploadSessionCreated = "dv.upload.session.created" // 分块上传会话建立
	TopicUploadSessionMerged  = "dv.upload.session.merged"  // 会话分块合并完成
	TopicUploadSessionFailed  = "dv.upload.session.failed"  // 会话合并失败或被放弃
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 文件生命周期相关主题集合.
	FileTopics = []string{
		TopicFileStored, TopicFileDownloaded,
		TopicFileDeleted, TopicFileEvicted,
	}

	// 分块上传会话相关主题集合.
	UploadTopics = []string{
		TopicUploadSessionCreated, TopicUploadSessionMerged,
		TopicUploadSessionFailed,
	}
)
