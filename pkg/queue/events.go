package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishFileStored 发布 dv.file.stored 事件。
// 文件元数据写入数据库后调用，通知下游流程（审计、缓存失效等）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileStored, msg)
}

// ParseFileStored 将 Watermill 消息解析为强类型 Envelope（FileStoredPayload）。
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// PublishFileDownloaded 发布 dv.file.downloaded 事件。
// 下载流完成后调用，审计消费者订阅该主题落库下载统计。
func PublishFileDownloaded(pub message.Publisher, payload FileDownloadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileDownloaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileDownloaded, msg)
}

// ParseFileDownloaded 将 Watermill 消息解析为强类型 Envelope（FileDownloadedPayload）。
func ParseFileDownloaded(msg *message.Message) (Message[FileDownloadedPayload], error) {
	return ParseWatermillMessage[FileDownloadedPayload](msg)
}

// PublishFileEvicted 发布 dv.file.evicted 事件。
func PublishFileEvicted(pub message.Publisher, payload FileEvictedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileEvicted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileEvicted, msg)
}

// ParseFileEvicted 将 Watermill 消息解析为强类型 Envelope（FileEvictedPayload）。
func ParseFileEvicted(msg *message.Message) (Message[FileEvictedPayload], error) {
	return ParseWatermillMessage[FileEvictedPayload](msg)
}
