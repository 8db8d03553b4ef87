package proto

import "unicode"

// NATS Subject 常量定义
const (
	// SubjectEngineCommand 网关 -> 牌桌引擎 上行命令
	SubjectEngineCommand = "mahjong.engine.command"

	// SubjectSessionEventsPrefix 牌桌引擎 -> 会话 下行事件前缀
	// 完整格式: mahjong.session.{session}.events
	SubjectSessionEventsPrefix = "mahjong.session."
	SubjectSessionEventsSuffix = ".events"

	// QueueGroupEngine 引擎服务队列组名称
	QueueGroupEngine = "mahjong-engine"
)

// BuildSessionEventsSubject 构建会话下行 Subject
func BuildSessionEventsSubject(session string) string {
	return SubjectSessionEventsPrefix + session + SubjectSessionEventsSuffix
}

// MaxSessionLength 会话 ID 最大长度
const MaxSessionLength = 128

// ValidSession 会话 ID 会拼进 Subject, 不能为空, 不能含 '.' '*' '>' 或空白
func ValidSession(session string) bool {
	if session == "" || len(session) > MaxSessionLength {
		return false
	}
	for _, r := range session {
		switch {
		case r == '.', r == '*', r == '>':
			return false
		case unicode.IsSpace(r), unicode.IsControl(r):
			return false
		}
	}
	return true
}
