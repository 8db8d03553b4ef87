// Package logging 构建进程级 slog.Logger. json 格式给线上采集, text 格式用
// charmbracelet/log 输出带颜色的可读日志.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel 解析日志级别, 未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New 创建日志
func New(w io.Writer, format, level, appName string) *slog.Logger {
	lvl := ParseLevel(level)

	if format == FormatText {
		logger := charmlog.NewWithOptions(w, charmlog.Options{
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
			Level:           charmLevel(lvl),
		})
		return slog.New(logger)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("app", appName)
}

func charmLevel(l slog.Level) charmlog.Level {
	switch l {
	case slog.LevelDebug:
		return charmlog.DebugLevel
	case slog.LevelWarn:
		return charmlog.WarnLevel
	case slog.LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}
