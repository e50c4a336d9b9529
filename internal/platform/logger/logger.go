// Package logger はアプリケーション共通のslogロガーを構築します。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New はformat（json|text）とlevelに従ったロガーを生成し、デフォルトロガーに設定します。
func New(service, level, format string) *slog.Logger {
	l := build(os.Stdout, service, level, format)
	slog.SetDefault(l)
	return l
}

func build(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// ParseLevel は文字列のログレベルを変換します。不明な値はInfoになります。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
