package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// LevelBasedMuxHandler пишет JSON в stdout и, если задан файл, JSON с source в файл
type LevelBasedMuxHandler struct {
	stdoutHandler slog.Handler
	fileHandler   slog.Handler
}

type LoggerWithFile struct {
	Logger  *slog.Logger
	LogFile *os.File
}

func NewLevelBasedMuxHandler(stdout, file io.Writer, level slog.Level) *LevelBasedMuxHandler {
	h := &LevelBasedMuxHandler{
		stdoutHandler: slog.NewJSONHandler(stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
		}),
	}

	if file != nil {
		h.fileHandler = slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:     max(level, slog.LevelInfo),
			AddSource: true,
		})
	}
	return h
}

func (h *LevelBasedMuxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.fileHandler != nil && h.fileHandler.Enabled(ctx, level) {
		return true
	}
	return h.stdoutHandler.Enabled(ctx, level)
}

func (h *LevelBasedMuxHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.fileHandler != nil && h.fileHandler.Enabled(ctx, r.Level) {
		if err := h.fileHandler.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}

	if !h.stdoutHandler.Enabled(ctx, r.Level) {
		return nil
	}
	return h.stdoutHandler.Handle(ctx, r)
}

func (h *LevelBasedMuxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LevelBasedMuxHandler{stdoutHandler: h.stdoutHandler.WithAttrs(attrs)}
	if h.fileHandler != nil {
		next.fileHandler = h.fileHandler.WithAttrs(attrs)
	}
	return next
}

func (h *LevelBasedMuxHandler) WithGroup(name string) slog.Handler {
	next := &LevelBasedMuxHandler{stdoutHandler: h.stdoutHandler.WithGroup(name)}
	if h.fileHandler != nil {
		next.fileHandler = h.fileHandler.WithGroup(name)
	}
	return next
}

// ParseLevel неизвестный уровень трактуется как info
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

// NewLoggerWithFile пустое имя файла означает логирование только в stdout
func NewLoggerWithFile(fileName string, level slog.Level) *LoggerWithFile {
	if fileName == "" {
		return &LoggerWithFile{
			Logger: slog.New(NewLevelBasedMuxHandler(os.Stdout, nil, level)),
		}
	}

	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("не удалось открыть файл логов: %v", err)
	}

	handler := NewLevelBasedMuxHandler(os.Stdout, logFile, level)
	return &LoggerWithFile{
		Logger:  slog.New(handler),
		LogFile: logFile,
	}
}
