package logging

import (
	"context"
	"log/slog"
	"os"
)

// Setup installs the boot logger: JSON to stdout at INFO. Called before the
// database is up; AttachDatabase replaces it once system_logs is reachable.
func Setup() {
	slog.SetDefault(slog.New(stdoutHandler()))
}

// AttachDatabase swaps the default logger for a fan-out of stdout and the
// async database handler. The caller keeps the handler to Stop it on
// shutdown and flush the last batch.
func AttachDatabase(h *DBHandler) {
	slog.SetDefault(slog.New(&fanout{targets: []slog.Handler{stdoutHandler(), h}}))
}

func stdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
}

// fanout forwards each record to every target that accepts its level. A
// failing target aborts the record; the database handler never errors on
// Handle (it buffers), so in practice only stdout can fail.
type fanout struct {
	targets []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.targets {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range f.targets {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.targets))
	for i, h := range f.targets {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{targets: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.targets))
	for i, h := range f.targets {
		next[i] = h.WithGroup(name)
	}
	return &fanout{targets: next}
}
