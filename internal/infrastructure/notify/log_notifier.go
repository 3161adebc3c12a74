package notify

import (
	"context"
	"log/slog"

	"github.com/mrops-br/products-form/internal/domain"
)

// LogNotifier writes user-facing notices to the structured log. The view
// reads the latest notice from the form state.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier on top of logger
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify logs the notice at a level matching its severity
func (n *LogNotifier) Notify(ctx context.Context, notice domain.Notice) {
	level := slog.LevelWarn
	if notice.Level == domain.NoticeError {
		level = slog.LevelError
	}

	attrs := []any{slog.String("notice.level", string(notice.Level))}
	for _, fe := range notice.Fields {
		attrs = append(attrs, slog.String("field."+fe.Field, fe.Message))
	}

	n.logger.Log(ctx, level, notice.Message, attrs...)
}
