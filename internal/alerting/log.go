package alerting

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier 将通知写入结构化日志, 适用于未配置推送渠道的部署。
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier 构造日志通知器。
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Info().
		Str("notification_id", note.ID).
		Str("title", note.Title).
		Str("body", note.Body).
		Msg("notification")
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
