package core

import (
	"context"

	"go.uber.org/zap"
)

// notify runs after a committed write. Failures are logged only.
func notify(ctx context.Context, n Notifier, logger *zap.Logger, msg Notification) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		logger.Warn("Staff notification failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("documentId", msg.DocumentID),
			zap.Error(err))
	}
}

func summarize(text string) string {
	const limit = 80
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "…"
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
