package notify

import (
	"context"
	"errors"

	"github.com/example/campmeeting/internal/core"
)

// Multi fans a notification out to every notifier and joins their errors.
type Multi []core.Notifier

func (m Multi) Notify(ctx context.Context, n core.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops notifications.
type Nop struct{}

func (Nop) Notify(context.Context, core.Notification) error { return nil }
