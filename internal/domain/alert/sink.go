package alert

import (
	"context"

	"office_cheer_bot/internal/domain/delivery"
)

// Sink receives operational alerts. It is fired exactly once per key when a
// delivery record becomes terminally failed.
type Sink interface {
	Notify(ctx context.Context, key delivery.Key, reason string) error
}
