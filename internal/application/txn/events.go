package txn

import (
	"context"

	"github.com/sklad/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishAfterCommit hands events to the publisher once the transaction that
// produced them has committed. A failing publisher is logged only.
func PublishAfterCommit(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil && log != nil {
		log.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}
