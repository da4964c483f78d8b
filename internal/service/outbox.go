package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/pkg/outbox"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
)

// publish stores ev in the outbox through repo, which must be bound to the
// transaction of the change it describes. Messages for the same key keep
// their order on the broker.
func publish(ctx context.Context, repo repository.OutboxMsgRepository, topic, key string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        topic,
		Headers:      outbox.BuildHeaders(ctx),
		Payload:      payload,
		PartitionKey: ptr.New(key),
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
