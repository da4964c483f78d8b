package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/catalog-service/internal/storage/mq"
)

// Service consumes catalog events.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.RegisterHandlers(); err != nil {
		return nil, err
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

// RegisterHandlers subscribes the consumer to every handled topic.
func (s *Service) RegisterHandlers() error {
	if err := register(s.mqConsumer, TopicProductCreated, s.handleProductCreatedEvent); err != nil {
		return err
	}
	if err := register(s.mqConsumer, TopicInventoryChanged, s.handleInventoryChangedEvent); err != nil {
		return err
	}
	return nil
}

func register[T any](c mq.Consumer, topic string, handle func(context.Context, T) error) error {
	if err := c.RegisterHandler(topic, func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("register %s event handler: %w", topic, err)
	}
	return nil
}
