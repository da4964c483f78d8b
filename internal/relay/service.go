// Package relay publishes stored outbox messages to the broker.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
)

var relayedMsgsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "catalog",
	Subsystem: "outbox",
	Name:      "relayed_messages_total",
	Help:      "Outbox messages handed to the broker by topic and outcome.",
}, []string{"topic", "outcome"})

type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            db.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer
	now           func() time.Time

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db db.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

// Run relays in the background until the returned CleanupFunc is called.
// Cleanup waits up to 5 seconds for the batch in flight.
func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	return func() {
		close(s.stopChan)
		select {
		case <-stoppedChan:
		case <-time.After(5 * time.Second):
			cancel()
			<-stoppedChan
		}
		cancel()
	}
}

func (s *Service) run(ctx context.Context) {
	relayTicker := time.NewTicker(s.cfg.Interval)
	defer relayTicker.Stop()

	var purgeC <-chan time.Time
	if s.cfg.Retention > 0 && s.cfg.PurgeInterval > 0 {
		purgeTicker := time.NewTicker(s.cfg.PurgeInterval)
		defer purgeTicker.Stop()
		purgeC = purgeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-relayTicker.C:
			if _, err := s.RelayBatch(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
			}
		case <-purgeC:
			if _, err := s.Purge(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error purging outbox msgs", slog.Any("error", err))
			}
		}
	}
}

// RelayBatch produces one batch of unprocessed messages and marks each as
// processed, recording the produce error of the ones that failed. It
// returns the number of messages handled.
func (s *Service) RelayBatch(ctx context.Context) (int, error) {
	var handled int
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		outboxMsgs, err := s.outboxMsgRepo.
			WithDB(db).
			ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
				//nolint:gosec
				BatchSize: int32(s.cfg.BatchSize),
			})
		if err != nil {
			return fmt.Errorf("list unprocessed outbox msgs: %w", err)
		}

		if len(outboxMsgs) == 0 {
			return nil
		}

		s.logger.DebugContext(ctx, "relaying outbox msgs", slog.Int("count", len(outboxMsgs)))

		produceMsgs := make([]mq.ProduceMsg, len(outboxMsgs))
		for i, msg := range outboxMsgs {
			produceMsgs[i] = mq.ProduceMsg{
				Topic:        msg.Topic,
				Headers:      msg.Headers,
				Payload:      msg.Payload,
				PartitionKey: msg.PartitionKey,
			}
		}

		errs := s.mqProducer.ProduceBatch(ctx, produceMsgs)

		items := make([]repository.BulkUpdateOutboxMsgsItem, len(outboxMsgs))
		for i, msg := range outboxMsgs {
			items[i] = repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}
			if err := errs[i]; err != nil {
				s.logger.ErrorContext(ctx,
					"error producing message",
					slog.String("outbox_msg_id", msg.ID.String()),
					slog.String("topic", msg.Topic),
					slog.Any("error", err),
				)
				items[i].Error = ptr.New(err.Error())
				relayedMsgsTotal.WithLabelValues(msg.Topic, "error").Inc()
				continue
			}
			relayedMsgsTotal.WithLabelValues(msg.Topic, "ok").Inc()
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			}); err != nil {
			return fmt.Errorf("bulk update outbox msgs: %w", err)
		}

		handled = len(items)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("db with tx: %w", err)
	}

	return handled, nil
}

// Purge deletes processed messages older than the retention period.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	purged, err := s.outboxMsgRepo.PurgeOutboxMsgs(ctx, s.now().Add(-s.cfg.Retention))
	if err != nil {
		return 0, fmt.Errorf("outbox msg repository purge outbox msgs: %w", err)
	}

	if purged > 0 {
		s.logger.InfoContext(ctx, "purged relayed outbox msgs", slog.Int64("count", purged))
	}
	return purged, nil
}
