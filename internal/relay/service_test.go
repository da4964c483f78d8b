package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/mq"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
)

type fakeDB struct {
	db.DB
}

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

type fakeOutboxRepo struct {
	pending   []repository.ListUnprocessedOutboxMsgsResult
	updated   []repository.BulkUpdateOutboxMsgsItem
	batchSize int32
	purgedAt  time.Time
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(context.Context, repository.CreateOutboxMsgParams) error {
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(
	_ context.Context,
	params repository.ListUnprocessedOutboxMsgsParams,
) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	r.batchSize = params.BatchSize
	return r.pending, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(_ context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	r.updated = append(r.updated, params.Items...)
	return nil
}

func (r *fakeOutboxRepo) PurgeOutboxMsgs(_ context.Context, olderThan time.Time) (int64, error) {
	r.purgedAt = olderThan
	return 4, nil
}

type fakeProducer struct {
	mu       sync.Mutex
	produced []mq.ProduceMsg
	failOn   string
}

func (p *fakeProducer) ProduceBatch(_ context.Context, msgs []mq.ProduceMsg) []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, len(msgs))
	for i, msg := range msgs {
		if msg.Topic == p.failOn {
			errs[i] = errors.New("broker unavailable")
			continue
		}
		p.produced = append(p.produced, msg)
	}
	return errs
}

func newTestService(cfg config.Relay, repo *fakeOutboxRepo, producer *fakeProducer) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(cfg, logger, fakeDB{}, repo, producer)
}

func TestService_RelayBatch(t *testing.T) {
	ok := repository.ListUnprocessedOutboxMsgsResult{
		ID:           uuid.New(),
		Topic:        "catalog.product.created",
		Headers:      map[string]string{"correlation_id": "abc"},
		Payload:      []byte(`{"product_id":"1"}`),
		PartitionKey: ptr.New("1"),
	}
	failing := repository.ListUnprocessedOutboxMsgsResult{
		ID:      uuid.New(),
		Topic:   "catalog.price.changed",
		Payload: []byte(`{}`),
	}

	repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{ok, failing}}
	producer := &fakeProducer{failOn: failing.Topic}
	svc := newTestService(config.Relay{BatchSize: 50}, repo, producer)

	handled, err := svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, int32(50), repo.batchSize)

	require.Len(t, producer.produced, 1)
	assert.Equal(t, ok.Topic, producer.produced[0].Topic)
	assert.Equal(t, "1", *producer.produced[0].PartitionKey)
	assert.Equal(t, "abc", producer.produced[0].Headers["correlation_id"])

	errs := map[uuid.UUID]*string{}
	for _, item := range repo.updated {
		errs[item.ID] = item.Error
	}
	require.Len(t, errs, 2)
	assert.Nil(t, errs[ok.ID])
	require.NotNil(t, errs[failing.ID])
	assert.Contains(t, *errs[failing.ID], "broker unavailable")
}

func TestService_RelayBatch_Empty(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(config.Relay{BatchSize: 10}, repo, &fakeProducer{})

	handled, err := svc.RelayBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
	assert.Empty(t, repo.updated)
}

func TestService_Purge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Should purge messages older than the retention", func(t *testing.T) {
		repo := &fakeOutboxRepo{}
		svc := newTestService(config.Relay{Retention: 24 * time.Hour}, repo, &fakeProducer{})
		svc.now = func() time.Time { return now }

		purged, err := svc.Purge(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(4), purged)
		assert.Equal(t, now.Add(-24*time.Hour), repo.purgedAt)
	})

	t.Run("Should do nothing when retention is disabled", func(t *testing.T) {
		repo := &fakeOutboxRepo{}
		svc := newTestService(config.Relay{}, repo, &fakeProducer{})

		purged, err := svc.Purge(context.Background())
		require.NoError(t, err)
		assert.Zero(t, purged)
		assert.True(t, repo.purgedAt.IsZero())
	})
}

func TestService_Run(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []repository.ListUnprocessedOutboxMsgsResult{{
		ID:    uuid.New(),
		Topic: "catalog.inventory.changed",
	}}}
	producer := &fakeProducer{}
	svc := newTestService(config.Relay{BatchSize: 1, Interval: 5 * time.Millisecond}, repo, producer)

	cleanup := svc.Run(context.Background())
	assert.Eventually(t, func() bool {
		producer.mu.Lock()
		defer producer.mu.Unlock()
		return len(producer.produced) > 0
	}, time.Second, 5*time.Millisecond)
	cleanup()
}
