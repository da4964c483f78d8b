package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
)

// ProduceMsg is one record to publish. PartitionKey keeps records of the
// same aggregate on one partition.
type ProduceMsg struct {
	Topic        string
	Headers      map[string]string
	Payload      []byte
	PartitionKey *string
}

type Producer interface {
	// ProduceBatch publishes msgs and waits for every acknowledgement. The
	// returned slice has one entry per message, nil on success.
	ProduceBatch(ctx context.Context, msgs []ProduceMsg) []error
}

var _ Producer = (*KafkaProducer)(nil)

type KafkaProducer struct {
	cl *kgo.Client
}

func NewKafkaProducer(ctx context.Context, cfg config.Kafka) (*KafkaProducer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
		kgo.WithContext(ctx),
		kgo.WithHooks(kTracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &KafkaProducer{cl: cl}, nil
}

func (p *KafkaProducer) ProduceBatch(ctx context.Context, msgs []ProduceMsg) []error {
	ctx, span := tracer.Start(ctx, "KafkaProducer.ProduceBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(msgs))),
	)
	defer span.End()

	errs := make([]error, len(msgs))
	if len(msgs) == 0 {
		return errs
	}

	index := make(map[*kgo.Record]int, len(msgs))
	records := make([]*kgo.Record, len(msgs))
	for i, msg := range msgs {
		records[i] = toRecord(msg)
		index[records[i]] = i
	}

	var failed int
	for _, res := range p.cl.ProduceSync(ctx, records...) {
		if res.Err == nil {
			continue
		}
		failed++
		errs[index[res.Record]] = res.Err
		span.RecordError(res.Err, trace.WithAttributes(attribute.String("topic", res.Record.Topic)))
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d records failed", failed, len(msgs)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return errs
}

func (p *KafkaProducer) Close() {
	p.cl.Close()
}

func toRecord(msg ProduceMsg) *kgo.Record {
	r := &kgo.Record{
		Topic:   msg.Topic,
		Value:   msg.Payload,
		Headers: make([]kgo.RecordHeader, 0, len(msg.Headers)),
	}
	for k, v := range msg.Headers {
		r.Headers = append(r.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if msg.PartitionKey != nil {
		r.Key = []byte(*msg.PartitionKey)
	}
	return r
}
