package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.9.0"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
)

func TestInitTracerWithoutCollector(t *testing.T) {
	cleanup, err := InitTracer(context.Background(), config.Otel{})
	require.NoError(t, err)
	assert.NoError(t, cleanup(context.Background()))
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(config.Otel{K8sPodName: "catalog-0"})

	require.Len(t, attrs, 2)
	assert.Equal(t, semconv.ServiceNameKey, attrs[0].Key)
	assert.Equal(t, "catalog-service", attrs[0].Value.AsString())
	assert.Equal(t, "catalog-0", attrs[1].Value.AsString())
}
