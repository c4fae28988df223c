package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestInitOtel_DisabledIsNoop(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), "", "tictactoe-relay")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.False(t, Enabled(""))
}

func TestNewResource(t *testing.T) {
	res, err := newResource("relay-test")
	require.NoError(t, err)

	v, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "relay-test", v.AsString())
}
