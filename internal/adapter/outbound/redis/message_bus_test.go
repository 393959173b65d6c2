package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
)

type fakeStream struct {
	mu    sync.Mutex
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, a)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1700000000000-0", nil)
}

func testMessage() *outbound.Message {
	return &outbound.Message{
		ID:         "5f0c2a52-7f7e-5d0e-9d43-6d7b8b9f0a11",
		Type:       "payment.succeeded",
		Payload:    []byte(`{"orderId":100,"paymentId":1}`),
		OccurredAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMessageBus_Publish(t *testing.T) {
	stream := &fakeStream{}
	bus := newMessageBus(stream, MessageBusConfig{StreamPrefix: "paygate:", MaxLen: 1000}, nil, nil)

	err := bus.Publish(context.Background(), "payment.success", testMessage())
	require.NoError(t, err)

	require.Len(t, stream.calls, 1)
	args := stream.calls[0]
	assert.Equal(t, "paygate:payment.success", args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "5f0c2a52-7f7e-5d0e-9d43-6d7b8b9f0a11", values["event_id"])
	assert.Equal(t, "payment.succeeded", values["event_type"])
	assert.Equal(t, "2024-01-01T10:00:00Z", values["occurred_at"])
	assert.Equal(t, `{"orderId":100,"paymentId":1}`, values["payload"])
}

func TestMessageBus_NoMaxLen(t *testing.T) {
	stream := &fakeStream{}
	bus := newMessageBus(stream, MessageBusConfig{StreamPrefix: "p:"}, nil, nil)

	require.NoError(t, bus.Publish(context.Background(), "payment.cancelled", testMessage()))
	assert.Zero(t, stream.calls[0].MaxLen)
	assert.False(t, stream.calls[0].Approx)
}

func TestMessageBus_BreakerOpens(t *testing.T) {
	stream := &fakeStream{err: errors.New("connection refused")}
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())
	bus := newMessageBus(stream, MessageBusConfig{BreakerFailures: 2, BreakerTimeout: time.Minute}, m, nil)
	ctx := context.Background()

	assert.Error(t, bus.Publish(ctx, "payment.success", testMessage()))
	assert.Error(t, bus.Publish(ctx, "payment.success", testMessage()))

	err := bus.Publish(ctx, "payment.success", testMessage())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, stream.calls, 2)

	assert.Equal(t, float64(gobreaker.StateOpen),
		testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("message_bus")))
}
