package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisQueue(client, CheckInKey)
	q.block = 100 * time.Millisecond
	return q, mr
}

func TestRedisQueue_PublishConsumeInOrder(t *testing.T) {
	t.Parallel()
	q, mr := newRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: TypeCheckIn, Body: []byte(`{"student_id":"1"}`)}))
	require.NoError(t, q.Publish(ctx, Message{Type: TypeFraudAlert, Body: []byte("2")}))
	list, err := mr.List(CheckInKey)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	for _, want := range []Message{
		{Type: TypeCheckIn, Body: []byte(`{"student_id":"1"}`)},
		{Type: TypeFraudAlert, Body: []byte("2")},
	} {
		select {
		case got := <-msgs:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
	assert.False(t, mr.Exists(CheckInKey))
}

func TestRedisQueue_ConsumeStopsOnCancel(t *testing.T) {
	t.Parallel()
	q, _ := newRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRedisQueue_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	q, mr := newRedisQueue(t)
	ctx := context.Background()
	alerts := NewRedisQueue(q.client, FraudAlertKey)

	require.NoError(t, alerts.Publish(ctx, Message{Type: TypeFraudAlert, Body: []byte("a")}))
	assert.False(t, mr.Exists(CheckInKey))
	assert.True(t, mr.Exists(FraudAlertKey))
}
