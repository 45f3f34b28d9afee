package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	msg := Message{Type: TypeCheckIn, Body: []byte(`{"a":"x|y"}`)}
	got := deserialize(serialize(msg))
	assert.Equal(t, msg, got)

	bare := deserialize("no-separator")
	assert.Equal(t, "", bare.Type)
	assert.Equal(t, []byte("no-separator"), bare.Body)
}

func TestNewJSON_Decode(t *testing.T) {
	t.Parallel()

	type payload struct {
		StudentID string `json:"student_id"`
	}
	msg, err := NewJSON(TypeFraudAlert, payload{StudentID: "3"})
	require.NoError(t, err)
	assert.Equal(t, TypeFraudAlert, msg.Type)

	var got payload
	require.NoError(t, msg.Decode(&got))
	assert.Equal(t, "3", got.StudentID)
}

func TestInMemory_PublishConsume(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: TypeCheckIn, Body: []byte("1")}))
	require.NoError(t, q.Publish(ctx, Message{Type: TypeCheckIn, Body: []byte("2")}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	for _, want := range []string{"1", "2"} {
		select {
		case msg := <-ch:
			assert.Equal(t, want, string(msg.Body))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemory_PublishRespectsContext(t *testing.T) {
	t.Parallel()

	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Publish(ctx, Message{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
