package fraud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"upasthiti/internal/errs"
	"upasthiti/internal/queue"
)

var observed = time.Date(2025, 1, 20, 10, 15, 0, 0, time.UTC)

func TestFeed_IngestAndCounts(t *testing.T) {
	t.Parallel()
	f := NewFeed(nil)

	require.NoError(t, f.Ingest(Alert{ID: "1", StudentID: "3", ReasonCode: "multiple-devices", Severity: "HIGH", ObservedAt: observed}))
	require.NoError(t, f.Ingest(Alert{ID: "2", StudentID: "5", ReasonCode: "location-mismatch", Severity: SeverityMedium, ObservedAt: observed}))
	require.NoError(t, f.Ingest(Alert{ID: "1", StudentID: "3", ReasonCode: "multiple-devices", Severity: SeverityHigh}))

	assert.Equal(t, 2, f.Count())
	list := f.List()
	require.Len(t, list, 2)
	assert.Equal(t, SeverityHigh, list[0].Severity)
	assert.Equal(t, map[Severity]int{SeverityHigh: 1, SeverityMedium: 1, SeverityLow: 0}, f.CountBySeverity())

	list[0].ReasonCode = "mutated"
	assert.Equal(t, "multiple-devices", f.List()[0].ReasonCode)
}

func TestFeed_RejectsInvalid(t *testing.T) {
	t.Parallel()
	f := NewFeed(nil)

	err := f.Ingest(Alert{ID: "1", StudentID: "3", ReasonCode: "x", Severity: "critical"})
	require.ErrorIs(t, err, errs.ErrInvalidAlert)
	err = f.Ingest(Alert{StudentID: "3", ReasonCode: "x", Severity: SeverityLow})
	require.ErrorIs(t, err, errs.ErrInvalidAlert)
	assert.Equal(t, 0, f.Count())
}

func TestFeed_ConsumeFromQueue(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := NewFeed(nil)
	ch := make(chan queue.Message, 4)
	good, err := queue.NewJSON(queue.TypeFraudAlert, Alert{ID: "7", StudentID: "3", ReasonCode: "multiple-devices", Severity: SeverityLow})
	require.NoError(t, err)
	ch <- good
	ch <- queue.Message{Type: queue.TypeFraudAlert, Body: []byte("{")}
	ch <- queue.Message{Type: queue.TypeCheckIn, Body: []byte("{}")}
	close(ch)

	f.Consume(ctx, ch, zap.NewNop())
	assert.Equal(t, 1, f.Count())
	assert.Equal(t, "7", f.List()[0].ID)
}
