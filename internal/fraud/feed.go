// Package fraud stores alerts produced by the external anomaly detector and
// exposes them read-only. No scoring happens here.
package fraud

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"upasthiti/internal/errs"
	"upasthiti/internal/metrics"
	"upasthiti/internal/queue"
)

// Severity of an alert.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ParseSeverity accepts high, medium or low in any case.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityLow:
		return SeverityLow, nil
	}
	return "", fmt.Errorf("%w: severity %q", errs.ErrInvalidAlert, s)
}

// Alert is one detector finding. Alerts are never modified after ingest.
type Alert struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	ReasonCode string    `json:"reason_code"`
	Severity   Severity  `json:"severity"`
	ObservedAt time.Time `json:"observed_at"`
}

// Feed keeps alerts in arrival order.
type Feed struct {
	metrics *metrics.Collector

	mu     sync.RWMutex
	alerts []Alert
	ids    map[string]struct{}
}

// NewFeed creates an empty feed. m may be nil.
func NewFeed(m *metrics.Collector) *Feed {
	return &Feed{metrics: m, ids: make(map[string]struct{})}
}

// Ingest validates and stores a. Re-sent alert ids are ignored.
func (f *Feed) Ingest(a Alert) error {
	if a.ID == "" || a.StudentID == "" || a.ReasonCode == "" {
		return fmt.Errorf("%w: id, student and reason required", errs.ErrInvalidAlert)
	}
	sev, err := ParseSeverity(string(a.Severity))
	if err != nil {
		return err
	}
	a.Severity = sev

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.ids[a.ID]; dup {
		return nil
	}
	f.ids[a.ID] = struct{}{}
	f.alerts = append(f.alerts, a)
	f.metrics.FraudAlert(string(sev))
	return nil
}

// List returns a copy of all alerts.
func (f *Feed) List() []Alert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Alert(nil), f.alerts...)
}

// Count is the number of stored alerts.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.alerts)
}

// CountBySeverity tallies alerts per severity; all three keys are present.
func (f *Feed) CountBySeverity() map[Severity]int {
	out := map[Severity]int{SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, a := range f.alerts {
		out[a.Severity]++
	}
	return out
}

// Consume ingests fraud_alert messages until the channel closes.
func (f *Feed) Consume(ctx context.Context, msgs <-chan queue.Message, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Type != queue.TypeFraudAlert {
				continue
			}
			var a Alert
			if err := msg.Decode(&a); err != nil {
				log.Warn("undecodable fraud alert", zap.Error(err))
				continue
			}
			if err := f.Ingest(a); err != nil {
				log.Warn("rejected fraud alert", zap.String("id", a.ID), zap.Error(err))
			}
		}
	}
}
