// Package notify turns check-in notices into low-attendance warnings.
package notify

import (
	"context"

	"go.uber.org/zap"

	"upasthiti/internal/attendance"
	"upasthiti/internal/queue"
)

// LowAttendance warns when a student's percentage is under the minimum after
// a verification. Each student is warned once until they recover.
type LowAttendance struct {
	minimum int
	log     *zap.Logger
	flagged map[string]bool
}

// NewLowAttendance creates a notifier; minimum <= 0 uses the default of 75.
func NewLowAttendance(minimum int, log *zap.Logger) *LowAttendance {
	if minimum <= 0 {
		minimum = attendance.DefaultMinimumPercent
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LowAttendance{minimum: minimum, log: log, flagged: make(map[string]bool)}
}

// Handle processes one notice and reports whether a warning was emitted.
func (n *LowAttendance) Handle(notice attendance.CheckInNotice) bool {
	if notice.StudentID == "" {
		return false
	}
	if !attendance.BelowMinimum(notice.Percentage, n.minimum) {
		if n.flagged[notice.StudentID] {
			n.log.Info("attendance recovered",
				zap.String("student", notice.StudentID),
				zap.Int("percentage", notice.Percentage),
			)
			delete(n.flagged, notice.StudentID)
		}
		return false
	}
	if n.flagged[notice.StudentID] {
		return false
	}
	n.flagged[notice.StudentID] = true
	n.log.Warn("low attendance",
		zap.String("student", notice.StudentID),
		zap.String("subject", notice.SubjectID),
		zap.Int("percentage", notice.Percentage),
		zap.Int("minimum", n.minimum),
		zap.String("standing", string(attendance.StandingOf(notice.Percentage))),
	)
	return true
}

// Run consumes check-in messages until ctx is done or msgs closes.
func (n *LowAttendance) Run(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Type != queue.TypeCheckIn {
				continue
			}
			var notice attendance.CheckInNotice
			if err := msg.Decode(&notice); err != nil {
				n.log.Warn("undecodable check-in notice", zap.Error(err))
				continue
			}
			n.Handle(notice)
		}
	}
}
