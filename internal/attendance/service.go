// Package attendance folds verified check-ins into per-student and per-class
// percentages and coordinates token issuance with check-in recording.
package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"upasthiti/internal/identity"
	"upasthiti/internal/metrics"
	"upasthiti/internal/qrtoken"
	"upasthiti/internal/queue"
)

// CheckInNotice is published for every verification so downstream workers
// can react to attendance changes.
type CheckInNotice struct {
	EventID    string          `json:"event_id"`
	StudentID  string          `json:"student_id"`
	SubjectID  string          `json:"subject_id"`
	Outcome    qrtoken.Outcome `json:"outcome"`
	Recorded   bool            `json:"recorded"`
	Percentage int             `json:"percentage"`
}

// CheckInResult is the verification outcome plus whether it was counted.
type CheckInResult struct {
	Event      qrtoken.CheckInEvent
	Recorded   bool
	Percentage int
}

// Service coordinates token issuance, verification and the ledger.
type Service struct {
	issuer   *qrtoken.Issuer
	verifier *qrtoken.Verifier
	ledger   *Ledger
	pub      queue.Publisher
	metrics  *metrics.Collector
	now      func() time.Time
	log      *zap.Logger
}

// NewService wires the components. pub and m may be nil.
func NewService(issuer *qrtoken.Issuer, verifier *qrtoken.Verifier, ledger *Ledger, pub queue.Publisher, m *metrics.Collector, now func() time.Time, log *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{issuer: issuer, verifier: verifier, ledger: ledger, pub: pub, metrics: m, now: now, log: log}
}

// Ledger exposes the read side for analytics.
func (s *Service) Ledger() *Ledger { return s.ledger }

// IssueToken mints a token and registers the class day it opens.
func (s *Service) IssueToken(ctx context.Context, subjectID string, issuer identity.Identity) (qrtoken.Token, error) {
	tok, err := s.issuer.Issue(ctx, subjectID, issuer)
	if err != nil {
		return qrtoken.Token{}, err
	}
	s.ledger.TrackClassDay(tok.SubjectID, time.UnixMilli(tok.IssuedAtMs))
	s.metrics.TokenIssued(tok.SubjectID)
	return tok, nil
}

// CurrentToken returns the issuer's live token, if any.
func (s *Service) CurrentToken(ctx context.Context, issuerID string) (qrtoken.Token, bool, error) {
	return s.issuer.Current(ctx, issuerID)
}

// CheckIn verifies raw for student and records an accepted, first-time result.
// The only error path is the ledger's dedup store; verification itself
// always yields an event.
func (s *Service) CheckIn(ctx context.Context, raw string, student identity.StudentProfile) (CheckInResult, error) {
	evt := s.verifier.Verify(ctx, raw, student, s.now())

	recorded, err := s.ledger.RecordOutcome(ctx, evt)
	if err != nil {
		return CheckInResult{Event: evt}, err
	}
	s.metrics.CheckIn(string(evt.Outcome), recorded)

	pct, err := s.ledger.PercentageFor(ctx, student.StudentID)
	if err != nil {
		s.log.Warn("percentage lookup failed", zap.String("student", student.StudentID), zap.Error(err))
	}
	res := CheckInResult{Event: evt, Recorded: recorded, Percentage: pct}

	s.log.Info("check-in verified",
		zap.String("event", evt.ID),
		zap.String("student", evt.StudentID),
		zap.String("outcome", string(evt.Outcome)),
		zap.Bool("recorded", recorded),
	)
	s.publish(ctx, res)
	return res, nil
}

func (s *Service) publish(ctx context.Context, res CheckInResult) {
	if s.pub == nil {
		return
	}
	msg, err := queue.NewJSON(queue.TypeCheckIn, CheckInNotice{
		EventID:    res.Event.ID,
		StudentID:  res.Event.StudentID,
		SubjectID:  res.Event.Token.SubjectID,
		Outcome:    res.Event.Outcome,
		Recorded:   res.Recorded,
		Percentage: res.Percentage,
	})
	if err != nil {
		s.log.Error("encode check-in notice", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.pub.Publish(ctx, msg); err != nil {
		s.log.Warn("queue publish failed", zap.Error(err))
	}
}
