package qrtoken

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"upasthiti/internal/identity"
)

// Outcome classifies a presented token.
type Outcome string

const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeExpired         Outcome = "expired"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeSubjectMismatch Outcome = "subject-mismatch"
)

// TokenRef identifies the token a check-in was made with.
type TokenRef struct {
	SubjectID  string `json:"subject_id"`
	Teacher    string `json:"teacher"`
	IssuedAtMs int64  `json:"issued_at_ms"`
}

// CheckInEvent is the immutable result of one verification.
type CheckInEvent struct {
	ID           string   `json:"id"`
	StudentID    string   `json:"student_id"`
	Token        TokenRef `json:"token"`
	VerifiedAtMs int64    `json:"verified_at_ms"`
	Outcome      Outcome  `json:"outcome"`
}

// Verifier classifies presented payloads. It never returns an error.
type Verifier struct {
	reg Registry
	log *zap.Logger
}

// NewVerifier creates a verifier reading live tokens from reg.
func NewVerifier(reg Registry, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{reg: reg, log: log}
}

// Verify checks raw as presented by student at now. The student profile is
// taken by value so the result depends only on data captured at the start.
func (v *Verifier) Verify(ctx context.Context, raw string, student identity.StudentProfile, now time.Time) CheckInEvent {
	evt := CheckInEvent{
		ID:           uuid.NewString(),
		StudentID:    student.StudentID,
		VerifiedAtMs: now.UnixMilli(),
	}

	p, err := ParsePayload(raw)
	if err != nil {
		evt.Outcome = OutcomeMalformed
		return evt
	}
	evt.Token = TokenRef{SubjectID: p.SubjectID, Teacher: p.TeacherName, IssuedAtMs: p.IssuedAtMs}
	evt.Outcome = v.classify(ctx, p, student, evt.VerifiedAtMs)
	return evt
}

func (v *Verifier) classify(ctx context.Context, p Payload, student identity.StudentProfile, nowMs int64) Outcome {
	if nowMs < p.IssuedAtMs {
		return OutcomeMalformed
	}
	if nowMs >= p.ExpiresAtMs {
		return OutcomeExpired
	}

	live, ok, err := v.reg.ByTeacher(ctx, p.TeacherName)
	if err != nil {
		v.log.Warn("token lookup failed", zap.String("teacher", p.TeacherName), zap.Error(err))
		return OutcomeMalformed
	}
	if !ok {
		// never issued by anyone we know
		return OutcomeMalformed
	}
	if live.IssuedAtMs != p.IssuedAtMs || live.SubjectID != p.SubjectID {
		// replaced by a newer token from the same issuer
		return OutcomeExpired
	}

	if !student.IsEnrolled(p.SubjectID) {
		return OutcomeSubjectMismatch
	}
	return OutcomeAccepted
}
