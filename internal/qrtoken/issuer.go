package qrtoken

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"upasthiti/internal/errs"
	"upasthiti/internal/identity"
)

// Issuer mints tokens for faculty. Issuing replaces the issuer's previous token.
type Issuer struct {
	reg Registry
	now func() time.Time
	log *zap.Logger
}

// NewIssuer creates an issuer over reg. A nil now uses time.Now.
func NewIssuer(reg Registry, now func() time.Time, log *zap.Logger) *Issuer {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Issuer{reg: reg, now: now, log: log}
}

// Issue mints a token for subjectID. Only faculty may issue, and only for
// subjects they teach.
func (i *Issuer) Issue(ctx context.Context, subjectID string, issuer identity.Identity) (Token, error) {
	switch p := issuer.Profile.(type) {
	case identity.FacultyProfile:
		if !p.Teaches(subjectID) {
			return Token{}, errs.ErrUnknownSubject
		}
	case identity.StudentProfile, identity.AdminProfile:
		return Token{}, errs.ErrIssuerUnauthorized
	default:
		return Token{}, errs.ErrIssuerUnauthorized
	}

	issued := i.now().UnixMilli()
	t := Token{
		SubjectID:   subjectID,
		IssuerID:    issuer.ID,
		TeacherName: issuer.DisplayName,
		IssuedAtMs:  issued,
		ExpiresAtMs: issued + ValidityMs,
	}
	if err := i.reg.Put(ctx, t); err != nil {
		return Token{}, fmt.Errorf("store token: %w", err)
	}
	i.log.Info("token issued",
		zap.String("issuer", issuer.ID),
		zap.String("subject", subjectID),
		zap.Int64("expires_at_ms", t.ExpiresAtMs),
	)
	return t, nil
}

// Current returns the issuer's token if it is still live.
func (i *Issuer) Current(ctx context.Context, issuerID string) (Token, bool, error) {
	t, ok, err := i.reg.ByIssuer(ctx, issuerID)
	if err != nil || !ok {
		return Token{}, false, err
	}
	if !t.Live(i.now()) {
		return Token{}, false, nil
	}
	return t, true, nil
}
