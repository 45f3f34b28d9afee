// Package qrtoken issues and verifies the short-lived attendance tokens shown
// to students as QR codes.
package qrtoken

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// Validity is the fixed lifetime of a token.
const Validity = 5 * time.Minute

// ValidityMs is Validity in epoch milliseconds.
const ValidityMs = int64(Validity / time.Millisecond)

// Token is a time-bound attendance credential for one subject.
// ExpiresAtMs is always IssuedAtMs + ValidityMs.
type Token struct {
	SubjectID   string `json:"subject_id"`
	IssuerID    string `json:"issuer_id"`
	TeacherName string `json:"teacher_name"`
	IssuedAtMs  int64  `json:"issued_at_ms"`
	ExpiresAtMs int64  `json:"expires_at_ms"`
}

// Live reports whether now falls inside [IssuedAtMs, ExpiresAtMs).
func (t Token) Live(now time.Time) bool {
	ms := now.UnixMilli()
	return ms >= t.IssuedAtMs && ms < t.ExpiresAtMs
}

// ExpiresIn is the remaining lifetime at now, never negative. It is a display
// hint only; validity is always re-derived from the timestamps.
func (t Token) ExpiresIn(now time.Time) time.Duration {
	left := t.ExpiresAtMs - now.UnixMilli()
	if left < 0 {
		return 0
	}
	return time.Duration(left) * time.Millisecond
}

// Ref returns the reference carried by check-in events.
func (t Token) Ref() TokenRef {
	return TokenRef{SubjectID: t.SubjectID, Teacher: t.TeacherName, IssuedAtMs: t.IssuedAtMs}
}

// Payload returns the wire form scanned from the QR code.
func (t Token) Payload() Payload {
	return Payload{
		SubjectID:   t.SubjectID,
		TeacherName: t.TeacherName,
		IssuedAtMs:  t.IssuedAtMs,
		ExpiresAtMs: t.ExpiresAtMs,
	}
}

// Encode serialises the token's payload.
func (t Token) Encode() string {
	return t.Payload().Encode()
}

// Payload is the QR content: exactly subject, teacher, timestamp and expires.
type Payload struct {
	SubjectID   string
	TeacherName string
	IssuedAtMs  int64
	ExpiresAtMs int64
}

type wirePayload struct {
	Subject   *string `json:"subject"`
	Teacher   *string `json:"teacher"`
	Timestamp *int64  `json:"timestamp"`
	Expires   *int64  `json:"expires"`
}

var errMalformed = errors.New("malformed payload")

// Encode renders the payload as compact JSON.
func (p Payload) Encode() string {
	b, _ := json.Marshal(wirePayload{
		Subject:   &p.SubjectID,
		Teacher:   &p.TeacherName,
		Timestamp: &p.IssuedAtMs,
		Expires:   &p.ExpiresAtMs,
	})
	return string(b)
}

// ParsePayload accepts only the four-field JSON object with consistent
// timestamps. Anything else is malformed.
func ParsePayload(raw string) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var w wirePayload
	if err := dec.Decode(&w); err != nil {
		return Payload{}, errMalformed
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Payload{}, errMalformed
	}
	if w.Subject == nil || w.Teacher == nil || w.Timestamp == nil || w.Expires == nil {
		return Payload{}, errMalformed
	}
	if *w.Subject == "" || *w.Teacher == "" || *w.Timestamp <= 0 {
		return Payload{}, errMalformed
	}
	if *w.Expires != *w.Timestamp+ValidityMs {
		return Payload{}, errMalformed
	}
	return Payload{
		SubjectID:   *w.Subject,
		TeacherName: *w.Teacher,
		IssuedAtMs:  *w.Timestamp,
		ExpiresAtMs: *w.Expires,
	}, nil
}
