package attendance

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"upasthiti/internal/identity"
	"upasthiti/internal/qrtoken"
)

// DateLayout is the calendar-day key used for class days.
const DateLayout = "2006-01-02"

// Roster is the slice of the identity store the ledger needs.
type Roster interface {
	StudentByID(ctx context.Context, studentID string) (identity.StudentProfile, error)
	StudentsEnrolledIn(ctx context.Context, subjectID string) ([]identity.StudentProfile, error)
}

type classDay struct {
	subject string
	date    string
}

// Ledger is the append-only record of accepted check-ins plus the set of class
// days held. Percentages are folded from it on read.
type Ledger struct {
	roster Roster
	dedup  DedupStore
	loc    *time.Location

	mu      sync.RWMutex
	events  []qrtoken.CheckInEvent
	held    map[classDay]struct{}
	present map[classDay]map[string]struct{}
}

// NewLedger creates a ledger. A nil dedup disables duplicate suppression; a
// nil loc uses UTC for day boundaries.
func NewLedger(roster Roster, dedup DedupStore, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{
		roster:  roster,
		dedup:   dedup,
		loc:     loc,
		held:    make(map[classDay]struct{}),
		present: make(map[classDay]map[string]struct{}),
	}
}

// DedupKey is (student, subject, token issue time).
func DedupKey(evt qrtoken.CheckInEvent) string {
	return fmt.Sprintf("%s|%s|%d", evt.StudentID, evt.Token.SubjectID, evt.Token.IssuedAtMs)
}

func (l *Ledger) dayOf(ms int64) string {
	return l.Day(time.UnixMilli(ms))
}

// ParseDate reads a DateLayout day in the ledger's location.
func (l *Ledger) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, l.loc)
}

// Day formats t as a DateLayout day in the ledger's location.
func (l *Ledger) Day(t time.Time) string {
	return t.In(l.loc).Format(DateLayout)
}

// TrackClassDay registers that subjectID met on the day of at.
func (l *Ledger) TrackClassDay(subjectID string, at time.Time) {
	d := classDay{subject: subjectID, date: l.Day(at)}
	l.mu.Lock()
	l.held[d] = struct{}{}
	l.mu.Unlock()
}

// RecordOutcome appends evt when it is accepted and is this ledger's first
// sighting of the student for that token. A lost dedup claim only suppresses
// the event when the ledger already holds the presence, so a claim made by a
// previous process cannot hide a check-in from this one. It reports whether
// the event was appended.
func (l *Ledger) RecordOutcome(ctx context.Context, evt qrtoken.CheckInEvent) (bool, error) {
	if evt.Outcome != qrtoken.OutcomeAccepted {
		return false, nil
	}
	d := classDay{subject: evt.Token.SubjectID, date: l.dayOf(evt.Token.IssuedAtMs)}
	l.mu.Lock()
	defer l.mu.Unlock()
	first := true
	if l.dedup != nil {
		var err error
		first, err = l.dedup.Claim(ctx, DedupKey(evt))
		if err != nil {
			return false, fmt.Errorf("dedup claim: %w", err)
		}
	}
	students, ok := l.present[d]
	if !ok {
		students = make(map[string]struct{})
		l.present[d] = students
	}
	if _, seen := students[evt.StudentID]; seen && !first {
		return false, nil
	}
	l.events = append(l.events, evt)
	l.held[d] = struct{}{}
	students[evt.StudentID] = struct{}{}
	return true, nil
}

// PercentageFor is attended class days over class days held for the student's
// subjects, as a rounded percentage. No tracked days yields 0.
func (l *Ledger) PercentageFor(ctx context.Context, studentID string) (int, error) {
	sp, err := l.roster.StudentByID(ctx, studentID)
	if err != nil {
		return 0, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var attended, total int
	for d := range l.held {
		if !sp.IsEnrolled(d.subject) {
			continue
		}
		total++
		if _, ok := l.present[d][studentID]; ok {
			attended++
		}
	}
	return Percent(attended, total), nil
}

// ClassPercentage is present over enrolled students for subjectID on date.
// No enrolled students yields 0.
func (l *Ledger) ClassPercentage(ctx context.Context, subjectID string, date time.Time) (int, error) {
	enrolled, err := l.roster.StudentsEnrolledIn(ctx, subjectID)
	if err != nil {
		return 0, err
	}
	d := classDay{subject: subjectID, date: l.Day(date)}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var present int
	for _, sp := range enrolled {
		if _, ok := l.present[d][sp.StudentID]; ok {
			present++
		}
	}
	return Percent(present, len(enrolled)), nil
}

// Events lists appended events, newest first, optionally filtered by student.
func (l *Ledger) Events(studentID string, limit, offset int) []qrtoken.CheckInEvent {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var res []qrtoken.CheckInEvent
	skipped := 0
	for i := len(l.events) - 1; i >= 0 && len(res) < limit; i-- {
		evt := l.events[i]
		if studentID != "" && evt.StudentID != studentID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		res = append(res, evt)
	}
	return res
}

// Len returns the number of appended events.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Percent rounds n/d*100 to the nearest integer, clamped to [0,100]; d == 0 gives 0.
func Percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	p := int(math.Round(float64(n) / float64(d) * 100))
	if p > 100 {
		return 100
	}
	return p
}
