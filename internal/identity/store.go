package identity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"upasthiti/internal/errs"
)

// Store is the credential store and roster read by the authenticator and the
// attendance ledger.
type Store interface {
	// Lookup returns the identity for a login name (case-insensitive).
	Lookup(ctx context.Context, username string) (Identity, error)
	// Add inserts a new identity.
	Add(ctx context.Context, id Identity) error
	// StudentByID returns the profile for a student id.
	StudentByID(ctx context.Context, studentID string) (StudentProfile, error)
	// StudentsEnrolledIn returns the students taking subjectID, ordered by student id.
	StudentsEnrolledIn(ctx context.Context, subjectID string) ([]StudentProfile, error)
}

// Memory is a mutex-guarded in-memory Store.
type Memory struct {
	mu        sync.RWMutex
	byName    map[string]Identity
	byStudent map[string]string   // student id -> identity id
	faculty   map[string]struct{} // faculty display names
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		byName:    make(map[string]Identity),
		byStudent: make(map[string]string),
		faculty:   make(map[string]struct{}),
	}
}

// Lookup returns errs.ErrNotFound for unknown names.
func (m *Memory) Lookup(_ context.Context, username string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[NormalizeUsername(username)]
	if !ok {
		return Identity{}, errs.ErrNotFound
	}
	return id, nil
}

// Add rejects duplicate login names, duplicate student ids and faculty
// display names already in use. QR payloads name the teacher by display name,
// so that name must identify one issuer. Nothing is stored on rejection.
func (m *Memory) Add(_ context.Context, id Identity) error {
	id.ID = NormalizeUsername(id.ID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[id.ID]; exists {
		return fmt.Errorf("%w: login %q", errs.ErrAlreadyExists, id.ID)
	}
	switch p := id.Profile.(type) {
	case StudentProfile:
		if _, exists := m.byStudent[p.StudentID]; exists {
			return fmt.Errorf("%w: student id %q", errs.ErrAlreadyExists, p.StudentID)
		}
		m.byStudent[p.StudentID] = id.ID
	case FacultyProfile:
		if _, exists := m.faculty[id.DisplayName]; exists {
			return fmt.Errorf("%w: faculty name %q", errs.ErrAlreadyExists, id.DisplayName)
		}
		m.faculty[id.DisplayName] = struct{}{}
	}
	m.byName[id.ID] = id
	return nil
}

func (m *Memory) StudentByID(_ context.Context, studentID string) (StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.byStudent[studentID]
	if !ok {
		return StudentProfile{}, errs.ErrNotFound
	}
	sp, _ := m.byName[name].Student()
	return sp, nil
}

func (m *Memory) StudentsEnrolledIn(_ context.Context, subjectID string) ([]StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StudentProfile
	for _, id := range m.byName {
		if sp, ok := id.Student(); ok && sp.IsEnrolled(subjectID) {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}
