// Package session authenticates identities and owns the active sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"upasthiti/internal/crypto"
	"upasthiti/internal/errs"
	"upasthiti/internal/identity"
)

// Session is the authenticated context bound to one identity. ActiveSubject
// is empty when nothing is selected, which is always the case for admins.
type Session struct {
	ID            string
	Identity      identity.Identity
	IssuedAt      time.Time
	ActiveSubject string
}

// Role is shorthand for s.Identity.Role().
func (s Session) Role() identity.Role { return s.Identity.Role() }

// Authenticator validates credentials and tracks one session per identity.
type Authenticator struct {
	store identity.Store
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	// dummy is verified for unknown users so both failure paths cost one hash.
	dummy identity.Credential

	mu         sync.Mutex
	sessions   map[string]Session
	byIdentity map[string]string
}

// NewAuthenticator creates an authenticator. ttl <= 0 disables session expiry;
// a nil now uses time.Now.
func NewAuthenticator(store identity.Store, ttl time.Duration, now func() time.Time, log *zap.Logger) *Authenticator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	salt := make([]byte, crypto.SaltLen)
	return &Authenticator{
		store:      store,
		ttl:        ttl,
		now:        now,
		log:        log,
		dummy:      identity.Credential{Salt: salt, Hash: crypto.HashPassword([]byte("no-such-user"), salt)},
		sessions:   make(map[string]Session),
		byIdentity: make(map[string]string),
	}
}

// Authenticate checks username and password and opens a session. Every
// failure returns errs.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Session, error) {
	id, err := a.store.Lookup(ctx, username)
	if err != nil {
		_ = a.dummy.Matches(password)
		if !errors.Is(err, errs.ErrNotFound) {
			a.log.Warn("credential lookup failed", zap.Error(err))
		}
		return Session{}, errs.ErrInvalidCredentials
	}
	if !id.Credential.Matches(password) {
		return Session{}, errs.ErrInvalidCredentials
	}

	s := Session{
		ID:       uuid.NewString(),
		Identity: id,
		IssuedAt: a.now(),
	}
	if subs := id.Subjects(); len(subs) > 0 {
		s.ActiveSubject = subs[0]
	}

	a.mu.Lock()
	if prev, ok := a.byIdentity[id.ID]; ok {
		delete(a.sessions, prev)
	}
	a.sessions[s.ID] = s
	a.byIdentity[id.ID] = s.ID
	a.mu.Unlock()

	a.log.Info("session opened", zap.String("identity", id.ID), zap.String("role", string(id.Role())))
	return s, nil
}

// Logout destroys the session. Unknown ids are ignored.
func (a *Authenticator) Logout(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dropLocked(sessionID)
}

// Get returns a live session or errs.ErrSessionNotFound.
func (a *Authenticator) Get(sessionID string) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveLocked(sessionID)
}

// SelectSubject changes the session's active subject. The subject must be in
// the identity's own list; admins have none to select.
func (a *Authenticator) SelectSubject(sessionID, subjectID string) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.liveLocked(sessionID)
	if err != nil {
		return Session{}, err
	}

	var allowed bool
	switch p := s.Identity.Profile.(type) {
	case identity.StudentProfile:
		allowed = p.IsEnrolled(subjectID)
	case identity.FacultyProfile:
		allowed = p.Teaches(subjectID)
	case identity.AdminProfile:
		allowed = false
	default:
		return Session{}, fmt.Errorf("unsupported profile %T", p)
	}
	if !allowed {
		return Session{}, errs.ErrSubjectNotSelectable
	}
	s.ActiveSubject = subjectID
	a.sessions[sessionID] = s
	return s, nil
}

// Count returns the number of stored sessions, including not yet reaped expired ones.
func (a *Authenticator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

func (a *Authenticator) liveLocked(sessionID string) (Session, error) {
	s, ok := a.sessions[sessionID]
	if !ok {
		return Session{}, errs.ErrSessionNotFound
	}
	if a.ttl > 0 && a.now().Sub(s.IssuedAt) >= a.ttl {
		a.dropLocked(sessionID)
		return Session{}, errs.ErrSessionNotFound
	}
	return s, nil
}

func (a *Authenticator) dropLocked(sessionID string) {
	s, ok := a.sessions[sessionID]
	if !ok {
		return
	}
	delete(a.sessions, sessionID)
	if a.byIdentity[s.Identity.ID] == sessionID {
		delete(a.byIdentity, s.Identity.ID)
	}
}
