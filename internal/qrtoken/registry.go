package qrtoken

import (
	"context"
	"sync"
)

// Registry keeps the latest token per issuer. Put overwrites; nothing is ever
// removed on expiry, readers compare timestamps themselves.
type Registry interface {
	Put(ctx context.Context, t Token) error
	ByIssuer(ctx context.Context, issuerID string) (Token, bool, error)
	// ByTeacher resolves the latest token of the issuer whose display name
	// appears in scanned payloads.
	ByTeacher(ctx context.Context, teacherName string) (Token, bool, error)
}

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu        sync.RWMutex
	byIssuer  map[string]Token
	byTeacher map[string]string // teacher name -> issuer id
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byIssuer:  make(map[string]Token),
		byTeacher: make(map[string]string),
	}
}

func (r *MemoryRegistry) Put(_ context.Context, t Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIssuer[t.IssuerID] = t
	r.byTeacher[t.TeacherName] = t.IssuerID
	return nil
}

func (r *MemoryRegistry) ByIssuer(_ context.Context, issuerID string) (Token, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byIssuer[issuerID]
	return t, ok, nil
}

func (r *MemoryRegistry) ByTeacher(_ context.Context, teacherName string) (Token, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTeacher[teacherName]
	if !ok {
		return Token{}, false, nil
	}
	t, ok := r.byIssuer[id]
	return t, ok, nil
}
