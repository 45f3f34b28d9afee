package crypto

import (
	"bytes"
	"testing"
)

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	a, err := RandBytes(SaltLen)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != SaltLen {
		t.Fatalf("len=%d, want=%d", len(a), SaltLen)
	}
	b, err := RandBytes(SaltLen)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes are equal")
	}
}

func TestHashPassword_Deterministic(t *testing.T) {
	t.Parallel()

	pw := []byte("password123")
	salt := []byte("0123456789abcdef")

	h1 := HashPassword(pw, salt)
	h2 := HashPassword(pw, salt)
	if !bytes.Equal(h1, h2) {
		t.Fatalf("hash not deterministic for same input")
	}
	if bytes.Equal(h1, HashPassword(pw, []byte("fedcba9876543210"))) {
		t.Fatalf("hash should differ when salt differs")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	pw := []byte("admin123")
	salt := []byte("salty-salt-12345")
	hash := HashPassword(pw, salt)

	if !VerifyPassword(pw, salt, hash) {
		t.Fatalf("expected true for correct password")
	}
	if VerifyPassword([]byte("Admin123"), salt, hash) {
		t.Fatalf("password comparison must be case-sensitive")
	}
	if VerifyPassword([]byte{}, salt, hash) {
		t.Fatalf("expected false for empty password")
	}
}
