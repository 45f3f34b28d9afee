// Package identity holds identity records, their role-specific profiles and
// the credential store the authenticator reads from.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"upasthiti/internal/crypto"
)

// Role is the single, immutable role of an identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleFaculty:
		return RoleFaculty, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Profile is the role-specific part of an identity. The set of variants is
// closed: StudentProfile, FacultyProfile and AdminProfile.
type Profile interface {
	role() Role
}

// StudentProfile carries enrolment data. EnrolledSubjects is ordered by
// display priority; the first entry is the default selection.
type StudentProfile struct {
	StudentID        string
	EnrolledSubjects []string
}

// FacultyProfile carries the ordered list of taught subjects.
type FacultyProfile struct {
	TaughtSubjects []string
}

// AdminProfile has no subject list.
type AdminProfile struct{}

func (StudentProfile) role() Role { return RoleStudent }
func (FacultyProfile) role() Role { return RoleFaculty }
func (AdminProfile) role() Role   { return RoleAdmin }

// IsEnrolled reports whether the student takes subjectID.
func (p StudentProfile) IsEnrolled(subjectID string) bool {
	return contains(p.EnrolledSubjects, subjectID)
}

// Teaches reports whether the faculty member teaches subjectID.
func (p FacultyProfile) Teaches(subjectID string) bool {
	return contains(p.TaughtSubjects, subjectID)
}

// Credential is a salted Argon2id hash of the identity's secret.
type Credential struct {
	Salt []byte
	Hash []byte
}

// Matches verifies password against the credential in constant time.
func (c Credential) Matches(password string) bool {
	if len(c.Salt) == 0 || len(c.Hash) == 0 {
		return false
	}
	return crypto.VerifyPassword([]byte(password), c.Salt, c.Hash)
}

// NewCredential hashes password with a fresh random salt.
func NewCredential(password string) (Credential, error) {
	if password == "" {
		return Credential{}, errors.New("empty password")
	}
	salt, err := crypto.RandBytes(crypto.SaltLen)
	if err != nil {
		return Credential{}, fmt.Errorf("salt: %w", err)
	}
	return Credential{Salt: salt, Hash: crypto.HashPassword([]byte(password), salt)}, nil
}

// Identity is a user record. ID is the lower-case login name.
type Identity struct {
	ID          string
	DisplayName string
	Credential  Credential
	Profile     Profile
}

// New builds an identity, normalising the login name and hashing password.
func New(id, displayName, password string, profile Profile) (Identity, error) {
	id = NormalizeUsername(id)
	if id == "" {
		return Identity{}, errors.New("empty identity id")
	}
	if profile == nil {
		return Identity{}, errors.New("missing profile")
	}
	if sp, ok := profile.(StudentProfile); ok && sp.StudentID == "" {
		return Identity{}, errors.New("student profile without student id")
	}
	cred, err := NewCredential(password)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, DisplayName: displayName, Credential: cred, Profile: profile}, nil
}

// Role returns the role implied by the profile variant.
func (i Identity) Role() Role {
	if i.Profile == nil {
		return ""
	}
	return i.Profile.role()
}

// Subjects returns a copy of the identity's ordered subject list; nil for admin.
func (i Identity) Subjects() []string {
	switch p := i.Profile.(type) {
	case StudentProfile:
		return append([]string(nil), p.EnrolledSubjects...)
	case FacultyProfile:
		return append([]string(nil), p.TaughtSubjects...)
	case AdminProfile:
		return nil
	default:
		return nil
	}
}

// Student returns the student profile when the identity is a student.
func (i Identity) Student() (StudentProfile, bool) {
	p, ok := i.Profile.(StudentProfile)
	if !ok {
		return StudentProfile{}, false
	}
	p.EnrolledSubjects = append([]string(nil), p.EnrolledSubjects...)
	return p, true
}

// Faculty returns the faculty profile when the identity is faculty.
func (i Identity) Faculty() (FacultyProfile, bool) {
	p, ok := i.Profile.(FacultyProfile)
	if !ok {
		return FacultyProfile{}, false
	}
	p.TaughtSubjects = append([]string(nil), p.TaughtSubjects...)
	return p, true
}

// NormalizeUsername lower-cases and trims a login name.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
