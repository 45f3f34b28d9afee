package store

import (
	"context"
	"fmt"

	"upasthiti/internal/identity"
)

const (
	selectIdentities = `SELECT id, display_name, role, pwd_hash, salt, COALESCE(student_id, '') FROM identities ORDER BY id`
	selectSubjects   = `SELECT identity_id, subject_id FROM identity_subjects ORDER BY identity_id, position`
)

// Directory reads the institution roster from Postgres. It is read-only: the
// roster is owned by the registrar's system.
type Directory struct {
	db *DB
}

// NewDirectory creates a directory over db.
func NewDirectory(db *DB) *Directory {
	return &Directory{db: db}
}

type identityRow struct {
	id, displayName, role, studentID string
	hash, salt                       []byte
}

// LoadInto copies every roster identity into dst and returns how many were
// added. Subject lists keep their stored position order.
func (d *Directory) LoadInto(ctx context.Context, dst identity.Store) (int, error) {
	subjects, err := d.subjects(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := d.db.Pool.Query(ctx, selectIdentities)
	if err != nil {
		return 0, fmt.Errorf("query identities: %w", err)
	}
	var list []identityRow
	for rows.Next() {
		var r identityRow
		if err := rows.Scan(&r.id, &r.displayName, &r.role, &r.hash, &r.salt, &r.studentID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan identity: %w", err)
		}
		list = append(list, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate identities: %w", err)
	}

	added := 0
	for _, r := range list {
		id, err := r.toIdentity(subjects[r.id])
		if err != nil {
			return added, err
		}
		if err := dst.Add(ctx, id); err != nil {
			return added, fmt.Errorf("add %s: %w", id.ID, err)
		}
		added++
	}
	return added, nil
}

func (d *Directory) subjects(ctx context.Context) (map[string][]string, error) {
	rows, err := d.db.Pool.Query(ctx, selectSubjects)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var owner, subject string
		if err := rows.Scan(&owner, &subject); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out[owner] = append(out[owner], subject)
	}
	return out, rows.Err()
}

func (r identityRow) toIdentity(subjects []string) (identity.Identity, error) {
	role, err := identity.ParseRole(r.role)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("identity %s: %w", r.id, err)
	}
	var profile identity.Profile
	switch role {
	case identity.RoleStudent:
		if r.studentID == "" {
			return identity.Identity{}, fmt.Errorf("identity %s: student without student id", r.id)
		}
		profile = identity.StudentProfile{StudentID: r.studentID, EnrolledSubjects: subjects}
	case identity.RoleFaculty:
		profile = identity.FacultyProfile{TaughtSubjects: subjects}
	case identity.RoleAdmin:
		profile = identity.AdminProfile{}
	}
	return identity.Identity{
		ID:          identity.NormalizeUsername(r.id),
		DisplayName: r.displayName,
		Credential:  identity.Credential{Salt: r.salt, Hash: r.hash},
		Profile:     profile,
	}, nil
}
