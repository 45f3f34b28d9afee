package identity

import (
	"context"
	"errors"
	"fmt"

	"upasthiti/internal/errs"
)

type seedUser struct {
	id, name, password string
	profile            Profile
}

var demoUsers = []seedUser{
	{"teacher1", "Dr. Anjali Verma", "password123", FacultyProfile{TaughtSubjects: []string{"CS101", "CS305"}}},
	{"teacher2", "Prof. Rajesh Singh", "password123", FacultyProfile{TaughtSubjects: []string{"MA201", "PHY101"}}},
	{"student1", "Aarav Sharma", "password123", StudentProfile{StudentID: "1", EnrolledSubjects: []string{"CS101", "MA201", "PHY101"}}},
	{"student2", "Priya Patel", "password123", StudentProfile{StudentID: "2", EnrolledSubjects: []string{"CS101", "CS305"}}},
	{"admin", "Admin User", "admin123", AdminProfile{}},
}

// SeedDemo loads the demo roster into s and returns how many identities it
// added. Users that clash with existing entries are skipped, so the seed can
// sit on top of a directory roster. Intended for local development only.
func SeedDemo(ctx context.Context, s Store) (int, error) {
	added := 0
	for _, u := range demoUsers {
		id, err := New(u.id, u.name, u.password, u.profile)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", u.id, err)
		}
		err = s.Add(ctx, id)
		switch {
		case errors.Is(err, errs.ErrAlreadyExists):
			continue
		case err != nil:
			return added, fmt.Errorf("seed %s: %w", u.id, err)
		}
		added++
	}
	return added, nil
}
