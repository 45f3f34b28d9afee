package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upasthiti/internal/crypto"
	"upasthiti/internal/identity"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var identityCols = []string{"id", "display_name", "role", "pwd_hash", "salt", "student_id"}

func TestDirectory_LoadInto(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()

	salt := []byte("0123456789abcdef")
	hash := crypto.HashPassword([]byte("pw"), salt)

	mock.ExpectQuery(regexp.QuoteMeta(selectSubjects)).
		WillReturnRows(pgxmock.NewRows([]string{"identity_id", "subject_id"}).
			AddRow("s1", "CS101").
			AddRow("t1", "CS305").
			AddRow("t1", "CS101"))
	mock.ExpectQuery(regexp.QuoteMeta(selectIdentities)).
		WillReturnRows(pgxmock.NewRows(identityCols).
			AddRow("Root", "Root", "admin", hash, salt, "").
			AddRow("s1", "Student One", "student", hash, salt, "42").
			AddRow("t1", "Teacher One", "faculty", hash, salt, ""))

	dst := identity.NewMemory()
	n, err := NewDirectory(db).LoadInto(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	teacher, err := dst.Lookup(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleFaculty, teacher.Role())
	assert.Equal(t, []string{"CS305", "CS101"}, teacher.Subjects())
	assert.True(t, teacher.Credential.Matches("pw"))

	admin, err := dst.Lookup(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, admin.Role())

	sp, err := dst.StudentByID(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, sp.EnrolledSubjects)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectory_LoadInto_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("query fails", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		mock.ExpectQuery(regexp.QuoteMeta(selectSubjects)).WillReturnError(errors.New("boom"))
		_, err := NewDirectory(db).LoadInto(ctx, identity.NewMemory())
		require.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		mock.ExpectQuery(regexp.QuoteMeta(selectSubjects)).
			WillReturnRows(pgxmock.NewRows([]string{"identity_id", "subject_id"}))
		mock.ExpectQuery(regexp.QuoteMeta(selectIdentities)).
			WillReturnRows(pgxmock.NewRows(identityCols).AddRow("x", "X", "janitor", []byte("h"), []byte("s"), ""))
		n, err := NewDirectory(db).LoadInto(ctx, identity.NewMemory())
		require.Error(t, err)
		assert.Zero(t, n)
	})

	t.Run("student without id", func(t *testing.T) {
		db, mock := newDB(t)
		defer mock.Close()
		mock.ExpectQuery(regexp.QuoteMeta(selectSubjects)).
			WillReturnRows(pgxmock.NewRows([]string{"identity_id", "subject_id"}))
		mock.ExpectQuery(regexp.QuoteMeta(selectIdentities)).
			WillReturnRows(pgxmock.NewRows(identityCols).AddRow("s", "S", "student", []byte("h"), []byte("s"), ""))
		_, err := NewDirectory(db).LoadInto(ctx, identity.NewMemory())
		require.Error(t, err)
	})
}

func TestDB_Healthy(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectPing()

	db := &DB{Pool: mock}
	require.NoError(t, db.Healthy(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
