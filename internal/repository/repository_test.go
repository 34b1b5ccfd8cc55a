package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentworks/freelancer-service/internal/models"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewRepository(db), mock, db
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "password_hash", "profile_picture",
		"skills", "bio", "hourly_rate", "is_verified", "verification_token",
		"created_at", "updated_at",
	})
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ada", "ada@x.com", "+10000000000", "hash", nil, nil, nil, nil, "tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_verified", "created_at", "updated_at"}).
			AddRow(int64(1), false, now, now))

	tok := "tok"
	user := &models.User{
		Name:              "Ada",
		Email:             "ada@x.com",
		Phone:             "+10000000000",
		PasswordHash:      "hash",
		VerificationToken: &tok,
	}
	require.NoError(t, repo.CreateUser(user))
	assert.Equal(t, int64(1), user.ID)
	assert.False(t, user.IsVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	tok := "tok"
	err := repo.CreateUser(&models.User{
		Name: "Ada", Email: "ada@x.com", Phone: "+10000000000",
		PasswordHash: "hash", VerificationToken: &tok,
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUserByID(99)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@x.com").
		WillReturnRows(userRows().AddRow(
			int64(1), "Ada", "ada@x.com", "+10000000000", "hash", nil,
			nil, nil, nil, false, nil, now, now))

	user, err := repo.FindUserByEmail("ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Nil(t, user.ProfilePicture)
	assert.Nil(t, user.HourlyRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE users`).
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateUser(&models.User{ID: 42, Name: "Ada", Email: "ada@x.com", Phone: "+1"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.UpdateUser(&models.User{ID: 42, Name: "Ada", Email: "taken@x.com", Phone: "+1"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteUser(7), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteUser(7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_WithSearch(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE name ILIKE \$1 OR email ILIKE \$1 OR skills ILIKE \$1`).
		WithArgs("%go%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT .* FROM users WHERE name ILIKE \$1 .* ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("%go%", 10, 0).
		WillReturnRows(userRows().AddRow(
			int64(3), "Grace", "grace@x.com", "+10000000001", "hash", nil,
			"Go, SQL", nil, 25.0, true, nil, now, now))

	users, total, err := repo.ListUsers(1, 10, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "Grace", users[0].Name)
	require.NotNil(t, users[0].Skills)
	assert.Equal(t, "Go, SQL", *users[0].Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers_NormalizesPageAndLimit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`SELECT .* FROM users ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(userRows())

	_, total, err := repo.ListUsers(-3, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferencedPictures(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT profile_picture FROM users WHERE profile_picture IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"profile_picture"}).
			AddRow("profile-1-a.png").
			AddRow("profile-2-b.jpg"))

	referenced, err := repo.ReferencedPictures()
	require.NoError(t, err)
	assert.Len(t, referenced, 2)
	_, ok := referenced["profile-1-a.png"]
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
