package models

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workouttribe/apperr"
)

var userRowColumns = []string{
	"id", "name", "email", "password", "profile_picture", "bio", "lng", "lat", "address", "city",
	"activities", "skill_level", "availability", "age_range", "gender", "created_at", "updated_at",
}

func userRow(rows *sqlmock.Rows, id string, activities string) *sqlmock.Rows {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "Name "+id, id+"@example.com", "hash", "", "", 121.5, 25.0, "", "Taipei",
		activities, "beginner", "{weekend_morning}", "", "", now, now)
}

func TestSQLUserRepo_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
		WithArgs("u-1").
		WillReturnRows(userRow(sqlmock.NewRows(userRowColumns), "u-1", "{running,yoga}"))

	u, err := repo.Load(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, []Activity{ActivityRunning, ActivityYoga}, u.Preferences.Activities)
	assert.Equal(t, []float64{121.5, 25.0}, u.Location.Coordinates)
	assert.Equal(t, SkillBeginner, u.Preferences.SkillLevel)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err = repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserRepo_FindMatching(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows(userRowColumns)
	userRow(rows, "u-2", "{running}")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1) AND activities && $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.FindMatching(ctx, []string{"u-2", "u-3"}, []Activity{ActivityRunning})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "u-2", got[0].ID)

	// no filter, no overlap clause
	mock.ExpectQuery(`WHERE id = ANY\(\$1\)$`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userRowColumns))
	got, err = repo.FindMatching(ctx, []string{"u-9"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	// no candidates, no query
	got, err = repo.FindMatching(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserRepo_SaveDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	u := validUser()
	require.NoError(t, u.Validate())
	err = repo.Save(context.Background(), &u)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUserRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSQLUserRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=$1")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=$1")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(ctx, "u-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u-1"), apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
