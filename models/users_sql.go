package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"workouttribe/apperr"
)

const userColumns = `id, name, email, password, profile_picture, bio, lng, lat, address, city,
	activities, skill_level, availability, age_range, gender, created_at, updated_at`

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u            User
		lng, lat     float64
		activities   pq.StringArray
		availability pq.StringArray
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.ProfilePicture, &u.Bio,
		&lng, &lat, &u.Location.Address, &u.Location.City,
		&activities, &u.Preferences.SkillLevel, &availability,
		&u.Preferences.AgeRange, &u.Preferences.Gender, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.Location.Type = "Point"
	u.Location.Coordinates = []float64{lng, lat}
	u.Preferences.Activities = make([]Activity, len(activities))
	for i, a := range activities {
		u.Preferences.Activities[i] = Activity(a)
	}
	u.Preferences.Availability = make([]Availability, len(availability))
	for i, a := range availability {
		u.Preferences.Availability[i] = Availability(a)
	}
	return u, nil
}

func (r *sqlUserRepo) Load(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFound("user", id)
	}
	if err != nil {
		return User{}, fmt.Errorf("load user %s: %w", id, err)
	}
	return u, nil
}

func (r *sqlUserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFound("user", email)
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *sqlUserRepo) Save(ctx context.Context, u *User) error {
	p := u.Location.Point()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			name=$2, email=$3, password=$4, profile_picture=$5, bio=$6, lng=$7, lat=$8,
			address=$9, city=$10, activities=$11, skill_level=$12, availability=$13,
			age_range=$14, gender=$15, updated_at=$17`,
		u.ID, u.Name, u.Email, u.Password, u.ProfilePicture, u.Bio, p.Lng, p.Lat,
		u.Location.Address, u.Location.City,
		pq.Array(toStrings(u.Preferences.Activities)), u.Preferences.SkillLevel,
		pq.Array(toStrings(u.Preferences.Availability)),
		u.Preferences.AgeRange, u.Preferences.Gender, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperr.Invalid("email", "is already registered")
		}
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return nil
}

func (r *sqlUserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

// FindMatching uses the array overlap operator for the activity filter.
func (r *sqlUserRepo) FindMatching(ctx context.Context, ids []string, activities []Activity) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	args := []any{pq.Array(ids)}
	if len(activities) > 0 {
		query += ` AND activities && $2`
		args = append(args, pq.Array(toStrings(activities)))
	}
	return r.queryUsers(ctx, query, args...)
}

func (r *sqlUserRepo) List(ctx context.Context) ([]User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users`)
}

func (r *sqlUserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
