package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/studentworks/freelancer-service/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert or update violates the
	// unique constraint on users.email.
	ErrDuplicateEmail = errors.New("email already registered")
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, phone, password_hash, profile_picture, skills, bio, hourly_rate, is_verified, verification_token, created_at, updated_at`

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user and fills in the store-assigned fields.
// Returns ErrDuplicateEmail when the email is already taken, so callers can
// compensate; uniqueness is enforced by the database, not by a pre-check.
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, profile_picture,
			skills, bio, hourly_rate, verification_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, is_verified, created_at, updated_at`
	err := r.db.QueryRow(query,
		user.Name, user.Email, user.Phone, user.PasswordHash, user.ProfilePicture,
		user.Skills, user.Bio, user.HourlyRate, user.VerificationToken).
		Scan(&user.ID, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(query, email))
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(query, id))
}

// UpdateUser overwrites the mutable profile fields of the given user row and
// refreshes updated_at. Returns ErrNotFound if the row is gone and
// ErrDuplicateEmail if the new email collides with another user.
func (r *Repository) UpdateUser(user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, phone = $3, profile_picture = $4,
			skills = $5, bio = $6, hourly_rate = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $8
		RETURNING updated_at`
	err := r.db.QueryRow(query,
		user.Name, user.Email, user.Phone, user.ProfilePicture,
		user.Skills, user.Bio, user.HourlyRate, user.ID).
		Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// EmailTakenByOther reports whether the email belongs to a user other than id.
func (r *Repository) EmailTakenByOther(email string, id int64) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = $1 AND id <> $2`, email, id).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// DeleteUser removes the user row. Returns ErrNotFound when nothing matched.
func (r *Repository) DeleteUser(id int64) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns one page of users ordered by creation time descending,
// plus the total row count for pagination. Pages are 1-indexed. When search
// is non-empty it matches case-insensitively as a substring against name,
// email, or skills.
func (r *Repository) ListUsers(page, limit int, search string) ([]*models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM users`
	listQuery := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if search != "" {
		filter := ` WHERE name ILIKE $1 OR email ILIKE $1 OR skills ILIKE $1`
		countQuery += filter
		listQuery += filter
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ReferencedPictures returns the set of profile picture filenames currently
// referenced by any user row. Used by the orphan sweep.
func (r *Repository) ReferencedPictures() (map[string]struct{}, error) {
	rows, err := r.db.Query(`SELECT profile_picture FROM users WHERE profile_picture IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced pictures: %w", err)
	}
	defer rows.Close()

	referenced := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to list referenced pictures: %w", err)
		}
		referenced[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list referenced pictures: %w", err)
	}
	return referenced, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.ProfilePicture, &user.Skills, &user.Bio, &user.HourlyRate,
		&user.IsVerified, &user.VerificationToken, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
