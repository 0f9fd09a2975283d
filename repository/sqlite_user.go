package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/connectplus/database"
	"github.com/akinalp/connectplus/models"
	"github.com/akinalp/connectplus/pkg"
)

// sqliteUserRepo implements UserRepository on SQLite.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo accepts either the pool or a transaction.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, bio,
	avatar_url, dark_mode, registration_step, created_at`

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Bio,
		user.AvatarURL,
		user.DarkMode,
		user.RegistrationStep,
		user.CreatedAt,
	)
	if err != nil {
		if dup := userDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByEmail compares case-insensitively (the column is COLLATE NOCASE).
func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *sqliteUserRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Bio, &user.AvatarURL,
		&user.DarkMode, &user.RegistrationStep, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = ?, last_name = ?, bio = ?, avatar_url = ?, email = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Bio, user.AvatarURL, user.Email, user.ID,
	)
	if err != nil {
		if dup := userDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	return requireAffected(result, "user")
}

func (r *sqliteUserRepo) SetDarkMode(ctx context.Context, userID string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET dark_mode = ? WHERE id = ?`, enabled, userID)
	if err != nil {
		return fmt.Errorf("failed to update dark mode: %w", err)
	}

	return requireAffected(result, "user")
}

func (r *sqliteUserRepo) AdvanceStep(ctx context.Context, userID string, to models.RegistrationStep) (models.RegistrationStep, error) {
	if to > models.StepComplete {
		to = models.StepComplete
	}

	// MAX() keeps the step monotonic even if two advances race.
	query := `
		UPDATE users SET registration_step = MAX(registration_step, ?)
		WHERE id = ?
		RETURNING registration_step`

	var step models.RegistrationStep
	err := r.db.QueryRowContext(ctx, query, to, userID).Scan(&step)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to advance registration step: %w", err)
	}

	return step, nil
}

func (r *sqliteUserRepo) Search(ctx context.Context, query, excludeUserID string, limit int) ([]models.UserSummary, error) {
	pattern := "%" + escapeLike(asciiLower(query)) + "%"

	sqlQuery := `
		SELECT u.id, u.username, u.first_name, u.last_name, u.bio, u.avatar_url
		FROM users u
		WHERE u.id <> ?
		  AND (LOWER(u.username) LIKE ? ESCAPE '\'
		       OR LOWER(u.first_name) LIKE ? ESCAPE '\'
		       OR LOWER(u.last_name) LIKE ? ESCAPE '\')
		  AND NOT EXISTS (
		      SELECT 1 FROM friendships f
		      WHERE (f.user1_id = u.id AND f.user2_id = ?)
		         OR (f.user2_id = u.id AND f.user1_id = ?)
		  )
		ORDER BY u.username COLLATE NOCASE
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, sqlQuery,
		excludeUserID, pattern, pattern, pattern, excludeUserID, excludeUserID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	results := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Bio, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user search row: %w", err)
		}
		results = append(results, u)
	}

	return results, rows.Err()
}

// escapeLike escapes the LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// userDuplicate maps a UNIQUE violation on users to the field that clashed.
// SQLite names the column: "UNIQUE constraint failed: users.email".
func userDuplicate(err error) error {
	if !isUniqueViolation(err) {
		return nil
	}
	if strings.Contains(err.Error(), "users.email") {
		return &pkg.DuplicateError{Field: "email"}
	}
	return &pkg.DuplicateError{Field: "username"}
}

// requireAffected turns "0 rows affected" into ErrNotFound.
func requireAffected(result sql.Result, entity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, entity)
	}
	return nil
}

// asciiLower folds A-Z only. SQLite's LOWER() leaves non-ASCII letters
// alone, so the query has to be folded the same way or "Änne" would never
// match "Änne". Case-insensitivity is therefore ASCII-only.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
