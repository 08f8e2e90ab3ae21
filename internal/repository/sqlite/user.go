package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codelens/internal/apperror"
	"github.com/sakif/codelens/internal/model"
	"github.com/sakif/codelens/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// userColumns is the canonical SELECT list, shared by every user query so a
// scan helper can read rows consistently.
const userColumns = `id, username, email, password_hash, github_id, avatar_url,
	analyses_count, average_score, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.AvatarURL,
		&u.AnalysesCount,
		&u.AverageScore,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. The ID and timestamps are generated here; the
// caller provides username, email and password hash.
//
// Uniqueness is enforced by the schema (COLLATE NOCASE UNIQUE on username and
// email), so a duplicate in any letter case surfaces as a constraint
// error, which we map to apperror.Conflict. The service layer also checks
// first to give a precise field-level message; this is the backstop against
// two racing registrations.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, github_id, avatar_url,
		                    analyses_count, average_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.AvatarURL,
		user.AnalysesCount,
		user.AverageScore,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username or email", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// modernc.org/sqlite doesn't export a typed error for this, so we match on
// the stable message prefix the engine produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a user by internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by username, case-insensitively; the
// username column carries COLLATE NOCASE, so plain equality already ignores
// case.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// UpsertGitHub inserts or refreshes an OAuth account keyed by GitHub ID.
//
// First login → INSERT with a fresh internal ID; subsequent logins → UPDATE
// the profile fields in case they changed on GitHub, keeping the existing
// internal ID (reports reference it).
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Username,
			user.Email,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	return db.Create(ctx, user)
}

// UpdateStats overwrites the denormalised aggregates for one user.
// The values are recomputed by the service from the full report history, so
// this is a blind write by design.
func (db *DB) UpdateStats(ctx context.Context, id string, analysesCount int, averageScore float64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET analyses_count = ?, average_score = ?, updated_at = ?
		 WHERE id = ?`,
		analysesCount, averageScore, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating stats for user %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking stats update for user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}
