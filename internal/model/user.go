// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Users can sign up with a username/password or via GitHub OAuth. Password
// accounts have a bcrypt hash in PasswordHash and GitHubID = 0; OAuth accounts
// have a non-zero GitHubID and an empty hash. The internal string ID (xid) is
// the primary key either way, so the rest of the app never cares which kind
// of account it's dealing with.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. Tagging it "-" means encoding/json
// skips the field entirely, so even if a handler accidentally serialises a
// full User, the hash can't leak into a response.
//
// AnalysesCount and AverageScore are denormalised aggregates over the user's
// report history. They are recomputed from the full history after every
// analysis (not incrementally adjusted), so they can't drift.
type User struct {
	ID            string    `json:"id"                  db:"id"`
	Username      string    `json:"username"            db:"username"`
	Email         string    `json:"email"               db:"email"`
	PasswordHash  string    `json:"-"                   db:"password_hash"`
	GitHubID      int64     `json:"githubId,omitempty"  db:"github_id"` // 0 for password accounts
	AvatarURL     string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	AnalysesCount int       `json:"analysesCount"       db:"analyses_count"`
	AverageScore  float64   `json:"averageScore"        db:"average_score"` // mean overall score, 0-100
	CreatedAt     time.Time `json:"createdAt"           db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"           db:"updated_at"`
}
