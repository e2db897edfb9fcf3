package model

import "time"

// User represents a registered user account.
//
// Accounts come from two places: the registration form (username + bcrypt
// password hash) and the optional GitHub sign-in (GitHubID set, empty
// PasswordHash). We generate our own string ID (xid) either way so
// completions reference a stable key.
//
// WHY GitHubID *int64?
// Most accounts never touch GitHub. A nil pointer maps to SQL NULL, and
// the UNIQUE constraint on github_id ignores NULLs, so any number of
// password-only users can coexist.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName"  db:"last_name"`
	PasswordHash string    `json:"-"         db:"password_hash"` // never serialised
	GitHubID     *int64    `json:"githubId,omitempty" db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
