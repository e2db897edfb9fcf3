// Package model defines the records stored by the repositories and returned
// by the JSON API.
package model

import "time"

// Completion is one saved result of a fix or suggest request.
//
// Records are created only when a signed-in user's inference call succeeds,
// and are never updated afterwards. The JSON tags keep the column names
// (question, code_answer) so the API mirrors the table.
//
// WHY int64 ID (not xid like User)?
// History is listed newest first by ID. An AUTOINCREMENT integer is
// monotonic, so ORDER BY id DESC is creation order without relying on
// timestamp resolution.
type Completion struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	CodeAnswer string    `json:"code_answer"`
	Language   string    `json:"language"`
	Kind       string    `json:"kind"`
	UserID     string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
