// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records a previously accepted submission, keyed by
// (user_id, problem_id, key). It lets a client retry a submission POST
// without enqueueing the same solution for judging twice: a replay returns
// the originally created record instead of re-executing side effects.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_user_problem_key,priority:1"`
	ProblemID int64     `gorm:"not null;uniqueIndex:ux_user_problem_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_problem_key,priority:3"`
	RecordID  int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
