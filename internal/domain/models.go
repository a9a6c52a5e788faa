// Package domain defines the persistence models for users, problems, and
// judge records. These types are mapped with GORM and form the core data
// layer of the judge platform.
package domain

import (
	"time"

	"github.com/openjudge/go-judge-backend/internal/auth"
)

// User is a registered account. The stored password is a bcrypt hash and is
// never serialized into responses.
//
// Fields:
//   - UID: auto-incremented primary key; the subject id embedded in tokens.
//   - Account: login name, unique.
//   - Password: bcrypt hash of the password (json-hidden).
//   - Avatar: URL of the profile picture.
//   - JoinTime: registration timestamp (UTC).
//   - Authority: rank on the platform's permission scale, stored as its
//     integer encoding.
type User struct {
	UID       int64          `json:"uid"       gorm:"column:uid;primaryKey;autoIncrement"`
	Account   string         `json:"account"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_account"`
	Password  string         `json:"-"         gorm:"type:varchar(128);not null"`
	Avatar    string         `json:"avatar"    gorm:"type:varchar(255)"`
	JoinTime  time.Time      `json:"join_time"`
	Authority auth.Authority `json:"authority" gorm:"type:smallint;not null;default:0"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Problem is a task users submit solutions against. The uploader is recorded
// as the resource owner for access-control purposes.
type Problem struct {
	ID          int64   `json:"id"           gorm:"primaryKey;autoIncrement"`
	Title       string  `json:"title"        gorm:"type:varchar(255);not null"`
	Description string  `json:"description"  gorm:"type:text"`
	JudgeNum    int     `json:"judge_num"`                 // number of test cases
	TimeLimit   float64 `json:"time_limit"`                // seconds
	MemoryLimit int     `json:"memory_limit"`              // KiB
	UserID      int64   `json:"user_id"      gorm:"index"` // uploading user
}

// TableName returns the database table name for Problem.
func (Problem) TableName() string { return "problems" }

// Language identifies the programming language of a submission. Values are
// part of the wire format shared with the judging workers.
type Language int16

const (
	LangC       Language = 10
	LangCpp     Language = 20
	LangPython3 Language = 30
	LangRust    Language = 40
)

// Valid reports whether l is a known language.
func (l Language) Valid() bool {
	switch l {
	case LangC, LangCpp, LangPython3, LangRust:
		return true
	}
	return false
}

// Status is the judging state of a record. Values are part of the wire
// format shared with the judging workers.
type Status int16

const (
	StatusWaiting Status = 10 // queued, not yet picked up
	StatusPending Status = 20 // currently judging
	StatusAc      Status = 30 // accepted
	StatusWa      Status = 40 // wrong answer
	StatusRe      Status = 50 // runtime error
	StatusMle     Status = 60 // memory limit exceeded
	StatusTle     Status = 70 // time limit exceeded
	StatusCe      Status = 80 // compile error
	StatusUke     Status = 90 // unknown error
)

// Valid reports whether s is a known judging state.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusPending, StatusAc, StatusWa,
		StatusRe, StatusMle, StatusTle, StatusCe, StatusUke:
		return true
	}
	return false
}

// Record is a single submission and its judging outcome. It is created by a
// user, then updated by a judging worker as the verdict arrives.
// The short field names would otherwise snake-case to r_id/u_id/p_id, so the
// column names are pinned to match the wire names used in raw filter clauses.
type Record struct {
	RID        int64     `json:"rid"         gorm:"column:rid;primaryKey;autoIncrement"`
	UID        int64     `json:"uid"         gorm:"column:uid;index;not null"`
	PID        int64     `json:"pid"         gorm:"column:pid;index;not null"`
	Language   Language  `json:"language"    gorm:"type:smallint;not null"`
	Code       string    `json:"code"        gorm:"type:text"`
	SubmitTime time.Time `json:"submit_time"`
	Status     Status    `json:"status"      gorm:"type:smallint;not null"`
	RunTime    int       `json:"run_time"` // milliseconds
	UpdatedAt  time.Time `json:"-"         gorm:"autoUpdateTime"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }
