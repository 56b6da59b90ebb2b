package models

import "time"

// SessionType distinguishes regular sessions from make-up sessions.
type SessionType string

const (
	SessionTypeScheduled    SessionType = "SCHEDULED"
	SessionTypeCompensatory SessionType = "COMPENSATORY"
)

// ClassSessionEvent is a dated occurrence of a class. Sessions are never deleted; Cancelled only moves to true.
type ClassSessionEvent struct {
	ID          string      `db:"id" json:"id"`
	ClassID     string      `db:"class_id" json:"class_id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	Date        time.Time   `db:"date" json:"date"`
	Type        SessionType `db:"type" json:"type"`
	Cancelled   bool        `db:"cancelled" json:"cancelled"`
	CreatedBy   *string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// BusySession is a booked session of one of a teacher's classes along with its length.
type BusySession struct {
	ID              string    `db:"id"`
	ClassID         string    `db:"class_id"`
	Title           string    `db:"title"`
	Date            time.Time `db:"date"`
	SessionDuration int       `db:"session_duration"`
}
