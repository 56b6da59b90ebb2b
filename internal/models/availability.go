package models

import "time"

// AvailabilitySet is one immutable version of a teacher's weekly availability.
type AvailabilitySet struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAvailability is a recurring weekly window. DayOfWeek follows time.Weekday (0 = Sunday).
type TeacherAvailability struct {
	ID        string `db:"id" json:"id"`
	SetID     string `db:"set_id" json:"set_id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// AvailabilityException blocks a date, either fully (no times) or for a time range.
type AvailabilityException struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string   `db:"end_time" json:"end_time,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullDay reports whether the exception blocks the whole date.
func (e AvailabilityException) FullDay() bool {
	return e.StartTime == nil && e.EndTime == nil
}
