package dto

import "time"

// FreeSlot is a bookable interval on a specific date, in HH:MM.
type FreeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeSlotsQuery selects the date and minimum length of free slots.
type FreeSlotsQuery struct {
	TeacherID string
	Date      time.Time
	Duration  int `validate:"required,min=1,max=1440"`
}

// ScheduleSegment is a labelled run of a day in the weekly view.
type ScheduleSegment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	State string `json:"state"`
}

// WeeklyScheduleDay describes one day of the weekly view.
type WeeklyScheduleDay struct {
	DayOfWeek int               `json:"dayOfWeek"`
	Date      string            `json:"date"`
	Segments  []ScheduleSegment `json:"segments"`
}

// WeeklySchedule is seven consecutive days starting at From.
type WeeklySchedule struct {
	TeacherID string              `json:"teacherId"`
	From      string              `json:"from"`
	Days      []WeeklyScheduleDay `json:"days"`
}

// AvailabilitySlotRequest is one weekly window in a replacement set.
type AvailabilitySlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// ReplaceAvailabilityRequest swaps the teacher's full weekly availability.
type ReplaceAvailabilityRequest struct {
	Slots []AvailabilitySlotRequest `json:"slots" validate:"dive"`
}

// WeeklyAvailability is the teacher's current availability set.
type WeeklyAvailability struct {
	TeacherID string                    `json:"teacherId"`
	Version   int                       `json:"version"`
	Slots     []AvailabilitySlotRequest `json:"slots"`
}

// CreateExceptionRequest blocks a date fully (no times) or partially.
type CreateExceptionRequest struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime *string `json:"startTime" validate:"omitempty,len=5"`
	EndTime   *string `json:"endTime" validate:"omitempty,len=5"`
	Reason    string  `json:"reason" validate:"max=500"`
}

// ExceptionFilter narrows exception listings to a date range.
type ExceptionFilter struct {
	TeacherID string
	From      *time.Time
	To        *time.Time
}
