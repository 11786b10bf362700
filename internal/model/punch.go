package model

import "time"

// Punch is a single timestamp record marking the start of work on a project.
// The stored timestamp is the record key; Timestamp may differ from Key once
// rounding is applied on load.
type Punch struct {
	Key         time.Time `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
	Project     string    `json:"project"`
	Description string    `json:"description,omitempty"`

	// Derived by the workday builder, never persisted.
	Duration float64 `json:"-"`
	IsBreak  bool    `json:"-"`
	IsLast   bool    `json:"-"`
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string  `json:"date"`
	Punches []Punch `json:"punches"`
}

// WorkSegment is a maximal run of punches sharing the same break status.
// End is nil while the segment is still open.
type WorkSegment struct {
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end,omitempty"`
	IsBreak bool       `json:"is_break"`
	Project string     `json:"project"`
	Icon    string     `json:"icon"`
}

// Hours returns the closed length of the segment in hours, or 0 while open.
func (s WorkSegment) Hours() float64 {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start).Hours()
}

// TicketTime is the time booked against one ticket number within a project.
type TicketTime struct {
	Ticket      string  `json:"ticket" yaml:"ticket"`
	Duration    float64 `json:"duration" yaml:"duration"`
	Description string  `json:"description" yaml:"description"`
}

// ProjectTime aggregates the hours of one project.
type ProjectTime struct {
	Project     string       `json:"project" yaml:"project"`
	Duration    float64      `json:"duration" yaml:"duration"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Tickets     []TicketTime `json:"tickets,omitempty" yaml:"tickets,omitempty"`
}

// Workday is the derived view of a single calendar day.
type Workday struct {
	Date         time.Time     `json:"date"`
	Punches      []Punch       `json:"punches"`
	TotalHours   float64       `json:"total_hours"`
	Balance      float64       `json:"balance"`
	ProjectTimes []ProjectTime `json:"project_times"`
	WorkSegments []WorkSegment `json:"work_segments"`
}

// WorkWeek aggregates the workdays of one Monday-based week. Days are stored
// most recent first.
type WorkWeek struct {
	FirstDay     time.Time     `json:"first_day"`
	Days         []Workday     `json:"days"`
	TotalHours   float64       `json:"total_hours"`
	Balance      float64       `json:"balance"`
	ProjectTimes []ProjectTime `json:"project_times"`
}
