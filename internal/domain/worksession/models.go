package worksession

import "time"

const (
	SegmentWork  = "work"
	SegmentBreak = "break"

	BreakShort = "short"
	BreakLong  = "long"
	BreakLunch = "lunch"

	StatusNotStarted = "not_started"
	StatusWorking    = "working"
	StatusOnBreak    = "on_break"
	StatusEnded      = "ended"
)

type Segment struct {
	Type      string     `json:"type"`
	StartAt   time.Time  `json:"startAt"`
	EndAt     *time.Time `json:"endAt,omitempty"`
	BreakType string     `json:"breakType,omitempty"`
	Note      string     `json:"note,omitempty"`
}

func (s Segment) Open() bool {
	return s.EndAt == nil
}

// Session is one employee's working day. Status, StartTime, EndTime and the
// durations are derived from Segments and never stored on their own.
type Session struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	Date          string     `json:"date"`
	Status        string     `json:"status"`
	Segments      []Segment  `json:"segments"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	TotalDuration int        `json:"totalDuration"`
	BreakDuration int        `json:"breakDuration"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Filter struct {
	EmployeeID string
	Date       string
	StartDate  string
	EndDate    string
	Status     string
}
