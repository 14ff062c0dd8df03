package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/actionunitmanager/backend/core"
)

// Absence reasons.
const (
	ReasonSick            = "sick"
	ReasonTraveling       = "traveling"
	ReasonWork            = "work"
	ReasonFamilyEmergency = "family_emergency"
	ReasonUnknown         = "unknown"
	ReasonOther           = "other"
)

// Record is a member's attendance for one date. One record exists per
// (membership, date) pair; re-marking overwrites it.
type Record struct {
	ID            string    `json:"id"`
	MembershipID  string    `json:"class_member"`
	Date          core.Date `json:"date"`
	IsPresent     bool      `json:"is_present"`
	AbsenceReason string    `json:"absence_reason,omitempty"`
	MarkedByID    string    `json:"marked_by"`
	MarkedAt      time.Time `json:"marked_at"` // UTC
}

// Mark is one attendance entry to record; part of a bulk mark request.
type Mark struct {
	MembershipID  string    `json:"class_member" validate:"required"`
	Date          core.Date `json:"date" validate:"required"`
	IsPresent     bool      `json:"is_present"`
	AbsenceReason string    `json:"absence_reason" validate:"omitempty,oneof=sick traveling work family_emergency unknown other"`
}

func (m *Mark) Validate(validate *validator.Validate) error {
	return validate.Struct(m)
}

// MarkResult reports the outcome of a bulk mark.
type MarkResult struct {
	Message string   `json:"message"`
	Records []Record `json:"attendances"`
	Created int      `json:"-"`
	Updated int      `json:"-"`
}

// AbsentMember is one row of the absent-members report.
type AbsentMember struct {
	UserID         string     `json:"id"`
	MembershipID   string     `json:"class_member_id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Location       string     `json:"location"`
	AbsenceReason  string     `json:"absence_reason"`
	LastAttendance *core.Date `json:"last_attendance"`
	AbsenceCount   int        `json:"absence_count"`
	ClassName      string     `json:"class_name"`
	Notes          string     `json:"notes"`
}

// ClassReport aggregates one class's attendance over a date range.
type ClassReport struct {
	ClassName      string         `json:"class_name"`
	TeacherName    string         `json:"teacher_name"`
	Date           string         `json:"date"`
	TotalMembers   int            `json:"total_members"`
	PresentCount   int            `json:"present_count"`
	AbsentCount    int            `json:"absent_count"`
	AttendanceRate float64        `json:"attendance_rate"`
	AbsentReasons  map[string]int `json:"absent_reasons"`
}

// AtRiskMember is one row of the at-risk analysis, ordered by score.
type AtRiskMember struct {
	UserID            string     `json:"member_id"`
	Name              string     `json:"member_name"`
	Phone             string     `json:"member_phone"`
	Location          string     `json:"member_location"`
	ClassName         string     `json:"class_name"`
	AttendanceRate    float64    `json:"attendance_rate"`
	TotalAbsences     int        `json:"total_absences"`
	RiskScore         int        `json:"risk_score"`
	RiskFactors       []string   `json:"risk_factors"`
	LastAttendance    *core.Date `json:"last_attendance"`
	DaysSinceLastSeen *int       `json:"days_since_last_attendance"`
}

// ReportFilter narrows report queries.
type ReportFilter struct {
	StartDate *core.Date
	EndDate   *core.Date
	ClassID   string
}
