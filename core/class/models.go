package class

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/actionunitmanager/backend/core"
)

// Class is an Action Unit (Sabbath School class) in a church.
type Class struct {
	ID          string    `json:"id"`
	ChurchID    string    `json:"-"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	MeetingTime string    `json:"meeting_time,omitempty"` // "HH:MM"
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"-"`          // UTC
}

// Assignment links a teacher to a class. At most one assignment is active per
// class and per teacher at any time.
type Assignment struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"class_id"`
	TeacherID    string    `json:"teacher_id"`
	AssignedDate core.Date `json:"assigned_date"`
	IsActive     bool      `json:"is_active"`
}

// Membership links a user to a class.
type Membership struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"action_unit_class"`
	UserID     string    `json:"user"`
	Location   string    `json:"location,omitempty"`
	JoinedDate core.Date `json:"joined_date"`
	IsActive   bool      `json:"is_active"`
}

// Detail is a class enriched with its active teacher and member count.
type Detail struct {
	Class
	TeacherName  string `json:"teacher_name"`
	TeacherPhone string `json:"teacher_phone,omitempty"`
	MemberCount  int    `json:"member_count"`
}

// MemberDetail is a membership enriched with user and class information.
type MemberDetail struct {
	Membership
	MemberName  string `json:"member_name"`
	MemberPhone string `json:"member_phone"`
	MemberEmail string `json:"member_email,omitempty"`
	ClassName   string `json:"class_name"`
}

// Stats are church-wide class statistics.
type Stats struct {
	TotalClasses  int `json:"total_classes"`
	TotalMembers  int `json:"total_members"`
	TotalTeachers int `json:"total_teachers"`
}

// NewClass contains information needed to create or update a class.
type NewClass struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location"`
	MeetingTime string `json:"meeting_time" validate:"omitempty,datetime=15:04"`
	Description string `json:"description"`
}

func (nc *NewClass) Validate(validate *validator.Validate, _ ut.Translator) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Location = core.CleanString(nc.Location)
	return validate.Struct(nc)
}

// AssignTeacher identifies a teacher and the class to place them in.
type AssignTeacher struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

func (at *AssignTeacher) Validate(validate *validator.Validate) error {
	return validate.Struct(at)
}

// NewMember contains information needed to add a member to a class; the user
// account is created on the fly when the phone number is unknown.
type NewMember struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	ClassID  string `json:"class_id" validate:"required"`
	Location string `json:"location"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Phone = core.CleanPhone(nm.Phone)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	return validate.Struct(nm)
}

// ImportMember is one row of a bulk import; classes are matched (or created)
// by name.
type ImportMember struct {
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone" validate:"required,phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	ClassName string `json:"class_name" validate:"required"`
	Location  string `json:"location"`
}

func (im *ImportMember) Validate(validate *validator.Validate) error {
	im.Name = core.CleanString(im.Name)
	im.Phone = core.CleanPhone(im.Phone)
	im.Email = core.CleanString(im.Email, true /* lower */)
	im.ClassName = core.CleanString(im.ClassName)
	return validate.Struct(im)
}

type (
	ImportSuccess struct {
		Index        int    `json:"index"`
		MemberID     string `json:"member_id"`
		UserID       string `json:"user_id"`
		ClassID      string `json:"class_id"`
		ClassCreated bool   `json:"class_created"`
		Message      string `json:"message"`
	}

	ImportFailure struct {
		Index int          `json:"index"`
		Data  ImportMember `json:"data"`
		Error string       `json:"error"`
	}

	ImportSummary struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	}

	ImportResult struct {
		Successful []ImportSuccess `json:"successful"`
		Failed     []ImportFailure `json:"failed"`
		Summary    ImportSummary   `json:"summary"`
	}
)
