package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/actionunitmanager/backend/core"
)

// Roles
const (
	RoleSuperintendent = "superintendent"
	RoleTeacher        = "teacher"
	RoleMember         = "member"
	RoleSystemAdmin    = "system_admin"
)

var (
	AllRoles = []string{RoleSuperintendent, RoleTeacher, RoleMember, RoleSystemAdmin}

	Roles = []Role{
		{Name: "Superintendent", Value: RoleSuperintendent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Member", Value: RoleMember},
		{Name: "System Administrator", Value: RoleSystemAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	ChurchID     string    `json:"church_id,omitempty"` // empty for system admins
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	IsOfficer    bool      `json:"is_officer"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"date_joined"` // UTC
	UpdatedAt    time.Time `json:"-"`           // UTC
	LastLogin    time.Time `json:"last_login"`  // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperintendent() bool { return u.Role == RoleSuperintendent }
func (u *User) IsTeacher() bool        { return u.Role == RoleTeacher }
func (u *User) IsMember() bool         { return u.Role == RoleMember }
func (u *User) IsSystemAdmin() bool    { return u.Role == RoleSystemAdmin }

// DefaultPassword derives the login password handed to teachers and members:
// the last 6 digits of their phone number.
func (u *User) DefaultPassword() string {
	digits := core.PhoneDigits(u.Phone)
	if len(digits) >= 6 {
		return digits[len(digits)-6:]
	}
	if digits != "" {
		return digits
	}
	return "123456"
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Role      string `json:"role" validate:"required,oneof=superintendent teacher member system_admin"`
	IsOfficer bool   `json:"is_officer"`
	Password  string `json:"password" validate:"omitempty"`
}

func (nu *NewUser) Validate(validate *validator.Validate, _ ut.Translator, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanPhone(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckPhoneUniqueness(nu.Phone)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	IsActive *bool  `json:"is_active"`
	Password string `json:"password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	phone := core.CleanPhone(uu.Phone)
	if phone != "" {
		uu.Phone = phone
	} else {
		uu.Phone = origUsr.Phone
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Phone != origUsr.Phone {
		return svc.CheckPhoneUniqueness(uu.Phone)
	}
	return nil
}

type QueryFilter struct {
	ChurchID  string
	Role      string
	IsOfficer *bool
	IsActive  *bool
}
