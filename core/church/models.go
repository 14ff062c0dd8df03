package church

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/actionunitmanager/backend/core"
)

const (
	DefaultCountry      = "Ghana"
	DefaultDenomination = "Seventh-day Adventist"
)

type Church struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	District     string    `json:"district,omitempty"`
	Country      string    `json:"country"`
	Denomination string    `json:"denomination"`
	CreatedAt    time.Time `json:"-"` // UTC
	UpdatedAt    time.Time `json:"-"` // UTC
}

// NewChurch contains information needed to register a new Church.
type NewChurch struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	Address      string `json:"address"`
	District     string `json:"district"`
	Country      string `json:"country"`
	Denomination string `json:"denomination"`
}

// NewSuperintendent is the initial superintendent account created alongside a
// Church.
type NewSuperintendent struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8"`
}

// Registration is the nested signup payload: church + superintendent.
type Registration struct {
	Church         NewChurch         `json:"church" validate:"required"`
	Superintendent NewSuperintendent `json:"superintendent" validate:"required"`
}

func (r *Registration) Validate(validate *validator.Validate, _ ut.Translator) error {
	r.Church.Name = core.CleanString(r.Church.Name)
	r.Church.Email = core.CleanString(r.Church.Email, true /* lower */)
	r.Church.Phone = core.CleanPhone(r.Church.Phone)
	r.Superintendent.Name = core.CleanString(r.Superintendent.Name)
	r.Superintendent.Email = core.CleanString(r.Superintendent.Email, true /* lower */)
	r.Superintendent.Phone = core.CleanPhone(r.Superintendent.Phone)

	if r.Church.Country == "" {
		r.Church.Country = DefaultCountry
	}
	if r.Church.Denomination == "" {
		r.Church.Denomination = DefaultDenomination
	}
	return validate.Struct(r)
}
