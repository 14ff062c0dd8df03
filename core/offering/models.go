package offering

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
)

// Supported currencies.
const (
	CurrencyGHS = "GHS"
	CurrencyUSD = "USD"
)

// Offering is a monetary collection recorded for a class on a given date.
type Offering struct {
	ID           string          `json:"id"`
	ClassID      string          `json:"action_unit_class"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Date         core.Date       `json:"date"`
	RecordedByID string          `json:"recorded_by"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"` // UTC
	UpdatedAt    time.Time       `json:"-"`          // UTC
}

// Detail is an offering enriched with class and recorder names.
type Detail struct {
	Offering
	ClassName      string `json:"class_name"`
	RecordedByName string `json:"recorded_by_name"`
}

// NewOffering contains information needed to record an offering.
type NewOffering struct {
	ClassID  string          `json:"action_unit_class" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Currency string          `json:"currency" validate:"omitempty,oneof=GHS USD"`
	Date     core.Date       `json:"date" validate:"required"`
	Notes    string          `json:"notes"`
}

func (no *NewOffering) Validate(validate *validator.Validate) error {
	no.Notes = core.CleanString(no.Notes)
	if no.Currency == "" {
		no.Currency = CurrencyGHS
	}
	if err := validate.Struct(no); err != nil {
		return err
	}
	if !no.Amount.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{
			Field: "amount", Error: "amount must be greater than zero",
		})
	}
	return nil
}

// ClassTotal aggregates a class's offerings over a period.
type ClassTotal struct {
	ClassName       string          `json:"class_name"`
	Date            string          `json:"date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Trend           string          `json:"trend"`
	TrendPercentage float64         `json:"trend_percentage"`
}

// Filter narrows offering queries.
type Filter struct {
	StartDate *core.Date
	EndDate   *core.Date
	ClassID   string
}
