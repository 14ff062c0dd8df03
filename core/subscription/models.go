package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
)

// Plans
const (
	PlanFreeTrial = "free_trial"
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
	PlanAnnual    = "annual"
)

// Statuses
const (
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusUnpaid   = "unpaid"
)

const (
	// signupTrialDays is the trial granted on church registration.
	signupTrialDays = 30
	// lateTrialDays is the trial granted when a church without a subscription
	// requests one explicitly.
	lateTrialDays = 60
)

var (
	// planDurations maps a paid plan to its billing period length in days.
	planDurations = map[string]int{
		PlanMonthly:   30,
		PlanQuarterly: 90,
		PlanAnnual:    365,
	}

	// planPrices are the fixed GHS amounts charged per period.
	planPrices = map[string]decimal.Decimal{
		PlanMonthly:   decimal.NewFromInt(50),
		PlanQuarterly: decimal.NewFromInt(150),
		PlanAnnual:    decimal.NewFromInt(500),
	}
)

// PlanDuration returns the billing period length in days for a paid plan.
func PlanDuration(plan string) (int, bool) {
	d, ok := planDurations[plan]
	return d, ok
}

type Subscription struct {
	ID               string    `json:"id"`
	ChurchID         string    `json:"church_id"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	TrialEndDate     core.Date `json:"trial_end_date"`
	CurrentPeriodEnd core.Date `json:"current_period_end"`
	GracePeriodEnd   core.Date `json:"grace_period_end,omitempty"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

// IsCurrent reports whether the subscription grants full access as of today.
func (s *Subscription) IsCurrent(today core.Date) bool {
	if s.Status != StatusTrialing && s.Status != StatusActive {
		return false
	}
	return !s.CurrentPeriodEnd.Before(today)
}

// DaysRemaining counts the days left in the trial (while trialing) or in the
// current billing period. Never negative.
func (s *Subscription) DaysRemaining(today core.Date) int {
	end := s.CurrentPeriodEnd
	if s.Status == StatusTrialing {
		end = s.TrialEndDate
	}
	if end.Before(today) {
		return 0
	}
	return today.DaysUntil(end)
}

// Info is the subscription status payload returned to clients.
type Info struct {
	Subscription
	ChurchName    string `json:"church_name,omitempty"`
	IsActive      bool   `json:"is_active"`
	DaysRemaining int    `json:"days_remaining"`
}

// InitiatePayment is the request to start a payment for a plan change/renewal.
type InitiatePayment struct {
	Plan        string `json:"plan" validate:"required,oneof=monthly quarterly annual"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
}

// VerifyPayment is the request to confirm a previously initiated payment.
type VerifyPayment struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Plan          string `json:"plan" validate:"required,oneof=monthly quarterly annual"`
}

// PaymentIntent is returned by the (stubbed) payment initiation.
type PaymentIntent struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id"`
	Plan          string          `json:"plan"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Message       string          `json:"message"`
}
