package subscription

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
)

var (
	// errors
	ErrNotFound      = errors.New("no subscription found for this church")
	ErrAlreadyExists = errors.New("subscription already exists for this church")
	ErrInvalidPlan   = errors.New("invalid plan type")
)

type (
	Repository interface {
		// CreateSubscription persists a new subscription; at most one may exist
		// per church (ErrAlreadyExists otherwise).
		CreateSubscription(sub Subscription) (Subscription, error)
		GetSubscriptionByChurchID(churchID string) (Subscription, error)
		UpdateSubscription(sub Subscription) (Subscription, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StartTrial creates the free-trial subscription granted on church signup.
func (svc *Service) StartTrial(churchID string) (Subscription, error) {
	return svc.createTrial(churchID, signupTrialDays)
}

// Create provisions a trial for an existing church that has none yet.
func (svc *Service) Create(churchID string) (Subscription, error) {
	if _, err := svc.repo.GetSubscriptionByChurchID(churchID); err == nil {
		return Subscription{}, ErrAlreadyExists
	} else if err != ErrNotFound {
		return Subscription{}, errors.Wrap(err, "checking existing subscription")
	}
	return svc.createTrial(churchID, lateTrialDays)
}

func (svc *Service) createTrial(churchID string, days int) (Subscription, error) {
	now := time.Now().UTC()
	trialEnd := core.Today().AddDays(days)
	sub := Subscription{
		ChurchID:         churchID,
		Plan:             PlanFreeTrial,
		Status:           StatusTrialing,
		TrialEndDate:     trialEnd,
		CurrentPeriodEnd: trialEnd,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateSubscription(sub)
}

func (svc *Service) GetByChurchID(churchID string) (Subscription, error) {
	return svc.repo.GetSubscriptionByChurchID(churchID)
}

// Status returns the subscription with its computed activity fields.
func (svc *Service) Status(churchID string) (Info, error) {
	sub, err := svc.repo.GetSubscriptionByChurchID(churchID)
	if err != nil {
		return Info{}, err
	}
	today := core.Today()
	return Info{
		Subscription:  sub,
		IsActive:      sub.IsCurrent(today),
		DaysRemaining: sub.DaysRemaining(today),
	}, nil
}

// InitiatePaymentIntent starts a payment for a plan change or renewal.
// The mobile-money integration is stubbed: the intent always succeeds and the
// caller is expected to confirm it via VerifyAndActivate.
func (svc *Service) InitiatePaymentIntent(data InitiatePayment) (PaymentIntent, error) {
	price, ok := planPrices[data.Plan]
	if !ok {
		return PaymentIntent{}, ErrInvalidPlan
	}
	return PaymentIntent{
		Success:       true,
		TransactionID: fmt.Sprintf("MTN_%d", time.Now().Unix()),
		Plan:          data.Plan,
		Amount:        price,
		Currency:      "GHS",
		Message:       "Payment initiated successfully. Please check your phone to complete payment.",
	}, nil
}

// VerifyAndActivate confirms a payment and moves the subscription to active,
// pushing the current period end out by the plan's duration from today.
// Verification against the payment provider is stubbed and always succeeds.
func (svc *Service) VerifyAndActivate(churchID string, data VerifyPayment) (Subscription, error) {
	days, ok := PlanDuration(data.Plan)
	if !ok {
		return Subscription{}, ErrInvalidPlan
	}

	sub, err := svc.repo.GetSubscriptionByChurchID(churchID)
	if err != nil {
		return Subscription{}, err
	}

	sub.Plan = data.Plan
	sub.Status = StatusActive
	sub.CurrentPeriodEnd = core.Today().AddDays(days)
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubscription(sub)
}
