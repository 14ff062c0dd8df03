package subscription

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
)

type fakeRepo struct {
	subs map[string]Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[string]Subscription)}
}

func (r *fakeRepo) CreateSubscription(sub Subscription) (Subscription, error) {
	if _, ok := r.subs[sub.ChurchID]; ok {
		return Subscription{}, ErrAlreadyExists
	}
	sub.ID = sub.ChurchID + "-sub"
	r.subs[sub.ChurchID] = sub
	return sub, nil
}

func (r *fakeRepo) GetSubscriptionByChurchID(churchID string) (Subscription, error) {
	if sub, ok := r.subs[churchID]; ok {
		return sub, nil
	}
	return Subscription{}, ErrNotFound
}

func (r *fakeRepo) UpdateSubscription(sub Subscription) (Subscription, error) {
	if _, ok := r.subs[sub.ChurchID]; !ok {
		return Subscription{}, ErrNotFound
	}
	r.subs[sub.ChurchID] = sub
	return sub, nil
}

func TestService_StartTrial(t *testing.T) {
	svc := NewService(newFakeRepo())

	sub, err := svc.StartTrial("ch1")
	if err != nil {
		t.Fatalf("StartTrial() error = %v", err)
	}
	if sub.Plan != PlanFreeTrial {
		t.Errorf("plan = %s, want %s", sub.Plan, PlanFreeTrial)
	}
	if sub.Status != StatusTrialing {
		t.Errorf("status = %s, want %s", sub.Status, StatusTrialing)
	}
	want := core.Today().AddDays(30)
	if !sub.TrialEndDate.Equal(want) {
		t.Errorf("trial end = %s, want %s", sub.TrialEndDate, want)
	}
	if !sub.CurrentPeriodEnd.Equal(want) {
		t.Errorf("period end = %s, want %s", sub.CurrentPeriodEnd, want)
	}
}

func TestService_Create(t *testing.T) {
	svc := NewService(newFakeRepo())

	sub, err := svc.Create("ch1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// the late trial is longer than the signup one
	want := core.Today().AddDays(60)
	if !sub.TrialEndDate.Equal(want) {
		t.Errorf("trial end = %s, want %s", sub.TrialEndDate, want)
	}

	if _, err = svc.Create("ch1"); err != ErrAlreadyExists {
		t.Errorf("Create() error = %v, want %v", err, ErrAlreadyExists)
	}
}

func TestService_Status(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if _, err := svc.Status("nope"); err != ErrNotFound {
		t.Errorf("Status() error = %v, want %v", err, ErrNotFound)
	}

	today := core.Today()
	repo.subs["ch1"] = Subscription{ChurchID: "ch1", Status: StatusActive, CurrentPeriodEnd: today.AddDays(10)}
	repo.subs["ch2"] = Subscription{ChurchID: "ch2", Status: StatusTrialing, TrialEndDate: today.AddDays(5), CurrentPeriodEnd: today.AddDays(5)}
	repo.subs["ch3"] = Subscription{ChurchID: "ch3", Status: StatusActive, CurrentPeriodEnd: today.AddDays(-1)}

	tests := []struct {
		name       string
		churchID   string
		wantActive bool
		wantDays   int
	}{
		{name: "active", churchID: "ch1", wantActive: true, wantDays: 10},
		{name: "trialing counts trial days", churchID: "ch2", wantActive: true, wantDays: 5},
		{name: "lapsed", churchID: "ch3", wantActive: false, wantDays: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.Status(tt.churchID)
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			if info.IsActive != tt.wantActive {
				t.Errorf("IsActive = %v, want %v", info.IsActive, tt.wantActive)
			}
			if info.DaysRemaining != tt.wantDays {
				t.Errorf("DaysRemaining = %d, want %d", info.DaysRemaining, tt.wantDays)
			}
		})
	}
}

func TestService_InitiatePaymentIntent(t *testing.T) {
	svc := NewService(newFakeRepo())

	if _, err := svc.InitiatePaymentIntent(InitiatePayment{Plan: "lifetime"}); err != ErrInvalidPlan {
		t.Errorf("InitiatePaymentIntent() error = %v, want %v", err, ErrInvalidPlan)
	}

	tests := []struct {
		plan string
		want decimal.Decimal
	}{
		{plan: PlanMonthly, want: decimal.NewFromInt(50)},
		{plan: PlanQuarterly, want: decimal.NewFromInt(150)},
		{plan: PlanAnnual, want: decimal.NewFromInt(500)},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			intent, err := svc.InitiatePaymentIntent(InitiatePayment{Plan: tt.plan})
			if err != nil {
				t.Fatalf("InitiatePaymentIntent() error = %v", err)
			}
			if !intent.Success {
				t.Error("Success = false")
			}
			if !intent.Amount.Equal(tt.want) {
				t.Errorf("Amount = %s, want %s", intent.Amount, tt.want)
			}
			if intent.Currency != "GHS" {
				t.Errorf("Currency = %s, want GHS", intent.Currency)
			}
			if intent.TransactionID == "" {
				t.Error("TransactionID is empty")
			}
		})
	}
}

func TestService_VerifyAndActivate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if _, err := svc.VerifyAndActivate("ch1", VerifyPayment{TransactionID: "tx", Plan: "lifetime"}); err != ErrInvalidPlan {
		t.Errorf("VerifyAndActivate() error = %v, want %v", err, ErrInvalidPlan)
	}
	if _, err := svc.VerifyAndActivate("ch1", VerifyPayment{TransactionID: "tx", Plan: PlanMonthly}); err != ErrNotFound {
		t.Errorf("VerifyAndActivate() error = %v, want %v", err, ErrNotFound)
	}

	now := time.Now().UTC()
	repo.subs["ch1"] = Subscription{ChurchID: "ch1", Plan: PlanFreeTrial, Status: StatusTrialing, CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		plan     string
		wantDays int
	}{
		{plan: PlanMonthly, wantDays: 30},
		{plan: PlanQuarterly, wantDays: 90},
		{plan: PlanAnnual, wantDays: 365},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			sub, err := svc.VerifyAndActivate("ch1", VerifyPayment{TransactionID: "tx", Plan: tt.plan})
			if err != nil {
				t.Fatalf("VerifyAndActivate() error = %v", err)
			}
			if sub.Status != StatusActive {
				t.Errorf("status = %s, want %s", sub.Status, StatusActive)
			}
			if sub.Plan != tt.plan {
				t.Errorf("plan = %s, want %s", sub.Plan, tt.plan)
			}
			want := core.Today().AddDays(tt.wantDays)
			if !sub.CurrentPeriodEnd.Equal(want) {
				t.Errorf("period end = %s, want %s", sub.CurrentPeriodEnd, want)
			}
		})
	}
}
