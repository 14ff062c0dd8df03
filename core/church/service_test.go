package church_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	"github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/storage/database/inmem"
)

func setup(t *testing.T) (*church.Service, *subscription.Service, user.ServiceInterface) {
	t.Helper()
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(inmem.NewUserRepository(), mailSvc)
	subSvc := subscription.NewService(inmem.NewSubscriptionRepository())
	svc := church.NewService(inmem.NewChurchRepository(), usrSvc, subSvc, mailSvc)
	return svc, subSvc, usrSvc
}

func registration(chEmail string) church.Registration {
	return church.Registration{
		Church: church.NewChurch{
			Name:         "Accra Central SDA",
			Email:        chEmail,
			Country:      church.DefaultCountry,
			Denomination: church.DefaultDenomination,
		},
		Superintendent: church.NewSuperintendent{
			Name:     "John Mensah",
			Email:    "john@test.gh",
			Phone:    "+233240000001",
			Password: "Sup3rSecret!",
		},
	}
}

func TestService_Register(t *testing.T) {
	svc, subSvc, usrSvc := setup(t)

	res, err := svc.Register(registration("accra@test.gh"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Church.ID == "" {
		t.Error("church has no ID")
	}
	if res.Church.Denomination != church.DefaultDenomination {
		t.Errorf("Denomination = %q, want %q", res.Church.Denomination, church.DefaultDenomination)
	}

	super := res.Superintendent
	if !super.IsSuperintendent() {
		t.Errorf("superintendent role = %q", super.Role)
	}
	if super.ChurchID != res.Church.ID {
		t.Error("superintendent is not attached to the church")
	}
	if err = super.CheckPassword("Sup3rSecret!"); err != nil {
		t.Error("superintendent password was not set")
	}
	if _, err = usrSvc.GetByEmail("john@test.gh"); err != nil {
		t.Errorf("GetByEmail() error = %v", err)
	}

	// a 30-day free trial starts on signup
	sub, err := subSvc.GetByChurchID(res.Church.ID)
	if err != nil {
		t.Fatalf("GetByChurchID() error = %v", err)
	}
	if sub.Plan != subscription.PlanFreeTrial || sub.Status != subscription.StatusTrialing {
		t.Errorf("sub plan/status = %q/%q", sub.Plan, sub.Status)
	}
	if days := core.Today().DaysUntil(sub.TrialEndDate); days != 30 {
		t.Errorf("trial days = %d, want 30", days)
	}

	if _, err = svc.GetByID(res.Church.ID); err != nil {
		t.Errorf("GetByID() error = %v", err)
	}
}

func TestService_Register_duplicateEmail(t *testing.T) {
	svc, _, _ := setup(t)

	if _, err := svc.Register(registration("accra@test.gh")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reg := registration("accra@test.gh")
	reg.Superintendent.Email = "jane@test.gh"
	reg.Superintendent.Phone = "+233240000002"
	_, err := svc.Register(reg)

	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Register() error = %v, want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "church_email" {
		t.Errorf("Fields = %+v, want church_email", vErr.Fields)
	}
}
