package tests

import (
	"net/http"
	"testing"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	testutil "github.com/actionunitmanager/backend/tests"
)

func setSubscription(t *testing.T, churchID, status string, periodEnd core.Date) {
	t.Helper()
	sub, err := subRepo.GetSubscriptionByChurchID(churchID)
	if err != nil {
		t.Fatalf("setSubscription() failed: %v", err)
	}
	sub.Status = status
	sub.CurrentPeriodEnd = periodEnd
	if _, err = subRepo.UpdateSubscription(sub); err != nil {
		t.Fatalf("setSubscription() failed: %v", err)
	}
}

func Test_subscriptionGate(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	testutil.CreateUser(t, usrRepo, ch.ID, "Ama Owusu", "", "+233240000002", user.RoleMember, false, true)
	token := getToken(t, super)

	newClass := func(name string) []byte {
		return marchallObj(t, map[string]string{"name": name})
	}
	past := core.Today().AddDays(-1)
	future := core.Today().AddDays(10)

	deniedExpired := marchallObj(t, subscription.Decision{
		Error:   "Subscription period ended",
		Message: "Your subscription period has ended. Please renew to continue.",
		Code:    subscription.CodeExpired,
	})
	deniedPastDue := marchallObj(t, subscription.Decision{
		Error:   "Payment past due",
		Message: "Your payment is past due. Please update your payment method.",
		Code:    subscription.CodePastDue,
	})
	deniedTerminated := marchallObj(t, subscription.Decision{
		Error:   "Subscription terminated",
		Message: "Your subscription has been terminated. Please contact support.",
		Code:    subscription.CodeTerminated,
	})

	t.Run("Writes allowed without subscription", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", token, newClass("Berea"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Writes allowed while trialing", func(t *testing.T) {
		testutil.CreateSubscription(t, subRepo, ch.ID, subscription.PlanFreeTrial, subscription.StatusTrialing, future)

		req, rec := newAuthRequest(http.MethodPost, "/api/classes", token, newClass("Philadelphia"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	gated := []httpTest{
		{name: "Active but lapsed period", extra: subscription.StatusActive, wantData: deniedExpired},
		{name: "Trialing but lapsed period", extra: subscription.StatusTrialing, wantData: deniedExpired},
		{name: "Past due", extra: subscription.StatusPastDue, wantData: deniedPastDue},
		{name: "Canceled", extra: subscription.StatusCanceled, wantData: deniedTerminated},
		{name: "Unpaid", extra: subscription.StatusUnpaid, wantData: deniedTerminated},
	}
	for _, tt := range gated {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.extra.(string)
			end := future
			if status == subscription.StatusActive || status == subscription.StatusTrialing {
				end = past
			}
			setSubscription(t, ch.ID, status, end)

			tt.wantCode = http.StatusPaymentRequired
			req, rec := newAuthRequest(http.MethodPost, "/api/classes", token, newClass("Ephesus"))
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Reads always allowed", func(t *testing.T) {
		setSubscription(t, ch.ID, subscription.StatusCanceled, past)

		req, rec := newAuthRequest(http.MethodGet, "/api/classes", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Auth endpoints bypass the gate", func(t *testing.T) {
		setSubscription(t, ch.ID, subscription.StatusCanceled, past)

		body := marchallObj(t, map[string]string{"phone": "+233240000002"})
		req, rec := newRequest(http.MethodPost, "/api/auth/teacher-member-login", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Registration bypasses the gate", func(t *testing.T) {
		body := registrationBody(t, "Kumasi SDA", "kumasi@test.gh", "jane@test.gh", "+233240000009")
		req, rec := newRequest(http.MethodPost, "/api/church/register", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_subscriptionApi_status(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	token := getToken(t, super)

	t.Run("No subscription", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "No subscription found for this church"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/api/subscription/status", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("OK", func(t *testing.T) {
		testutil.CreateSubscription(t, subRepo, ch.ID, subscription.PlanMonthly, subscription.StatusActive, core.Today().AddDays(10))

		req, rec := newAuthRequest(http.MethodGet, "/api/subscription/status", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if plan := resp["plan"]; plan != subscription.PlanMonthly {
			t.Errorf("plan = %v; want %v", plan, subscription.PlanMonthly)
		}
		if active, _ := resp["is_active"].(bool); !active {
			t.Error("is_active = false; want true")
		}
		if days, _ := resp["days_remaining"].(float64); days != 10 {
			t.Errorf("days_remaining = %v; want 10", days)
		}
	})
}

func Test_subscriptionApi_create(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	token := getToken(t, super)

	t.Run("OK", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/create", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if plan := resp["plan"]; plan != subscription.PlanFreeTrial {
			t.Errorf("plan = %v; want %v", plan, subscription.PlanFreeTrial)
		}
		if status := resp["status"]; status != subscription.StatusTrialing {
			t.Errorf("status = %v; want %v", status, subscription.StatusTrialing)
		}

		// the late trial runs twice as long as the signup one
		sub, err := subSvc.GetByChurchID(ch.ID)
		if err != nil {
			t.Fatalf("GetByChurchID() failed: %v", err)
		}
		if days := core.Today().DaysUntil(sub.TrialEndDate); days != 60 {
			t.Errorf("trial days = %v; want 60", days)
		}
	})

	t.Run("Already exists", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Subscription already exists for this church"}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/create", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_subscriptionApi_payments(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	token := getToken(t, super)
	testutil.CreateSubscription(t, subRepo, ch.ID, subscription.PlanFreeTrial, subscription.StatusTrialing, core.Today().AddDays(10))

	t.Run("Initiate payment", func(t *testing.T) {
		body := marchallObj(t, subscription.InitiatePayment{Plan: subscription.PlanMonthly})
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/initiate-payment", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if ok, _ := resp["success"].(bool); !ok {
			t.Error("success = false; want true")
		}
		if amount := resp["amount"]; amount != "50" {
			t.Errorf("amount = %v; want 50", amount)
		}
		if cur := resp["currency"]; cur != "GHS" {
			t.Errorf("currency = %v; want GHS", cur)
		}
		if txID, _ := resp["transaction_id"].(string); txID == "" {
			t.Error("missing transaction_id")
		}
	})

	t.Run("Initiate payment with unknown plan", func(t *testing.T) {
		body := marchallObj(t, subscription.InitiatePayment{Plan: "lifetime"})
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/initiate-payment", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Verify payment", func(t *testing.T) {
		body := marchallObj(t, subscription.VerifyPayment{TransactionID: "MTN_123", Plan: subscription.PlanQuarterly})
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/verify-payment", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if ok, _ := resp["success"].(bool); !ok {
			t.Error("success = false; want true")
		}
		if msg := resp["message"]; msg != "Payment verified and subscription updated" {
			t.Errorf("message = %v", msg)
		}
		subData := resp["subscription"].(map[string]interface{})
		if status := subData["status"]; status != subscription.StatusActive {
			t.Errorf("subscription.status = %v; want %v", status, subscription.StatusActive)
		}

		sub, err := subSvc.GetByChurchID(ch.ID)
		if err != nil {
			t.Fatalf("GetByChurchID() failed: %v", err)
		}
		if sub.Plan != subscription.PlanQuarterly {
			t.Errorf("sub.Plan = %v; want %v", sub.Plan, subscription.PlanQuarterly)
		}
		if days := core.Today().DaysUntil(sub.CurrentPeriodEnd); days != 90 {
			t.Errorf("period days = %v; want 90", days)
		}
	})

	t.Run("Verify payment without subscription", func(t *testing.T) {
		ch2 := testutil.CreateChurch(t, churchRepo, "Kumasi SDA", "kumasi@test.gh")
		super2 := testutil.CreateUser(t, usrRepo, ch2.ID, "Jane Mensah", "jane@test.gh", "+233240000002", user.RoleSuperintendent, false, true)

		tt := httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "No subscription found for this church"}),
		}
		body := marchallObj(t, subscription.VerifyPayment{TransactionID: "MTN_456", Plan: subscription.PlanMonthly})
		req, rec := newAuthRequest(http.MethodPost, "/api/subscription/verify-payment", getToken(t, super2), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
