package subscription

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
)

var errBoom = errors.New("boom")

func TestCheckAccess(t *testing.T) {
	today := core.NewDate(2025, 6, 14)
	yesterday := today.AddDays(-1)
	nextWeek := today.AddDays(7)

	subs := map[string]Subscription{
		"trialing":        {Status: StatusTrialing, CurrentPeriodEnd: nextWeek},
		"active":          {Status: StatusActive, CurrentPeriodEnd: nextWeek},
		"active-lapsed":   {Status: StatusActive, CurrentPeriodEnd: yesterday},
		"trialing-lapsed": {Status: StatusTrialing, CurrentPeriodEnd: yesterday},
		"past-due":        {Status: StatusPastDue, CurrentPeriodEnd: nextWeek},
		"past-due-lapsed": {Status: StatusPastDue, CurrentPeriodEnd: yesterday},
		"canceled":        {Status: StatusCanceled, CurrentPeriodEnd: nextWeek},
		"unpaid":          {Status: StatusUnpaid, CurrentPeriodEnd: nextWeek},
		"unknown-status":  {Status: "lol", CurrentPeriodEnd: nextWeek},
		"unknown-lapsed":  {Status: "lol", CurrentPeriodEnd: yesterday},
		"ends-today":      {Status: StatusActive, CurrentPeriodEnd: today},
	}
	lookup := func(churchID string) (Subscription, error) {
		if sub, ok := subs[churchID]; ok {
			return sub, nil
		}
		return Subscription{}, ErrNotFound
	}

	tests := []struct {
		name      string
		method    string
		path      string
		churchID  string
		wantAllow bool
		wantCode  string
	}{
		// bypass prefixes are exempt in any state
		{name: "auth endpoints bypass", method: http.MethodPost, path: "/api/auth/login", churchID: "canceled", wantAllow: true},
		{name: "token refresh bypasses", method: http.MethodPost, path: "/api/auth/token/refresh", churchID: "unpaid", wantAllow: true},
		{name: "registration bypasses", method: http.MethodPost, path: "/api/church/register", wantAllow: true},
		{name: "static bypasses", method: http.MethodGet, path: "/static/logo.png", wantAllow: true},
		{name: "admin bypasses", method: http.MethodPost, path: "/admin/login", churchID: "canceled", wantAllow: true},

		// reads are never gated
		{name: "GET allowed when canceled", method: http.MethodGet, path: "/api/classes", churchID: "canceled", wantAllow: true},
		{name: "GET allowed when past due", method: http.MethodGet, path: "/api/classes", churchID: "past-due", wantAllow: true},
		{name: "GET allowed when lapsed", method: http.MethodGet, path: "/api/classes", churchID: "active-lapsed", wantAllow: true},

		// no tenant / no subscription
		{name: "no church id allowed", method: http.MethodPost, path: "/api/classes", wantAllow: true},
		{name: "missing subscription allowed", method: http.MethodPost, path: "/api/classes", churchID: "brand-new", wantAllow: true},

		// healthy states
		{name: "trialing write allowed", method: http.MethodPost, path: "/api/classes", churchID: "trialing", wantAllow: true},
		{name: "active write allowed", method: http.MethodPost, path: "/api/classes", churchID: "active", wantAllow: true},
		{name: "period ending today still allowed", method: http.MethodPost, path: "/api/classes", churchID: "ends-today", wantAllow: true},

		// terminal statuses win over everything
		{name: "canceled denied", method: http.MethodPost, path: "/api/classes", churchID: "canceled", wantCode: CodeTerminated},
		{name: "unpaid denied", method: http.MethodDelete, path: "/api/classes/1", churchID: "unpaid", wantCode: CodeTerminated},

		// past due before expiry
		{name: "past due denied", method: http.MethodPost, path: "/api/classes", churchID: "past-due", wantCode: CodePastDue},
		{name: "past due and lapsed reports past due", method: http.MethodPost, path: "/api/classes", churchID: "past-due-lapsed", wantCode: CodePastDue},

		// expiry before the active/trialing acceptance
		{name: "active but lapsed denied", method: http.MethodPut, path: "/api/classes/1", churchID: "active-lapsed", wantCode: CodeExpired},
		{name: "trialing but lapsed denied", method: http.MethodPost, path: "/api/attendance", churchID: "trialing-lapsed", wantCode: CodeExpired},
		{name: "unknown status lapsed reports expired", method: http.MethodPost, path: "/api/classes", churchID: "unknown-lapsed", wantCode: CodeExpired},

		// default deny
		{name: "unknown status denied", method: http.MethodPost, path: "/api/classes", churchID: "unknown-status", wantCode: CodeAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := RequestContext{Method: tt.method, Path: tt.path, ChurchID: tt.churchID}
			got, err := CheckAccess(req, lookup, today)
			if err != nil {
				t.Fatalf("CheckAccess() error = %v", err)
			}
			if got.Allow != tt.wantAllow {
				t.Errorf("CheckAccess() allow = %v, want %v", got.Allow, tt.wantAllow)
			}
			if got.Code != tt.wantCode {
				t.Errorf("CheckAccess() code = %q, want %q", got.Code, tt.wantCode)
			}
			if !got.Allow && (got.Error == "" || got.Message == "") {
				t.Error("CheckAccess() denial is missing error or message")
			}
		})
	}
}

func TestCheckAccess_lookupError(t *testing.T) {
	lookup := func(string) (Subscription, error) { return Subscription{}, errBoom }

	_, err := CheckAccess(RequestContext{Method: http.MethodPost, Path: "/api/classes", ChurchID: "ch"}, lookup, core.Today())
	if err != errBoom {
		t.Errorf("CheckAccess() error = %v, want %v", err, errBoom)
	}
}
