package subscription

import (
	"net/http"
	"strings"

	"github.com/actionunitmanager/backend/core"
)

// Denial codes returned with HTTP 402 responses.
const (
	CodeTerminated   = "SUBSCRIPTION_TERMINATED"
	CodePastDue      = "PAYMENT_PAST_DUE"
	CodeExpired      = "SUBSCRIPTION_EXPIRED"
	CodeAccessDenied = "SUBSCRIPTION_ACCESS_DENIED"
)

// Path prefixes exempt from the gate. Authentication and registration must
// stay reachable for churches in any billing state.
var bypassPrefixes = []string{
	"/api/auth/",
	"/api/church/register",
	"/static/",
	"/admin/",
}

type (
	// RequestContext carries everything the gate needs to know about a request.
	// ChurchID is empty when the request is unauthenticated or the acting user
	// has no tenant (system admins).
	RequestContext struct {
		Method   string
		Path     string
		ChurchID string
	}

	// Decision is the outcome of a gate check. A denied decision carries the
	// structured payload sent back with HTTP 402.
	Decision struct {
		Allow   bool   `json:"-"`
		Error   string `json:"error,omitempty"`
		Message string `json:"message,omitempty"`
		Code    string `json:"code,omitempty"`
	}

	// Lookup resolves a church's subscription; it returns ErrNotFound when the
	// church has none.
	Lookup func(churchID string) (Subscription, error)
)

var allow = Decision{Allow: true}

func deny(errStr, message, code string) Decision {
	return Decision{Error: errStr, Message: message, Code: code}
}

// CheckAccess decides whether a request may proceed given the tenant's
// subscription state as of today.
//
// The ordering of the checks is a deliberate, externally observable policy:
// terminated and past-due statuses are rejected first, then period expiry is
// checked against the live current_period_end BEFORE the active/trialing
// acceptance. An active subscription whose period has lapsed is therefore
// still denied.
func CheckAccess(req RequestContext, lookup Lookup, today core.Date) (Decision, error) {
	// auth, registration, static and admin-console endpoints are exempt
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(req.Path, prefix) {
			return allow, nil
		}
	}

	// reads are allowed in every billing state
	if req.Method == http.MethodGet {
		return allow, nil
	}

	// no tenant: enforcement is deferred to the endpoint itself
	if req.ChurchID == "" {
		return allow, nil
	}

	sub, err := lookup(req.ChurchID)
	if err != nil {
		if err == ErrNotFound {
			// new church, not yet billed; a subscription is created on their
			// first write
			return allow, nil
		}
		return Decision{}, err
	}

	switch sub.Status {
	case StatusCanceled, StatusUnpaid:
		return deny(
			"Subscription terminated",
			"Your subscription has been terminated. Please contact support.",
			CodeTerminated,
		), nil
	case StatusPastDue:
		return deny(
			"Payment past due",
			"Your payment is past due. Please update your payment method.",
			CodePastDue,
		), nil
	}

	if sub.CurrentPeriodEnd.Before(today) {
		return deny(
			"Subscription period ended",
			"Your subscription period has ended. Please renew to continue.",
			CodeExpired,
		), nil
	}

	if sub.Status == StatusActive || sub.Status == StatusTrialing {
		return allow, nil
	}

	// default deny for any unhandled status
	return deny(
		"Subscription access denied",
		"Unable to verify subscription status.",
		CodeAccessDenied,
	), nil
}
