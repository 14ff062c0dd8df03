package tests

import (
	"net/http"
	"testing"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
	testutil "github.com/actionunitmanager/backend/tests"
)

func registrationBody(t *testing.T, chName, chEmail, supEmail, supPhone string) []byte {
	return marchallObj(t, church.Registration{
		Church: church.NewChurch{
			Name:  chName,
			Email: chEmail,
		},
		Superintendent: church.NewSuperintendent{
			Name:     "John Mensah",
			Email:    supEmail,
			Phone:    supPhone,
			Password: "Sup3rSecret!",
		},
	})
}

func Test_authApi_register(t *testing.T) {
	resetRepos()

	body := registrationBody(t, "Accra Central SDA", "accra@test.gh", "john@test.gh", "+233240000001")
	req, rec := newRequest(http.MethodPost, "/api/church/register", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	resp := unmarchallMap(t, rec.Body.Bytes())
	if tok, _ := resp["access"].(string); tok == "" {
		t.Error("missing access token")
	}
	if tok, _ := resp["refresh"].(string); tok == "" {
		t.Error("missing refresh token")
	}
	usrData := resp["user"].(map[string]interface{})
	if role := usrData["role"]; role != user.RoleSuperintendent {
		t.Errorf("user.role = %v; want %v", role, user.RoleSuperintendent)
	}
	chData := resp["church"].(map[string]interface{})
	if name := chData["name"]; name != "Accra Central SDA" {
		t.Errorf("church.name = %v; want Accra Central SDA", name)
	}

	// a free trial starts on registration
	sub, err := subSvc.GetByChurchID(chData["id"].(string))
	if err != nil {
		t.Fatalf("GetByChurchID() failed: %v", err)
	}
	if sub.Plan != subscription.PlanFreeTrial {
		t.Errorf("sub.Plan = %v; want %v", sub.Plan, subscription.PlanFreeTrial)
	}
	if sub.Status != subscription.StatusTrialing {
		t.Errorf("sub.Status = %v; want %v", sub.Status, subscription.StatusTrialing)
	}
	if days := core.Today().DaysUntil(sub.TrialEndDate); days != 30 {
		t.Errorf("trial days = %v; want 30", days)
	}

	tests := []httpTest{
		{
			name:     "Duplicate church email",
			body:     registrationBody(t, "Another Church", "accra@test.gh", "jane@test.gh", "+233240000002"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"church_email": "a church with this email already exists"}),
		},
		{
			name:     "Duplicate superintendent phone",
			body:     registrationBody(t, "Kumasi SDA", "kumasi@test.gh", "jane@test.gh", "+233240000001"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone": "a user with this phone number already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/church/register", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Short password", func(t *testing.T) {
		body := marchallObj(t, church.Registration{
			Church:         church.NewChurch{Name: "Tema SDA", Email: "tema@test.gh"},
			Superintendent: church.NewSuperintendent{Name: "Jane", Email: "jane@test.gh", Phone: "+233240000003", Password: "short"},
		})
		req, rec := newRequest(http.MethodPost, "/api/church/register", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_authApi_superintendentLogin(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	testutil.CreateUser(t, usrRepo, ch.ID, "Ama Owusu", "ama@test.gh", "+233240000002", user.RoleMember, false, true)
	testutil.CreateUser(t, usrRepo, ch.ID, "Yaw Boateng", "yaw@test.gh", "+233240000003", user.RoleSuperintendent, false, false)

	login := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}
	pwd := super.DefaultPassword()

	tests := []httpTest{
		{
			name: "Unknown email", body: login("nobody@test.gh", pwd), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "No superintendent found with this email address."}),
		},
		{
			name: "Not a superintendent", body: login("ama@test.gh", pwd), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "This email is not registered as a superintendent."}),
		},
		{
			name: "Disabled account", body: login("yaw@test.gh", "000003"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Account is disabled. Please contact support."}),
		},
		{
			name: "Bad password", body: login("john@test.gh", "wrong-pwd"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Invalid password."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/superintendent-login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("OK without subscription", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/superintendent-login", login("john@test.gh", pwd))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if tok, _ := resp["access"].(string); tok == "" {
			t.Error("missing access token")
		}
		subData := resp["subscription"].(map[string]interface{})
		if status := subData["status"]; status != subscription.StatusTrialing {
			t.Errorf("subscription.status = %v; want %v", status, subscription.StatusTrialing)
		}
		if plan := subData["plan"]; plan != subscription.PlanFreeTrial {
			t.Errorf("subscription.plan = %v; want %v", plan, subscription.PlanFreeTrial)
		}
	})

	t.Run("OK with subscription", func(t *testing.T) {
		testutil.CreateSubscription(t, subRepo, ch.ID, subscription.PlanMonthly, subscription.StatusActive, core.Today().AddDays(10))

		req, rec := newRequest(http.MethodPost, "/api/auth/superintendent-login", login("john@test.gh", pwd))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		subData := resp["subscription"].(map[string]interface{})
		if plan := subData["plan"]; plan != subscription.PlanMonthly {
			t.Errorf("subscription.plan = %v; want %v", plan, subscription.PlanMonthly)
		}
		if status := subData["status"]; status != subscription.StatusActive {
			t.Errorf("subscription.status = %v; want %v", status, subscription.StatusActive)
		}
	})
}

func Test_authApi_teacherMemberLogin(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	teacher := testutil.CreateUser(t, usrRepo, ch.ID, "Kofi Mensah", "kofi@test.gh", "+233240000002", user.RoleTeacher, false, true)
	member := testutil.CreateUser(t, usrRepo, ch.ID, "Ama Owusu", "", "+233240000003", user.RoleMember, false, true)
	testutil.CreateUser(t, usrRepo, ch.ID, "Esi Asante", "", "+233240000004", user.RoleMember, false, false)

	cls := testutil.CreateClass(t, clsRepo, ch.ID, "Berea")
	testutil.AssignTeacher(t, clsRepo, cls.ID, teacher.ID)

	login := func(phone string) []byte {
		return marchallObj(t, map[string]string{"phone": phone})
	}

	tests := []httpTest{
		{
			name: "Unknown phone", body: login("+233249999999"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "No teacher, member, or officer found with this phone number."}),
		},
		{
			name: "Superintendent phone rejected", body: login("+233240000001"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "No teacher, member, or officer found with this phone number."}),
		},
		{
			name: "Disabled account", body: login("+233240000004"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Account disabled."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/teacher-member-login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Teacher gets assigned class", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/teacher-member-login", login("+233240000002"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		clsData, ok := resp["assigned_class"].(map[string]interface{})
		if !ok {
			t.Fatal("missing assigned_class")
		}
		if name := clsData["name"]; name != "Berea" {
			t.Errorf("assigned_class.name = %v; want Berea", name)
		}
	})

	t.Run("Member login resets default password", func(t *testing.T) {
		// scramble the password; a phone login must restore the default one
		if _, err := usrSvc.SetPassword(member, "something-else"); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}

		req, rec := newRequest(http.MethodPost, "/api/auth/teacher-member-login", login("+233240000003"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if _, ok := resp["assigned_class"]; ok {
			t.Error("member should not get assigned_class")
		}

		usr, err := usrRepo.GetUserByPhone("+233240000003")
		if err != nil {
			t.Fatalf("GetUserByPhone() failed: %v", err)
		}
		if err = usr.CheckPassword(usr.DefaultPassword()); err != nil {
			t.Error("password was not reset to the default one")
		}
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)
	inactive := testutil.CreateUser(t, usrRepo, ch.ID, "Yaw Boateng", "yaw@test.gh", "+233240000002", user.RoleSuperintendent, false, false)

	body := func(refresh string) []byte {
		return marchallObj(t, map[string]string{"refresh": refresh})
	}
	errExpired := marchallObj(t, httpErr{Error: "refresh has expired"})

	tests := []httpTest{
		{name: "Access token rejected", body: body(getToken(t, super)), wantCode: http.StatusForbidden, wantData: errExpired},
		{name: "Garbage token", body: body("not-a-token"), wantCode: http.StatusForbidden, wantData: errExpired},
		{
			name: "Inactive user", body: body(getRefreshToken(t, inactive)), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/token/refresh", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("OK", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/token/refresh", body(getRefreshToken(t, super)))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		if tok, _ := resp["access"].(string); tok == "" {
			t.Error("missing access token")
		}
	})
}

func Test_authApi_me(t *testing.T) {
	resetRepos()

	ch := testutil.CreateChurch(t, churchRepo, "Accra Central SDA", "accra@test.gh")
	super := testutil.CreateUser(t, usrRepo, ch.ID, "John Mensah", "john@test.gh", "+233240000001", user.RoleSuperintendent, false, true)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/api/auth/me")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("OK", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", getToken(t, super))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
		resp := unmarchallMap(t, rec.Body.Bytes())
		usrData := resp["user"].(map[string]interface{})
		if id := usrData["id"]; id != super.ID {
			t.Errorf("user.id = %v; want %v", id, super.ID)
		}
		chData := resp["church"].(map[string]interface{})
		if id := chData["id"]; id != ch.ID {
			t.Errorf("church.id = %v; want %v", id, ch.ID)
		}
	})
}
