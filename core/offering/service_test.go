package offering_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/offering"
	"github.com/actionunitmanager/backend/core/user"
	"github.com/actionunitmanager/backend/services/email"
	"github.com/actionunitmanager/backend/storage/database/inmem"
	"github.com/actionunitmanager/backend/tests"
)

type fixture struct {
	svc     *offering.Service
	clsRepo *inmem.ClassRepository
	usrRepo *inmem.UserRepository
	super   user.User
	teacher user.User
	cls     class.Class
}

func setup(t *testing.T) fixture {
	t.Helper()
	clsRepo := inmem.NewClassRepository()
	usrRepo := inmem.NewUserRepository()
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock())
	svc := offering.NewService(inmem.NewOfferingRepository(clsRepo), clsRepo, usrSvc)

	super := testutil.CreateUser(t, usrRepo, "ch1", "John", "john@test.gh", "+233240000000", user.RoleSuperintendent, false, true)
	tchr := testutil.CreateUser(t, usrRepo, "ch1", "Kofi", "kofi@test.gh", "+233240000001", user.RoleTeacher, false, true)
	cls := testutil.CreateClass(t, clsRepo, "ch1", "Berea")
	testutil.AssignTeacher(t, clsRepo, cls.ID, tchr.ID)

	return fixture{svc: svc, clsRepo: clsRepo, usrRepo: usrRepo, super: super, teacher: tchr, cls: cls}
}

func (f fixture) record(t *testing.T, classID string, amount int64, date core.Date) offering.Detail {
	t.Helper()
	dtl, err := f.svc.Record("ch1", f.super.ID, offering.NewOffering{
		ClassID:  classID,
		Amount:   decimal.NewFromInt(amount),
		Currency: offering.CurrencyGHS,
		Date:     date,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return dtl
}

func TestService_Record(t *testing.T) {
	f := setup(t)

	dtl := f.record(t, f.cls.ID, 120, core.Today())
	if dtl.ID == "" {
		t.Error("offering has no ID")
	}
	if dtl.ClassName != "Berea" {
		t.Errorf("ClassName = %q, want Berea", dtl.ClassName)
	}
	if dtl.RecordedByName != "John" {
		t.Errorf("RecordedByName = %q, want John", dtl.RecordedByName)
	}
	if !dtl.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Amount = %s, want 120", dtl.Amount)
	}

	_, err := f.svc.Record("ch1", f.super.ID, offering.NewOffering{
		ClassID: "nope", Amount: decimal.NewFromInt(10), Date: core.Today(),
	})
	if errors.Cause(err) != class.ErrNotFound {
		t.Errorf("Record(unknown class) error = %v, want %v", err, class.ErrNotFound)
	}
}

func TestService_Lists(t *testing.T) {
	f := setup(t)
	cls2 := testutil.CreateClass(t, f.clsRepo, "ch1", "Philadelphia")
	today := core.Today()

	f.record(t, f.cls.ID, 50, today.AddDays(-7))
	f.record(t, f.cls.ID, 80, today)
	f.record(t, cls2.ID, 30, today)

	dtls, err := f.svc.ListForClass("ch1", f.cls.ID)
	if err != nil {
		t.Fatalf("ListForClass() error = %v", err)
	}
	if len(dtls) != 2 {
		t.Fatalf("ListForClass() returned %d offerings, want 2", len(dtls))
	}
	// most recent first
	if !dtls[0].Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("first amount = %s, want 80", dtls[0].Amount)
	}

	dtls, err = f.svc.ListForTeacher("ch1", f.teacher.ID)
	if err != nil {
		t.Fatalf("ListForTeacher() error = %v", err)
	}
	if len(dtls) != 2 {
		t.Errorf("ListForTeacher() returned %d offerings, want 2", len(dtls))
	}

	// a teacher without an assigned class has nothing to list
	other := testutil.CreateUser(t, f.usrRepo, "ch1", "Abena", "", "+233240000002", user.RoleTeacher, false, true)
	dtls, err = f.svc.ListForTeacher("ch1", other.ID)
	if err != nil {
		t.Fatalf("ListForTeacher() error = %v", err)
	}
	if len(dtls) != 0 {
		t.Errorf("ListForTeacher(unassigned) returned %d offerings, want 0", len(dtls))
	}

	dtls, err = f.svc.ListForChurch("ch1", offering.Filter{})
	if err != nil {
		t.Fatalf("ListForChurch() error = %v", err)
	}
	if len(dtls) != 3 {
		t.Errorf("ListForChurch() returned %d offerings, want 3", len(dtls))
	}
}

func TestService_MonthTotal(t *testing.T) {
	f := setup(t)
	today := core.Today()

	f.record(t, f.cls.ID, 50, today)
	f.record(t, f.cls.ID, 25, today)
	f.record(t, f.cls.ID, 999, today.AddDays(-40)) // previous month

	total, err := f.svc.MonthTotal(f.cls.ID)
	if err != nil {
		t.Fatalf("MonthTotal() error = %v", err)
	}
	if !total.Equal(decimal.NewFromInt(75)) {
		t.Errorf("MonthTotal() = %s, want 75", total)
	}
}

func TestService_ClassTotals(t *testing.T) {
	f := setup(t)
	cls2 := testutil.CreateClass(t, f.clsRepo, "ch1", "Antioch")
	testutil.CreateClass(t, f.clsRepo, "ch1", "Zion") // no offerings
	today := core.Today()

	f.record(t, f.cls.ID, 50, today)
	f.record(t, f.cls.ID, 30, today.AddDays(-1))
	f.record(t, cls2.ID, 20, today)

	totals, err := f.svc.ClassTotals("ch1", offering.Filter{})
	if err != nil {
		t.Fatalf("ClassTotals() error = %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("ClassTotals() returned %d rows, want 2", len(totals))
	}
	// ordered by class name; classes without offerings are skipped
	if totals[0].ClassName != "Antioch" || totals[1].ClassName != "Berea" {
		t.Errorf("order = %q, %q; want Antioch, Berea", totals[0].ClassName, totals[1].ClassName)
	}
	if !totals[0].TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Antioch total = %s, want 20", totals[0].TotalAmount)
	}
	if !totals[1].TotalAmount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("Berea total = %s, want 80", totals[1].TotalAmount)
	}
	if totals[0].Trend != "stable" {
		t.Errorf("Trend = %q, want stable", totals[0].Trend)
	}
}
