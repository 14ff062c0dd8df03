package testutil

import (
	"testing"
	"time"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
)

func CreateChurch(t *testing.T, repo church.Repository, name, email string) church.Church {
	t.Helper()

	now := time.Now().UTC()
	ch, err := repo.CreateChurch(church.Church{
		Name:         name,
		Email:        email,
		Country:      church.DefaultCountry,
		Denomination: church.DefaultDenomination,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateChurch() failed: %v", err)
	}
	return ch
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	churchID, name, email, phone, role string,
	isOfficer, isActive bool,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ChurchID:  churchID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Role:      role,
		IsOfficer: isOfficer,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(usr.DefaultPassword()); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo class.Repository, churchID, name string) class.Class {
	t.Helper()

	now := time.Now().UTC()
	cls := class.Class{
		ChurchID:  churchID,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateClass(cls); err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	created, err := repo.GetClassByName(churchID, name)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return created
}

func CreateMembership(t *testing.T, repo class.Repository, classID, userID string) class.Membership {
	t.Helper()

	mbr := class.Membership{
		ClassID:    classID,
		UserID:     userID,
		JoinedDate: core.Today(),
		IsActive:   true,
	}
	if err := repo.CreateMembership(mbr); err != nil {
		t.Fatalf("CreateMembership() failed: %v", err)
	}
	created, err := repo.GetMembership(classID, userID)
	if err != nil {
		t.Fatalf("CreateMembership() failed: %v", err)
	}
	return created
}

func AssignTeacher(t *testing.T, repo class.Repository, classID, teacherID string) class.Assignment {
	t.Helper()

	asg := class.Assignment{
		ClassID:      classID,
		TeacherID:    teacherID,
		AssignedDate: core.Today(),
		IsActive:     true,
	}
	if err := repo.CreateAssignment(asg); err != nil {
		t.Fatalf("AssignTeacher() failed: %v", err)
	}
	created, err := repo.GetActiveAssignmentByClass(classID)
	if err != nil {
		t.Fatalf("AssignTeacher() failed: %v", err)
	}
	return created
}

func CreateSubscription(
	t *testing.T,
	repo subscription.Repository,
	churchID, plan, status string,
	periodEnd core.Date,
) subscription.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubscription(subscription.Subscription{
		ChurchID:         churchID,
		Plan:             plan,
		Status:           status,
		TrialEndDate:     periodEnd,
		CurrentPeriodEnd: periodEnd,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateSubscription() failed: %v", err)
	}
	return sub
}
