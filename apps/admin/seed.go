package main

import (
	"fmt"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

// seed loads a demo church with two classes, an assigned teacher, a handful
// of members and a week of attendance. Safe to run once on a fresh database.
func (cli *commandLine) seed() error {
	res, err := cli.churchSvc.Register(church.Registration{
		Church: church.NewChurch{
			Name:         "Demo SDA Church",
			Email:        "demo@actionunitmanager.app",
			Phone:        "+233240000000",
			District:     "Accra Central",
			Country:      church.DefaultCountry,
			Denomination: church.DefaultDenomination,
		},
		Superintendent: church.NewSuperintendent{
			Name:     "Demo Superintendent",
			Email:    "super@actionunitmanager.app",
			Phone:    "+233240000001",
			Password: "ChangeMe123!",
		},
	})
	if err != nil {
		return err
	}
	churchID := res.Church.ID

	tchr, err := cli.usrSvc.Create(churchID, user.NewUser{
		Name:  "Kofi Mensah",
		Email: "kofi@actionunitmanager.app",
		Phone: "+233240000002",
		Role:  user.RoleTeacher,
	})
	if err != nil {
		return err
	}

	classes := []class.NewClass{
		{Name: "Berea", Location: "Main Hall", MeetingTime: "09:00"},
		{Name: "Philadelphia", Location: "Annex", MeetingTime: "09:00"},
	}
	var first class.Class
	for i, nc := range classes {
		cls, err := cli.clsSvc.Create(churchID, nc)
		if err != nil {
			return err
		}
		if i == 0 {
			first = cls
		}
	}

	if _, err = cli.clsSvc.AssignTeacher(churchID, class.AssignTeacher{
		TeacherID: tchr.ID,
		ClassID:   first.ID,
	}); err != nil {
		return err
	}

	members := []class.NewMember{
		{Name: "Ama Owusu", Phone: "+233240000003", ClassID: first.ID},
		{Name: "Yaw Boateng", Phone: "+233240000004", ClassID: first.ID},
		{Name: "Esi Asante", Phone: "+233240000005", ClassID: first.ID},
	}
	marks := make([]attendance.Mark, 0, len(members))
	for _, nm := range members {
		mbr, err := cli.clsSvc.AddMember(churchID, nm)
		if err != nil {
			return err
		}
		marks = append(marks, attendance.Mark{
			MembershipID: mbr.ID,
			Date:         core.Today(),
			IsPresent:    true,
		})
	}

	if _, err = cli.attSvc.BulkMark(churchID, tchr.ID, marks); err != nil {
		return err
	}

	fmt.Printf("seeded church %q (id=%s) with %d classes and %d members\n",
		res.Church.Name, churchID, len(classes), len(members))
	return nil
}
