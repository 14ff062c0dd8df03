package offering

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

// ErrNotFound is returned when a requested offering does not exist.
var ErrNotFound = errors.New("offering not found")

type Repository interface {
	CreateOffering(off Offering) (Offering, error)
	GetOfferingByID(churchID, id string) (Offering, error)
	FilterClassOfferings(classID string, filter Filter) ([]Offering, error)
	FilterChurchOfferings(churchID string, filter Filter) ([]Offering, error)
	SumClassOfferings(classID string, start, end core.Date) (decimal.Decimal, error)
}

type Service struct {
	repo    Repository
	clsRepo class.Repository
	usrSvc  user.ServiceInterface
}

func NewService(repo Repository, clsRepo class.Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, clsRepo: clsRepo, usrSvc: usrSvc}
}

// Record stores an offering for a class.
func (svc *Service) Record(churchID, recordedByID string, no NewOffering) (Detail, error) {
	cls, err := svc.clsRepo.GetClassByID(churchID, no.ClassID)
	if err != nil {
		return Detail{}, err
	}

	now := time.Now().UTC()
	off := Offering{
		ClassID:      cls.ID,
		Amount:       no.Amount,
		Currency:     no.Currency,
		Date:         no.Date,
		RecordedByID: recordedByID,
		Notes:        no.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	off, err = svc.repo.CreateOffering(off)
	if err != nil {
		return Detail{}, errors.Wrap(err, "recording offering")
	}

	usr, err := svc.usrSvc.GetByID(recordedByID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Offering: off, ClassName: cls.Name, RecordedByName: usr.Name}, nil
}

// ListForClass returns a class's offerings, most recent first.
func (svc *Service) ListForClass(churchID, classID string) ([]Detail, error) {
	cls, err := svc.clsRepo.GetClassByID(churchID, classID)
	if err != nil {
		return nil, err
	}
	offs, err := svc.repo.FilterClassOfferings(classID, Filter{})
	if err != nil {
		return nil, err
	}
	return svc.details(offs, map[string]string{cls.ID: cls.Name})
}

// ListForTeacher returns the offerings of the teacher's assigned class.
func (svc *Service) ListForTeacher(churchID, teacherID string) ([]Detail, error) {
	asg, err := svc.clsRepo.GetActiveAssignmentByTeacher(teacherID)
	switch errors.Cause(err) {
	case nil:
		return svc.ListForClass(churchID, asg.ClassID)
	case class.ErrAssignmentNotFound:
		return []Detail{}, nil
	default:
		return nil, err
	}
}

// ListForChurch returns every offering in the church, most recent first.
func (svc *Service) ListForChurch(churchID string, filter Filter) ([]Detail, error) {
	offs, err := svc.repo.FilterChurchOfferings(churchID, filter)
	if err != nil {
		return nil, err
	}
	classes, err := svc.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(classes))
	for _, cls := range classes {
		names[cls.ID] = cls.Name
	}
	return svc.details(offs, names)
}

// MonthTotal sums a class's offerings from the first of the current month
// through today.
func (svc *Service) MonthTotal(classID string) (decimal.Decimal, error) {
	today := core.Today()
	monthStart := core.NewDate(today.Year(), today.Month(), 1)
	return svc.repo.SumClassOfferings(classID, monthStart, today)
}

// ClassTotals aggregates offerings per class over the filter's period,
// ordered by class name.
func (svc *Service) ClassTotals(churchID string, filter Filter) ([]ClassTotal, error) {
	offs, err := svc.repo.FilterChurchOfferings(churchID, filter)
	if err != nil {
		return nil, err
	}
	classes, err := svc.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}

	date := core.Today().String()
	if filter.StartDate != nil {
		date = filter.StartDate.String()
	}

	totalsByClass := map[string]decimal.Decimal{}
	for _, off := range offs {
		totalsByClass[off.ClassID] = totalsByClass[off.ClassID].Add(off.Amount)
	}

	totals := []ClassTotal{}
	for _, cls := range classes { // classes are ordered by name
		amount, ok := totalsByClass[cls.ID]
		if !ok {
			continue
		}
		totals = append(totals, ClassTotal{
			ClassName:   cls.Name,
			Date:        date,
			TotalAmount: amount,
			Trend:       "stable",
		})
	}
	return totals, nil
}

func (svc *Service) details(offs []Offering, classNames map[string]string) ([]Detail, error) {
	recorderNames := map[string]string{}
	dtls := make([]Detail, 0, len(offs))
	for _, off := range offs {
		name, ok := recorderNames[off.RecordedByID]
		if !ok {
			usr, err := svc.usrSvc.GetByID(off.RecordedByID)
			if err != nil {
				return nil, err
			}
			name = usr.Name
			recorderNames[off.RecordedByID] = name
		}
		dtls = append(dtls, Detail{
			Offering:       off,
			ClassName:      classNames[off.ClassID],
			RecordedByName: name,
		})
	}
	return dtls, nil
}
