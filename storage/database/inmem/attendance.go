package inmem

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
)

type AttendanceRepository struct {
	mu      sync.RWMutex
	records map[string]attendance.Record
	clsRepo *ClassRepository
}

var _ attendance.Repository = (*AttendanceRepository)(nil)

// NewAttendanceRepository needs the class repository to resolve memberships
// into classes and churches.
func NewAttendanceRepository(clsRepo *ClassRepository) *AttendanceRepository {
	return &AttendanceRepository{records: make(map[string]attendance.Record), clsRepo: clsRepo}
}

func (repo *AttendanceRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.records = make(map[string]attendance.Record)
}

func (repo *AttendanceRepository) CreateRecord(rec attendance.Record) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	rec.ID = uuid.NewString()
	repo.records[rec.ID] = rec
	return nil
}

func (repo *AttendanceRepository) GetRecord(membershipID string, date core.Date) (attendance.Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, rec := range repo.records {
		if rec.MembershipID == membershipID && rec.Date.Equal(date) {
			return rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *AttendanceRepository) UpdateRecord(rec attendance.Record) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.records[rec.ID]; !ok {
		return attendance.ErrRecordNotFound
	}
	repo.records[rec.ID] = rec
	return nil
}

func (repo *AttendanceRepository) FilterMemberRecords(membershipID string, start, end core.Date) ([]attendance.Record, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.records {
		if rec.MembershipID == membershipID && !rec.Date.Before(start) && !rec.Date.After(end) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}

func (repo *AttendanceRepository) FilterClassRecords(classID string, filter attendance.ReportFilter) ([]attendance.Record, error) {
	members, err := repo.clsRepo.FilterMemberships(classID, false)
	if err != nil {
		return nil, err
	}
	inClass := make(map[string]bool, len(members))
	for _, mbr := range members {
		inClass[mbr.ID] = true
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var recs []attendance.Record
	for _, rec := range repo.records {
		if !inClass[rec.MembershipID] {
			continue
		}
		if filter.StartDate != nil && rec.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rec.Date.After(*filter.EndDate) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.After(recs[j].Date) })
	return recs, nil
}

func (repo *AttendanceRepository) CountPresentByClass(classID string, date core.Date) (int, error) {
	recs, err := repo.FilterClassRecords(classID, attendance.ReportFilter{StartDate: &date, EndDate: &date})
	if err != nil {
		return 0, err
	}
	var count int
	for _, rec := range recs {
		if rec.IsPresent {
			count++
		}
	}
	return count, nil
}

func (repo *AttendanceRepository) CountPresentByChurch(churchID string, date core.Date) (int, error) {
	classes, err := repo.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return 0, err
	}
	var count int
	for _, cls := range classes {
		n, err := repo.CountPresentByClass(cls.ID, date)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}
