package inmem

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/offering"
)

type OfferingRepository struct {
	mu        sync.RWMutex
	offerings map[string]offering.Offering
	clsRepo   *ClassRepository
}

var _ offering.Repository = (*OfferingRepository)(nil)

func NewOfferingRepository(clsRepo *ClassRepository) *OfferingRepository {
	return &OfferingRepository{offerings: make(map[string]offering.Offering), clsRepo: clsRepo}
}

func (repo *OfferingRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.offerings = make(map[string]offering.Offering)
}

func (repo *OfferingRepository) CreateOffering(off offering.Offering) (offering.Offering, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	off.ID = uuid.NewString()
	repo.offerings[off.ID] = off
	return off, nil
}

func (repo *OfferingRepository) GetOfferingByID(churchID, id string) (offering.Offering, error) {
	repo.mu.RLock()
	off, ok := repo.offerings[id]
	repo.mu.RUnlock()
	if !ok {
		return offering.Offering{}, offering.ErrNotFound
	}
	if _, err := repo.clsRepo.GetClassByID(churchID, off.ClassID); err != nil {
		return offering.Offering{}, offering.ErrNotFound
	}
	return off, nil
}

func matchesFilter(off offering.Offering, filter offering.Filter) bool {
	if filter.StartDate != nil && off.Date.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && off.Date.After(*filter.EndDate) {
		return false
	}
	if filter.ClassID != "" && off.ClassID != filter.ClassID {
		return false
	}
	return true
}

func sortOfferings(offs []offering.Offering) {
	sort.Slice(offs, func(i, j int) bool {
		if offs[i].Date.Equal(offs[j].Date) {
			return offs[i].CreatedAt.After(offs[j].CreatedAt)
		}
		return offs[i].Date.After(offs[j].Date)
	})
}

func (repo *OfferingRepository) FilterClassOfferings(classID string, filter offering.Filter) ([]offering.Offering, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var offs []offering.Offering
	for _, off := range repo.offerings {
		if off.ClassID == classID && matchesFilter(off, filter) {
			offs = append(offs, off)
		}
	}
	sortOfferings(offs)
	return offs, nil
}

func (repo *OfferingRepository) FilterChurchOfferings(churchID string, filter offering.Filter) ([]offering.Offering, error) {
	classes, err := repo.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}
	inChurch := make(map[string]bool, len(classes))
	for _, cls := range classes {
		inChurch[cls.ID] = true
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var offs []offering.Offering
	for _, off := range repo.offerings {
		if inChurch[off.ClassID] && matchesFilter(off, filter) {
			offs = append(offs, off)
		}
	}
	sortOfferings(offs)
	return offs, nil
}

func (repo *OfferingRepository) SumClassOfferings(classID string, start, end core.Date) (decimal.Decimal, error) {
	offs, err := repo.FilterClassOfferings(classID, offering.Filter{StartDate: &start, EndDate: &end})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, off := range offs {
		total = total.Add(off.Amount)
	}
	return total, nil
}
