package inmem

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/actionunitmanager/backend/core/class"
)

type ClassRepository struct {
	mu          sync.RWMutex
	classes     map[string]class.Class
	assignments map[string]class.Assignment
	memberships map[string]class.Membership
}

var _ class.Repository = (*ClassRepository)(nil)

func NewClassRepository() *ClassRepository {
	repo := &ClassRepository{}
	repo.Clear()
	return repo
}

func (repo *ClassRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.classes = make(map[string]class.Class)
	repo.assignments = make(map[string]class.Assignment)
	repo.memberships = make(map[string]class.Membership)
}

func (repo *ClassRepository) CheckNameUniqueness(churchID, name string, excludedClasses ...class.Class) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedClasses))
	for _, cls := range excludedClasses {
		excluded[cls.ID] = true
	}
	for _, cls := range repo.classes {
		if cls.ChurchID == churchID && strings.EqualFold(cls.Name, name) && !excluded[cls.ID] {
			return class.ErrNameExists
		}
	}
	return nil
}

func (repo *ClassRepository) CreateClass(cls class.Class) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	cls.ID = uuid.NewString()
	repo.classes[cls.ID] = cls
	return nil
}

func (repo *ClassRepository) GetClassByID(churchID, id string) (class.Class, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if cls, ok := repo.classes[id]; ok && cls.ChurchID == churchID {
		return cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *ClassRepository) GetClassByName(churchID, name string) (class.Class, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, cls := range repo.classes {
		if cls.ChurchID == churchID && strings.EqualFold(cls.Name, name) {
			return cls, nil
		}
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *ClassRepository) FilterClasses(churchID string, activeOnly bool) ([]class.Class, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var classes []class.Class
	for _, cls := range repo.classes {
		if cls.ChurchID != churchID {
			continue
		}
		if activeOnly && !cls.IsActive {
			continue
		}
		classes = append(classes, cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *ClassRepository) UpdateClass(cls class.Class) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.classes[cls.ID]; !ok {
		return class.ErrNotFound
	}
	repo.classes[cls.ID] = cls
	return nil
}

func (repo *ClassRepository) CreateAssignment(asg class.Assignment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	asg.ID = uuid.NewString()
	repo.assignments[asg.ID] = asg
	return nil
}

func (repo *ClassRepository) GetActiveAssignmentByClass(classID string) (class.Assignment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, asg := range repo.assignments {
		if asg.ClassID == classID && asg.IsActive {
			return asg, nil
		}
	}
	return class.Assignment{}, class.ErrAssignmentNotFound
}

func (repo *ClassRepository) GetActiveAssignmentByTeacher(teacherID string) (class.Assignment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, asg := range repo.assignments {
		if asg.TeacherID == teacherID && asg.IsActive {
			return asg, nil
		}
	}
	return class.Assignment{}, class.ErrAssignmentNotFound
}

func (repo *ClassRepository) DeactivateAssignmentsByClass(classID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for id, asg := range repo.assignments {
		if asg.ClassID == classID {
			asg.IsActive = false
			repo.assignments[id] = asg
		}
	}
	return nil
}

func (repo *ClassRepository) DeactivateAssignmentsByTeacher(teacherID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for id, asg := range repo.assignments {
		if asg.TeacherID == teacherID {
			asg.IsActive = false
			repo.assignments[id] = asg
		}
	}
	return nil
}

func (repo *ClassRepository) CreateMembership(mbr class.Membership) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	mbr.ID = uuid.NewString()
	repo.memberships[mbr.ID] = mbr
	return nil
}

func (repo *ClassRepository) GetMembershipByID(churchID, id string) (class.Membership, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	mbr, ok := repo.memberships[id]
	if !ok {
		return class.Membership{}, class.ErrMembershipNotFound
	}
	if cls, ok := repo.classes[mbr.ClassID]; !ok || cls.ChurchID != churchID {
		return class.Membership{}, class.ErrMembershipNotFound
	}
	return mbr, nil
}

func (repo *ClassRepository) GetMembership(classID, userID string) (class.Membership, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, mbr := range repo.memberships {
		if mbr.ClassID == classID && mbr.UserID == userID {
			return mbr, nil
		}
	}
	return class.Membership{}, class.ErrMembershipNotFound
}

func (repo *ClassRepository) FilterMemberships(classID string, activeOnly bool) ([]class.Membership, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var mbrs []class.Membership
	for _, mbr := range repo.memberships {
		if mbr.ClassID != classID {
			continue
		}
		if activeOnly && !mbr.IsActive {
			continue
		}
		mbrs = append(mbrs, mbr)
	}
	sortMemberships(mbrs)
	return mbrs, nil
}

func (repo *ClassRepository) FilterChurchMemberships(churchID string, activeOnly bool) ([]class.Membership, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var mbrs []class.Membership
	for _, mbr := range repo.memberships {
		cls, ok := repo.classes[mbr.ClassID]
		if !ok || cls.ChurchID != churchID {
			continue
		}
		if activeOnly && !mbr.IsActive {
			continue
		}
		mbrs = append(mbrs, mbr)
	}
	sortMemberships(mbrs)
	return mbrs, nil
}

func sortMemberships(mbrs []class.Membership) {
	sort.Slice(mbrs, func(i, j int) bool {
		if mbrs[i].JoinedDate.Equal(mbrs[j].JoinedDate) {
			return mbrs[i].ID < mbrs[j].ID
		}
		return mbrs[i].JoinedDate.Before(mbrs[j].JoinedDate)
	})
}

func (repo *ClassRepository) UpdateMembership(mbr class.Membership) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.memberships[mbr.ID]; !ok {
		return class.ErrMembershipNotFound
	}
	repo.memberships[mbr.ID] = mbr
	return nil
}

func (repo *ClassRepository) CountActiveMembers(classID string) (int, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var count int
	for _, mbr := range repo.memberships {
		if mbr.ClassID == classID && mbr.IsActive {
			count++
		}
	}
	return count, nil
}
