package class

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	// ErrNotFound is returned when a requested class does not exist in the church.
	ErrNotFound = errors.New("class not found")
	// ErrNameExists is returned on an attempt to create a duplicate class name
	// within a church.
	ErrNameExists = errors.New("a class with this name already exists")
	// ErrAssignmentNotFound is returned when a teacher has no active class assignment.
	ErrAssignmentNotFound = errors.New("no active class assignment found")
	// ErrMembershipNotFound is returned when a requested membership does not exist.
	ErrMembershipNotFound = errors.New("member not found")
	// ErrAlreadyMember is returned when the user already has an active membership
	// in the class.
	ErrAlreadyMember = errors.New("user is already an active member of this class")
)

// NotAssigned is the placeholder teacher name for classes without an active teacher.
const NotAssigned = "Not Assigned"

type Repository interface {
	CheckNameUniqueness(churchID, name string, excludedClasses ...Class) error
	CreateClass(class Class) error
	GetClassByID(churchID, id string) (Class, error)
	GetClassByName(churchID, name string) (Class, error)
	FilterClasses(churchID string, activeOnly bool) ([]Class, error)
	UpdateClass(class Class) error

	CreateAssignment(asg Assignment) error
	GetActiveAssignmentByClass(classID string) (Assignment, error)
	GetActiveAssignmentByTeacher(teacherID string) (Assignment, error)
	DeactivateAssignmentsByClass(classID string) error
	DeactivateAssignmentsByTeacher(teacherID string) error

	CreateMembership(mbr Membership) error
	GetMembershipByID(churchID, id string) (Membership, error)
	GetMembership(classID, userID string) (Membership, error)
	FilterMemberships(classID string, activeOnly bool) ([]Membership, error)
	FilterChurchMemberships(churchID string, activeOnly bool) ([]Membership, error)
	UpdateMembership(mbr Membership) error
	CountActiveMembers(classID string) (int, error)
}

type Service struct {
	repo   Repository
	usrSvc user.ServiceInterface
}

func NewService(repo Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// Create registers a new class in the church. Class names are unique within
// a church.
func (svc *Service) Create(churchID string, nc NewClass) (Class, error) {
	if err := svc.repo.CheckNameUniqueness(churchID, nc.Name); err != nil {
		return Class{}, err
	}

	now := time.Now().UTC()
	cls := Class{
		ChurchID:    churchID,
		Name:        nc.Name,
		Location:    nc.Location,
		MeetingTime: nc.MeetingTime,
		Description: nc.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.repo.CreateClass(cls); err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	return svc.repo.GetClassByName(churchID, nc.Name)
}

func (svc *Service) GetByID(churchID, id string) (Class, error) {
	return svc.repo.GetClassByID(churchID, id)
}

// Filter returns the church's classes; activeOnly narrows to active ones.
func (svc *Service) Filter(churchID string, activeOnly bool) ([]Class, error) {
	return svc.repo.FilterClasses(churchID, activeOnly)
}

func (svc *Service) Update(churchID, id string, nc NewClass) (Class, error) {
	cls, err := svc.repo.GetClassByID(churchID, id)
	if err != nil {
		return Class{}, err
	}
	if nc.Name != cls.Name {
		if err := svc.repo.CheckNameUniqueness(churchID, nc.Name, cls); err != nil {
			return Class{}, err
		}
	}

	cls.Name = nc.Name
	cls.Location = nc.Location
	cls.MeetingTime = nc.MeetingTime
	cls.Description = nc.Description
	cls.UpdatedAt = time.Now().UTC()
	if err := svc.repo.UpdateClass(cls); err != nil {
		return Class{}, errors.Wrap(err, "updating class")
	}
	return cls, nil
}

// Deactivate soft-deletes a class; its memberships and assignments are kept.
func (svc *Service) Deactivate(churchID, id string) error {
	cls, err := svc.repo.GetClassByID(churchID, id)
	if err != nil {
		return err
	}
	cls.IsActive = false
	cls.UpdatedAt = time.Now().UTC()
	return errors.Wrap(svc.repo.UpdateClass(cls), "deactivating class")
}

// Detail enriches a class with its active teacher and member count.
func (svc *Service) Detail(cls Class) (Detail, error) {
	dtl := Detail{Class: cls, TeacherName: NotAssigned}

	asg, err := svc.repo.GetActiveAssignmentByClass(cls.ID)
	switch errors.Cause(err) {
	case nil:
		tchr, err := svc.usrSvc.GetByID(asg.TeacherID)
		if err != nil {
			return Detail{}, err
		}
		dtl.TeacherName = tchr.Name
		dtl.TeacherPhone = tchr.Phone
	case ErrAssignmentNotFound:
	default:
		return Detail{}, err
	}

	count, err := svc.repo.CountActiveMembers(cls.ID)
	if err != nil {
		return Detail{}, err
	}
	dtl.MemberCount = count
	return dtl, nil
}

func (svc *Service) Details(classes []Class) ([]Detail, error) {
	dtls := make([]Detail, 0, len(classes))
	for _, cls := range classes {
		dtl, err := svc.Detail(cls)
		if err != nil {
			return nil, err
		}
		dtls = append(dtls, dtl)
	}
	return dtls, nil
}

// AssignTeacher places a teacher in charge of a class, replacing the class's
// current teacher if any. The teacher keeps any other assignment they hold.
func (svc *Service) AssignTeacher(churchID string, data AssignTeacher) (Assignment, error) {
	return svc.assign(churchID, data, false)
}

// ReassignTeacher moves a teacher to a class, releasing both the teacher's
// current assignment and the class's current teacher.
func (svc *Service) ReassignTeacher(churchID string, data AssignTeacher) (Assignment, error) {
	return svc.assign(churchID, data, true)
}

func (svc *Service) assign(churchID string, data AssignTeacher, releaseTeacher bool) (Assignment, error) {
	tchr, err := svc.usrSvc.GetByID(data.TeacherID)
	if err != nil {
		return Assignment{}, err
	}
	if tchr.ChurchID != churchID || !tchr.IsTeacher() {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{
			Field: "teacher_id", Error: "user is not a teacher in this church",
		})
	}
	if _, err = svc.repo.GetClassByID(churchID, data.ClassID); err != nil {
		return Assignment{}, err
	}

	if releaseTeacher {
		if err = svc.repo.DeactivateAssignmentsByTeacher(data.TeacherID); err != nil {
			return Assignment{}, errors.Wrap(err, "releasing teacher")
		}
	}
	if err = svc.repo.DeactivateAssignmentsByClass(data.ClassID); err != nil {
		return Assignment{}, errors.Wrap(err, "releasing class")
	}

	asg := Assignment{
		ClassID:      data.ClassID,
		TeacherID:    data.TeacherID,
		AssignedDate: core.Today(),
		IsActive:     true,
	}
	if err = svc.repo.CreateAssignment(asg); err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return svc.repo.GetActiveAssignmentByClass(data.ClassID)
}

// Stats summarizes a church's active classes for dashboards: class count,
// membership count and the number of distinct teachers currently assigned.
func (svc *Service) Stats(churchID string) (Stats, error) {
	classes, err := svc.repo.FilterClasses(churchID, true /* activeOnly */)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.TotalClasses = len(classes)
	teachers := make(map[string]struct{})
	for _, cls := range classes {
		count, err := svc.repo.CountActiveMembers(cls.ID)
		if err != nil {
			return Stats{}, err
		}
		stats.TotalMembers += count

		asg, err := svc.repo.GetActiveAssignmentByClass(cls.ID)
		switch errors.Cause(err) {
		case nil:
			teachers[asg.TeacherID] = struct{}{}
		case ErrAssignmentNotFound:
		default:
			return Stats{}, err
		}
	}
	stats.TotalTeachers = len(teachers)
	return stats, nil
}

// TeacherClass returns the class currently assigned to a teacher.
func (svc *Service) TeacherClass(teacherID string) (Class, error) {
	asg, err := svc.repo.GetActiveAssignmentByTeacher(teacherID)
	if err != nil {
		return Class{}, err
	}
	tchr, err := svc.usrSvc.GetByID(teacherID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.GetClassByID(tchr.ChurchID, asg.ClassID)
}

// AddMember places a member in a class. An unknown phone number creates a new
// member account with the default password; a known one in the same church
// reuses the account. An inactive membership in the class is reactivated.
func (svc *Service) AddMember(churchID string, nm NewMember) (MemberDetail, error) {
	cls, err := svc.repo.GetClassByID(churchID, nm.ClassID)
	if err != nil {
		return MemberDetail{}, err
	}

	usr, err := svc.usrSvc.GetByPhone(nm.Phone)
	switch errors.Cause(err) {
	case nil:
		if usr.ChurchID != churchID {
			return MemberDetail{}, core.NewValidationError(nil, core.FieldError{
				Field: "phone", Error: "this phone number is registered in another church",
			})
		}
	case user.ErrNotFound:
		usr, err = svc.usrSvc.Create(churchID, user.NewUser{
			Name:  nm.Name,
			Email: nm.Email,
			Phone: nm.Phone,
			Role:  user.RoleMember,
		})
		if err != nil {
			return MemberDetail{}, err
		}
	default:
		return MemberDetail{}, err
	}

	mbr, err := svc.repo.GetMembership(cls.ID, usr.ID)
	switch errors.Cause(err) {
	case nil:
		if mbr.IsActive {
			return MemberDetail{}, ErrAlreadyMember
		}
		mbr.IsActive = true
		mbr.Location = nm.Location
		if err = svc.repo.UpdateMembership(mbr); err != nil {
			return MemberDetail{}, errors.Wrap(err, "reactivating membership")
		}
	case ErrMembershipNotFound:
		mbr = Membership{
			ClassID:    cls.ID,
			UserID:     usr.ID,
			Location:   nm.Location,
			JoinedDate: core.Today(),
			IsActive:   true,
		}
		if err = svc.repo.CreateMembership(mbr); err != nil {
			return MemberDetail{}, errors.Wrap(err, "creating membership")
		}
		if mbr, err = svc.repo.GetMembership(cls.ID, usr.ID); err != nil {
			return MemberDetail{}, err
		}
	default:
		return MemberDetail{}, err
	}

	return MemberDetail{
		Membership:  mbr,
		MemberName:  usr.Name,
		MemberPhone: usr.Phone,
		MemberEmail: usr.Email,
		ClassName:   cls.Name,
	}, nil
}

// RemoveMember soft-deletes a membership.
func (svc *Service) RemoveMember(churchID, membershipID string) error {
	mbr, err := svc.repo.GetMembershipByID(churchID, membershipID)
	if err != nil {
		return err
	}
	mbr.IsActive = false
	return errors.Wrap(svc.repo.UpdateMembership(mbr), "removing member")
}

// Members returns the active members of a class, enriched with user details.
func (svc *Service) Members(churchID, classID string) ([]MemberDetail, error) {
	cls, err := svc.repo.GetClassByID(churchID, classID)
	if err != nil {
		return nil, err
	}
	mbrs, err := svc.repo.FilterMemberships(classID, true /* activeOnly */)
	if err != nil {
		return nil, err
	}
	return svc.memberDetails(mbrs, map[string]string{cls.ID: cls.Name})
}

// ChurchMembers returns every active membership in the church.
func (svc *Service) ChurchMembers(churchID string) ([]MemberDetail, error) {
	mbrs, err := svc.repo.FilterChurchMemberships(churchID, true /* activeOnly */)
	if err != nil {
		return nil, err
	}
	classes, err := svc.repo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(classes))
	for _, cls := range classes {
		names[cls.ID] = cls.Name
	}
	return svc.memberDetails(mbrs, names)
}

func (svc *Service) memberDetails(mbrs []Membership, classNames map[string]string) ([]MemberDetail, error) {
	dtls := make([]MemberDetail, 0, len(mbrs))
	for _, mbr := range mbrs {
		usr, err := svc.usrSvc.GetByID(mbr.UserID)
		if err != nil {
			return nil, err
		}
		dtls = append(dtls, MemberDetail{
			Membership:  mbr,
			MemberName:  usr.Name,
			MemberPhone: usr.Phone,
			MemberEmail: usr.Email,
			ClassName:   classNames[mbr.ClassID],
		})
	}
	return dtls, nil
}

// BulkImport adds members in batch, creating missing classes by name. Rows
// fail independently; the summary reports both outcomes.
func (svc *Service) BulkImport(churchID string, rows []ImportMember) (ImportResult, error) {
	res := ImportResult{
		Successful: []ImportSuccess{},
		Failed:     []ImportFailure{},
		Summary:    ImportSummary{Total: len(rows)},
	}

	for i, row := range rows {
		cls, created, err := svc.getOrCreateClass(churchID, row.ClassName)
		if err != nil {
			res.Failed = append(res.Failed, ImportFailure{Index: i, Data: row, Error: err.Error()})
			continue
		}
		dtl, err := svc.AddMember(churchID, NewMember{
			Name:     row.Name,
			Phone:    row.Phone,
			Email:    row.Email,
			ClassID:  cls.ID,
			Location: row.Location,
		})
		if err != nil {
			res.Failed = append(res.Failed, ImportFailure{Index: i, Data: row, Error: err.Error()})
			continue
		}
		res.Successful = append(res.Successful, ImportSuccess{
			Index:        i,
			MemberID:     dtl.ID,
			UserID:       dtl.UserID,
			ClassID:      cls.ID,
			ClassCreated: created,
			Message:      fmt.Sprintf("%s added to %s", row.Name, cls.Name),
		})
	}

	res.Summary.Successful = len(res.Successful)
	res.Summary.Failed = len(res.Failed)
	return res, nil
}

func (svc *Service) getOrCreateClass(churchID, name string) (Class, bool, error) {
	cls, err := svc.repo.GetClassByName(churchID, name)
	switch errors.Cause(err) {
	case nil:
		return cls, false, nil
	case ErrNotFound:
		cls, err = svc.Create(churchID, NewClass{Name: name})
		if err != nil {
			return Class{}, false, err
		}
		return cls, true, nil
	default:
		return Class{}, false, err
	}
}
