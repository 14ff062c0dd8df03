package user

import (
	"time"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrPhoneExists        = errors.New("a user with this phone number already exists")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrLastSuperintendent = errors.New("cannot delete the last superintendent")
	ErrDifferentChurch    = errors.New("user belongs to a different church")
)

type (
	Repository interface {
		CheckPhoneUniqueness(phone string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByPhone(phone string) (User, error)
		// FilterUsers applies AND operation on the set QueryFilter fields.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(user User, isActive *bool) (User, error)
		SetOfficerStatus(user User) (User, error)
		CountActiveSuperintendents(churchID string, excludedIDs ...string) (int, error)
		DeleteUsersByID(ids ...string) error
	}

	ServiceInterface interface {
		CheckPhoneUniqueness(phone string, exclUsers ...User) error
		Create(churchID string, nu NewUser) (User, error)
		GetByID(id string) (User, error)
		GetByEmail(email string) (User, error)
		GetByPhone(phone string) (User, error)
		Filter(filter QueryFilter) ([]User, error)
		Update(id string, uu UpdateUser) (User, error)
		SetPassword(usr User, pwd string) (User, error)
		SetLastLogin(usr User) (User, error)
		Promote(id string) (User, error)
		Demote(id string) (User, error)
		Deactivate(id string) (User, error)
		Delete(ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckPhoneUniqueness(phone string, exclUsers ...User) error {
	if err := svc.repo.CheckPhoneUniqueness(phone, exclUsers...); err != nil {
		if err == ErrPhoneExists {
			return core.NewValidationError(err, core.FieldError{Field: "phone", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create registers a new user under a church. Teachers and members with no
// explicit password get their default one (derived from their phone number).
func (svc *Service) Create(churchID string, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ChurchID:  churchID,
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		IsOfficer: nu.IsOfficer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	pwd := nu.Password
	if pwd == "" {
		pwd = usr.DefaultPassword()
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByPhone(phone string) (User, error) {
	return svc.repo.GetUserByPhone(core.CleanPhone(phone))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		Phone:     uu.Phone,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) SetPassword(usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

// Promote marks a user as a church officer. The account is moved to the member
// role and reset to its default password so the officer can sign in by phone.
func (svc *Service) Promote(id string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	usr.Role = RoleMember
	usr.IsOfficer = true
	if err := usr.SetPassword(usr.DefaultPassword()); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.SetOfficerStatus(usr)
}

// Demote removes the officer flag, keeping the account.
func (svc *Service) Demote(id string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	usr.IsOfficer = false
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.SetOfficerStatus(usr)
}

// Deactivate soft deletes a user.
func (svc *Service) Deactivate(id string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	inactive := false
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, &inactive)
}

// Delete removes users permanently. A church's last active superintendent
// cannot be deleted.
func (svc *Service) Delete(ids ...string) error {
	for _, id := range ids {
		usr, err := svc.repo.GetUserByID(id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return err
		}
		if usr.IsSuperintendent() {
			count, err := svc.repo.CountActiveSuperintendents(usr.ChurchID, ids...)
			if err != nil {
				return errors.Wrap(err, "counting superintendents")
			}
			if count == 0 {
				return ErrLastSuperintendent
			}
		}
	}
	return svc.repo.DeleteUsersByID(ids...)
}
