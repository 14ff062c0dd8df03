package user

import (
	"strconv"
	"testing"

	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
)

type fakeRepo struct {
	users  map[string]User
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]User)}
}

func (r *fakeRepo) CheckPhoneUniqueness(phone string, excludedUsers ...User) error {
	excluded := make(map[string]bool, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = true
	}
	for _, usr := range r.users {
		if usr.Phone == phone && !excluded[usr.ID] {
			return ErrPhoneExists
		}
	}
	return nil
}

func (r *fakeRepo) CreateUser(usr User) (User, error) {
	r.nextID++
	usr.ID = strconv.Itoa(r.nextID)
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *fakeRepo) GetUserByID(id string) (User, error) {
	if usr, ok := r.users[id]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByEmail(email string) (User, error) {
	for _, usr := range r.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) GetUserByPhone(phone string) (User, error) {
	for _, usr := range r.users {
		if usr.Phone == phone {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *fakeRepo) FilterUsers(filter QueryFilter) ([]User, error) {
	var out []User
	for _, usr := range r.users {
		if filter.ChurchID != "" && usr.ChurchID != filter.ChurchID {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.IsOfficer != nil && usr.IsOfficer != *filter.IsOfficer {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, usr)
	}
	return out, nil
}

func (r *fakeRepo) UpdateUser(usr User, isActive *bool) (User, error) {
	orig, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Phone != "" {
		orig.Phone = usr.Phone
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = usr.UpdatedAt
	r.users[orig.ID] = orig
	return orig, nil
}

func (r *fakeRepo) SetOfficerStatus(usr User) (User, error) {
	orig, ok := r.users[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	orig.Role = usr.Role
	orig.IsOfficer = usr.IsOfficer
	orig.PasswordHash = usr.PasswordHash
	orig.UpdatedAt = usr.UpdatedAt
	r.users[orig.ID] = orig
	return orig, nil
}

func (r *fakeRepo) CountActiveSuperintendents(churchID string, excludedIDs ...string) (int, error) {
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	count := 0
	for _, usr := range r.users {
		if usr.ChurchID == churchID && usr.IsSuperintendent() && usr.IsActive && !excluded[usr.ID] {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) DeleteUsersByID(ids ...string) error {
	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

var _ Repository = (*fakeRepo)(nil)

type nopMailSvc struct{}

func (nopMailSvc) SendMessages(...*core.EmailMessage) {}

func TestService_Create(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nopMailSvc{})

	// no explicit password: the default one is derived from the phone number
	usr, err := svc.Create("ch1", NewUser{Name: "Ama", Phone: "+233241234567", Role: RoleMember})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !usr.IsActive {
		t.Error("new user is not active")
	}
	if err := usr.CheckPassword("234567"); err != nil {
		t.Error("default password not set from phone digits")
	}

	// explicit password wins
	usr, err = svc.Create("ch1", NewUser{Name: "Kwame", Phone: "+233241234568", Role: RoleSuperintendent, Password: "s3cretAF"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := usr.CheckPassword("s3cretAF"); err != nil {
		t.Error("explicit password not set")
	}
}

func TestService_PromoteDemote(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nopMailSvc{})

	usr, err := svc.Create("ch1", NewUser{Name: "Yaw", Phone: "+233241234567", Role: RoleTeacher, Password: "s3cretAF"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	promoted, err := svc.Promote(usr.ID)
	if err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if !promoted.IsOfficer {
		t.Error("IsOfficer = false after Promote()")
	}
	if promoted.Role != RoleMember {
		t.Errorf("role = %s, want %s", promoted.Role, RoleMember)
	}
	// promotion resets the account to its phone-derived password
	if err := promoted.CheckPassword("234567"); err != nil {
		t.Error("password not reset to default on Promote()")
	}

	demoted, err := svc.Demote(usr.ID)
	if err != nil {
		t.Fatalf("Demote() error = %v", err)
	}
	if demoted.IsOfficer {
		t.Error("IsOfficer = true after Demote()")
	}

	if _, err := svc.Promote("nope"); err != ErrNotFound {
		t.Errorf("Promote() error = %v, want %v", err, ErrNotFound)
	}
}

func TestService_Deactivate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nopMailSvc{})

	usr, err := svc.Create("ch1", NewUser{Name: "Esi", Phone: "+233241234567", Role: RoleMember})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deactivated, err := svc.Deactivate(usr.ID)
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if deactivated.IsActive {
		t.Error("IsActive = true after Deactivate()")
	}
}

func TestService_Delete_lastSuperintendent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nopMailSvc{})

	super, err := svc.Create("ch1", NewUser{Name: "Kofi", Phone: "+233241234567", Role: RoleSuperintendent, Password: "s3cretAF"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(super.ID); err != ErrLastSuperintendent {
		t.Errorf("Delete() error = %v, want %v", err, ErrLastSuperintendent)
	}

	// a second superintendent unblocks deletion
	if _, err := svc.Create("ch1", NewUser{Name: "Adwoa", Phone: "+233241234568", Role: RoleSuperintendent, Password: "s3cretAF"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Delete(super.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err := repo.GetUserByID(super.ID); err != ErrNotFound {
		t.Error("user was not deleted")
	}
}

func TestService_CheckPhoneUniqueness(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nopMailSvc{})

	usr, err := svc.Create("ch1", NewUser{Name: "Ama", Phone: "+233241234567", Role: RoleMember})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var vErr *core.ValidationError
	if err := svc.CheckPhoneUniqueness("+233241234567"); !errors.As(err, &vErr) {
		t.Errorf("CheckPhoneUniqueness() error = %v, want a validation error", err)
	}
	if err := svc.CheckPhoneUniqueness("+233241234567", usr); err != nil {
		t.Errorf("CheckPhoneUniqueness() with exclusion error = %v", err)
	}
}

func TestUser_DefaultPassword(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "ghana number", phone: "+233241234567", want: "234567"},
		{name: "local format", phone: "0241234567", want: "234567"},
		{name: "short number", phone: "12345", want: "12345"},
		{name: "no digits", phone: "", want: "123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{Phone: tt.phone}
			if got := usr.DefaultPassword(); got != tt.want {
				t.Errorf("DefaultPassword() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUser_Passwords(t *testing.T) {
	var usr User
	if err := usr.SetPassword("s3cret"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if err := usr.CheckPassword("s3cret"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
