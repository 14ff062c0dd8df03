package inmem

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/actionunitmanager/backend/core/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]user.User
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]user.User)}
}

func (repo *UserRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.users = make(map[string]user.User)
}

func (repo *UserRepository) CheckPhoneUniqueness(phone string, excludedUsers ...user.User) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = true
	}
	for _, usr := range repo.users {
		if usr.Phone == phone && !excluded[usr.ID] {
			return user.ErrPhoneExists
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	usr.ID = uuid.NewString()
	repo.users[usr.ID] = usr
	return usr, nil
}

func (repo *UserRepository) GetUserByID(id string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if usr, ok := repo.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) GetUserByEmail(email string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, usr := range repo.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) GetUserByPhone(phone string) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, usr := range repo.users {
		if usr.Phone == phone {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var users []user.User
	for _, usr := range repo.users {
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
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (repo *UserRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	orig, ok := repo.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
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
	if len(usr.PasswordHash) > 0 {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	repo.users[orig.ID] = orig
	return orig, nil
}

func (repo *UserRepository) SetOfficerStatus(usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	orig, ok := repo.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	orig.Role = usr.Role
	orig.IsOfficer = usr.IsOfficer
	orig.PasswordHash = usr.PasswordHash
	orig.UpdatedAt = usr.UpdatedAt
	repo.users[orig.ID] = orig
	return orig, nil
}

func (repo *UserRepository) CountActiveSuperintendents(churchID string, excludedIDs ...string) (int, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	var count int
	for _, usr := range repo.users {
		if usr.ChurchID == churchID && usr.IsSuperintendent() && usr.IsActive && !excluded[usr.ID] {
			count++
		}
	}
	return count, nil
}

func (repo *UserRepository) DeleteUsersByID(ids ...string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, id := range ids {
		delete(repo.users, id)
	}
	return nil
}
