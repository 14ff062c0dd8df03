package inmem

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/subscription"
)

type ChurchRepository struct {
	mu       sync.RWMutex
	churches map[string]church.Church
}

var _ church.Repository = (*ChurchRepository)(nil)

func NewChurchRepository() *ChurchRepository {
	return &ChurchRepository{churches: make(map[string]church.Church)}
}

func (repo *ChurchRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.churches = make(map[string]church.Church)
}

func (repo *ChurchRepository) CheckEmailUniqueness(email string) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, ch := range repo.churches {
		if strings.EqualFold(ch.Email, email) {
			return church.ErrEmailExists
		}
	}
	return nil
}

func (repo *ChurchRepository) CreateChurch(ch church.Church) (church.Church, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	ch.ID = uuid.NewString()
	repo.churches[ch.ID] = ch
	return ch, nil
}

func (repo *ChurchRepository) GetChurchByID(id string) (church.Church, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if ch, ok := repo.churches[id]; ok {
		return ch, nil
	}
	return church.Church{}, church.ErrNotFound
}

type SubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]subscription.Subscription // keyed by church ID
}

var _ subscription.Repository = (*SubscriptionRepository)(nil)

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{subs: make(map[string]subscription.Subscription)}
}

func (repo *SubscriptionRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.subs = make(map[string]subscription.Subscription)
}

func (repo *SubscriptionRepository) CreateSubscription(sub subscription.Subscription) (subscription.Subscription, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.subs[sub.ChurchID]; ok {
		return subscription.Subscription{}, subscription.ErrAlreadyExists
	}
	sub.ID = uuid.NewString()
	repo.subs[sub.ChurchID] = sub
	return sub, nil
}

func (repo *SubscriptionRepository) GetSubscriptionByChurchID(churchID string) (subscription.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if sub, ok := repo.subs[churchID]; ok {
		return sub, nil
	}
	return subscription.Subscription{}, subscription.ErrNotFound
}

func (repo *SubscriptionRepository) UpdateSubscription(sub subscription.Subscription) (subscription.Subscription, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.subs[sub.ChurchID]; !ok {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	repo.subs[sub.ChurchID] = sub
	return sub, nil
}
