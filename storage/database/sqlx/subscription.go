package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/subscription"
)

type subscriptionRow struct {
	ID               string    `db:"id"`
	ChurchID         string    `db:"church_id"`
	Plan             string    `db:"plan"`
	Status           string    `db:"status"`
	TrialEndDate     core.Date `db:"trial_end_date"`
	CurrentPeriodEnd core.Date `db:"current_period_end"`
	GracePeriodEnd   core.Date `db:"grace_period_end"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r subscriptionRow) subscription() subscription.Subscription {
	return subscription.Subscription(r)
}

type subscriptionRepository struct {
	db *sqlx.DB
}

var _ subscription.Repository = (*subscriptionRepository)(nil)

func NewSubscriptionRepository(db *sqlx.DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (repo *subscriptionRepository) CreateSubscription(sub subscription.Subscription) (subscription.Subscription, error) {
	if _, err := repo.GetSubscriptionByChurchID(sub.ChurchID); err == nil {
		return subscription.Subscription{}, subscription.ErrAlreadyExists
	} else if errors.Cause(err) != subscription.ErrNotFound {
		return subscription.Subscription{}, err
	}

	sub.ID = uuid.NewString()
	row := subscriptionRow(sub)
	_, err := repo.db.NamedExec(`
		INSERT INTO subscriptions (id, church_id, plan, status, trial_end_date, current_period_end, grace_period_end, created_at, updated_at)
		VALUES (:id, :church_id, :plan, :status, :trial_end_date, :current_period_end, :grace_period_end, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "creating subscription")
	}
	return sub, nil
}

func (repo *subscriptionRepository) GetSubscriptionByChurchID(churchID string) (subscription.Subscription, error) {
	var row subscriptionRow
	err := repo.db.Get(&row, repo.db.Rebind(`SELECT * FROM subscriptions WHERE church_id = ?`), churchID)
	if err != nil {
		if err == sql.ErrNoRows {
			return subscription.Subscription{}, subscription.ErrNotFound
		}
		return subscription.Subscription{}, errors.Wrap(err, "getting subscription")
	}
	return row.subscription(), nil
}

func (repo *subscriptionRepository) UpdateSubscription(sub subscription.Subscription) (subscription.Subscription, error) {
	row := subscriptionRow(sub)
	res, err := repo.db.NamedExec(`
		UPDATE subscriptions
		SET plan = :plan, status = :status, trial_end_date = :trial_end_date,
		    current_period_end = :current_period_end, grace_period_end = :grace_period_end, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "updating subscription")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	return sub, nil
}
