package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core/church"
)

type churchRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Address      string    `db:"address"`
	District     string    `db:"district"`
	Country      string    `db:"country"`
	Denomination string    `db:"denomination"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r churchRow) church() church.Church {
	return church.Church(r)
}

type churchRepository struct {
	db *sqlx.DB
}

var _ church.Repository = (*churchRepository)(nil)

func NewChurchRepository(db *sqlx.DB) *churchRepository {
	return &churchRepository{db: db}
}

func (repo *churchRepository) CheckEmailUniqueness(email string) error {
	var count int
	err := repo.db.Get(&count, repo.db.Rebind(`SELECT COUNT(*) FROM churches WHERE lower(email) = lower(?)`), email)
	if err != nil {
		return errors.Wrap(err, "checking church email uniqueness")
	}
	if count > 0 {
		return church.ErrEmailExists
	}
	return nil
}

func (repo *churchRepository) CreateChurch(ch church.Church) (church.Church, error) {
	ch.ID = uuid.NewString()
	_, err := repo.db.Exec(repo.db.Rebind(`
		INSERT INTO churches (id, name, email, phone, address, district, country, denomination, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		ch.ID, ch.Name, ch.Email, ch.Phone, ch.Address, ch.District, ch.Country, ch.Denomination, ch.CreatedAt, ch.UpdatedAt,
	)
	if err != nil {
		return church.Church{}, errors.Wrap(err, "creating church")
	}
	return ch, nil
}

func (repo *churchRepository) GetChurchByID(id string) (church.Church, error) {
	var row churchRow
	err := repo.db.Get(&row, repo.db.Rebind(`SELECT * FROM churches WHERE id = ?`), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return church.Church{}, church.ErrNotFound
		}
		return church.Church{}, errors.Wrap(err, "getting church")
	}
	return row.church(), nil
}
