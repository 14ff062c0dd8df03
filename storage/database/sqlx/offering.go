package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/offering"
)

type offeringRow struct {
	ID           string          `db:"id"`
	ClassID      string          `db:"class_id"`
	Amount       decimal.Decimal `db:"amount"`
	Currency     string          `db:"currency"`
	Date         core.Date       `db:"date"`
	RecordedByID string          `db:"recorded_by_id"`
	Notes        string          `db:"notes"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r offeringRow) offering() offering.Offering {
	return offering.Offering(r)
}

type offeringRepository struct {
	db *sqlx.DB
}

var _ offering.Repository = (*offeringRepository)(nil)

func NewOfferingRepository(db *sqlx.DB) *offeringRepository {
	return &offeringRepository{db: db}
}

func (repo *offeringRepository) CreateOffering(off offering.Offering) (offering.Offering, error) {
	off.ID = uuid.NewString()
	row := offeringRow(off)
	_, err := repo.db.NamedExec(`
		INSERT INTO offerings (id, class_id, amount, currency, date, recorded_by_id, notes, created_at, updated_at)
		VALUES (:id, :class_id, :amount, :currency, :date, :recorded_by_id, :notes, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return offering.Offering{}, errors.Wrap(err, "creating offering")
	}
	return off, nil
}

func (repo *offeringRepository) GetOfferingByID(churchID, id string) (offering.Offering, error) {
	var row offeringRow
	err := repo.db.Get(&row, repo.db.Rebind(`
		SELECT o.* FROM offerings o
		JOIN classes c ON c.id = o.class_id
		WHERE c.church_id = ? AND o.id = ?`), churchID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return offering.Offering{}, offering.ErrNotFound
		}
		return offering.Offering{}, errors.Wrap(err, "getting offering")
	}
	return row.offering(), nil
}

func (repo *offeringRepository) selectOfferings(query string, args ...interface{}) ([]offering.Offering, error) {
	var rows []offeringRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering offerings")
	}
	offs := make([]offering.Offering, 0, len(rows))
	for _, row := range rows {
		offs = append(offs, row.offering())
	}
	return offs, nil
}

func dateBounds(query string, args []interface{}, col string, filter offering.Filter) (string, []interface{}) {
	if filter.StartDate != nil {
		query += ` AND ` + col + ` >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND ` + col + ` <= ?`
		args = append(args, *filter.EndDate)
	}
	return query, args
}

func (repo *offeringRepository) FilterClassOfferings(classID string, filter offering.Filter) ([]offering.Offering, error) {
	query := `SELECT * FROM offerings WHERE class_id = ?`
	args := []interface{}{classID}
	query, args = dateBounds(query, args, "date", filter)
	return repo.selectOfferings(query+` ORDER BY date DESC, created_at DESC`, args...)
}

func (repo *offeringRepository) FilterChurchOfferings(churchID string, filter offering.Filter) ([]offering.Offering, error) {
	query := `
		SELECT o.* FROM offerings o
		JOIN classes c ON c.id = o.class_id
		WHERE c.church_id = ?`
	args := []interface{}{churchID}
	query, args = dateBounds(query, args, "o.date", filter)
	if filter.ClassID != "" {
		query += ` AND o.class_id = ?`
		args = append(args, filter.ClassID)
	}
	return repo.selectOfferings(query+` ORDER BY o.date DESC, o.created_at DESC`, args...)
}

func (repo *offeringRepository) SumClassOfferings(classID string, start, end core.Date) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := repo.db.Get(&total, repo.db.Rebind(`
		SELECT COALESCE(SUM(amount), 0) FROM offerings
		WHERE class_id = ? AND date BETWEEN ? AND ?`), classID, start, end)
	return total, errors.Wrap(err, "summing offerings")
}
