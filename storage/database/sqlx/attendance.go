package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/attendance"
)

type attendanceRow struct {
	ID            string      `db:"id"`
	MembershipID  string      `db:"member_id"`
	Date          core.Date   `db:"date"`
	IsPresent     bool        `db:"is_present"`
	AbsenceReason null.String `db:"absence_reason"`
	MarkedByID    string      `db:"marked_by_id"`
	MarkedAt      time.Time   `db:"marked_at"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:            r.ID,
		MembershipID:  r.MembershipID,
		Date:          r.Date,
		IsPresent:     r.IsPresent,
		AbsenceReason: r.AbsenceReason.String,
		MarkedByID:    r.MarkedByID,
		MarkedAt:      r.MarkedAt,
	}
}

func newAttendanceRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:            rec.ID,
		MembershipID:  rec.MembershipID,
		Date:          rec.Date,
		IsPresent:     rec.IsPresent,
		AbsenceReason: null.NewString(rec.AbsenceReason, rec.AbsenceReason != ""),
		MarkedByID:    rec.MarkedByID,
		MarkedAt:      rec.MarkedAt,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateRecord(rec attendance.Record) error {
	rec.ID = uuid.NewString()
	row := newAttendanceRow(rec)
	_, err := repo.db.NamedExec(`
		INSERT INTO attendances (id, member_id, date, is_present, absence_reason, marked_by_id, marked_at)
		VALUES (:id, :member_id, :date, :is_present, :absence_reason, :marked_by_id, :marked_at)`,
		row,
	)
	return errors.Wrap(err, "creating attendance record")
}

func (repo *attendanceRepository) GetRecord(membershipID string, date core.Date) (attendance.Record, error) {
	var row attendanceRow
	err := repo.db.Get(&row, repo.db.Rebind(`SELECT * FROM attendances WHERE member_id = ? AND date = ?`), membershipID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) UpdateRecord(rec attendance.Record) error {
	row := newAttendanceRow(rec)
	_, err := repo.db.NamedExec(`
		UPDATE attendances
		SET is_present = :is_present, absence_reason = :absence_reason,
		    marked_by_id = :marked_by_id, marked_at = :marked_at
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating attendance record")
}

func (repo *attendanceRepository) FilterMemberRecords(membershipID string, start, end core.Date) ([]attendance.Record, error) {
	var rows []attendanceRow
	err := repo.db.Select(&rows, repo.db.Rebind(`
		SELECT * FROM attendances
		WHERE member_id = ? AND date BETWEEN ? AND ?
		ORDER BY date DESC`), membershipID, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) FilterClassRecords(classID string, filter attendance.ReportFilter) ([]attendance.Record, error) {
	query := `
		SELECT a.* FROM attendances a
		JOIN class_members cm ON cm.id = a.member_id
		WHERE cm.class_id = ?`
	args := []interface{}{classID}
	if filter.StartDate != nil {
		query += ` AND a.date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND a.date <= ?`
		args = append(args, *filter.EndDate)
	}
	query += ` ORDER BY a.date DESC`

	var rows []attendanceRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering class attendance")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) CountPresentByClass(classID string, date core.Date) (int, error) {
	var count int
	err := repo.db.Get(&count, repo.db.Rebind(`
		SELECT COUNT(*) FROM attendances a
		JOIN class_members cm ON cm.id = a.member_id
		WHERE cm.class_id = ? AND a.date = ? AND a.is_present`), classID, date)
	return count, errors.Wrap(err, "counting present members")
}

func (repo *attendanceRepository) CountPresentByChurch(churchID string, date core.Date) (int, error) {
	var count int
	err := repo.db.Get(&count, repo.db.Rebind(`
		SELECT COUNT(*) FROM attendances a
		JOIN class_members cm ON cm.id = a.member_id
		JOIN classes c ON c.id = cm.class_id
		WHERE c.church_id = ? AND a.date = ? AND a.is_present`), churchID, date)
	return count, errors.Wrap(err, "counting present members")
}
