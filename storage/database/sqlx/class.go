package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
)

type classRow struct {
	ID          string    `db:"id"`
	ChurchID    string    `db:"church_id"`
	Name        string    `db:"name"`
	Location    string    `db:"location"`
	MeetingTime string    `db:"meeting_time"`
	Description string    `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r classRow) class() class.Class {
	return class.Class(r)
}

type assignmentRow struct {
	ID           string    `db:"id"`
	ClassID      string    `db:"class_id"`
	TeacherID    string    `db:"teacher_id"`
	AssignedDate core.Date `db:"assigned_date"`
	IsActive     bool      `db:"is_active"`
}

func (r assignmentRow) assignment() class.Assignment {
	return class.Assignment(r)
}

type membershipRow struct {
	ID         string    `db:"id"`
	ClassID    string    `db:"class_id"`
	UserID     string    `db:"user_id"`
	Location   string    `db:"location"`
	JoinedDate core.Date `db:"joined_date"`
	IsActive   bool      `db:"is_active"`
}

func (r membershipRow) membership() class.Membership {
	return class.Membership(r)
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckNameUniqueness(churchID, name string, excludedClasses ...class.Class) error {
	query := `SELECT COUNT(*) FROM classes WHERE church_id = ? AND lower(name) = lower(?)`
	args := []interface{}{churchID, name}
	if len(excludedClasses) > 0 {
		ids := make([]string, 0, len(excludedClasses))
		for _, cls := range excludedClasses {
			ids = append(ids, cls.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, churchID, name, ids); err != nil {
			return errors.Wrap(err, "building query")
		}
	}

	var count int
	if err := repo.db.Get(&count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking class name uniqueness")
	}
	if count > 0 {
		return class.ErrNameExists
	}
	return nil
}

func (repo *classRepository) CreateClass(cls class.Class) error {
	cls.ID = uuid.NewString()
	row := classRow(cls)
	_, err := repo.db.NamedExec(`
		INSERT INTO classes (id, church_id, name, location, meeting_time, description, is_active, created_at, updated_at)
		VALUES (:id, :church_id, :name, :location, :meeting_time, :description, :is_active, :created_at, :updated_at)`,
		row,
	)
	return errors.Wrap(err, "creating class")
}

func (repo *classRepository) getClass(query string, args ...interface{}) (class.Class, error) {
	var row classRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "getting class")
	}
	return row.class(), nil
}

func (repo *classRepository) GetClassByID(churchID, id string) (class.Class, error) {
	return repo.getClass(`SELECT * FROM classes WHERE church_id = ? AND id = ?`, churchID, id)
}

func (repo *classRepository) GetClassByName(churchID, name string) (class.Class, error) {
	return repo.getClass(`SELECT * FROM classes WHERE church_id = ? AND lower(name) = lower(?)`, churchID, name)
}

func (repo *classRepository) FilterClasses(churchID string, activeOnly bool) ([]class.Class, error) {
	query := `SELECT * FROM classes WHERE church_id = ?`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	var rows []classRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), churchID); err != nil {
		return nil, errors.Wrap(err, "filtering classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.class())
	}
	return classes, nil
}

func (repo *classRepository) UpdateClass(cls class.Class) error {
	row := classRow(cls)
	_, err := repo.db.NamedExec(`
		UPDATE classes
		SET name = :name, location = :location, meeting_time = :meeting_time,
		    description = :description, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating class")
}

func (repo *classRepository) CreateAssignment(asg class.Assignment) error {
	asg.ID = uuid.NewString()
	row := assignmentRow(asg)
	_, err := repo.db.NamedExec(`
		INSERT INTO class_teachers (id, class_id, teacher_id, assigned_date, is_active)
		VALUES (:id, :class_id, :teacher_id, :assigned_date, :is_active)`,
		row,
	)
	return errors.Wrap(err, "creating assignment")
}

func (repo *classRepository) getAssignment(query string, args ...interface{}) (class.Assignment, error) {
	var row assignmentRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return class.Assignment{}, class.ErrAssignmentNotFound
		}
		return class.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.assignment(), nil
}

func (repo *classRepository) GetActiveAssignmentByClass(classID string) (class.Assignment, error) {
	return repo.getAssignment(`SELECT * FROM class_teachers WHERE class_id = ? AND is_active ORDER BY assigned_date DESC LIMIT 1`, classID)
}

func (repo *classRepository) GetActiveAssignmentByTeacher(teacherID string) (class.Assignment, error) {
	return repo.getAssignment(`SELECT * FROM class_teachers WHERE teacher_id = ? AND is_active ORDER BY assigned_date DESC LIMIT 1`, teacherID)
}

func (repo *classRepository) DeactivateAssignmentsByClass(classID string) error {
	_, err := repo.db.Exec(repo.db.Rebind(`UPDATE class_teachers SET is_active = false WHERE class_id = ?`), classID)
	return errors.Wrap(err, "deactivating class assignments")
}

func (repo *classRepository) DeactivateAssignmentsByTeacher(teacherID string) error {
	_, err := repo.db.Exec(repo.db.Rebind(`UPDATE class_teachers SET is_active = false WHERE teacher_id = ?`), teacherID)
	return errors.Wrap(err, "deactivating teacher assignments")
}

func (repo *classRepository) CreateMembership(mbr class.Membership) error {
	mbr.ID = uuid.NewString()
	row := membershipRow(mbr)
	_, err := repo.db.NamedExec(`
		INSERT INTO class_members (id, class_id, user_id, location, joined_date, is_active)
		VALUES (:id, :class_id, :user_id, :location, :joined_date, :is_active)`,
		row,
	)
	return errors.Wrap(err, "creating membership")
}

func (repo *classRepository) getMembership(query string, args ...interface{}) (class.Membership, error) {
	var row membershipRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return class.Membership{}, class.ErrMembershipNotFound
		}
		return class.Membership{}, errors.Wrap(err, "getting membership")
	}
	return row.membership(), nil
}

func (repo *classRepository) GetMembershipByID(churchID, id string) (class.Membership, error) {
	return repo.getMembership(`
		SELECT cm.* FROM class_members cm
		JOIN classes c ON c.id = cm.class_id
		WHERE c.church_id = ? AND cm.id = ?`, churchID, id)
}

func (repo *classRepository) GetMembership(classID, userID string) (class.Membership, error) {
	return repo.getMembership(`SELECT * FROM class_members WHERE class_id = ? AND user_id = ?`, classID, userID)
}

func (repo *classRepository) selectMemberships(query string, args ...interface{}) ([]class.Membership, error) {
	var rows []membershipRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering memberships")
	}
	mbrs := make([]class.Membership, 0, len(rows))
	for _, row := range rows {
		mbrs = append(mbrs, row.membership())
	}
	return mbrs, nil
}

func (repo *classRepository) FilterMemberships(classID string, activeOnly bool) ([]class.Membership, error) {
	query := `SELECT * FROM class_members WHERE class_id = ?`
	if activeOnly {
		query += ` AND is_active`
	}
	return repo.selectMemberships(query+` ORDER BY joined_date`, classID)
}

func (repo *classRepository) FilterChurchMemberships(churchID string, activeOnly bool) ([]class.Membership, error) {
	query := `
		SELECT cm.* FROM class_members cm
		JOIN classes c ON c.id = cm.class_id
		WHERE c.church_id = ?`
	if activeOnly {
		query += ` AND cm.is_active`
	}
	return repo.selectMemberships(query+` ORDER BY cm.joined_date`, churchID)
}

func (repo *classRepository) UpdateMembership(mbr class.Membership) error {
	row := membershipRow(mbr)
	_, err := repo.db.NamedExec(`
		UPDATE class_members
		SET location = :location, is_active = :is_active
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating membership")
}

func (repo *classRepository) CountActiveMembers(classID string) (int, error) {
	var count int
	err := repo.db.Get(&count, repo.db.Rebind(`SELECT COUNT(*) FROM class_members WHERE class_id = ? AND is_active`), classID)
	return count, errors.Wrap(err, "counting members")
}
