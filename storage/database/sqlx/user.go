package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/actionunitmanager/backend/core/user"
)

type userRow struct {
	ID           string      `db:"id"`
	ChurchID     null.String `db:"church_id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Phone        string      `db:"phone"`
	Role         string      `db:"role"`
	IsOfficer    bool        `db:"is_officer"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	LastLogin    null.Time   `db:"last_login"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		ChurchID:     r.ChurchID.String,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         r.Role,
		IsOfficer:    r.IsOfficer,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		ChurchID:     null.NewString(usr.ChurchID, usr.ChurchID != ""),
		Name:         usr.Name,
		Email:        usr.Email,
		Phone:        usr.Phone,
		Role:         usr.Role,
		IsOfficer:    usr.IsOfficer,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		LastLogin:    null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()),
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckPhoneUniqueness(phone string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE phone = ?`
	args := []interface{}{phone}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, phone, ids); err != nil {
			return errors.Wrap(err, "building query")
		}
	}

	var count int
	if err := repo.db.Get(&count, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking phone uniqueness")
	}
	if count > 0 {
		return user.ErrPhoneExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	row := newUserRow(usr)
	_, err := repo.db.NamedExec(`
		INSERT INTO users (id, church_id, name, email, phone, role, is_officer, is_active, password_hash, last_login, created_at, updated_at)
		VALUES (:id, :church_id, :name, :email, :phone, :role, :is_officer, :is_active, :password_hash, :last_login, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) getUser(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`SELECT * FROM users WHERE id = ?`, id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM users WHERE lower(email) = lower(?)`, email)
}

func (repo *userRepository) GetUserByPhone(phone string) (user.User, error) {
	return repo.getUser(`SELECT * FROM users WHERE phone = ?`, phone)
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter) ([]user.User, error) {
	query := `SELECT * FROM users WHERE 1=1`
	var args []interface{}
	if filter.ChurchID != "" {
		query += ` AND church_id = ?`
		args = append(args, filter.ChurchID)
	}
	if filter.Role != "" {
		query += ` AND role = ?`
		args = append(args, filter.Role)
	}
	if filter.IsOfficer != nil {
		query += ` AND is_officer = ?`
		args = append(args, *filter.IsOfficer)
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.IsActive)
	}
	query += ` ORDER BY created_at DESC`

	var rows []userRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	orig, err := repo.GetUserByID(usr.ID)
	if err != nil {
		return user.User{}, err
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

	row := newUserRow(orig)
	_, err = repo.db.NamedExec(`
		UPDATE users
		SET name = :name, email = :email, phone = :phone, is_active = :is_active,
		    password_hash = :password_hash, last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return orig, nil
}

func (repo *userRepository) SetOfficerStatus(usr user.User) (user.User, error) {
	row := newUserRow(usr)
	_, err := repo.db.NamedExec(`
		UPDATE users
		SET role = :role, is_officer = :is_officer, password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating officer status")
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) CountActiveSuperintendents(churchID string, excludedIDs ...string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE church_id = ? AND role = ? AND is_active`
	args := []interface{}{churchID, user.RoleSuperintendent}
	if len(excludedIDs) > 0 {
		var err error
		if query, args, err = sqlx.In(query+` AND id NOT IN (?)`, churchID, user.RoleSuperintendent, excludedIDs); err != nil {
			return 0, errors.Wrap(err, "building query")
		}
	}

	var count int
	if err := repo.db.Get(&count, repo.db.Rebind(query), args...); err != nil {
		return 0, errors.Wrap(err, "counting superintendents")
	}
	return count, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
