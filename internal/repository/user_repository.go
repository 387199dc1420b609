package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/staff-access-control/internal/model"
	"github.com/iliyamo/staff-access-control/internal/utils"
)

// UserRepo provides access to the 'users' table.  All lookups return the
// stored password hash so the caller can verify credentials; it is the
// caller's responsibility to strip the hash before anything leaves the
// process.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,role,is_active,login_start_time,login_end_time,created_at,updated_at"

// Create inserts a user and returns its ID.  The email is normalized to
// lower case so uniqueness is case-insensitive.  start/end carry the daily
// login window; both nil means unrestricted.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int, start, end *string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, login_start_time, login_end_time) VALUES (?,?,?,?,?,?)",
		name, email, hash, role, start, end)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdatePassword replaces the stored hash for a user.  The plaintext is
// hashed here so it never travels further than this call.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// SetActive flips the account gate.  Deactivating takes effect on the
// user's very next request because the guard re-reads this flag every time.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}

// SetLoginWindow stores a new daily window, or clears it when both bounds
// are nil.  Bounds must already be normalized HH:MM:SS strings.
func (r *UserRepo) SetLoginWindow(ctx context.Context, id uint64, start, end *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_start_time=?, login_end_time=? WHERE id=?", start, end, id)
	return err
}

// scanOne maps a single users row, converting nullable window columns to
// pointers.
func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u          model.User
		start, end sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&start, &end, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if start.Valid {
		s := start.String
		u.LoginStartTime = &s
	}
	if end.Valid {
		e := end.String
		u.LoginEndTime = &e
	}
	return u, nil
}
