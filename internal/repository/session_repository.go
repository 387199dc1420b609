package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/staff-access-control/internal/model"
)

// SessionRepo owns the lifecycle of rows in the 'sessions' table: one row
// per successful login, closed on logout, queried for audit views and
// usage statistics.  All timestamps are stored in UTC.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionColumns = "id,user_id,login_time,logout_time,ip_address,user_agent,is_valid"

// Create inserts a session row for a successful login and returns the full
// record.  It never checks for existing open sessions: a user logging in
// from several devices holds several open sessions at once.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, ip, userAgent *string) (model.Session, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, login_time, ip_address, user_agent, is_valid) VALUES (?,?,?,?,1)",
		userID, now, ip, userAgent)
	if err != nil {
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return r.getByID(ctx, uint64(id))
}

// CloseCurrent ends the most recent open session for a user: logout_time is
// set exactly once and is_valid drops to false.  When the user has no open
// session it returns (nil, nil); that is a no-op, not an error.
//
// The update is guarded by `logout_time IS NULL`, so two concurrent logouts
// racing for the same row cannot both apply: the loser matches zero rows
// and falls through to the no-op result.
func (r *SessionRepo) CloseCurrent(ctx context.Context, userID uint64) (*model.Session, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM sessions WHERE user_id=? AND logout_time IS NULL ORDER BY login_time DESC, id DESC LIMIT 1",
		userID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET logout_time=?, is_valid=0 WHERE id=? AND logout_time IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost the race to a concurrent logout.
		return nil, nil
	}
	s, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CloseAll invalidates every open session for a user and returns the number
// affected.  Used on security events such as a password change or an admin
// password reset.
func (r *SessionRepo) CloseAll(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET logout_time=?, is_valid=0 WHERE user_id=? AND logout_time IS NULL",
		time.Now().UTC(), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns one page of a user's sessions, newest first, along
// with the total count for pagination.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uint64, page, perPage int) ([]model.Session, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id=? ORDER BY login_time DESC, id DESC LIMIT ? OFFSET ?",
		userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, perPage)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Stats aggregates login counts for a user: all-time, last 7 days and last
// 30 days windows computed back from now, plus the most recent login time
// (nil when the user never logged in).
func (r *SessionRepo) Stats(ctx context.Context, userID uint64) (model.SessionStats, error) {
	now := time.Now().UTC()
	var (
		stats model.SessionStats
		last  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(login_time >= ?), 0),
		        COALESCE(SUM(login_time >= ?), 0),
		        MAX(login_time)
		   FROM sessions WHERE user_id=?`,
		now.AddDate(0, 0, -7), now.AddDate(0, 0, -30), userID).
		Scan(&stats.TotalLogins, &stats.LoginsLast7Days, &stats.LoginsLast30Days, &last)
	if err != nil {
		return model.SessionStats{}, err
	}
	if last.Valid {
		t := last.Time
		stats.LastLogin = &t
	}
	return stats, nil
}

// PurgeOlderThan irreversibly deletes session rows whose login_time
// predates the cutoff.  This is a retention operation for admins, never
// part of the request path.
func (r *SessionRepo) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE login_time < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepo) getByID(ctx context.Context, id uint64) (model.Session, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id=? LIMIT 1", id)
	return scanSession(row)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (model.Session, error) {
	var (
		s      model.Session
		logout sql.NullTime
		ip, ua sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &s.LoginTime, &logout, &ip, &ua, &s.IsValid)
	if err != nil {
		return model.Session{}, err
	}
	if logout.Valid {
		t := logout.Time
		s.LogoutTime = &t
	}
	if ip.Valid {
		v := ip.String
		s.IPAddress = &v
	}
	if ua.Valid {
		v := ua.String
		s.UserAgent = &v
	}
	return s, nil
}
