package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staff-access-control/internal/config"
	"github.com/iliyamo/staff-access-control/internal/model"
	"github.com/iliyamo/staff-access-control/internal/utils"
)

// ----- in-memory fakes standing in for the MySQL repositories -----

type fakeUsers struct {
	byID   map[uint64]model.User
	nextID uint64
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uint64]model.User{}, nextID: 1} }

func (f *fakeUsers) add(u model.User) model.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, name, email, password, role string, cost int, start, end *string) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := f.add(model.User{
		Name: name, Email: email, PasswordHash: hash, Role: role, IsActive: true,
		LoginStartTime: start, LoginEndTime: end,
	})
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, password string, cost int) error {
	u := f.byID[id]
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uint64, active bool) error {
	u := f.byID[id]
	u.IsActive = active
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) SetLoginWindow(_ context.Context, id uint64, start, end *string) error {
	u := f.byID[id]
	u.LoginStartTime, u.LoginEndTime = start, end
	f.byID[id] = u
	return nil
}

type fakeSessions struct {
	rows   []model.Session
	nextID uint64
}

func newFakeSessions() *fakeSessions { return &fakeSessions{nextID: 1} }

func (f *fakeSessions) Create(_ context.Context, userID uint64, ip, ua *string) (model.Session, error) {
	s := model.Session{ID: f.nextID, UserID: userID, LoginTime: time.Now().UTC(),
		IPAddress: ip, UserAgent: ua, IsValid: true}
	f.nextID++
	f.rows = append(f.rows, s)
	return s, nil
}

// createAt records a session with a chosen login time so tests can pin
// behaviour that depends on session age.
func (f *fakeSessions) createAt(userID uint64, at time.Time) model.Session {
	s := model.Session{ID: f.nextID, UserID: userID, LoginTime: at.UTC(), IsValid: true}
	f.nextID++
	f.rows = append(f.rows, s)
	return s
}

func (f *fakeSessions) CloseCurrent(_ context.Context, userID uint64) (*model.Session, error) {
	// newest open row wins, mirroring the SQL ORDER BY login_time DESC
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID && f.rows[i].LogoutTime == nil {
			now := time.Now().UTC()
			f.rows[i].LogoutTime = &now
			f.rows[i].IsValid = false
			s := f.rows[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) CloseAll(_ context.Context, userID uint64) (int64, error) {
	var n int64
	now := time.Now().UTC()
	for i := range f.rows {
		if f.rows[i].UserID == userID && f.rows[i].LogoutTime == nil {
			f.rows[i].LogoutTime = &now
			f.rows[i].IsValid = false
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) ListByUser(_ context.Context, userID uint64, page, perPage int) ([]model.Session, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var all []model.Session
	for _, s := range f.rows {
		if s.UserID == userID {
			all = append(all, s)
		}
	}
	// same ordering as ORDER BY login_time DESC, id DESC
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LoginTime.Equal(all[j].LoginTime) {
			return all[i].LoginTime.After(all[j].LoginTime)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	offset := (page - 1) * perPage
	if offset >= total {
		return []model.Session{}, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeSessions) Stats(_ context.Context, userID uint64) (model.SessionStats, error) {
	now := time.Now().UTC()
	week, month := now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)
	var stats model.SessionStats
	for _, s := range f.rows {
		if s.UserID != userID {
			continue
		}
		stats.TotalLogins++
		if !s.LoginTime.Before(week) {
			stats.LoginsLast7Days++
		}
		if !s.LoginTime.Before(month) {
			stats.LoginsLast30Days++
		}
		if stats.LastLogin == nil || s.LoginTime.After(*stats.LastLogin) {
			lt := s.LoginTime
			stats.LastLogin = &lt
		}
	}
	return stats, nil
}

func (f *fakeSessions) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	kept := f.rows[:0:0]
	var purged int64
	for _, s := range f.rows {
		if s.LoginTime.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, s)
	}
	f.rows = kept
	return purged, nil
}

// ----- helpers -----

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "handler-test-secret",
		AccessTTLMin: 60,
		BcryptCost:   bcrypt.MinCost,
	}
}

func seedUser(t *testing.T, users *fakeUsers, email, password, role string, active bool, start, end *string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return users.add(model.User{
		Name: "Test User", Email: email, PasswordHash: hash, Role: role,
		IsActive: active, LoginStartTime: start, LoginEndTime: end,
	})
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	require.NoError(t, h(c))
	return rec
}

func ptr(s string) *string { return &s }

// ----- login -----

func TestLoginSuccessCreatesSession(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	seedUser(t, users, "worker@example.com", "correct-horse", model.RoleEmployee, true, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"worker@example.com","password":"correct-horse"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		SessionID uint64 `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "worker@example.com", resp.User.Email)
	require.NotZero(t, resp.SessionID)

	// The token decodes back to the same subject and role it was issued for.
	claims, err := utils.ParseAccessToken("handler-test-secret", resp.Access.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, model.RoleEmployee, claims.Role)

	// Exactly one open session was recorded.
	require.Len(t, sessions.rows, 1)
	require.Nil(t, sessions.rows[0].LogoutTime)
	require.True(t, sessions.rows[0].IsValid)
}

func TestLoginGenericMessageHidesAccountExistence(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	seedUser(t, users, "worker@example.com", "correct-horse", model.RoleEmployee, true, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	// Unknown account and wrong password must be indistinguishable outward.
	recUnknown := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"nobody@example.com","password":"whatever"}`, nil)
	recWrong := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"worker@example.com","password":"wrong"}`, nil)

	require.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	require.Equal(t, http.StatusUnauthorized, recWrong.Code)
	require.JSONEq(t, recUnknown.Body.String(), recWrong.Body.String())
	require.Empty(t, sessions.rows)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	seedUser(t, users, "worker@example.com", "correct-horse", model.RoleEmployee, false, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"worker@example.com","password":"correct-horse"}`, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, sessions.rows)
}

func TestLoginEmployeeOutsideWindow(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	deny := time.Now().Add(12 * time.Hour).Format("15:04:05")
	seedUser(t, users, "worker@example.com", "correct-horse", model.RoleEmployee, true, ptr(deny), ptr(deny))
	h := NewAuthHandler(testConfig(), users, sessions)

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"worker@example.com","password":"correct-horse"}`, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "outside_allowed_window", body["code"])
	require.NotEmpty(t, body["current_time"])
	require.Equal(t, deny, body["login_start_time"])
	require.Empty(t, sessions.rows)
}

func TestLoginAdminIgnoresWindow(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	deny := time.Now().Add(12 * time.Hour).Format("15:04:05")
	seedUser(t, users, "boss@example.com", "correct-horse", model.RoleAdmin, true, ptr(deny), ptr(deny))
	h := NewAuthHandler(testConfig(), users, sessions)

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"boss@example.com","password":"correct-horse"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.rows, 1)
}

// ----- logout -----

func TestLogoutClosesMostRecentSessionOnce(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	u := seedUser(t, users, "worker@example.com", "correct-horse", model.RoleEmployee, true, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	_, err := sessions.Create(context.Background(), u.ID, nil, nil)
	require.NoError(t, err)

	withIdentity := func(c echo.Context) { c.Set("identity", u) }

	rec := postJSON(t, h.Logout, "/v1/logout", "", withIdentity)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, sessions.rows[0].LogoutTime)
	require.False(t, sessions.rows[0].IsValid)

	// Second logout with nothing open is a no-op, not an error.
	logoutAt := *sessions.rows[0].LogoutTime
	rec = postJSON(t, h.Logout, "/v1/logout", "", withIdentity)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, logoutAt, *sessions.rows[0].LogoutTime)
}

// ----- change password -----

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	u := seedUser(t, users, "worker@example.com", "old-password", model.RoleEmployee, true, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	// Two concurrent open sessions (two devices).
	_, err := sessions.Create(context.Background(), u.ID, nil, nil)
	require.NoError(t, err)
	_, err = sessions.Create(context.Background(), u.ID, nil, nil)
	require.NoError(t, err)

	rec := postJSON(t, h.ChangePassword, "/v1/auth/change-password",
		`{"current_password":"old-password","new_password":"new-password"}`,
		func(c echo.Context) { c.Set("identity", u) })
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 2, body["revoked_sessions"])

	// The new credential verifies, the old one no longer does.
	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "new-password"))
	require.False(t, utils.VerifyPassword(stored.PasswordHash, "old-password"))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	users, sessions := newFakeUsers(), newFakeSessions()
	u := seedUser(t, users, "worker@example.com", "old-password", model.RoleEmployee, true, nil, nil)
	h := NewAuthHandler(testConfig(), users, sessions)

	rec := postJSON(t, h.ChangePassword, "/v1/auth/change-password",
		`{"current_password":"not-it","new_password":"new-password"}`,
		func(c echo.Context) { c.Set("identity", u) })
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "old-password"))
}
