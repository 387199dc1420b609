package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // SQL database interactions
    "net/http"     // HTTP status codes and primitives
    "strings"      // string manipulation utilities
    "time"         // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/staff-access-control/internal/config"
    "github.com/iliyamo/staff-access-control/internal/middleware"
    "github.com/iliyamo/staff-access-control/internal/model"
    "github.com/iliyamo/staff-access-control/internal/queue"
    queue_publisher "github.com/iliyamo/staff-access-control/internal/service"
    "github.com/iliyamo/staff-access-control/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	IsActive       bool    `json:"is_active"`
	LoginStartTime *string `json:"login_start_time"`
	LoginEndTime   *string `json:"login_end_time"`
}
type loginResp struct {
	User      userPart  `json:"user"`
	Access    tokenPart `json:"access"`
	SessionID uint64    `json:"session_id"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		IsActive:       u.IsActive,
		LoginStartTime: u.LoginStartTime,
		LoginEndTime:   u.LoginEndTime,
	}
}

// Login verifies credentials and, for employees, the daily login window,
// then issues an access token and records a session.  Unknown email and
// wrong password produce the same generic response on purpose: the
// internal distinction exists (sql.ErrNoRows vs a failed verify) but
// surfacing it would let callers enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password", "code": "invalid_credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password", "code": "invalid_credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated", "code": middleware.CodeAccountDeactivated})
	}
	// The window is checked here at login AND again by the guard on every
	// later request; passing it now earns no lasting pass.
	if u.IsEmployee() {
		d := utils.EvaluateUserWindow(u.LoginStartTime, u.LoginEndTime, time.Now())
		if !d.Allowed {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":            d.Reason,
				"code":             middleware.CodeOutsideWindow,
				"current_time":     d.Now,
				"login_start_time": u.LoginStartTime,
				"login_end_time":   u.LoginEndTime,
			})
		}
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	ip := strPtrOrNil(c.RealIP())
	agent := strPtrOrNil(c.Request().UserAgent())
	sess, err := h.Sessions.Create(ctx, u.ID, ip, agent)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}

	// Audit trail is best-effort; a broker outage never blocks a login.
	_ = queue_publisher.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:       queue.EventLogin,
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		SessionID:  sess.ID,
		IPAddress:  deref(ip),
		UserAgent:  deref(agent),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, loginResp{
		User:      toUserPart(u),
		Access:    tokenPart{Token: access.Token, Expires: access.Exp},
		SessionID: sess.ID,
	})
}

// Logout closes the caller's most recent open session.  When no open
// session exists this is a no-op and still succeeds; logging out twice is
// not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	closed, err := h.Sessions.CloseCurrent(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	if closed != nil {
		_ = queue_publisher.PublishAuthEvent(ctx, queue.AuthEvent{
			Type:       queue.EventLogout,
			UserID:     u.ID,
			Email:      u.Email,
			Role:       u.Role,
			SessionID:  closed.ID,
			OccurredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword lets an authenticated user rotate their own credential.
// The current password must verify first.  On success every open session
// is revoked, so all outstanding tokens' holders must log in again.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password/new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The context identity has its hash stripped; re-read the row for the
	// stored credential.
	stored, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !utils.VerifyPassword(stored.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect", "code": "invalid_credentials"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	revoked, err := h.Sessions.CloseAll(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	_ = queue_publisher.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:         queue.EventSessionsRevoked,
		UserID:       u.ID,
		Email:        u.Email,
		Role:         u.Role,
		RevokedCount: revoked,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"revoked_sessions": revoked})
}

// Me returns the authenticated user's summary as loaded by the guard on
// this very request.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
