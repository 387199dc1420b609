package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staff-access-control/internal/config"
	"github.com/iliyamo/staff-access-control/internal/model"
	"github.com/iliyamo/staff-access-control/internal/queue"
	"github.com/iliyamo/staff-access-control/internal/repository"
	queue_publisher "github.com/iliyamo/staff-access-control/internal/service"
	"github.com/iliyamo/staff-access-control/internal/utils"
)

// UserHandler exposes the admin-only account management endpoints:
// creating accounts, toggling the active gate, configuring the daily login
// window and resetting passwords.  Every route it serves sits behind
// Authenticate + RequireRole("ADMIN").
type UserHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
}

func NewUserHandler(cfg config.Config, u UserStore, s SessionStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Sessions: s}
}

type createUserReq struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"` // ADMIN | EMPLOYEE
	LoginStartTime string `json:"login_start_time"`
	LoginEndTime   string `json:"login_end_time"`
}
type setActiveReq struct {
	IsActive *bool `json:"is_active"`
}
type setWindowReq struct {
	LoginStartTime string `json:"login_start_time"`
	LoginEndTime   string `json:"login_end_time"`
}
type resetPasswordReq struct {
	NewPassword string `json:"new_password"`
}

// CreateUser registers a new account.  The login window, when supplied,
// must be a complete pair of well-formed times; a half-configured window is
// rejected here so the stored invariant (both or neither) always holds.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = model.RoleEmployee
	}
	if role != model.RoleAdmin && role != model.RoleEmployee {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or EMPLOYEE"})
	}
	start, end, err := parseWindow(req.LoginStartTime, req.LoginEndTime)
	if err != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, cerr := h.Users.Create(ctx, req.Name, req.Email, req.Password, role, h.Cfg.BcryptCost, start, end)
	if cerr != nil {
		if cerr == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, gerr := h.Users.GetByID(ctx, uid)
	if gerr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, toUserPart(u))
}

// SetActive flips the account gate.  Deactivation revokes access on the
// user's next request regardless of any valid token they hold.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// SetWindow stores a new daily login window for an account, or clears it
// when both bounds come in empty.
func (h *UserHandler) SetWindow(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setWindowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, end, perr := parseWindow(req.LoginStartTime, req.LoginEndTime)
	if perr != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": perr})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.Users.SetLoginWindow(ctx, id, start, end); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ResetPassword replaces an account's credential and revokes every open
// session it holds.  Unlike the idempotent lookups, resetting an unknown
// id is an explicit failure: the operation requires an existing target.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if err := h.Users.UpdatePassword(ctx, id, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	revoked, err := h.Sessions.CloseAll(ctx, id)
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

// parseWindow validates and normalizes a window pair coming from a request
// body.  Both empty -> unrestricted (nil, nil).  Both present -> normalized
// HH:MM:SS pointers.  Exactly one present -> a validation message.
func parseWindow(start, end string) (*string, *string, string) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil, ""
	}
	if start == "" || end == "" {
		return nil, nil, "login_start_time and login_end_time must be set together"
	}
	if !utils.ValidTimeOfDay(start) || !utils.ValidTimeOfDay(end) {
		return nil, nil, "window times must be HH:MM or HH:MM:SS"
	}
	s := utils.NormalizeTimeOfDay(start)
	e := utils.NormalizeTimeOfDay(end)
	return &s, &e, ""
}

func paramID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
