package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionHandler exposes the admin-only audit views over session records:
// a paged per-user history, aggregated login statistics and the retention
// purge.
type SessionHandler struct {
	Sessions SessionStore
}

func NewSessionHandler(s SessionStore) *SessionHandler {
	return &SessionHandler{Sessions: s}
}

// ListUserSessions returns one page of a user's sessions, newest first.
// An unknown user id simply yields an empty page; the lookup is idempotent
// and absence is a normal result here, not a failure.
func (h *SessionHandler) ListUserSessions(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, total, err := h.Sessions.ListByUser(ctx, id, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sessions failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// UserStats returns aggregated login counts for a user.  A user who never
// logged in gets zero counts and a null last_login.
func (h *SessionHandler) UserStats(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Sessions.Stats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "compute stats failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// PurgeSessions deletes session records older than the given number of
// days.  The delete is irreversible, so days must be an explicit positive
// number; there is no default.
func (h *SessionHandler) PurgeSessions(c echo.Context) error {
	days, err := strconv.Atoi(c.QueryParam("days"))
	if err != nil || days < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "days must be a positive integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	purged, perr := h.Sessions.PurgeOlderThan(ctx, days)
	if perr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purge failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purged": purged})
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
