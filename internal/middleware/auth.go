package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/staff-access-control/internal/model"
    "github.com/iliyamo/staff-access-control/internal/utils"
)

// UserStore is the slice of the user repository the guard needs: loading
// the subject's current row by id.  *repository.UserRepo satisfies it; tests
// substitute an in-memory fake.
type UserStore interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Stable machine-readable codes for every way the guard can reject a
// request.  Clients branch on these, so they must not change.
const (
    CodeMissingToken       = "missing_token"
    CodeTokenExpired       = "token_expired"
    CodeTokenInvalid       = "invalid_token"
    CodeUnknownSubject     = "unknown_subject"
    CodeAccountDeactivated = "account_deactivated"
    CodeOutsideWindow      = "outside_allowed_window"
    CodeInsufficientRole   = "insufficient_role"
)

// Authenticate returns the per-request access guard.  It runs the full
// pipeline, terminal on the first failure:
//
//   extract bearer token -> validate -> load the subject's CURRENT row ->
//   active-account check -> (employees only) time-window check
//
// The time window is re-evaluated on every request against the bounds
// stored right now, never against anything cached at login, so a token
// issued inside the window stops working the moment the window closes even
// though the token itself has not expired.  On success the sanitized
// identity is stored in the context under "identity" (plus "user_id" and
// "role" for cheap access).
func Authenticate(secret string, users UserStore) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Read the Authorization header.  A valid header starts with
            // "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error": "missing bearer token", "code": CodeMissingToken,
                })
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Validate signature and expiry.  The two failure kinds map to
            // different client messages: an expired session invites a fresh
            // login, an invalid token does not.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err == utils.ErrTokenExpired {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error": "token expired", "code": CodeTokenExpired,
                })
            }
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error": "invalid token", "code": CodeTokenInvalid,
                })
            }

            // Load the subject's current state.  A deleted user is reported
            // exactly like an invalid token so callers cannot probe which
            // accounts still exist.
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            u, err := users.GetByID(ctx, claims.UserID)
            if err == sql.ErrNoRows {
                return c.JSON(http.StatusUnauthorized, echo.Map{
                    "error": "invalid token", "code": CodeUnknownSubject,
                })
            }
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
            }

            // Account gate: deactivation revokes access immediately, before
            // the token expires.
            if !u.IsActive {
                return c.JSON(http.StatusForbidden, echo.Map{
                    "error": "account deactivated", "code": CodeAccountDeactivated,
                })
            }

            // Employees are additionally gated by their daily window,
            // evaluated against the bounds stored on the row we just read.
            // Admins skip this entirely, whatever their columns hold.
            if u.IsEmployee() {
                d := utils.EvaluateUserWindow(u.LoginStartTime, u.LoginEndTime, time.Now())
                if !d.Allowed {
                    return c.JSON(http.StatusForbidden, echo.Map{
                        "error":            d.Reason,
                        "code":             CodeOutsideWindow,
                        "current_time":     d.Now,
                        "login_start_time": u.LoginStartTime,
                        "login_end_time":   u.LoginEndTime,
                    })
                }
            }

            // Attach the identity for handlers, minus the credential hash.
            u.PasswordHash = ""
            c.Set("identity", u)
            c.Set("user_id", u.ID)
            c.Set("role", u.Role)
            return next(c)
        }
    }
}

// CurrentUser retrieves the identity stored by Authenticate.  The boolean
// is false when the middleware did not run (unprotected route).
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get("identity").(model.User)
    return u, ok
}
