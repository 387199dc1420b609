// Package queue defines message payloads exchanged over the message broker.
package queue

// Auth event types published to the auth.events queue.
const (
    EventLogin           = "login"
    EventLogout          = "logout"
    EventSessionsRevoked = "sessions_revoked"
)

// AuthEvent is published whenever the authentication state of an account
// changes: a successful login, an explicit logout, or a bulk revocation of
// sessions after a password change or admin reset.  It carries enough
// information for downstream consumers to build an audit trail without
// querying the primary database.
type AuthEvent struct {
    Type         string `json:"type"`                    // login | logout | sessions_revoked
    UserID       uint64 `json:"user_id"`                 // account the event concerns
    Email        string `json:"email"`                   // email at the time of the event
    Role         string `json:"role"`                    // ADMIN or EMPLOYEE
    SessionID    uint64 `json:"session_id,omitempty"`    // session created/closed, when applicable
    IPAddress    string `json:"ip_address,omitempty"`    // origin address, when known
    UserAgent    string `json:"user_agent,omitempty"`    // client descriptor, when known
    RevokedCount int64  `json:"revoked_count,omitempty"` // sessions closed by a bulk revocation
    OccurredAt   string `json:"occurred_at"`             // RFC 3339 UTC timestamp
}
