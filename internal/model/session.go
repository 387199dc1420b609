package model

import "time"

// Session models an entry in the `sessions` table.  One row is written
// per successful login and closed on logout.  A user may hold several
// open sessions at once (multiple devices); logout closes only the most
// recent open one.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the session.
//  LoginTime  – when the session started.  Immutable after insert.
//  LogoutTime – when the session ended (null while still open).
//  IPAddress  – remote address recorded at login (nullable).
//  UserAgent  – client descriptor recorded at login (nullable).
//  IsValid    – true until the session is ended.
type Session struct {
    ID         uint64     `json:"id"`          // sessions.id
    UserID     uint64     `json:"user_id"`     // sessions.user_id
    LoginTime  time.Time  `json:"login_time"`  // sessions.login_time
    LogoutTime *time.Time `json:"logout_time"` // sessions.logout_time (nullable)
    IPAddress  *string    `json:"ip_address"`  // sessions.ip_address (nullable)
    UserAgent  *string    `json:"user_agent"`  // sessions.user_agent (nullable)
    IsValid    bool       `json:"is_valid"`    // sessions.is_valid
}

// SessionStats aggregates login activity for one user.  Counts are over
// login_time, windowed back from "now".  LastLogin is nil when the user
// has never logged in.
type SessionStats struct {
    TotalLogins      int        `json:"total_logins"`
    LoginsLast7Days  int        `json:"logins_last_7_days"`
    LoginsLast30Days int        `json:"logins_last_30_days"`
    LastLogin        *time.Time `json:"last_login"`
}
