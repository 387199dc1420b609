package model

import "time"

// Role names stored in the users.role column.  Admins manage accounts and
// audit data; employees are subject to the daily login window.
const (
    RoleAdmin    = "ADMIN"
    RoleEmployee = "EMPLOYEE"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// LoginStartTime and LoginEndTime hold the daily access window as
// zero-padded "HH:MM:SS" strings.  Both are nil for unrestricted
// accounts; a pair where only one half is set is treated as
// unrestricted by the window evaluator and rejected by the admin
// handlers before it reaches storage.
//
// Fields:
//  ID             – primary key identifier of the user.
//  Name           – display name.
//  Email          – unique email address, stored lower-case.
//  PasswordHash   – bcrypt hashed password.  Never serialized outward.
//  Role           – ADMIN or EMPLOYEE.
//  IsActive       – whether the account may authenticate at all.
//  LoginStartTime – start of the allowed daily window (nullable).
//  LoginEndTime   – end of the allowed daily window (nullable).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
    ID             uint64     // users.id
    Name           string     // users.name
    Email          string     // users.email
    PasswordHash   string     // users.password_hash
    Role           string     // users.role
    IsActive       bool       // users.is_active
    LoginStartTime *string    // users.login_start_time (nullable)
    LoginEndTime   *string    // users.login_end_time (nullable)
    CreatedAt      time.Time  // users.created_at
    UpdatedAt      time.Time  // users.updated_at
}

// IsEmployee reports whether the time-window policy applies to this user.
// Admins are never subject to the window, regardless of stored bounds.
func (u *User) IsEmployee() bool { return u.Role == RoleEmployee }
