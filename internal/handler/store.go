package handler

import (
    "context"

    "github.com/iliyamo/staff-access-control/internal/model"
)

// UserStore and SessionStore are the storage surfaces the handlers consume.
// The concrete repository types satisfy them; tests substitute in-memory
// fakes so handler logic can be exercised without MySQL.

// UserStore covers identity lookup and mutation.
type UserStore interface {
    Create(ctx context.Context, name, email, password, role string, cost int, start, end *string) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
    SetActive(ctx context.Context, id uint64, active bool) error
    SetLoginWindow(ctx context.Context, id uint64, start, end *string) error
}

// SessionStore covers the session lifecycle owned by the tracker.
type SessionStore interface {
    Create(ctx context.Context, userID uint64, ip, userAgent *string) (model.Session, error)
    CloseCurrent(ctx context.Context, userID uint64) (*model.Session, error)
    CloseAll(ctx context.Context, userID uint64) (int64, error)
    ListByUser(ctx context.Context, userID uint64, page, perPage int) ([]model.Session, int, error)
    Stats(ctx context.Context, userID uint64) (model.SessionStats, error)
    PurgeOlderThan(ctx context.Context, days int) (int64, error)
}
