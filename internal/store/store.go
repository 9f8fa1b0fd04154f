// Package store defines the persistence boundary of the backend. Handlers and
// services only see these interfaces; main picks the backing implementation
// (gormstore for PostgreSQL, memory for tests and local runs).
package store

import (
	"context"
	"errors"
	"time"

	"sitedesk-backend/internal/models"
)

// ErrNotFound is returned when a row with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write would break a uniqueness rule, such as
// a second attendance row for the same worker and day.
var ErrDuplicate = errors.New("duplicate record")

// Record is satisfied by pointers to every persisted entity.
type Record[T any] interface {
	*T
	PrimaryKey() uint
	SetPrimaryKey(id uint)
	Scope() models.Scope
}

// Query narrows list results. Zero fields are ignored. From/To compare
// against the entity's business date and are inclusive days.
type Query struct {
	SiteID     uint
	MaterialID uint
	WorkerID   uint
	From       *time.Time
	To         *time.Time
	Limit      int
}

// Matches reports whether a row scope passes the filter.
func (q Query) Matches(s models.Scope) bool {
	if q.SiteID != 0 && s.SiteID != q.SiteID {
		return false
	}
	if q.MaterialID != 0 && s.MaterialID != q.MaterialID {
		return false
	}
	if q.WorkerID != 0 && s.WorkerID != q.WorkerID {
		return false
	}
	if s.Date.IsZero() {
		// undated entities ignore the date range
		return true
	}
	if q.From != nil && s.Date.Before(*q.From) {
		return false
	}
	if q.To != nil && !s.Date.Before(EndOfDay(*q.To)) {
		return false
	}
	return true
}

// EndOfDay returns the first instant after the day d falls on.
func EndOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location()).AddDate(0, 0, 1)
}

type Reader[T any] interface {
	List(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id uint) (T, error)
}

type Repository[T any] interface {
	Reader[T]
	Create(ctx context.Context, v *T) error
	// Update replaces the stored row; ErrNotFound if it is missing.
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uint) error
}

// MaterialRepository never writes Quantity through Update; on return the
// argument carries the stored quantity. Only the Ledger and SetQuantity move it.
type MaterialRepository interface {
	Repository[models.Material]
	// SetQuantity overwrites the stock count of one material (a physical
	// recount) and refreshes LastUpdated to at.
	SetQuantity(ctx context.Context, id uint, quantity float64, at time.Time) (models.Material, error)
}

type UserRepository interface {
	Repository[models.User]
	ByUsername(ctx context.Context, username string) (models.User, error)
}

// AuditRepository is append-only.
type AuditRepository interface {
	Create(ctx context.Context, v *models.AuditLog) error
	List(ctx context.Context, q Query, entityType string) ([]models.AuditLog, error)
}

// StockChange describes what a ledger append did to the owning material.
type StockChange struct {
	MaterialFound bool
	Before        float64
	After         float64
	Material      models.Material
}

// Ledger appends material transactions. Append persists tx and, when the
// material exists, replaces its quantity with adjust(current) and refreshes
// LastUpdated to at. The read-modify-write is atomic per material.
type Ledger interface {
	Append(ctx context.Context, tx *models.MaterialTransaction, at time.Time, adjust func(current float64) float64) (StockChange, error)
}

// Store groups the repositories a running server needs.
type Store struct {
	Sites        Repository[models.Site]
	Materials    MaterialRepository
	Transactions Reader[models.MaterialTransaction]
	Workers      Repository[models.Worker]
	Attendance   Repository[models.Attendance]
	Expenses     Repository[models.Expense]
	Photos       Repository[models.Photo]
	Notes        Repository[models.Note]
	Users        UserRepository
	AuditLogs    AuditRepository
	Ledger       Ledger

	// Close releases the backing connection, if any.
	Close func() error
}
