// Package gormstore implements store.Store on top of gorm (PostgreSQL in
// production).
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo[T any, P store.Record[T]] struct {
	db *gorm.DB
	// dateColumn is the business date used by Query.From/To, empty if none.
	dateColumn string
	// scopeColumns lists the foreign keys the table actually has.
	scopeColumns map[string]bool
}

func newRepo[T any, P store.Record[T]](db *gorm.DB, dateColumn string, columns ...string) *repo[T, P] {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	return &repo[T, P]{db: db, dateColumn: dateColumn, scopeColumns: cols}
}

func (r *repo[T, P]) filtered(ctx context.Context, q store.Query) *gorm.DB {
	tx := r.db.WithContext(ctx)
	tx = r.scope(tx, "site_id", q.SiteID)
	tx = r.scope(tx, "material_id", q.MaterialID)
	tx = r.scope(tx, "worker_id", q.WorkerID)
	if r.dateColumn != "" {
		if q.From != nil {
			tx = tx.Where(r.dateColumn+" >= ?", *q.From)
		}
		if q.To != nil {
			tx = tx.Where(r.dateColumn+" < ?", store.EndOfDay(*q.To))
		}
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// scope maps a filter key onto the table. Some tables answer a key with their
// primary key (sites by site_id, workers by worker_id); tables without the key
// never match.
func (r *repo[T, P]) scope(tx *gorm.DB, key string, id uint) *gorm.DB {
	switch {
	case id == 0:
		return tx
	case r.scopeColumns[key]:
		return tx.Where(key+" = ?", id)
	case r.scopeColumns["id:"+key]:
		return tx.Where("id = ?", id)
	default:
		return tx.Where("1 = 0")
	}
}

func (r *repo[T, P]) List(ctx context.Context, q store.Query) ([]T, error) {
	var rows []T
	if err := r.filtered(ctx, q).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return rows, nil
}

func (r *repo[T, P]) Get(ctx context.Context, id uint) (T, error) {
	var row T
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, store.ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("get %d: %w", id, err)
	}
	return row, nil
}

// translate maps gorm's driver-neutral errors onto the store's. It relies on
// gorm.Config.TranslateError being set.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	return err
}

func (r *repo[T, P]) Create(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create: %w", translate(err))
	}
	return nil
}

func (r *repo[T, P]) Update(ctx context.Context, v *T) error {
	res := r.db.WithContext(ctx).Model(v).Select("*").Omit("id", "created_at").Updates(v)
	if res.Error != nil {
		return fmt.Errorf("update %d: %w", P(v).PrimaryKey(), translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *repo[T, P]) Delete(ctx context.Context, id uint) error {
	var row T
	res := r.db.WithContext(ctx).Delete(&row, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type users struct {
	*repo[models.User, *models.User]
}

func (u users) ByUsername(ctx context.Context, username string) (models.User, error) {
	var usr models.User
	err := u.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&usr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usr, store.ErrNotFound
	}
	return usr, err
}

type materials struct {
	*repo[models.Material, *models.Material]
}

// Update writes every column except quantity, then reloads the stored
// quantity into v.
func (m materials) Update(ctx context.Context, v *models.Material) error {
	res := m.db.WithContext(ctx).Model(v).Select("*").Omit("id", "quantity").Updates(v)
	if res.Error != nil {
		return fmt.Errorf("update material %d: %w", v.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	fresh, err := m.Get(ctx, v.ID)
	if err != nil {
		return err
	}
	v.Quantity = fresh.Quantity
	return nil
}

func (m materials) SetQuantity(ctx context.Context, id uint, quantity float64, at time.Time) (models.Material, error) {
	res := m.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "last_updated": at})
	if res.Error != nil {
		return models.Material{}, fmt.Errorf("set quantity %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Material{}, store.ErrNotFound
	}
	return m.Get(ctx, id)
}

type auditLogs struct {
	*repo[models.AuditLog, *models.AuditLog]
}

func (a auditLogs) List(ctx context.Context, q store.Query, entityType string) ([]models.AuditLog, error) {
	tx := a.filtered(ctx, q)
	if entityType != "" {
		tx = tx.Where("entity_type = ?", entityType)
	}
	var rows []models.AuditLog
	if err := tx.Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return rows, nil
}

type ledger struct {
	db *gorm.DB
}

// Append inserts the transaction and adjusts the material inside one database
// transaction; the material row is locked with SELECT ... FOR UPDATE so two
// concurrent appends cannot lose an update.
func (l ledger) Append(ctx context.Context, mt *models.MaterialTransaction, at time.Time, adjust func(float64) float64) (store.StockChange, error) {
	var change store.StockChange
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mt).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		var m models.Material
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", mt.MaterialID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock material %d: %w", mt.MaterialID, err)
		}

		change.MaterialFound = true
		change.Before = m.Quantity
		m.Quantity = adjust(m.Quantity)
		m.LastUpdated = at
		if err := tx.Model(&m).Updates(map[string]any{
			"quantity":     m.Quantity,
			"last_updated": m.LastUpdated,
		}).Error; err != nil {
			return fmt.Errorf("update material %d: %w", m.ID, err)
		}
		change.After = m.Quantity
		change.Material = m
		return nil
	})
	if err != nil {
		return store.StockChange{}, err
	}
	return change, nil
}

// New wraps an opened and migrated *gorm.DB.
func New(db *gorm.DB) *store.Store {
	return &store.Store{
		Sites:        newRepo[models.Site](db, "start_date", "id:site_id"),
		Materials:    materials{newRepo[models.Material](db, "", "site_id", "id:material_id")},
		Transactions: newRepo[models.MaterialTransaction](db, "date", "site_id", "material_id"),
		Workers:      newRepo[models.Worker](db, "join_date", "site_id", "id:worker_id"),
		Attendance:   newRepo[models.Attendance](db, "date", "site_id", "worker_id"),
		Expenses:     newRepo[models.Expense](db, "date", "site_id"),
		Photos:       newRepo[models.Photo](db, "upload_date", "site_id"),
		Notes:        newRepo[models.Note](db, "created_at", "site_id"),
		Users:        users{newRepo[models.User](db, "")},
		AuditLogs:    auditLogs{newRepo[models.AuditLog](db, "created_at", "site_id")},
		Ledger:       ledger{db: db},
		Close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
