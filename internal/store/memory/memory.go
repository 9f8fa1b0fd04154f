// Package memory is a map-backed store used by tests and DATABASE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
)

type stamper interface {
	Stamp(now time.Time)
}

type table[T any, P store.Record[T]] struct {
	mu   sync.RWMutex
	rows map[uint]T
	next uint
	now  func() time.Time
}

func newTable[T any, P store.Record[T]](now func() time.Time) *table[T, P] {
	return &table[T, P]{rows: make(map[uint]T), now: now}
}

func (t *table[T, P]) List(ctx context.Context, q store.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		r := row
		if q.Matches(P(&r).Scope()) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return P(&out[i]).PrimaryKey() < P(&out[j]).PrimaryKey()
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (t *table[T, P]) Get(ctx context.Context, id uint) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return zero, store.ErrNotFound
	}
	return row, nil
}

func (t *table[T, P]) Create(ctx context.Context, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insert(v)
	return nil
}

// insert assigns the next id and stores v. The caller holds t.mu.
func (t *table[T, P]) insert(v *T) {
	t.next++
	P(v).SetPrimaryKey(t.next)
	if s, ok := any(v).(stamper); ok {
		s.Stamp(t.now())
	}
	t.rows[t.next] = *v
}

func (t *table[T, P]) Update(ctx context.Context, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id := P(v).PrimaryKey()
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	if s, ok := any(v).(stamper); ok {
		s.Stamp(t.now())
	}
	t.rows[id] = *v
	return nil
}

func (t *table[T, P]) Delete(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

type users struct {
	*table[models.User, *models.User]
}

func (u users) ByUsername(ctx context.Context, username string) (models.User, error) {
	all, err := u.List(ctx, store.Query{})
	if err != nil {
		return models.User{}, err
	}
	for _, usr := range all {
		if strings.EqualFold(usr.Username, username) {
			return usr, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

type auditLogs struct {
	*table[models.AuditLog, *models.AuditLog]
}

// List returns the newest entries first.
func (a auditLogs) List(ctx context.Context, q store.Query, entityType string) ([]models.AuditLog, error) {
	limit := q.Limit
	q.Limit = 0
	all, err := a.table.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.AuditLog, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if entityType != "" && all[i].EntityType != entityType {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type materials struct {
	*table[models.Material, *models.Material]
}

func (m materials) Update(ctx context.Context, v *models.Material) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[v.ID]
	if !ok {
		return store.ErrNotFound
	}
	v.Quantity = cur.Quantity
	m.rows[v.ID] = *v
	return nil
}

func (m materials) SetQuantity(ctx context.Context, id uint, quantity float64, at time.Time) (models.Material, error) {
	if err := ctx.Err(); err != nil {
		return models.Material{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok {
		return models.Material{}, store.ErrNotFound
	}
	cur.Quantity = quantity
	cur.LastUpdated = at
	m.rows[id] = cur
	return cur, nil
}

type attendance struct {
	*table[models.Attendance, *models.Attendance]
}

// taken reports whether another row exists for the same worker and day. The
// caller holds a.mu.
func (a attendance) taken(v *models.Attendance) bool {
	y, mo, d := v.Date.Date()
	for id, row := range a.rows {
		if id == v.ID || row.WorkerID != v.WorkerID {
			continue
		}
		if ry, rm, rd := row.Date.Date(); ry == y && rm == mo && rd == d {
			return true
		}
	}
	return false
}

func (a attendance) Create(ctx context.Context, v *models.Attendance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.taken(v) {
		return store.ErrDuplicate
	}
	a.insert(v)
	return nil
}

func (a attendance) Update(ctx context.Context, v *models.Attendance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rows[v.ID]; !ok {
		return store.ErrNotFound
	}
	if a.taken(v) {
		return store.ErrDuplicate
	}
	v.Stamp(a.now())
	a.rows[v.ID] = *v
	return nil
}

type ledger struct {
	materials    *table[models.Material, *models.Material]
	transactions *table[models.MaterialTransaction, *models.MaterialTransaction]
}

// Append holds the transactions lock and then the materials lock, so the
// insert and the adjustment are visible together.
func (l ledger) Append(ctx context.Context, tx *models.MaterialTransaction, at time.Time, adjust func(float64) float64) (store.StockChange, error) {
	if err := ctx.Err(); err != nil {
		return store.StockChange{}, err
	}
	l.transactions.mu.Lock()
	defer l.transactions.mu.Unlock()
	l.materials.mu.Lock()
	defer l.materials.mu.Unlock()

	l.transactions.insert(tx)
	m, ok := l.materials.rows[tx.MaterialID]
	if !ok {
		return store.StockChange{}, nil
	}
	change := store.StockChange{MaterialFound: true, Before: m.Quantity}
	m.Quantity = adjust(m.Quantity)
	m.LastUpdated = at
	l.materials.rows[m.ID] = m
	change.After = m.Quantity
	change.Material = m
	return change, nil
}

// New returns an empty store. now defaults to time.Now.
func New(now func() time.Time) *store.Store {
	if now == nil {
		now = time.Now
	}
	mats := newTable[models.Material](now)
	transactions := newTable[models.MaterialTransaction](now)
	return &store.Store{
		Sites:        newTable[models.Site](now),
		Materials:    materials{mats},
		Transactions: transactions,
		Workers:      newTable[models.Worker](now),
		Attendance:   attendance{newTable[models.Attendance](now)},
		Expenses:     newTable[models.Expense](now),
		Photos:       newTable[models.Photo](now),
		Notes:        newTable[models.Note](now),
		Users:        users{newTable[models.User](now)},
		AuditLogs:    auditLogs{newTable[models.AuditLog](now)},
		Ledger:       ledger{materials: mats, transactions: transactions},
		Close:        func() error { return nil },
	}
}
