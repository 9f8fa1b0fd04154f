package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidType     = errors.New("transactionType must be added or used")
)

// Observer is told about every recorded transaction. metrics.Metrics
// implements it.
type Observer interface {
	TransactionRecorded(t models.TransactionType)
	ConsumptionAbsorbed(qty float64)
}

type nopObserver struct{}

func (nopObserver) TransactionRecorded(models.TransactionType) {}
func (nopObserver) ConsumptionAbsorbed(float64)                {}

type Input struct {
	MaterialID uint
	SiteID     uint
	Type       models.TransactionType
	Quantity   float64
	Date       time.Time
	Notes      string
	RecordedBy string
}

type Result struct {
	Transaction models.MaterialTransaction
	// Material is nil when the referenced material does not exist.
	Material *models.Material
	// Absorbed is the part of a "used" quantity that exceeded stock.
	Absorbed float64
}

type Ledger struct {
	store    *store.Store
	log      *slog.Logger
	observer Observer
	now      func() time.Time
}

func NewLedger(st *store.Store, log *slog.Logger, obs Observer) *Ledger {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: st, log: log, observer: obs, now: time.Now}
}

// Record appends a transaction and adjusts its material's quantity.
//
// The transaction row is written even when the material is missing (the
// quantity update is skipped) and even when usage exceeds stock (quantity is
// clamped to zero, the excess is reported in Result.Absorbed).
func (l *Ledger) Record(ctx context.Context, in Input) (Result, error) {
	if !in.Type.Valid() {
		return Result{}, ErrInvalidType
	}
	if !(in.Quantity > 0) {
		return Result{}, ErrInvalidQuantity
	}

	now := l.now()
	if in.Date.IsZero() {
		in.Date = now
	}
	if in.SiteID == 0 {
		m, err := l.store.Materials.Get(ctx, in.MaterialID)
		switch {
		case err == nil:
			in.SiteID = m.SiteID
		case !errors.Is(err, store.ErrNotFound):
			return Result{}, fmt.Errorf("load material %d: %w", in.MaterialID, err)
		}
	}

	tx := models.MaterialTransaction{
		MaterialID:      in.MaterialID,
		SiteID:          in.SiteID,
		Date:            in.Date,
		TransactionType: in.Type,
		Quantity:        in.Quantity,
		Notes:           in.Notes,
		RecordedBy:      in.RecordedBy,
		CreatedAt:       now,
	}

	var absorbed float64
	change, err := l.store.Ledger.Append(ctx, &tx, now, func(current float64) float64 {
		var next float64
		next, absorbed = Apply(current, in.Type, in.Quantity)
		return next
	})
	if err != nil {
		return Result{}, fmt.Errorf("append transaction: %w", err)
	}

	l.observer.TransactionRecorded(in.Type)
	res := Result{Transaction: tx, Absorbed: absorbed}
	if !change.MaterialFound {
		l.log.Warn("transaction recorded for unknown material",
			"transaction_id", tx.ID, "material_id", tx.MaterialID)
		return res, nil
	}

	m := change.Material
	res.Material = &m
	if absorbed > 0 {
		l.observer.ConsumptionAbsorbed(absorbed)
		l.log.Warn("usage exceeded stock, quantity clamped to zero",
			"transaction_id", tx.ID,
			"material_id", m.ID,
			"site_id", m.SiteID,
			"requested", in.Quantity,
			"available", change.Before,
			"absorbed", absorbed)
	}
	return res, nil
}
