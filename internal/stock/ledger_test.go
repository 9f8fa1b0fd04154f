package stock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sitedesk-backend/internal/logger"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
	"sitedesk-backend/internal/store/memory"
)

type countingObserver struct {
	mu       sync.Mutex
	recorded map[models.TransactionType]int
	absorbed []float64
}

func (o *countingObserver) TransactionRecorded(t models.TransactionType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recorded == nil {
		o.recorded = make(map[models.TransactionType]int)
	}
	o.recorded[t]++
}

func (o *countingObserver) ConsumptionAbsorbed(qty float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.absorbed = append(o.absorbed, qty)
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, quantity, min float64) (*store.Store, *Ledger, *countingObserver, models.Material) {
	t.Helper()
	st := memory.New(func() time.Time { return fixedNow })
	m := models.Material{SiteID: 1, Name: "Cement", Unit: "bag", Quantity: quantity, MinStockLevel: min}
	if err := st.Materials.Create(context.Background(), &m); err != nil {
		t.Fatalf("create material: %v", err)
	}
	obs := &countingObserver{}
	l := NewLedger(st, logger.Discard(), obs)
	l.now = func() time.Time { return fixedNow }
	return st, l, obs, m
}

func TestRecordAdjustsQuantity(t *testing.T) {
	ctx := context.Background()
	st, l, obs, m := setup(t, 100, 50)

	res, err := l.Record(ctx, Input{MaterialID: m.ID, Type: models.TransactionUsed, Quantity: 30})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Material == nil || res.Material.Quantity != 70 {
		t.Fatalf("material after record = %+v, want quantity 70", res.Material)
	}
	if res.Transaction.SiteID != 1 {
		t.Errorf("site id defaulted to %d, want 1", res.Transaction.SiteID)
	}
	if !res.Transaction.Date.Equal(fixedNow) {
		t.Errorf("date = %v, want now", res.Transaction.Date)
	}

	got, _ := st.Materials.Get(ctx, m.ID)
	if got.Quantity != 70 || !got.LastUpdated.Equal(fixedNow) {
		t.Errorf("stored material = %+v", got)
	}
	if obs.recorded[models.TransactionUsed] != 1 {
		t.Errorf("observer saw %v", obs.recorded)
	}
}

func TestRecordAbsorbsOverConsumption(t *testing.T) {
	ctx := context.Background()
	st, l, obs, m := setup(t, 15, 50)

	res, err := l.Record(ctx, Input{MaterialID: m.ID, Type: models.TransactionUsed, Quantity: 20})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Material.Quantity != 0 {
		t.Errorf("quantity = %v, want 0", res.Material.Quantity)
	}
	if res.Absorbed != 5 {
		t.Errorf("absorbed = %v, want 5", res.Absorbed)
	}
	if len(obs.absorbed) != 1 || obs.absorbed[0] != 5 {
		t.Errorf("observer absorbed = %v", obs.absorbed)
	}

	txs, _ := st.Transactions.List(ctx, store.Query{MaterialID: m.ID})
	if len(txs) != 1 || txs[0].Quantity != 20 {
		t.Fatalf("transactions = %+v, want one with quantity 20", txs)
	}
}

func TestRecordUnknownMaterial(t *testing.T) {
	ctx := context.Background()
	st, l, _, _ := setup(t, 10, 0)

	res, err := l.Record(ctx, Input{MaterialID: 999, SiteID: 4, Type: models.TransactionAdded, Quantity: 2})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Material != nil {
		t.Errorf("material = %+v, want nil", res.Material)
	}
	txs, _ := st.Transactions.List(ctx, store.Query{MaterialID: 999})
	if len(txs) != 1 || txs[0].SiteID != 4 {
		t.Fatalf("transactions = %+v", txs)
	}
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	st, l, _, m := setup(t, 10, 0)

	cases := []struct {
		in   Input
		want error
	}{
		{Input{MaterialID: m.ID, Type: models.TransactionAdded, Quantity: 0}, ErrInvalidQuantity},
		{Input{MaterialID: m.ID, Type: models.TransactionUsed, Quantity: -1}, ErrInvalidQuantity},
		{Input{MaterialID: m.ID, Type: "moved", Quantity: 1}, ErrInvalidType},
	}
	for _, c := range cases {
		if _, err := l.Record(ctx, c.in); !errors.Is(err, c.want) {
			t.Errorf("Record(%+v) err = %v, want %v", c.in, err, c.want)
		}
	}
	txs, _ := st.Transactions.List(ctx, store.Query{})
	if len(txs) != 0 {
		t.Fatalf("invalid input persisted %d transactions", len(txs))
	}
}

func TestRecordConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	st, l, _, m := setup(t, 0, 0)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Record(ctx, Input{MaterialID: m.ID, Type: models.TransactionAdded, Quantity: 1}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, _ := st.Materials.Get(ctx, m.ID)
	if got.Quantity != n {
		t.Fatalf("quantity = %v, want %d", got.Quantity, n)
	}
}

func TestDeletedMaterialKeepsTransactions(t *testing.T) {
	ctx := context.Background()
	st, l, _, m := setup(t, 10, 0)

	for i := 0; i < 3; i++ {
		if _, err := l.Record(ctx, Input{MaterialID: m.ID, Type: models.TransactionAdded, Quantity: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.Materials.Delete(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	txs, _ := st.Transactions.List(ctx, store.Query{MaterialID: m.ID})
	if len(txs) != 3 {
		t.Fatalf("transactions after delete = %d, want 3", len(txs))
	}
}
