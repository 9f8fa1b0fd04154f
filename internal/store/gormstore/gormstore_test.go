package gormstore_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"sitedesk-backend/internal/database"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"
	"sitedesk-backend/internal/store/gormstore"
)

// openStore connects to DATABASE_DSN; set DB_DSN_TEST=1 to run these tests.
func openStore(t *testing.T) *store.Store {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("set DB_DSN_TEST=1 and DATABASE_DSN to run PostgreSQL tests")
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Fatal("DATABASE_DSN is empty")
	}
	db, err := database.Open(dsn, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"attendance", "audit_logs", "expenses", "material_transactions", "materials", "notes", "photos", "sites", "users", "workers"} {
		if err := db.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY").Error; err != nil {
			t.Fatal(err)
		}
	}
	st := gormstore.New(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	s := models.Site{Name: "Riverside", Status: models.SiteActive, StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)}
	if err := st.Sites.Create(ctx, &s); err != nil {
		t.Fatal(err)
	}
	s.Budget = 1200
	if err := st.Sites.Update(ctx, &s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Sites.Get(ctx, s.ID)
	if err != nil || got.Budget != 1200 {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	sites, err := st.Sites.List(ctx, store.Query{SiteID: s.ID, From: &from, To: &to})
	if err != nil || len(sites) != 1 {
		t.Fatalf("List = %+v, %v", sites, err)
	}

	if err := st.Sites.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Sites.Get(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	if err := st.Sites.Delete(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
	if err := st.Sites.Update(ctx, &s); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update missing err = %v", err)
	}
}

func TestLedgerConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	m := models.Material{SiteID: 1, Name: "Cement", Unit: "bag", LastUpdated: time.Now()}
	if err := st.Materials.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := models.MaterialTransaction{
				MaterialID: m.ID, SiteID: 1, Date: time.Now(),
				TransactionType: models.TransactionAdded, Quantity: 1,
			}
			if _, err := st.Ledger.Append(ctx, &tx, time.Now(), func(q float64) float64 { return q + 1 }); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, _ := st.Materials.Get(ctx, m.ID)
	if got.Quantity != n {
		t.Fatalf("quantity = %v, want %d", got.Quantity, n)
	}
	txs, _ := st.Transactions.List(ctx, store.Query{MaterialID: m.ID})
	if len(txs) != n {
		t.Fatalf("transactions = %d, want %d", len(txs), n)
	}
}

func TestUsersAndAudit(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	u := models.User{Username: "admin", Name: "Admin", PasswordHash: "x", Role: models.RoleAdmin}
	if err := st.Users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	if got, err := st.Users.ByUsername(ctx, "ADMIN"); err != nil || got.ID != u.ID {
		t.Fatalf("ByUsername = %+v, %v", got, err)
	}

	for _, et := range []string{"site", "material"} {
		if err := st.AuditLogs.Create(ctx, &models.AuditLog{EntityType: et, Action: models.AuditActionCreate}); err != nil {
			t.Fatal(err)
		}
	}
	logs, err := st.AuditLogs.List(ctx, store.Query{}, "")
	if err != nil || len(logs) != 2 || logs[0].EntityType != "material" {
		t.Fatalf("audit logs = %+v, %v", logs, err)
	}
}

func TestMaterialUpdateKeepsLedgerQuantity(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	m := models.Material{SiteID: 1, Name: "Cement", Unit: "bag", Quantity: 10, LastUpdated: time.Now()}
	if err := st.Materials.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}
	stale, _ := st.Materials.Get(ctx, m.ID)

	tx := models.MaterialTransaction{MaterialID: m.ID, SiteID: 1, Date: time.Now(), TransactionType: models.TransactionAdded, Quantity: 5}
	if _, err := st.Ledger.Append(ctx, &tx, time.Now(), func(q float64) float64 { return q + 5 }); err != nil {
		t.Fatal(err)
	}

	stale.Name = "Portland cement"
	if err := st.Materials.Update(ctx, &stale); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Materials.Get(ctx, m.ID)
	if got.Quantity != 15 || stale.Quantity != 15 || got.Name != "Portland cement" {
		t.Fatalf("stored = %+v, returned = %+v", got, stale)
	}

	recount, err := st.Materials.SetQuantity(ctx, m.ID, 4, time.Now())
	if err != nil || recount.Quantity != 4 {
		t.Fatalf("SetQuantity = %+v, %v", recount, err)
	}
	if _, err := st.Materials.SetQuantity(ctx, 999, 1, time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("SetQuantity missing err = %v", err)
	}
}

func TestAttendanceUniqueIndex(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	d := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	first := models.Attendance{WorkerID: 1, SiteID: 1, Date: d, Status: models.AttendancePresent}
	if err := st.Attendance.Create(ctx, &first); err != nil {
		t.Fatal(err)
	}
	dup := models.Attendance{WorkerID: 1, SiteID: 1, Date: d, Status: models.AttendanceAbsent}
	if err := st.Attendance.Create(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
}
