package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"milkbook/internal/domain"
	"milkbook/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCustomerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateCustomer(ctx, domain.Customer{Name: "Asha", Contact: "9000000003", Address: "12 Lake Road"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || !created.Active {
		t.Fatalf("unexpected created customer: %+v", created)
	}

	fetched, err := s.GetCustomer(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Name != "Asha" || fetched.Address != "12 Lake Road" {
		t.Fatalf("round trip mismatch: %+v", fetched)
	}

	fetched.Contact = "9111111111"
	if _, err := s.UpdateCustomer(ctx, *fetched); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := s.GetCustomer(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if again.Contact != "9111111111" {
		t.Fatalf("update did not persist: %+v", again)
	}

	if err := s.DeactivateCustomer(ctx, created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	listed, err := s.ListCustomers(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("deactivated customer still listed")
	}
	all, err := s.ListCustomers(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].Active {
		t.Fatalf("expected one inactive customer, got %+v", all)
	}
}

func TestNotFoundSentinels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetCustomer(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteDelivery(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeactivateCustomer(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func seedBilling(t *testing.T, s *Store) (customerID int64) {
	t.Helper()
	ctx := context.Background()

	milk, err := s.CreateItem(ctx, domain.Item{Name: "Milk", Price: decimal.RequireFromString("30.00")})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	manager, err := s.CreateManager(ctx, domain.Manager{Name: "Suresh"})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	partner, err := s.CreatePartner(ctx, domain.DeliveryPartner{Name: "Ravi"})
	if err != nil {
		t.Fatalf("create partner: %v", err)
	}
	customer, err := s.CreateCustomer(ctx, domain.Customer{Name: "Asha"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	for _, day := range []string{"2024-01-01", "2024-01-02"} {
		_, err := s.CreateDelivery(ctx, domain.DailyDelivery{
			Date: day, CustomerID: customer.ID, ItemID: milk.ID, Quantity: 2,
			Price: milk.Price, PartnerID: partner.ID, ManagerID: manager.ID,
		})
		if err != nil {
			t.Fatalf("create delivery: %v", err)
		}
	}
	_, err = s.CreatePayment(ctx, domain.AdvancePayment{
		CustomerID: customer.ID, Amount: decimal.RequireFromString("50.00"), Date: "2024-01-03",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return customer.ID
}

func TestBalanceAggregation(t *testing.T) {
	s := newTestStore(t)

	customerID := seedBilling(t, s)

	rows, err := s.ListCustomerBalances(context.Background(), "")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.ID != customerID {
		t.Fatalf("wrong customer: %+v", row)
	}
	if row.Charges.String() != "120" {
		t.Fatalf("expected charges 120, got %s", row.Charges)
	}
	if row.Paid.String() != "50" {
		t.Fatalf("expected paid 50, got %s", row.Paid)
	}
	if row.Dues.String() != "70" || !row.Credit.IsZero() {
		t.Fatalf("expected dues 70 / credit 0, got %s / %s", row.Dues, row.Credit)
	}
}

func TestStatementRangeBoundsInclusive(t *testing.T) {
	s := newTestStore(t)
	customerID := seedBilling(t, s)
	ctx := context.Background()

	deliveries, payments, err := s.CustomerStatementRange(ctx, customerID, "2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(deliveries) != 2 || len(payments) != 1 {
		t.Fatalf("expected 2 deliveries and 1 payment, got %d/%d", len(deliveries), len(payments))
	}

	deliveries, payments, err = s.CustomerStatementRange(ctx, customerID, "2024-01-02", "2024-01-02")
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(deliveries) != 1 || len(payments) != 0 {
		t.Fatalf("edge day should include exactly its own rows, got %d/%d", len(deliveries), len(payments))
	}
}

func TestDeliveryRowsResolveNamesLeniently(t *testing.T) {
	s := newTestStore(t)
	seedBilling(t, s)
	ctx := context.Background()

	// Hard-delete the item; the delivery row must survive with a blank name.
	if err := s.DeleteItem(ctx, 1); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	rows, err := s.ListDeliveries(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ItemName != "" {
		t.Fatalf("expected blank item name, got %q", rows[0].ItemName)
	}
	if rows[0].CustomerName != "Asha" {
		t.Fatalf("expected customer name Asha, got %q", rows[0].CustomerName)
	}
}

func TestPartnerRemaining(t *testing.T) {
	s := newTestStore(t)
	seedBilling(t, s)
	ctx := context.Background()

	_, err := s.CreateAllocation(ctx, domain.PartnerAllocation{
		Date: "2024-01-01", PartnerID: 1, ManagerID: 1, ItemID: 1, Quantity: 100,
	})
	if err != nil {
		t.Fatalf("create allocation: %v", err)
	}

	allocated, delivered, err := s.PartnerRemaining(ctx, 1, "2024-01-01")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if allocated != 100 || delivered != 2 {
		t.Fatalf("expected 100/2, got %d/%d", allocated, delivered)
	}

	// A day with no rows reports zeroes rather than an error.
	allocated, delivered, err = s.PartnerRemaining(ctx, 1, "2024-06-01")
	if err != nil {
		t.Fatalf("remaining empty day: %v", err)
	}
	if allocated != 0 || delivered != 0 {
		t.Fatalf("expected 0/0, got %d/%d", allocated, delivered)
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value, err := s.GetSetting(ctx, "shop_name")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value for missing key, got %q", value)
	}

	if err := s.SetSetting(ctx, "shop_name", "Gokul Dairy"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting(ctx, "shop_name", "Gokul Dairy & Sons"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = s.GetSetting(ctx, "shop_name")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "Gokul Dairy & Sons" {
		t.Fatalf("expected overwritten value, got %q", value)
	}
}

// TestAdditiveMigration verifies that opening a database created before the
// alt_contact column existed upgrades it in place without losing rows.
func TestAdditiveMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	ctx := context.Background()

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	_, err = raw.ExecContext(ctx, `CREATE TABLE customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact TEXT,
		address TEXT,
		alt_delivery_partner_id INTEGER,
		active INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := raw.ExecContext(ctx, `INSERT INTO customers (name, contact) VALUES ('Asha', '9000000003')`); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw: %v", err)
	}

	s, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reopen with migration: %v", err)
	}
	defer s.Close()

	customer, err := s.GetCustomer(ctx, 1)
	if err != nil {
		t.Fatalf("get migrated row: %v", err)
	}
	if customer.Name != "Asha" || customer.AltContact != "" {
		t.Fatalf("unexpected migrated customer: %+v", customer)
	}

	// The new column is writable after the upgrade.
	customer.AltContact = "9222222222"
	if _, err := s.UpdateCustomer(ctx, *customer); err != nil {
		t.Fatalf("update with new column: %v", err)
	}
}
