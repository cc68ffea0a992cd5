package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"milkbook/internal/cache"
	"milkbook/internal/domain"
	"milkbook/internal/store"
	"milkbook/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NoopBalanceCache{}, 5*time.Second)
}

func TestCustomerBalancesFromSeed(t *testing.T) {
	svc := newTestService()

	rows, err := svc.CustomerBalances(context.Background(), "")
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 active customers, got %d", len(rows))
	}

	var asha *domain.CustomerBalanceRow
	for i := range rows {
		if rows[i].Name == "Asha" {
			asha = &rows[i]
		}
	}
	if asha == nil {
		t.Fatalf("seeded customer Asha missing from balances")
	}
	if asha.Charges.String() != "105" {
		t.Fatalf("expected charges 105, got %s", asha.Charges)
	}
	if asha.Paid.String() != "50" {
		t.Fatalf("expected paid 50, got %s", asha.Paid)
	}
	if asha.Dues.String() != "55" {
		t.Fatalf("expected dues 55, got %s", asha.Dues)
	}
	if !asha.Credit.IsZero() {
		t.Fatalf("expected zero credit, got %s", asha.Credit)
	}
}

func TestOverpaymentShowsAsCredit(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		CustomerID: 1,
		Amount:     "100.00",
		Date:       "2024-01-05",
	})
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	rows, err := svc.CustomerBalances(ctx, "Asha")
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 match for Asha, got %d", len(rows))
	}
	if !rows[0].Dues.IsZero() {
		t.Fatalf("expected zero dues, got %s", rows[0].Dues)
	}
	if rows[0].Credit.String() != "45" {
		t.Fatalf("expected credit 45, got %s", rows[0].Credit)
	}
}

func TestCreateCustomerTrimsFields(t *testing.T) {
	svc := newTestService()

	customer, err := svc.CreateCustomer(context.Background(), domain.CustomerCreateRequest{
		Name:    "  Chitra  ",
		Contact: " 9000000005 ",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if customer.Name != "Chitra" {
		t.Fatalf("expected trimmed name, got %q", customer.Name)
	}
	if customer.Contact != "9000000005" {
		t.Fatalf("expected trimmed contact, got %q", customer.Contact)
	}
	if !customer.Active {
		t.Fatalf("new customer should be active")
	}
}

func TestCreateCustomerRejectsBlankName(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateCustomer(context.Background(), domain.CustomerCreateRequest{Name: "   "})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeactivateCustomerKeepsHistory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.DeactivateCustomer(ctx, 1); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	customers, err := svc.ListCustomers(ctx, false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, c := range customers {
		if c.ID == 1 {
			t.Fatalf("deactivated customer still in default listing")
		}
	}

	// Lookup by id and past deliveries survive deactivation.
	customer, err := svc.GetCustomer(ctx, 1)
	if err != nil {
		t.Fatalf("get after deactivate failed: %v", err)
	}
	if customer.Active {
		t.Fatalf("customer should be inactive")
	}

	deliveries, err := svc.ListDeliveries(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("list deliveries failed: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected the seeded delivery to survive, got %d rows", len(deliveries))
	}
}

func TestCreateItemRejectsBadPrice(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	before, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	_, err = svc.CreateItem(ctx, domain.ItemCreateRequest{Name: "Ghee", Price: "abc"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	after, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("failed create changed the item list: %d -> %d", len(before), len(after))
	}
}

func TestUpdateItemPriceDoesNotTouchPastDeliveries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	newPrice := "35.00"
	if _, err := svc.UpdateItem(ctx, 1, domain.ItemUpdateRequest{Price: &newPrice}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	deliveries, err := svc.ListDeliveries(ctx, "2024-01-01")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(deliveries))
	}
	if deliveries[0].Price.String() != "30" {
		t.Fatalf("past delivery price changed: %s", deliveries[0].Price)
	}
}

func TestCreateDeliveryValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.DeliveryCreateRequest
	}{
		{"bad date", domain.DeliveryCreateRequest{Date: "01-01-2024", CustomerID: 1, ItemID: 1, Quantity: 1, Price: "30", PartnerID: 1, ManagerID: 1}},
		{"zero quantity", domain.DeliveryCreateRequest{Date: "2024-01-01", CustomerID: 1, ItemID: 1, Quantity: 0, Price: "30", PartnerID: 1, ManagerID: 1}},
		{"bad price", domain.DeliveryCreateRequest{Date: "2024-01-01", CustomerID: 1, ItemID: 1, Quantity: 1, Price: "thirty", PartnerID: 1, ManagerID: 1}},
		{"missing customer", domain.DeliveryCreateRequest{Date: "2024-01-01", ItemID: 1, Quantity: 1, Price: "30", PartnerID: 1, ManagerID: 1}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateDelivery(ctx, tc.req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestCreatePaymentForUnknownCustomer(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreatePayment(context.Background(), domain.PaymentCreateRequest{
		CustomerID: 99,
		Amount:     "10.00",
		Date:       "2024-01-01",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPartnerDaySummaryRemaining(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	day, err := svc.PartnerDaySummary(ctx, 1, "2024-01-01")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if day.Allocated != 100 {
		t.Fatalf("expected 100 allocated, got %d", day.Allocated)
	}
	if day.Delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", day.Delivered)
	}
	if day.Remaining != 98 {
		t.Fatalf("expected 98 remaining, got %d", day.Remaining)
	}

	// Over-delivery is reported with a negative remainder, never blocked.
	_, err = svc.CreateDelivery(ctx, domain.DeliveryCreateRequest{
		Date: "2024-01-01", CustomerID: 2, ItemID: 1, Quantity: 150,
		Price: "30.00", PartnerID: 1, ManagerID: 1,
	})
	if err != nil {
		t.Fatalf("over-delivery rejected: %v", err)
	}
	day, err = svc.PartnerDaySummary(ctx, 1, "2024-01-01")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if day.Remaining != -52 {
		t.Fatalf("expected remaining -52, got %d", day.Remaining)
	}
}

func TestCustomerSummaryRangeIsInclusive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// Seed has deliveries on 01 and 02 and a payment on 03.
	summary, err := svc.CustomerSummary(ctx, 1, "2024-01-01", "2024-01-03")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalQuantity != 3 {
		t.Fatalf("expected quantity 3, got %d", summary.TotalQuantity)
	}
	if summary.TotalAmount.String() != "105" {
		t.Fatalf("expected charges 105, got %s", summary.TotalAmount)
	}
	if summary.TotalPaid.String() != "50" {
		t.Fatalf("expected paid 50, got %s", summary.TotalPaid)
	}

	// Narrow the range to a single edge day.
	summary, err = svc.CustomerSummary(ctx, 1, "2024-01-02", "2024-01-02")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalQuantity != 1 {
		t.Fatalf("expected quantity 1 on the edge day, got %d", summary.TotalQuantity)
	}
	if summary.TotalAmount.String() != "45" {
		t.Fatalf("expected charges 45 on the edge day, got %s", summary.TotalAmount)
	}
}

func TestCustomerSummaryRejectsInvertedRange(t *testing.T) {
	svc := newTestService()

	_, err := svc.CustomerSummary(context.Background(), 1, "2024-01-05", "2024-01-01")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMonthlyStatement(t *testing.T) {
	svc := newTestService()

	statement, err := svc.MonthlyStatement(context.Background(), 1, "2024-01")
	if err != nil {
		t.Fatalf("statement failed: %v", err)
	}
	if statement.PeriodLabel != "2024-01" {
		t.Fatalf("expected period label 2024-01, got %q", statement.PeriodLabel)
	}
	if len(statement.Deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(statement.Deliveries))
	}
	if len(statement.Payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(statement.Payments))
	}
	if statement.Dues.String() != "55" {
		t.Fatalf("expected dues 55, got %s", statement.Dues)
	}

	if _, err := svc.MonthlyStatement(context.Background(), 1, "January"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad month, got %v", err)
	}
}

func TestBuildReceiptProducesPDF(t *testing.T) {
	svc := newTestService()

	pdf, name, err := svc.BuildReceipt(context.Background(), 1, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("receipt failed: %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Fatalf("expected PDF bytes, got %q", pdf[:min(len(pdf), 8)])
	}
	if name != "receipt_Asha_2024-01-01_to_2024-01-31.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if settings.ShopName != "Milk Billing System" {
		t.Fatalf("unexpected shop name %q", settings.ShopName)
	}
	if settings.Username != "admin" {
		t.Fatalf("unexpected username %q", settings.Username)
	}

	name := "Gokul Dairy"
	address := "Main Bazaar"
	settings, err = svc.UpdateShopSettings(ctx, domain.SettingsUpdateRequest{
		ShopName:    &name,
		ShopAddress: &address,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if settings.ShopName != "Gokul Dairy" || settings.ShopAddress != "Main Bazaar" {
		t.Fatalf("update not applied: %+v", settings)
	}
}

// recordingCache counts cache traffic so tests can observe invalidation.
type recordingCache struct {
	rows        []domain.CustomerBalanceRow
	hits        int
	sets        int
	invalidates int
}

func (c *recordingCache) Get(context.Context, string) ([]domain.CustomerBalanceRow, bool, error) {
	if c.rows == nil {
		return nil, false, nil
	}
	c.hits++
	return c.rows, true, nil
}

func (c *recordingCache) Set(_ context.Context, _ string, rows []domain.CustomerBalanceRow, _ time.Duration) error {
	c.sets++
	c.rows = rows
	return nil
}

func (c *recordingCache) Invalidate(context.Context) error {
	c.invalidates++
	c.rows = nil
	return nil
}

func TestBalanceCacheUsage(t *testing.T) {
	recorder := &recordingCache{}
	svc := New(memory.NewSeeded(), recorder, 5*time.Second)
	ctx := context.Background()

	if _, err := svc.CustomerBalances(ctx, ""); err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if recorder.sets != 1 {
		t.Fatalf("expected a cache fill, got %d sets", recorder.sets)
	}

	if _, err := svc.CustomerBalances(ctx, ""); err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	if recorder.hits != 1 {
		t.Fatalf("expected a cache hit, got %d", recorder.hits)
	}

	// Any write that moves a balance clears the cache.
	if _, err := svc.CreatePayment(ctx, domain.PaymentCreateRequest{
		CustomerID: 1, Amount: "5.00", Date: "2024-01-06",
	}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if recorder.invalidates != 1 {
		t.Fatalf("expected invalidation after payment, got %d", recorder.invalidates)
	}

	rows, err := svc.CustomerBalances(ctx, "")
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	var asha *domain.CustomerBalanceRow
	for i := range rows {
		if rows[i].Name == "Asha" {
			asha = &rows[i]
		}
	}
	if asha == nil || asha.Paid.String() != "55" {
		t.Fatalf("expected refreshed paid 55 after invalidation")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	contact := "  9111111111 "
	customer, err := svc.UpdateCustomer(ctx, 2, domain.CustomerUpdateRequest{Contact: &contact})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if customer.Contact != "9111111111" {
		t.Fatalf("expected trimmed contact, got %q", customer.Contact)
	}
	if customer.Name != "Binod" {
		t.Fatalf("untouched field changed: %q", customer.Name)
	}

	fetched, err := svc.GetCustomer(ctx, 2)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched.Contact != "9111111111" {
		t.Fatalf("update did not persist: %q", fetched.Contact)
	}
}
