package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"milkbook/internal/domain"
	"milkbook/internal/store"
)

// Store is a mutex-guarded in-memory repository used by tests and demo mode.
type Store struct {
	mu          sync.RWMutex
	customers   map[int64]domain.Customer
	partners    map[int64]domain.DeliveryPartner
	items       map[int64]domain.Item
	managers    map[int64]domain.Manager
	payments    map[int64]domain.AdvancePayment
	deliveries  map[int64]domain.DailyDelivery
	allocations map[int64]domain.PartnerAllocation
	settings    map[string]string
	nextID      map[string]int64
}

func New() *Store {
	return &Store{
		customers:   make(map[int64]domain.Customer),
		partners:    make(map[int64]domain.DeliveryPartner),
		items:       make(map[int64]domain.Item),
		managers:    make(map[int64]domain.Manager),
		payments:    make(map[int64]domain.AdvancePayment),
		deliveries:  make(map[int64]domain.DailyDelivery),
		allocations: make(map[int64]domain.PartnerAllocation),
		settings:    make(map[string]string),
		nextID:      make(map[string]int64),
	}
}

// NewSeeded returns a store pre-filled with a small demo dataset.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()

	milk, _ := s.CreateItem(ctx, domain.Item{Name: "Milk", Price: decimal.RequireFromString("30.00")})
	curd, _ := s.CreateItem(ctx, domain.Item{Name: "Curd", Price: decimal.RequireFromString("45.00")})
	manager, _ := s.CreateManager(ctx, domain.Manager{Name: "Suresh", Contact: "9000000001"})
	partner, _ := s.CreatePartner(ctx, domain.DeliveryPartner{Name: "Ravi", Contact: "9000000002", Address: "Ward 4"})
	asha, _ := s.CreateCustomer(ctx, domain.Customer{Name: "Asha", Contact: "9000000003", Address: "12 Lake Road"})
	_, _ = s.CreateCustomer(ctx, domain.Customer{Name: "Binod", Contact: "9000000004", Address: "3 Hill Street"})

	_, _ = s.CreateAllocation(ctx, domain.PartnerAllocation{
		Date: "2024-01-01", PartnerID: partner.ID, ManagerID: manager.ID, ItemID: milk.ID, Quantity: 100,
	})
	_, _ = s.CreateDelivery(ctx, domain.DailyDelivery{
		Date: "2024-01-01", CustomerID: asha.ID, ItemID: milk.ID, Quantity: 2,
		Price: milk.Price, PartnerID: partner.ID, ManagerID: manager.ID,
	})
	_, _ = s.CreateDelivery(ctx, domain.DailyDelivery{
		Date: "2024-01-02", CustomerID: asha.ID, ItemID: curd.ID, Quantity: 1,
		Price: curd.Price, PartnerID: partner.ID, ManagerID: manager.ID,
	})
	_, _ = s.CreatePayment(ctx, domain.AdvancePayment{
		CustomerID: asha.ID, Amount: decimal.RequireFromString("50.00"), Date: "2024-01-03", Notes: "cash",
	})

	_ = s.SetSetting(ctx, "shop_name", "Milk Billing System")
	return s
}

func (s *Store) allocateID(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

// --- customers ---

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = s.allocateID("customer")
	customer.Active = true
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[customer.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	customer.Active = existing.Active
	s.customers[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeactivateCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer, ok := s.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	customer.Active = false
	s.customers[id] = customer
	return nil
}

func (s *Store) GetCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) ListCustomers(_ context.Context, includeInactive bool) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if !includeInactive && !customer.Active {
			continue
		}
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (s *Store) ListCustomerBalances(_ context.Context, search string) ([]domain.CustomerBalanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(search)
	result := make([]domain.CustomerBalanceRow, 0, len(s.customers))
	for _, customer := range s.customers {
		if !customer.Active {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(customer.Name), needle) &&
			!strings.Contains(strings.ToLower(customer.Contact), needle) &&
			!strings.Contains(strings.ToLower(customer.Address), needle) {
			continue
		}

		charges := decimal.Zero
		for _, delivery := range s.deliveries {
			if delivery.CustomerID == customer.ID {
				charges = charges.Add(delivery.Price.Mul(decimal.NewFromInt(int64(delivery.Quantity))))
			}
		}
		paid := decimal.Zero
		for _, payment := range s.payments {
			if payment.CustomerID == customer.ID {
				paid = paid.Add(payment.Amount)
			}
		}

		row := domain.CustomerBalanceRow{Customer: customer, Charges: charges, Paid: paid}
		row.Dues, row.Credit = domain.SplitBalance(charges, paid)
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// --- partners ---

func (s *Store) CreatePartner(_ context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error) {
	if partner.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	partner.ID = s.allocateID("partner")
	partner.Active = true
	s.partners[partner.ID] = partner
	created := partner
	return &created, nil
}

func (s *Store) UpdatePartner(_ context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error) {
	if partner.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.partners[partner.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	partner.Active = existing.Active
	s.partners[partner.ID] = partner
	updated := partner
	return &updated, nil
}

func (s *Store) DeactivatePartner(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	partner, ok := s.partners[id]
	if !ok {
		return store.ErrNotFound
	}
	partner.Active = false
	s.partners[id] = partner
	return nil
}

func (s *Store) GetPartner(_ context.Context, id int64) (*domain.DeliveryPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	partner, ok := s.partners[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &partner, nil
}

func (s *Store) ListPartners(_ context.Context, includeInactive bool) ([]domain.DeliveryPartner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	partners := make([]domain.DeliveryPartner, 0, len(s.partners))
	for _, partner := range s.partners {
		if !includeInactive && !partner.Active {
			continue
		}
		partners = append(partners, partner)
	}
	sort.Slice(partners, func(i, j int) bool { return partners[i].Name < partners[j].Name })
	return partners, nil
}

// --- items ---

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.allocateID("item")
	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.items[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// --- managers ---

func (s *Store) CreateManager(_ context.Context, manager domain.Manager) (*domain.Manager, error) {
	if manager.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	manager.ID = s.allocateID("manager")
	s.managers[manager.ID] = manager
	created := manager
	return &created, nil
}

func (s *Store) UpdateManager(_ context.Context, manager domain.Manager) (*domain.Manager, error) {
	if manager.Name == "" {
		return nil, store.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.managers[manager.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.managers[manager.ID] = manager
	updated := manager
	return &updated, nil
}

func (s *Store) DeleteManager(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.managers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.managers, id)
	return nil
}

func (s *Store) GetManager(_ context.Context, id int64) (*domain.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	manager, ok := s.managers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &manager, nil
}

func (s *Store) ListManagers(_ context.Context) ([]domain.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	managers := make([]domain.Manager, 0, len(s.managers))
	for _, manager := range s.managers {
		managers = append(managers, manager)
	}
	sort.Slice(managers, func(i, j int) bool { return managers[i].Name < managers[j].Name })
	return managers, nil
}

// --- payments ---

func (s *Store) CreatePayment(_ context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment.ID = s.allocateID("payment")
	s.payments[payment.ID] = payment
	created := payment
	return &created, nil
}

func (s *Store) UpdatePayment(_ context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.payments[payment.ID] = payment
	updated := payment
	return &updated, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) GetPayment(_ context.Context, id int64) (*domain.AdvancePayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &payment, nil
}

func (s *Store) ListPayments(_ context.Context, date string) ([]domain.PaymentRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]domain.PaymentRow, 0, len(s.payments))
	for _, payment := range s.payments {
		if date != "" && payment.Date != date {
			continue
		}
		payments = append(payments, domain.PaymentRow{
			AdvancePayment: payment,
			CustomerName:   s.customers[payment.CustomerID].Name,
		})
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return payments, nil
}

// --- deliveries ---

func (s *Store) CreateDelivery(_ context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delivery.ID = s.allocateID("delivery")
	s.deliveries[delivery.ID] = delivery
	created := delivery
	return &created, nil
}

func (s *Store) UpdateDelivery(_ context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[delivery.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.deliveries[delivery.ID] = delivery
	updated := delivery
	return &updated, nil
}

func (s *Store) DeleteDelivery(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.deliveries, id)
	return nil
}

func (s *Store) GetDelivery(_ context.Context, id int64) (*domain.DailyDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	delivery, ok := s.deliveries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &delivery, nil
}

func (s *Store) deliveryRow(delivery domain.DailyDelivery) domain.DeliveryRow {
	return domain.DeliveryRow{
		DailyDelivery: delivery,
		CustomerName:  s.customers[delivery.CustomerID].Name,
		ItemName:      s.items[delivery.ItemID].Name,
		PartnerName:   s.partners[delivery.PartnerID].Name,
		ManagerName:   s.managers[delivery.ManagerID].Name,
	}
}

func (s *Store) ListDeliveries(_ context.Context, date string) ([]domain.DeliveryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deliveries := make([]domain.DeliveryRow, 0, len(s.deliveries))
	for _, delivery := range s.deliveries {
		if date != "" && delivery.Date != date {
			continue
		}
		deliveries = append(deliveries, s.deliveryRow(delivery))
	}
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].ID > deliveries[j].ID })
	return deliveries, nil
}

func (s *Store) ListPartnerDeliveries(_ context.Context, partnerID int64, date string) ([]domain.DeliveryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deliveries := make([]domain.DeliveryRow, 0, 16)
	for _, delivery := range s.deliveries {
		if delivery.PartnerID != partnerID || delivery.Date != date {
			continue
		}
		deliveries = append(deliveries, s.deliveryRow(delivery))
	}
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].ID < deliveries[j].ID })
	return deliveries, nil
}

// --- allocations ---

func (s *Store) CreateAllocation(_ context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocation.ID = s.allocateID("allocation")
	s.allocations[allocation.ID] = allocation
	created := allocation
	return &created, nil
}

func (s *Store) UpdateAllocation(_ context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[allocation.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.allocations[allocation.ID] = allocation
	updated := allocation
	return &updated, nil
}

func (s *Store) DeleteAllocation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.allocations, id)
	return nil
}

func (s *Store) GetAllocation(_ context.Context, id int64) (*domain.PartnerAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocation, ok := s.allocations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &allocation, nil
}

func (s *Store) allocationRow(allocation domain.PartnerAllocation) domain.AllocationRow {
	return domain.AllocationRow{
		PartnerAllocation: allocation,
		ItemName:          s.items[allocation.ItemID].Name,
		ManagerName:       s.managers[allocation.ManagerID].Name,
		PartnerName:       s.partners[allocation.PartnerID].Name,
	}
}

func (s *Store) ListAllocations(_ context.Context, date string) ([]domain.AllocationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocations := make([]domain.AllocationRow, 0, len(s.allocations))
	for _, allocation := range s.allocations {
		if date != "" && allocation.Date != date {
			continue
		}
		allocations = append(allocations, s.allocationRow(allocation))
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].ID > allocations[j].ID })
	return allocations, nil
}

func (s *Store) ListPartnerAllocations(_ context.Context, partnerID int64, date string) ([]domain.AllocationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocations := make([]domain.AllocationRow, 0, 16)
	for _, allocation := range s.allocations {
		if allocation.PartnerID != partnerID || allocation.Date != date {
			continue
		}
		allocations = append(allocations, s.allocationRow(allocation))
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].ID < allocations[j].ID })
	return allocations, nil
}

func (s *Store) PartnerRemaining(_ context.Context, partnerID int64, date string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocated := 0
	for _, allocation := range s.allocations {
		if allocation.PartnerID == partnerID && allocation.Date == date {
			allocated += allocation.Quantity
		}
	}
	delivered := 0
	for _, delivery := range s.deliveries {
		if delivery.PartnerID == partnerID && delivery.Date == date {
			delivered += delivery.Quantity
		}
	}
	return allocated, delivered, nil
}

// --- statements & summaries ---

func (s *Store) CustomerStatementRange(_ context.Context, customerID int64, start, end string) ([]domain.StatementDelivery, []domain.StatementPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deliveries := make([]domain.StatementDelivery, 0, 32)
	for _, delivery := range s.deliveries {
		if delivery.CustomerID != customerID || delivery.Date < start || delivery.Date > end {
			continue
		}
		deliveries = append(deliveries, domain.StatementDelivery{
			Date:        delivery.Date,
			ItemName:    s.items[delivery.ItemID].Name,
			Quantity:    delivery.Quantity,
			Price:       delivery.Price,
			PartnerName: s.partners[delivery.PartnerID].Name,
		})
	}
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].Date < deliveries[j].Date })

	payments := make([]domain.StatementPayment, 0, 8)
	for _, payment := range s.payments {
		if payment.CustomerID != customerID || payment.Date < start || payment.Date > end {
			continue
		}
		payments = append(payments, domain.StatementPayment{
			Date:   payment.Date,
			Amount: payment.Amount,
			Notes:  payment.Notes,
		})
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].Date < payments[j].Date })

	return deliveries, payments, nil
}

func (s *Store) CustomerSummaryRange(_ context.Context, customerID int64, start, end string) (domain.RangeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.RangeSummary{TotalAmount: decimal.Zero, TotalPaid: decimal.Zero}
	for _, delivery := range s.deliveries {
		if delivery.CustomerID != customerID || delivery.Date < start || delivery.Date > end {
			continue
		}
		summary.TotalQuantity += delivery.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(delivery.Price.Mul(decimal.NewFromInt(int64(delivery.Quantity))))
	}
	for _, payment := range s.payments {
		if payment.CustomerID != customerID || payment.Date < start || payment.Date > end {
			continue
		}
		summary.TotalPaid = summary.TotalPaid.Add(payment.Amount)
	}
	return summary, nil
}

// --- settings ---

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[key], nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}
