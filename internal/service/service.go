package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"milkbook/internal/cache"
	"milkbook/internal/domain"
	"milkbook/internal/receipt"
	"milkbook/internal/store"
)

// Settings table keys.
const (
	SettingShopName     = "shop_name"
	SettingShopAddress  = "shop_address"
	SettingShopContact  = "shop_contact"
	SettingUsername     = "app_username"
	SettingPasswordHash = "app_password_hash"

	DefaultShopName = "Milk Billing System"
	DefaultUsername = "admin"
)

type Service struct {
	repo       store.Repository
	balances   cache.BalanceCache
	balanceTTL time.Duration
}

func New(repo store.Repository, balances cache.BalanceCache, balanceTTL time.Duration) *Service {
	if balances == nil {
		balances = cache.NoopBalanceCache{}
	}
	if balanceTTL <= 0 {
		balanceTTL = 20 * time.Second
	}
	return &Service{repo: repo, balances: balances, balanceTTL: balanceTTL}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func cleanName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("%s is required", field)
	}
	return value, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, invalid("%s is required", field)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("%s must be a number", field)
	}
	return value, nil
}

func checkDate(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", raw); err != nil || len(raw) != 10 {
		return "", invalid("%s must be a date in YYYY-MM-DD form", field)
	}
	return raw, nil
}

func checkQuantity(field string, quantity int) error {
	if quantity < 1 {
		return invalid("%s must be a positive integer", field)
	}
	return nil
}

func checkID(field string, id int64) error {
	if id < 1 {
		return invalid("%s is required", field)
	}
	return nil
}

func (s *Service) invalidateBalances(ctx context.Context) {
	if err := s.balances.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: balance cache invalidation failed: %v", err)
	}
}

// --- customers ---

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return domain.Customer{}, err
	}
	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:         name,
		Contact:      strings.TrimSpace(req.Contact),
		Address:      strings.TrimSpace(req.Address),
		AltPartnerID: req.AltPartnerID,
		AltContact:   strings.TrimSpace(req.AltContact),
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.invalidateBalances(ctx)
	return *created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	if err := checkID("customer id", id); err != nil {
		return domain.Customer{}, err
	}
	existing, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	updated := *existing
	if req.Name != nil {
		name, err := cleanName("name", *req.Name)
		if err != nil {
			return domain.Customer{}, err
		}
		updated.Name = name
	}
	if req.Contact != nil {
		updated.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.AltPartnerID != nil {
		updated.AltPartnerID = req.AltPartnerID
	}
	if req.AltContact != nil {
		updated.AltContact = strings.TrimSpace(*req.AltContact)
	}

	saved, err := s.repo.UpdateCustomer(ctx, updated)
	if err != nil {
		return domain.Customer{}, err
	}
	s.invalidateBalances(ctx)
	return *saved, nil
}

func (s *Service) DeactivateCustomer(ctx context.Context, id int64) error {
	if err := checkID("customer id", id); err != nil {
		return err
	}
	if err := s.repo.DeactivateCustomer(ctx, id); err != nil {
		return err
	}
	s.invalidateBalances(ctx)
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	if err := checkID("customer id", id); err != nil {
		return domain.Customer{}, err
	}
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, includeInactive bool) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx, includeInactive)
}

func (s *Service) CustomerBalances(ctx context.Context, search string) ([]domain.CustomerBalanceRow, error) {
	search = strings.TrimSpace(search)

	if rows, ok, err := s.balances.Get(ctx, search); err != nil {
		log.Printf("[service] WARN: balance cache read failed: %v", err)
	} else if ok {
		return rows, nil
	}

	rows, err := s.repo.ListCustomerBalances(ctx, search)
	if err != nil {
		return nil, err
	}
	if err := s.balances.Set(ctx, search, rows, s.balanceTTL); err != nil {
		log.Printf("[service] WARN: balance cache write failed: %v", err)
	}
	return rows, nil
}

// --- delivery partners ---

func (s *Service) CreatePartner(ctx context.Context, req domain.PartnerCreateRequest) (domain.DeliveryPartner, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return domain.DeliveryPartner{}, err
	}
	created, err := s.repo.CreatePartner(ctx, domain.DeliveryPartner{
		Name:    name,
		Contact: strings.TrimSpace(req.Contact),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		return domain.DeliveryPartner{}, err
	}
	return *created, nil
}

func (s *Service) UpdatePartner(ctx context.Context, id int64, req domain.PartnerUpdateRequest) (domain.DeliveryPartner, error) {
	if err := checkID("partner id", id); err != nil {
		return domain.DeliveryPartner{}, err
	}
	existing, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return domain.DeliveryPartner{}, err
	}

	updated := *existing
	if req.Name != nil {
		name, err := cleanName("name", *req.Name)
		if err != nil {
			return domain.DeliveryPartner{}, err
		}
		updated.Name = name
	}
	if req.Contact != nil {
		updated.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}

	saved, err := s.repo.UpdatePartner(ctx, updated)
	if err != nil {
		return domain.DeliveryPartner{}, err
	}
	return *saved, nil
}

func (s *Service) DeactivatePartner(ctx context.Context, id int64) error {
	if err := checkID("partner id", id); err != nil {
		return err
	}
	return s.repo.DeactivatePartner(ctx, id)
}

func (s *Service) GetPartner(ctx context.Context, id int64) (domain.DeliveryPartner, error) {
	if err := checkID("partner id", id); err != nil {
		return domain.DeliveryPartner{}, err
	}
	partner, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return domain.DeliveryPartner{}, err
	}
	return *partner, nil
}

func (s *Service) ListPartners(ctx context.Context, includeInactive bool) ([]domain.DeliveryPartner, error) {
	return s.repo.ListPartners(ctx, includeInactive)
}

// PartnerDaySummary reports one partner's allocations, deliveries, and
// remaining stock for exactly one day. Remaining may be negative; over-
// delivery is reported, never blocked.
func (s *Service) PartnerDaySummary(ctx context.Context, partnerID int64, date string) (domain.PartnerDaySummary, error) {
	if err := checkID("partner id", partnerID); err != nil {
		return domain.PartnerDaySummary{}, err
	}
	date, err := checkDate("date", date)
	if err != nil {
		return domain.PartnerDaySummary{}, err
	}
	partner, err := s.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return domain.PartnerDaySummary{}, err
	}

	allocations, err := s.repo.ListPartnerAllocations(ctx, partnerID, date)
	if err != nil {
		return domain.PartnerDaySummary{}, err
	}
	deliveries, err := s.repo.ListPartnerDeliveries(ctx, partnerID, date)
	if err != nil {
		return domain.PartnerDaySummary{}, err
	}
	allocated, delivered, err := s.repo.PartnerRemaining(ctx, partnerID, date)
	if err != nil {
		return domain.PartnerDaySummary{}, err
	}

	return domain.PartnerDaySummary{
		PartnerID:   partnerID,
		PartnerName: partner.Name,
		Date:        date,
		Allocations: allocations,
		Deliveries:  deliveries,
		Allocated:   allocated,
		Delivered:   delivered,
		Remaining:   allocated - delivered,
	}, nil
}

// --- items ---

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.Item, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return domain.Item{}, err
	}
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return domain.Item{}, err
	}
	if price.IsNegative() {
		return domain.Item{}, invalid("price must not be negative")
	}
	created, err := s.repo.CreateItem(ctx, domain.Item{Name: name, Price: price})
	if err != nil {
		return domain.Item{}, err
	}
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req domain.ItemUpdateRequest) (domain.Item, error) {
	if err := checkID("item id", id); err != nil {
		return domain.Item{}, err
	}
	existing, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	updated := *existing
	if req.Name != nil {
		name, err := cleanName("name", *req.Name)
		if err != nil {
			return domain.Item{}, err
		}
		updated.Name = name
	}
	if req.Price != nil {
		price, err := parseAmount("price", *req.Price)
		if err != nil {
			return domain.Item{}, err
		}
		if price.IsNegative() {
			return domain.Item{}, invalid("price must not be negative")
		}
		updated.Price = price
	}

	// Past deliveries keep their snapshotted price; this only moves the
	// price applied to future entries.
	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return domain.Item{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := checkID("item id", id); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, id)
}

func (s *Service) GetItem(ctx context.Context, id int64) (domain.Item, error) {
	if err := checkID("item id", id); err != nil {
		return domain.Item{}, err
	}
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}
	return *item, nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

// --- managers ---

func (s *Service) CreateManager(ctx context.Context, req domain.ManagerCreateRequest) (domain.Manager, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return domain.Manager{}, err
	}
	created, err := s.repo.CreateManager(ctx, domain.Manager{Name: name, Contact: strings.TrimSpace(req.Contact)})
	if err != nil {
		return domain.Manager{}, err
	}
	return *created, nil
}

func (s *Service) UpdateManager(ctx context.Context, id int64, req domain.ManagerUpdateRequest) (domain.Manager, error) {
	if err := checkID("manager id", id); err != nil {
		return domain.Manager{}, err
	}
	existing, err := s.repo.GetManager(ctx, id)
	if err != nil {
		return domain.Manager{}, err
	}

	updated := *existing
	if req.Name != nil {
		name, err := cleanName("name", *req.Name)
		if err != nil {
			return domain.Manager{}, err
		}
		updated.Name = name
	}
	if req.Contact != nil {
		updated.Contact = strings.TrimSpace(*req.Contact)
	}

	saved, err := s.repo.UpdateManager(ctx, updated)
	if err != nil {
		return domain.Manager{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteManager(ctx context.Context, id int64) error {
	if err := checkID("manager id", id); err != nil {
		return err
	}
	return s.repo.DeleteManager(ctx, id)
}

func (s *Service) GetManager(ctx context.Context, id int64) (domain.Manager, error) {
	if err := checkID("manager id", id); err != nil {
		return domain.Manager{}, err
	}
	manager, err := s.repo.GetManager(ctx, id)
	if err != nil {
		return domain.Manager{}, err
	}
	return *manager, nil
}

func (s *Service) ListManagers(ctx context.Context) ([]domain.Manager, error) {
	return s.repo.ListManagers(ctx)
}

// --- advance payments ---

func (s *Service) CreatePayment(ctx context.Context, req domain.PaymentCreateRequest) (domain.AdvancePayment, error) {
	if err := checkID("customer id", req.CustomerID); err != nil {
		return domain.AdvancePayment{}, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return domain.AdvancePayment{}, err
	}
	if !amount.IsPositive() {
		return domain.AdvancePayment{}, invalid("amount must be positive")
	}
	date, err := checkDate("date", req.Date)
	if err != nil {
		return domain.AdvancePayment{}, err
	}
	if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
		return domain.AdvancePayment{}, err
	}

	created, err := s.repo.CreatePayment(ctx, domain.AdvancePayment{
		CustomerID: req.CustomerID,
		Amount:     amount,
		Date:       date,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.AdvancePayment{}, err
	}
	s.invalidateBalances(ctx)
	return *created, nil
}

func (s *Service) UpdatePayment(ctx context.Context, id int64, req domain.PaymentUpdateRequest) (domain.AdvancePayment, error) {
	if err := checkID("payment id", id); err != nil {
		return domain.AdvancePayment{}, err
	}
	existing, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return domain.AdvancePayment{}, err
	}

	updated := *existing
	if req.CustomerID != nil {
		if err := checkID("customer id", *req.CustomerID); err != nil {
			return domain.AdvancePayment{}, err
		}
		updated.CustomerID = *req.CustomerID
	}
	if req.Amount != nil {
		amount, err := parseAmount("amount", *req.Amount)
		if err != nil {
			return domain.AdvancePayment{}, err
		}
		if !amount.IsPositive() {
			return domain.AdvancePayment{}, invalid("amount must be positive")
		}
		updated.Amount = amount
	}
	if req.Date != nil {
		date, err := checkDate("date", *req.Date)
		if err != nil {
			return domain.AdvancePayment{}, err
		}
		updated.Date = date
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}

	saved, err := s.repo.UpdatePayment(ctx, updated)
	if err != nil {
		return domain.AdvancePayment{}, err
	}
	s.invalidateBalances(ctx)
	return *saved, nil
}

func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := checkID("payment id", id); err != nil {
		return err
	}
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.invalidateBalances(ctx)
	return nil
}

func (s *Service) GetPayment(ctx context.Context, id int64) (domain.AdvancePayment, error) {
	if err := checkID("payment id", id); err != nil {
		return domain.AdvancePayment{}, err
	}
	payment, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return domain.AdvancePayment{}, err
	}
	return *payment, nil
}

func (s *Service) ListPayments(ctx context.Context, date string) ([]domain.PaymentRow, error) {
	if date != "" {
		var err error
		if date, err = checkDate("date", date); err != nil {
			return nil, err
		}
	}
	return s.repo.ListPayments(ctx, date)
}

// --- daily deliveries ---

func (s *Service) CreateDelivery(ctx context.Context, req domain.DeliveryCreateRequest) (domain.DailyDelivery, error) {
	date, err := checkDate("date", req.Date)
	if err != nil {
		return domain.DailyDelivery{}, err
	}
	if err := checkID("customer id", req.CustomerID); err != nil {
		return domain.DailyDelivery{}, err
	}
	if err := checkID("item id", req.ItemID); err != nil {
		return domain.DailyDelivery{}, err
	}
	if err := checkID("partner id", req.PartnerID); err != nil {
		return domain.DailyDelivery{}, err
	}
	if err := checkID("manager id", req.ManagerID); err != nil {
		return domain.DailyDelivery{}, err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return domain.DailyDelivery{}, err
	}
	price, err := parseAmount("price", req.Price)
	if err != nil {
		return domain.DailyDelivery{}, err
	}
	if price.IsNegative() {
		return domain.DailyDelivery{}, invalid("price must not be negative")
	}
	if _, err := s.repo.GetCustomer(ctx, req.CustomerID); err != nil {
		return domain.DailyDelivery{}, err
	}

	created, err := s.repo.CreateDelivery(ctx, domain.DailyDelivery{
		Date:       date,
		CustomerID: req.CustomerID,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		Price:      price,
		PartnerID:  req.PartnerID,
		ManagerID:  req.ManagerID,
	})
	if err != nil {
		return domain.DailyDelivery{}, err
	}
	s.invalidateBalances(ctx)
	return *created, nil
}

func (s *Service) UpdateDelivery(ctx context.Context, id int64, req domain.DeliveryUpdateRequest) (domain.DailyDelivery, error) {
	if err := checkID("delivery id", id); err != nil {
		return domain.DailyDelivery{}, err
	}
	existing, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return domain.DailyDelivery{}, err
	}

	updated := *existing
	if req.Date != nil {
		date, err := checkDate("date", *req.Date)
		if err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.Date = date
	}
	if req.CustomerID != nil {
		if err := checkID("customer id", *req.CustomerID); err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.CustomerID = *req.CustomerID
	}
	if req.ItemID != nil {
		if err := checkID("item id", *req.ItemID); err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.ItemID = *req.ItemID
	}
	if req.Quantity != nil {
		if err := checkQuantity("quantity", *req.Quantity); err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.Quantity = *req.Quantity
	}
	if req.Price != nil {
		price, err := parseAmount("price", *req.Price)
		if err != nil {
			return domain.DailyDelivery{}, err
		}
		if price.IsNegative() {
			return domain.DailyDelivery{}, invalid("price must not be negative")
		}
		updated.Price = price
	}
	if req.PartnerID != nil {
		if err := checkID("partner id", *req.PartnerID); err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.PartnerID = *req.PartnerID
	}
	if req.ManagerID != nil {
		if err := checkID("manager id", *req.ManagerID); err != nil {
			return domain.DailyDelivery{}, err
		}
		updated.ManagerID = *req.ManagerID
	}

	saved, err := s.repo.UpdateDelivery(ctx, updated)
	if err != nil {
		return domain.DailyDelivery{}, err
	}
	s.invalidateBalances(ctx)
	return *saved, nil
}

func (s *Service) DeleteDelivery(ctx context.Context, id int64) error {
	if err := checkID("delivery id", id); err != nil {
		return err
	}
	if err := s.repo.DeleteDelivery(ctx, id); err != nil {
		return err
	}
	s.invalidateBalances(ctx)
	return nil
}

func (s *Service) GetDelivery(ctx context.Context, id int64) (domain.DailyDelivery, error) {
	if err := checkID("delivery id", id); err != nil {
		return domain.DailyDelivery{}, err
	}
	delivery, err := s.repo.GetDelivery(ctx, id)
	if err != nil {
		return domain.DailyDelivery{}, err
	}
	return *delivery, nil
}

func (s *Service) ListDeliveries(ctx context.Context, date string) ([]domain.DeliveryRow, error) {
	if date != "" {
		var err error
		if date, err = checkDate("date", date); err != nil {
			return nil, err
		}
	}
	return s.repo.ListDeliveries(ctx, date)
}

// --- partner allocations ---

func (s *Service) CreateAllocation(ctx context.Context, req domain.AllocationCreateRequest) (domain.PartnerAllocation, error) {
	date, err := checkDate("date", req.Date)
	if err != nil {
		return domain.PartnerAllocation{}, err
	}
	if err := checkID("partner id", req.PartnerID); err != nil {
		return domain.PartnerAllocation{}, err
	}
	if err := checkID("manager id", req.ManagerID); err != nil {
		return domain.PartnerAllocation{}, err
	}
	if err := checkID("item id", req.ItemID); err != nil {
		return domain.PartnerAllocation{}, err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return domain.PartnerAllocation{}, err
	}

	created, err := s.repo.CreateAllocation(ctx, domain.PartnerAllocation{
		Date:      date,
		PartnerID: req.PartnerID,
		ManagerID: req.ManagerID,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return domain.PartnerAllocation{}, err
	}
	return *created, nil
}

func (s *Service) UpdateAllocation(ctx context.Context, id int64, req domain.AllocationUpdateRequest) (domain.PartnerAllocation, error) {
	if err := checkID("allocation id", id); err != nil {
		return domain.PartnerAllocation{}, err
	}
	existing, err := s.repo.GetAllocation(ctx, id)
	if err != nil {
		return domain.PartnerAllocation{}, err
	}

	updated := *existing
	if req.Date != nil {
		date, err := checkDate("date", *req.Date)
		if err != nil {
			return domain.PartnerAllocation{}, err
		}
		updated.Date = date
	}
	if req.PartnerID != nil {
		if err := checkID("partner id", *req.PartnerID); err != nil {
			return domain.PartnerAllocation{}, err
		}
		updated.PartnerID = *req.PartnerID
	}
	if req.ManagerID != nil {
		if err := checkID("manager id", *req.ManagerID); err != nil {
			return domain.PartnerAllocation{}, err
		}
		updated.ManagerID = *req.ManagerID
	}
	if req.ItemID != nil {
		if err := checkID("item id", *req.ItemID); err != nil {
			return domain.PartnerAllocation{}, err
		}
		updated.ItemID = *req.ItemID
	}
	if req.Quantity != nil {
		if err := checkQuantity("quantity", *req.Quantity); err != nil {
			return domain.PartnerAllocation{}, err
		}
		updated.Quantity = *req.Quantity
	}

	saved, err := s.repo.UpdateAllocation(ctx, updated)
	if err != nil {
		return domain.PartnerAllocation{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteAllocation(ctx context.Context, id int64) error {
	if err := checkID("allocation id", id); err != nil {
		return err
	}
	return s.repo.DeleteAllocation(ctx, id)
}

func (s *Service) GetAllocation(ctx context.Context, id int64) (domain.PartnerAllocation, error) {
	if err := checkID("allocation id", id); err != nil {
		return domain.PartnerAllocation{}, err
	}
	allocation, err := s.repo.GetAllocation(ctx, id)
	if err != nil {
		return domain.PartnerAllocation{}, err
	}
	return *allocation, nil
}

func (s *Service) ListAllocations(ctx context.Context, date string) ([]domain.AllocationRow, error) {
	if date != "" {
		var err error
		if date, err = checkDate("date", date); err != nil {
			return nil, err
		}
	}
	return s.repo.ListAllocations(ctx, date)
}

// --- reports ---

func (s *Service) checkRange(start, end string) (string, string, error) {
	start, err := checkDate("start date", start)
	if err != nil {
		return "", "", err
	}
	end, err = checkDate("end date", end)
	if err != nil {
		return "", "", err
	}
	if start > end {
		return "", "", invalid("start date must not be after end date")
	}
	return start, end, nil
}

func (s *Service) CustomerSummary(ctx context.Context, customerID int64, start, end string) (domain.RangeSummary, error) {
	if err := checkID("customer id", customerID); err != nil {
		return domain.RangeSummary{}, err
	}
	start, end, err := s.checkRange(start, end)
	if err != nil {
		return domain.RangeSummary{}, err
	}
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return domain.RangeSummary{}, err
	}
	return s.repo.CustomerSummaryRange(ctx, customerID, start, end)
}

func (s *Service) CustomerStatement(ctx context.Context, customerID int64, start, end string) (domain.CustomerStatement, error) {
	if err := checkID("customer id", customerID); err != nil {
		return domain.CustomerStatement{}, err
	}
	start, end, err := s.checkRange(start, end)
	if err != nil {
		return domain.CustomerStatement{}, err
	}
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return domain.CustomerStatement{}, err
	}

	deliveries, payments, err := s.repo.CustomerStatementRange(ctx, customerID, start, end)
	if err != nil {
		return domain.CustomerStatement{}, err
	}

	charges, paid, dues := receipt.Totals(deliveries, payments)
	return domain.CustomerStatement{
		Customer:    *customer,
		PeriodLabel: start + " to " + end,
		Deliveries:  deliveries,
		Payments:    payments,
		Charges:     charges,
		Paid:        paid,
		Dues:        dues,
	}, nil
}

// MonthlyStatement is the calendar-month statement. The "-31" upper bound
// is safe lexicographically: every real day of the month sorts at or below
// it.
func (s *Service) MonthlyStatement(ctx context.Context, customerID int64, month string) (domain.CustomerStatement, error) {
	month = strings.TrimSpace(month)
	if _, err := time.Parse("2006-01", month); err != nil || len(month) != 7 {
		return domain.CustomerStatement{}, invalid("month must be in YYYY-MM form")
	}
	statement, err := s.CustomerStatement(ctx, customerID, month+"-01", month+"-31")
	if err != nil {
		return domain.CustomerStatement{}, err
	}
	statement.PeriodLabel = month
	return statement, nil
}

// BuildReceipt renders the statement for [start, end] as a PDF and suggests
// a file name. The caller decides where (and whether) the bytes land.
func (s *Service) BuildReceipt(ctx context.Context, customerID int64, start, end string) ([]byte, string, error) {
	statement, err := s.CustomerStatement(ctx, customerID, start, end)
	if err != nil {
		return nil, "", err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, "", err
	}

	pdf, err := receipt.Generate(receipt.Data{
		ShopName:    settings.ShopName,
		ShopAddress: settings.ShopAddress,
		ShopContact: settings.ShopContact,
		Customer:    statement.Customer,
		PeriodLabel: statement.PeriodLabel,
		Deliveries:  statement.Deliveries,
		Payments:    statement.Payments,
	})
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("receipt_%s_%s_to_%s.pdf", sanitizeFileName(statement.Customer.Name), start, end)
	return pdf, name, nil
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// --- settings ---

func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	settings := domain.Settings{}
	var err error
	if settings.ShopName, err = s.settingOr(ctx, SettingShopName, DefaultShopName); err != nil {
		return domain.Settings{}, err
	}
	if settings.ShopAddress, err = s.settingOr(ctx, SettingShopAddress, ""); err != nil {
		return domain.Settings{}, err
	}
	if settings.ShopContact, err = s.settingOr(ctx, SettingShopContact, ""); err != nil {
		return domain.Settings{}, err
	}
	if settings.Username, err = s.settingOr(ctx, SettingUsername, DefaultUsername); err != nil {
		return domain.Settings{}, err
	}
	if settings.PasswordHash, err = s.settingOr(ctx, SettingPasswordHash, ""); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func (s *Service) settingOr(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// UpdateShopSettings writes the shop identity fields and username.
// Credential changes go through the gate, not here.
func (s *Service) UpdateShopSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.Settings, error) {
	if req.ShopName != nil {
		name, err := cleanName("shop name", *req.ShopName)
		if err != nil {
			return domain.Settings{}, err
		}
		if err := s.repo.SetSetting(ctx, SettingShopName, name); err != nil {
			return domain.Settings{}, err
		}
	}
	if req.ShopAddress != nil {
		if err := s.repo.SetSetting(ctx, SettingShopAddress, strings.TrimSpace(*req.ShopAddress)); err != nil {
			return domain.Settings{}, err
		}
	}
	if req.ShopContact != nil {
		if err := s.repo.SetSetting(ctx, SettingShopContact, strings.TrimSpace(*req.ShopContact)); err != nil {
			return domain.Settings{}, err
		}
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return domain.Settings{}, invalid("username must not be empty")
		}
		if err := s.repo.SetSetting(ctx, SettingUsername, username); err != nil {
			return domain.Settings{}, err
		}
	}
	return s.Settings(ctx)
}
