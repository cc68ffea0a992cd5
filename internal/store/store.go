package store

import (
	"context"
	"errors"

	"milkbook/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the storage contract shared by the sqlite file store and the
// in-memory store. Date parameters are ISO YYYY-MM-DD strings; an empty date
// filter means "all". Every write runs in its own transaction.
type Repository interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeactivateCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context, includeInactive bool) ([]domain.Customer, error)
	ListCustomerBalances(ctx context.Context, search string) ([]domain.CustomerBalanceRow, error)

	CreatePartner(ctx context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error)
	UpdatePartner(ctx context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error)
	DeactivatePartner(ctx context.Context, id int64) error
	GetPartner(ctx context.Context, id int64) (*domain.DeliveryPartner, error)
	ListPartners(ctx context.Context, includeInactive bool) ([]domain.DeliveryPartner, error)

	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)

	CreateManager(ctx context.Context, manager domain.Manager) (*domain.Manager, error)
	UpdateManager(ctx context.Context, manager domain.Manager) (*domain.Manager, error)
	DeleteManager(ctx context.Context, id int64) error
	GetManager(ctx context.Context, id int64) (*domain.Manager, error)
	ListManagers(ctx context.Context) ([]domain.Manager, error)

	CreatePayment(ctx context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error)
	UpdatePayment(ctx context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error)
	DeletePayment(ctx context.Context, id int64) error
	GetPayment(ctx context.Context, id int64) (*domain.AdvancePayment, error)
	ListPayments(ctx context.Context, date string) ([]domain.PaymentRow, error)

	CreateDelivery(ctx context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error)
	UpdateDelivery(ctx context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error)
	DeleteDelivery(ctx context.Context, id int64) error
	GetDelivery(ctx context.Context, id int64) (*domain.DailyDelivery, error)
	ListDeliveries(ctx context.Context, date string) ([]domain.DeliveryRow, error)

	CreateAllocation(ctx context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error)
	UpdateAllocation(ctx context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error)
	DeleteAllocation(ctx context.Context, id int64) error
	GetAllocation(ctx context.Context, id int64) (*domain.PartnerAllocation, error)
	ListAllocations(ctx context.Context, date string) ([]domain.AllocationRow, error)

	ListPartnerAllocations(ctx context.Context, partnerID int64, date string) ([]domain.AllocationRow, error)
	ListPartnerDeliveries(ctx context.Context, partnerID int64, date string) ([]domain.DeliveryRow, error)
	PartnerRemaining(ctx context.Context, partnerID int64, date string) (allocated int, delivered int, err error)

	CustomerStatementRange(ctx context.Context, customerID int64, start, end string) ([]domain.StatementDelivery, []domain.StatementPayment, error)
	CustomerSummaryRange(ctx context.Context, customerID int64, start, end string) (domain.RangeSummary, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
