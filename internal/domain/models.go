package domain

import "github.com/shopspring/decimal"

type Customer struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Address      string `json:"address"`
	AltPartnerID *int64 `json:"alt_delivery_partner_id,omitempty"`
	AltContact   string `json:"alt_contact"`
	Active       bool   `json:"active"`
}

type CustomerCreateRequest struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Address      string `json:"address"`
	AltPartnerID *int64 `json:"alt_delivery_partner_id,omitempty"`
	AltContact   string `json:"alt_contact"`
}

type CustomerUpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	Contact      *string `json:"contact,omitempty"`
	Address      *string `json:"address,omitempty"`
	AltPartnerID *int64  `json:"alt_delivery_partner_id,omitempty"`
	AltContact   *string `json:"alt_contact,omitempty"`
}

type DeliveryPartner struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

type PartnerCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type PartnerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Address *string `json:"address,omitempty"`
}

// Item.Price is the current unit price only. Deliveries snapshot their own
// price at entry time, so changing an item's price never rewrites history.
type Item struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ItemCreateRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type ItemUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Price *string `json:"price,omitempty"`
}

type Manager struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type ManagerCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type ManagerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

type AdvancePayment struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
	Notes      string          `json:"notes"`
}

type PaymentCreateRequest struct {
	CustomerID int64  `json:"customer_id"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

type PaymentUpdateRequest struct {
	CustomerID *int64  `json:"customer_id,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Date       *string `json:"date,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

type DailyDelivery struct {
	ID         int64           `json:"id"`
	Date       string          `json:"date"`
	CustomerID int64           `json:"customer_id"`
	ItemID     int64           `json:"item_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	PartnerID  int64           `json:"delivery_partner_id"`
	ManagerID  int64           `json:"manager_id"`
}

type DeliveryCreateRequest struct {
	Date       string `json:"date"`
	CustomerID int64  `json:"customer_id"`
	ItemID     int64  `json:"item_id"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	PartnerID  int64  `json:"delivery_partner_id"`
	ManagerID  int64  `json:"manager_id"`
}

type DeliveryUpdateRequest struct {
	Date       *string `json:"date,omitempty"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	ItemID     *int64  `json:"item_id,omitempty"`
	Quantity   *int    `json:"quantity,omitempty"`
	Price      *string `json:"price,omitempty"`
	PartnerID  *int64  `json:"delivery_partner_id,omitempty"`
	ManagerID  *int64  `json:"manager_id,omitempty"`
}

type PartnerAllocation struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	PartnerID int64  `json:"delivery_partner_id"`
	ManagerID int64  `json:"manager_id"`
	ItemID    int64  `json:"item_id"`
	Quantity  int    `json:"quantity"`
}

type AllocationCreateRequest struct {
	Date      string `json:"date"`
	PartnerID int64  `json:"delivery_partner_id"`
	ManagerID int64  `json:"manager_id"`
	ItemID    int64  `json:"item_id"`
	Quantity  int    `json:"quantity"`
}

type AllocationUpdateRequest struct {
	Date      *string `json:"date,omitempty"`
	PartnerID *int64  `json:"delivery_partner_id,omitempty"`
	ManagerID *int64  `json:"manager_id,omitempty"`
	ItemID    *int64  `json:"item_id,omitempty"`
	Quantity  *int    `json:"quantity,omitempty"`
}

// List rows carry resolved display names. Resolution is lenient: a name is
// blank when its master row was hard-deleted, but the row itself stays
// visible.

type DeliveryRow struct {
	DailyDelivery
	CustomerName string `json:"customer_name"`
	ItemName     string `json:"item_name"`
	PartnerName  string `json:"partner_name"`
	ManagerName  string `json:"manager_name"`
}

type PaymentRow struct {
	AdvancePayment
	CustomerName string `json:"customer_name"`
}

type AllocationRow struct {
	PartnerAllocation
	ItemName    string `json:"item_name"`
	ManagerName string `json:"manager_name"`
	PartnerName string `json:"partner_name"`
}

type CustomerBalanceRow struct {
	Customer
	Charges decimal.Decimal `json:"charges"`
	Paid    decimal.Decimal `json:"paid"`
	Dues    decimal.Decimal `json:"dues"`
	Credit  decimal.Decimal `json:"credit"`
}

type StatementDelivery struct {
	Date        string          `json:"date"`
	ItemName    string          `json:"item_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	PartnerName string          `json:"partner_name"`
}

type StatementPayment struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

type CustomerStatement struct {
	Customer    Customer            `json:"customer"`
	PeriodLabel string              `json:"period_label"`
	Deliveries  []StatementDelivery `json:"deliveries"`
	Payments    []StatementPayment  `json:"payments"`
	Charges     decimal.Decimal     `json:"charges"`
	Paid        decimal.Decimal     `json:"paid"`
	Dues        decimal.Decimal     `json:"dues"`
}

type RangeSummary struct {
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

type PartnerDaySummary struct {
	PartnerID   int64           `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Date        string          `json:"date"`
	Allocations []AllocationRow `json:"allocations"`
	Deliveries  []DeliveryRow   `json:"deliveries"`
	Allocated   int             `json:"allocated"`
	Delivered   int             `json:"delivered"`
	Remaining   int             `json:"remaining"`
}

// Settings is the process-wide configuration held in the settings table.
// An empty PasswordHash means the credential gate is disabled.
type Settings struct {
	ShopName     string `json:"shop_name"`
	ShopAddress  string `json:"shop_address"`
	ShopContact  string `json:"shop_contact"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

type SettingsUpdateRequest struct {
	ShopName        *string `json:"shop_name,omitempty"`
	ShopAddress     *string `json:"shop_address,omitempty"`
	ShopContact     *string `json:"shop_contact,omitempty"`
	Username        *string `json:"username,omitempty"`
	NewPassword     string  `json:"new_password,omitempty"`
	ConfirmPassword string  `json:"confirm_password,omitempty"`
	ClearPassword   bool    `json:"clear_password,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type AuthStatus struct {
	PasswordSet   bool `json:"password_set"`
	LoginRequired bool `json:"login_required"`
}
