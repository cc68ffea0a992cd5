package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"milkbook/internal/domain"
	"milkbook/internal/store"
)

// Store is the file-backed repository. Money columns are declared TEXT and
// hold decimal strings so amounts survive unrounded; all money arithmetic
// happens in Go over shopspring decimals, never in SQL float space.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database file at path and applies the schema.
// The pool is capped at one connection: the application is single-user and
// a single connection keeps ":memory:" databases coherent in tests.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact TEXT,
		address TEXT,
		alt_delivery_partner_id INTEGER,
		alt_contact TEXT,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_partners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact TEXT,
		address TEXT,
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS managers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS advance_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS daily_deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		customer_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		price TEXT NOT NULL,
		delivery_partner_id INTEGER NOT NULL,
		manager_id INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS partner_allocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		delivery_partner_id INTEGER NOT NULL,
		manager_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
}

// initSchema creates missing tables and applies additive column migrations
// so older database files keep working in place.
func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	if err := s.ensureColumn(ctx, "customers", "alt_contact", "TEXT"); err != nil {
		return err
	}
	return nil
}

func (s *Store) ensureColumn(ctx context.Context, table, column, columnType string) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	exists := false
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultVal, &pk); err != nil {
			return err
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnType))
	return err
}

// exec runs fn inside a transaction, rolling back on any error.
func (s *Store) exec(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// --- customers ---

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	customer.Active = true
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO customers (name, contact, address, alt_delivery_partner_id, alt_contact, active)
			VALUES (?, ?, ?, ?, ?, 1)
		`, customer.Name, customer.Contact, customer.Address, customer.AltPartnerID, customer.AltContact)
		if err != nil {
			return err
		}
		customer.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := customer
	return &created, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE customers
			SET name = ?, contact = ?, address = ?, alt_delivery_partner_id = ?, alt_contact = ?
			WHERE id = ?
		`, customer.Name, customer.Contact, customer.Address, customer.AltPartnerID, customer.AltContact, customer.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, customer.ID)
}

func (s *Store) DeactivateCustomer(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE customers SET active = 0 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

const customerColumns = `id, name, COALESCE(contact, ''), COALESCE(address, ''), alt_delivery_partner_id, COALESCE(alt_contact, ''), active`

func scanCustomer(row interface{ Scan(...any) error }) (domain.Customer, error) {
	var (
		c          domain.Customer
		altPartner sql.NullInt64
		active     int
	)
	err := row.Scan(&c.ID, &c.Name, &c.Contact, &c.Address, &altPartner, &c.AltContact, &active)
	if err != nil {
		return domain.Customer{}, err
	}
	if altPartner.Valid {
		v := altPartner.Int64
		c.AltPartnerID = &v
	}
	c.Active = active != 0
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context, includeInactive bool) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE active = 1 ORDER BY name`
	if includeInactive {
		query = `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (s *Store) ListCustomerBalances(ctx context.Context, search string) ([]domain.CustomerBalanceRow, error) {
	term := "%" + search + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE active = 1
		  AND (name LIKE ? OR COALESCE(contact, '') LIKE ? OR COALESCE(address, '') LIKE ?)
		ORDER BY name
	`, term, term, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.CustomerBalanceRow, 0, 64)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.CustomerBalanceRow{
			Customer: customer,
			Charges:  decimal.Zero,
			Paid:     decimal.Zero,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	charges, err := s.chargesByCustomer(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.paymentsByCustomer(ctx)
	if err != nil {
		return nil, err
	}

	for i := range result {
		id := result[i].ID
		if v, ok := charges[id]; ok {
			result[i].Charges = v
		}
		if v, ok := paid[id]; ok {
			result[i].Paid = v
		}
		result[i].Dues, result[i].Credit = domain.SplitBalance(result[i].Charges, result[i].Paid)
	}
	return result, nil
}

func (s *Store) chargesByCustomer(ctx context.Context) (map[int64]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT customer_id, quantity, price FROM daily_deliveries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	charges := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			customerID int64
			quantity   int64
			priceRaw   string
		)
		if err := rows.Scan(&customerID, &quantity, &priceRaw); err != nil {
			return nil, err
		}
		price, err := parseMoney(priceRaw)
		if err != nil {
			return nil, err
		}
		charges[customerID] = charges[customerID].Add(price.Mul(decimal.NewFromInt(quantity)))
	}
	return charges, rows.Err()
}

func (s *Store) paymentsByCustomer(ctx context.Context) (map[int64]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT customer_id, amount FROM advance_payments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paid := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			customerID int64
			amountRaw  string
		)
		if err := rows.Scan(&customerID, &amountRaw); err != nil {
			return nil, err
		}
		amount, err := parseMoney(amountRaw)
		if err != nil {
			return nil, err
		}
		paid[customerID] = paid[customerID].Add(amount)
	}
	return paid, rows.Err()
}

// --- delivery partners ---

func (s *Store) CreatePartner(ctx context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error) {
	if partner.Name == "" {
		return nil, store.ErrInvalidInput
	}
	partner.Active = true
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_partners (name, contact, address, active)
			VALUES (?, ?, ?, 1)
		`, partner.Name, partner.Contact, partner.Address)
		if err != nil {
			return err
		}
		partner.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := partner
	return &created, nil
}

func (s *Store) UpdatePartner(ctx context.Context, partner domain.DeliveryPartner) (*domain.DeliveryPartner, error) {
	if partner.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE delivery_partners SET name = ?, contact = ?, address = ? WHERE id = ?
		`, partner.Name, partner.Contact, partner.Address, partner.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPartner(ctx, partner.ID)
}

func (s *Store) DeactivatePartner(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE delivery_partners SET active = 0 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func scanPartner(row interface{ Scan(...any) error }) (domain.DeliveryPartner, error) {
	var (
		p      domain.DeliveryPartner
		active int
	)
	err := row.Scan(&p.ID, &p.Name, &p.Contact, &p.Address, &active)
	if err != nil {
		return domain.DeliveryPartner{}, err
	}
	p.Active = active != 0
	return p, nil
}

const partnerColumns = `id, name, COALESCE(contact, ''), COALESCE(address, ''), active`

func (s *Store) GetPartner(ctx context.Context, id int64) (*domain.DeliveryPartner, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM delivery_partners WHERE id = ?`, id)
	partner, err := scanPartner(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &partner, nil
}

func (s *Store) ListPartners(ctx context.Context, includeInactive bool) ([]domain.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM delivery_partners WHERE active = 1 ORDER BY name`
	if includeInactive {
		query = `SELECT ` + partnerColumns + ` FROM delivery_partners ORDER BY name`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := make([]domain.DeliveryPartner, 0, 16)
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	return partners, rows.Err()
}

// --- items ---

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO items (name, price) VALUES (?, ?)`, item.Name, item.Price.String())
		if err != nil {
			return err
		}
		item.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE items SET name = ?, price = ? WHERE id = ?`, item.Name, item.Price.String(), item.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func scanItem(row interface{ Scan(...any) error }) (domain.Item, error) {
	var (
		item     domain.Item
		priceRaw string
	)
	if err := row.Scan(&item.ID, &item.Name, &priceRaw); err != nil {
		return domain.Item{}, err
	}
	price, err := parseMoney(priceRaw)
	if err != nil {
		return domain.Item{}, err
	}
	item.Price = price
	return item, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, price FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, price FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 16)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- managers ---

func (s *Store) CreateManager(ctx context.Context, manager domain.Manager) (*domain.Manager, error) {
	if manager.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO managers (name, contact) VALUES (?, ?)`, manager.Name, manager.Contact)
		if err != nil {
			return err
		}
		manager.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := manager
	return &created, nil
}

func (s *Store) UpdateManager(ctx context.Context, manager domain.Manager) (*domain.Manager, error) {
	if manager.Name == "" {
		return nil, store.ErrInvalidInput
	}
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE managers SET name = ?, contact = ? WHERE id = ?`, manager.Name, manager.Contact, manager.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	updated := manager
	return &updated, nil
}

func (s *Store) DeleteManager(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM managers WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func (s *Store) GetManager(ctx context.Context, id int64) (*domain.Manager, error) {
	var m domain.Manager
	err := s.db.QueryRowContext(ctx, `SELECT id, name, COALESCE(contact, '') FROM managers WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListManagers(ctx context.Context) ([]domain.Manager, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(contact, '') FROM managers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	managers := make([]domain.Manager, 0, 8)
	for rows.Next() {
		var m domain.Manager
		if err := rows.Scan(&m.ID, &m.Name, &m.Contact); err != nil {
			return nil, err
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

// --- advance payments ---

func (s *Store) CreatePayment(ctx context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO advance_payments (customer_id, amount, date, notes)
			VALUES (?, ?, ?, ?)
		`, payment.CustomerID, payment.Amount.String(), payment.Date, payment.Notes)
		if err != nil {
			return err
		}
		payment.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := payment
	return &created, nil
}

func (s *Store) UpdatePayment(ctx context.Context, payment domain.AdvancePayment) (*domain.AdvancePayment, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE advance_payments SET customer_id = ?, amount = ?, date = ?, notes = ? WHERE id = ?
		`, payment.CustomerID, payment.Amount.String(), payment.Date, payment.Notes, payment.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	updated := payment
	return &updated, nil
}

func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM advance_payments WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func (s *Store) GetPayment(ctx context.Context, id int64) (*domain.AdvancePayment, error) {
	var (
		p         domain.AdvancePayment
		amountRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount, date, COALESCE(notes, '') FROM advance_payments WHERE id = ?
	`, id).Scan(&p.ID, &p.CustomerID, &amountRaw, &p.Date, &p.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if p.Amount, err = parseMoney(amountRaw); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, date string) ([]domain.PaymentRow, error) {
	query := `
		SELECT ap.id, ap.customer_id, ap.amount, ap.date, COALESCE(ap.notes, ''),
		       COALESCE(c.name, '')
		FROM advance_payments ap
		LEFT JOIN customers c ON c.id = ap.customer_id
	`
	args := []any{}
	if date != "" {
		query += ` WHERE ap.date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY ap.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.PaymentRow, 0, 32)
	for rows.Next() {
		var (
			row       domain.PaymentRow
			amountRaw string
		)
		if err := rows.Scan(&row.ID, &row.CustomerID, &amountRaw, &row.Date, &row.Notes, &row.CustomerName); err != nil {
			return nil, err
		}
		if row.Amount, err = parseMoney(amountRaw); err != nil {
			return nil, err
		}
		payments = append(payments, row)
	}
	return payments, rows.Err()
}

// --- daily deliveries ---

func (s *Store) CreateDelivery(ctx context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO daily_deliveries (date, customer_id, item_id, quantity, price, delivery_partner_id, manager_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, delivery.Date, delivery.CustomerID, delivery.ItemID, delivery.Quantity, delivery.Price.String(), delivery.PartnerID, delivery.ManagerID)
		if err != nil {
			return err
		}
		delivery.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := delivery
	return &created, nil
}

func (s *Store) UpdateDelivery(ctx context.Context, delivery domain.DailyDelivery) (*domain.DailyDelivery, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE daily_deliveries
			SET date = ?, customer_id = ?, item_id = ?, quantity = ?, price = ?, delivery_partner_id = ?, manager_id = ?
			WHERE id = ?
		`, delivery.Date, delivery.CustomerID, delivery.ItemID, delivery.Quantity, delivery.Price.String(), delivery.PartnerID, delivery.ManagerID, delivery.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	updated := delivery
	return &updated, nil
}

func (s *Store) DeleteDelivery(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM daily_deliveries WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func (s *Store) GetDelivery(ctx context.Context, id int64) (*domain.DailyDelivery, error) {
	var (
		d        domain.DailyDelivery
		priceRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, customer_id, item_id, quantity, price, delivery_partner_id, manager_id
		FROM daily_deliveries WHERE id = ?
	`, id).Scan(&d.ID, &d.Date, &d.CustomerID, &d.ItemID, &d.Quantity, &priceRaw, &d.PartnerID, &d.ManagerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if d.Price, err = parseMoney(priceRaw); err != nil {
		return nil, err
	}
	return &d, nil
}

const deliveryRowSelect = `
	SELECT dd.id, dd.date, dd.customer_id, dd.item_id, dd.quantity, dd.price,
	       dd.delivery_partner_id, dd.manager_id,
	       COALESCE(c.name, ''), COALESCE(i.name, ''), COALESCE(dp.name, ''), COALESCE(m.name, '')
	FROM daily_deliveries dd
	LEFT JOIN customers c ON c.id = dd.customer_id
	LEFT JOIN items i ON i.id = dd.item_id
	LEFT JOIN delivery_partners dp ON dp.id = dd.delivery_partner_id
	LEFT JOIN managers m ON m.id = dd.manager_id
`

func (s *Store) queryDeliveryRows(ctx context.Context, where string, order string, args ...any) ([]domain.DeliveryRow, error) {
	rows, err := s.db.QueryContext(ctx, deliveryRowSelect+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := make([]domain.DeliveryRow, 0, 64)
	for rows.Next() {
		var (
			row      domain.DeliveryRow
			priceRaw string
		)
		err := rows.Scan(&row.ID, &row.Date, &row.CustomerID, &row.ItemID, &row.Quantity, &priceRaw,
			&row.PartnerID, &row.ManagerID,
			&row.CustomerName, &row.ItemName, &row.PartnerName, &row.ManagerName)
		if err != nil {
			return nil, err
		}
		if row.Price, err = parseMoney(priceRaw); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, row)
	}
	return deliveries, rows.Err()
}

func (s *Store) ListDeliveries(ctx context.Context, date string) ([]domain.DeliveryRow, error) {
	if date != "" {
		return s.queryDeliveryRows(ctx, ` WHERE dd.date = ?`, ` ORDER BY dd.id DESC`, date)
	}
	return s.queryDeliveryRows(ctx, ``, ` ORDER BY dd.id DESC`)
}

func (s *Store) ListPartnerDeliveries(ctx context.Context, partnerID int64, date string) ([]domain.DeliveryRow, error) {
	return s.queryDeliveryRows(ctx, ` WHERE dd.delivery_partner_id = ? AND dd.date = ?`, ` ORDER BY dd.id`, partnerID, date)
}

// --- partner allocations ---

func (s *Store) CreateAllocation(ctx context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO partner_allocations (date, delivery_partner_id, manager_id, item_id, quantity)
			VALUES (?, ?, ?, ?, ?)
		`, allocation.Date, allocation.PartnerID, allocation.ManagerID, allocation.ItemID, allocation.Quantity)
		if err != nil {
			return err
		}
		allocation.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	created := allocation
	return &created, nil
}

func (s *Store) UpdateAllocation(ctx context.Context, allocation domain.PartnerAllocation) (*domain.PartnerAllocation, error) {
	err := s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE partner_allocations
			SET date = ?, delivery_partner_id = ?, manager_id = ?, item_id = ?, quantity = ?
			WHERE id = ?
		`, allocation.Date, allocation.PartnerID, allocation.ManagerID, allocation.ItemID, allocation.Quantity, allocation.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return nil, err
	}
	updated := allocation
	return &updated, nil
}

func (s *Store) DeleteAllocation(ctx context.Context, id int64) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM partner_allocations WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func (s *Store) GetAllocation(ctx context.Context, id int64) (*domain.PartnerAllocation, error) {
	var a domain.PartnerAllocation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, delivery_partner_id, manager_id, item_id, quantity
		FROM partner_allocations WHERE id = ?
	`, id).Scan(&a.ID, &a.Date, &a.PartnerID, &a.ManagerID, &a.ItemID, &a.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

const allocationRowSelect = `
	SELECT pa.id, pa.date, pa.delivery_partner_id, pa.manager_id, pa.item_id, pa.quantity,
	       COALESCE(i.name, ''), COALESCE(m.name, ''), COALESCE(dp.name, '')
	FROM partner_allocations pa
	LEFT JOIN items i ON i.id = pa.item_id
	LEFT JOIN managers m ON m.id = pa.manager_id
	LEFT JOIN delivery_partners dp ON dp.id = pa.delivery_partner_id
`

func (s *Store) queryAllocationRows(ctx context.Context, where string, order string, args ...any) ([]domain.AllocationRow, error) {
	rows, err := s.db.QueryContext(ctx, allocationRowSelect+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]domain.AllocationRow, 0, 32)
	for rows.Next() {
		var row domain.AllocationRow
		err := rows.Scan(&row.ID, &row.Date, &row.PartnerID, &row.ManagerID, &row.ItemID, &row.Quantity,
			&row.ItemName, &row.ManagerName, &row.PartnerName)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, row)
	}
	return allocations, rows.Err()
}

func (s *Store) ListAllocations(ctx context.Context, date string) ([]domain.AllocationRow, error) {
	if date != "" {
		return s.queryAllocationRows(ctx, ` WHERE pa.date = ?`, ` ORDER BY pa.id DESC`, date)
	}
	return s.queryAllocationRows(ctx, ``, ` ORDER BY pa.id DESC`)
}

func (s *Store) ListPartnerAllocations(ctx context.Context, partnerID int64, date string) ([]domain.AllocationRow, error) {
	return s.queryAllocationRows(ctx, ` WHERE pa.delivery_partner_id = ? AND pa.date = ?`, ` ORDER BY pa.id`, partnerID, date)
}

// PartnerRemaining sums allocation and delivery quantities for one partner
// on one exact day. Quantities are integers, so SQL SUM is safe here.
func (s *Store) PartnerRemaining(ctx context.Context, partnerID int64, date string) (int, int, error) {
	var allocated int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM partner_allocations
		WHERE delivery_partner_id = ? AND date = ?
	`, partnerID, date).Scan(&allocated)
	if err != nil {
		return 0, 0, err
	}

	var delivered int
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM daily_deliveries
		WHERE delivery_partner_id = ? AND date = ?
	`, partnerID, date).Scan(&delivered)
	if err != nil {
		return 0, 0, err
	}
	return allocated, delivered, nil
}

// --- statements & summaries ---

func (s *Store) CustomerStatementRange(ctx context.Context, customerID int64, start, end string) ([]domain.StatementDelivery, []domain.StatementPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dd.date, COALESCE(i.name, ''), dd.quantity, dd.price, COALESCE(dp.name, '')
		FROM daily_deliveries dd
		LEFT JOIN items i ON i.id = dd.item_id
		LEFT JOIN delivery_partners dp ON dp.id = dd.delivery_partner_id
		WHERE dd.customer_id = ? AND dd.date BETWEEN ? AND ?
		ORDER BY dd.date
	`, customerID, start, end)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	deliveries := make([]domain.StatementDelivery, 0, 64)
	for rows.Next() {
		var (
			line     domain.StatementDelivery
			priceRaw string
		)
		if err := rows.Scan(&line.Date, &line.ItemName, &line.Quantity, &priceRaw, &line.PartnerName); err != nil {
			return nil, nil, err
		}
		if line.Price, err = parseMoney(priceRaw); err != nil {
			return nil, nil, err
		}
		deliveries = append(deliveries, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	payRows, err := s.db.QueryContext(ctx, `
		SELECT date, amount, COALESCE(notes, '')
		FROM advance_payments
		WHERE customer_id = ? AND date BETWEEN ? AND ?
		ORDER BY date
	`, customerID, start, end)
	if err != nil {
		return nil, nil, err
	}
	defer payRows.Close()

	payments := make([]domain.StatementPayment, 0, 16)
	for payRows.Next() {
		var (
			line      domain.StatementPayment
			amountRaw string
		)
		if err := payRows.Scan(&line.Date, &amountRaw, &line.Notes); err != nil {
			return nil, nil, err
		}
		if line.Amount, err = parseMoney(amountRaw); err != nil {
			return nil, nil, err
		}
		payments = append(payments, line)
	}
	return deliveries, payments, payRows.Err()
}

func (s *Store) CustomerSummaryRange(ctx context.Context, customerID int64, start, end string) (domain.RangeSummary, error) {
	summary := domain.RangeSummary{TotalAmount: decimal.Zero, TotalPaid: decimal.Zero}

	rows, err := s.db.QueryContext(ctx, `
		SELECT quantity, price FROM daily_deliveries
		WHERE customer_id = ? AND date BETWEEN ? AND ?
	`, customerID, start, end)
	if err != nil {
		return domain.RangeSummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			quantity int64
			priceRaw string
		)
		if err := rows.Scan(&quantity, &priceRaw); err != nil {
			return domain.RangeSummary{}, err
		}
		price, err := parseMoney(priceRaw)
		if err != nil {
			return domain.RangeSummary{}, err
		}
		summary.TotalQuantity += int(quantity)
		summary.TotalAmount = summary.TotalAmount.Add(price.Mul(decimal.NewFromInt(quantity)))
	}
	if err := rows.Err(); err != nil {
		return domain.RangeSummary{}, err
	}

	payRows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM advance_payments
		WHERE customer_id = ? AND date BETWEEN ? AND ?
	`, customerID, start, end)
	if err != nil {
		return domain.RangeSummary{}, err
	}
	defer payRows.Close()

	for payRows.Next() {
		var amountRaw string
		if err := payRows.Scan(&amountRaw); err != nil {
			return domain.RangeSummary{}, err
		}
		amount, err := parseMoney(amountRaw)
		if err != nil {
			return domain.RangeSummary{}, err
		}
		summary.TotalPaid = summary.TotalPaid.Add(amount)
	}
	return summary, payRows.Err()
}

// --- settings ---

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value.String, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.exec(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	})
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
