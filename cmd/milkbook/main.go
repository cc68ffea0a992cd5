// Command milkbook is the terminal front end. It opens the database file
// directly, so it works without the HTTP server running.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"milkbook/internal/cache"
	"milkbook/internal/config"
	"milkbook/internal/domain"
	"milkbook/internal/httpapi"
	"milkbook/internal/service"
	"milkbook/internal/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("open database %s: %v", cfg.DBPath, err)
	}
	defer db.Close()

	svc := service.New(db, cache.NoopBalanceCache{}, 0)
	auth := httpapi.NewAuthManager(db, []byte("milkbook-cli"), time.Hour)
	if err := checkGate(ctx, auth, svc); err != nil {
		log.Fatalf("%v", err)
	}

	app := &app{svc: svc, auth: auth}
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: milkbook <command> [flags]

commands:
  customers    list | add | update | deactivate
  partners     list | add | update | deactivate | day
  items        list | add | update | delete
  managers     list | add | update | delete
  deliveries   list | add | delete
  payments     list | add | delete
  allocations  list | add | delete
  balances     customer dues and credit
  summary      per-customer totals for a date range
  receipt      write a PDF receipt
  settings     show or change shop settings`)
}

// checkGate prompts for the password when one is set. MILKBOOK_PASSWORD
// skips the prompt for scripted use.
func checkGate(ctx context.Context, auth *httpapi.AuthManager, svc *service.Service) error {
	enabled, err := auth.Enabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	current, err := svc.Settings(ctx)
	if err != nil {
		return err
	}

	password := os.Getenv("MILKBOOK_PASSWORD")
	if password == "" {
		fmt.Fprintf(os.Stderr, "Password for %s: ", current.Username)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if _, _, err := auth.Login(ctx, current.Username, password); err != nil {
		return err
	}
	return nil
}

type app struct {
	svc  *service.Service
	auth *httpapi.AuthManager
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "customers":
		return a.customers(ctx, args)
	case "partners":
		return a.partners(ctx, args)
	case "items":
		return a.items(ctx, args)
	case "managers":
		return a.managers(ctx, args)
	case "deliveries":
		return a.deliveries(ctx, args)
	case "payments":
		return a.payments(ctx, args)
	case "allocations":
		return a.allocations(ctx, args)
	case "balances":
		return a.balances(ctx, args)
	case "summary":
		return a.summary(ctx, args)
	case "receipt":
		return a.receipt(ctx, args)
	case "settings":
		return a.settings(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func action(args []string) (string, []string) {
	if len(args) == 0 {
		return "list", nil
	}
	return args[0], args[1:]
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func (a *app) customers(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		fs := flag.NewFlagSet("customers list", flag.ExitOnError)
		all := fs.Bool("all", false, "include deactivated customers")
		_ = fs.Parse(rest)
		customers, err := a.svc.ListCustomers(ctx, *all)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tNAME\tCONTACT\tADDRESS\tACTIVE")
		for _, c := range customers {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", c.ID, c.Name, c.Contact, c.Address, c.Active)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("customers add", flag.ExitOnError)
		name := fs.String("name", "", "customer name (required)")
		contact := fs.String("contact", "", "phone or other contact")
		address := fs.String("address", "", "street address")
		altPartner := fs.Int64("alt-partner", 0, "alternate delivery partner id")
		altContact := fs.String("alt-contact", "", "alternate contact")
		_ = fs.Parse(rest)
		req := domain.CustomerCreateRequest{Name: *name, Contact: *contact, Address: *address, AltContact: *altContact}
		if *altPartner > 0 {
			req.AltPartnerID = altPartner
		}
		customer, err := a.svc.CreateCustomer(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("created customer %d (%s)\n", customer.ID, customer.Name)
		return nil
	case "update":
		fs := flag.NewFlagSet("customers update", flag.ExitOnError)
		id := fs.Int64("id", 0, "customer id (required)")
		name := fs.String("name", "", "new name")
		contact := fs.String("contact", "", "new contact")
		address := fs.String("address", "", "new address")
		altPartner := fs.Int64("alt-partner", 0, "alternate delivery partner id")
		altContact := fs.String("alt-contact", "", "alternate contact")
		_ = fs.Parse(rest)
		req := domain.CustomerUpdateRequest{}
		setIfPassed(fs, "name", &req.Name, name)
		setIfPassed(fs, "contact", &req.Contact, contact)
		setIfPassed(fs, "address", &req.Address, address)
		setIfPassed(fs, "alt-contact", &req.AltContact, altContact)
		if flagPassed(fs, "alt-partner") {
			req.AltPartnerID = altPartner
		}
		customer, err := a.svc.UpdateCustomer(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated customer %d (%s)\n", customer.ID, customer.Name)
		return nil
	case "deactivate":
		fs := flag.NewFlagSet("customers deactivate", flag.ExitOnError)
		id := fs.Int64("id", 0, "customer id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeactivateCustomer(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deactivated customer %d (history kept)\n", *id)
		return nil
	default:
		return fmt.Errorf("customers: unknown action %q", verb)
	}
}

func (a *app) partners(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		fs := flag.NewFlagSet("partners list", flag.ExitOnError)
		all := fs.Bool("all", false, "include deactivated partners")
		_ = fs.Parse(rest)
		partners, err := a.svc.ListPartners(ctx, *all)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tNAME\tCONTACT\tADDRESS\tACTIVE")
		for _, p := range partners {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n", p.ID, p.Name, p.Contact, p.Address, p.Active)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("partners add", flag.ExitOnError)
		name := fs.String("name", "", "partner name (required)")
		contact := fs.String("contact", "", "phone or other contact")
		address := fs.String("address", "", "street address")
		_ = fs.Parse(rest)
		partner, err := a.svc.CreatePartner(ctx, domain.PartnerCreateRequest{Name: *name, Contact: *contact, Address: *address})
		if err != nil {
			return err
		}
		fmt.Printf("created partner %d (%s)\n", partner.ID, partner.Name)
		return nil
	case "update":
		fs := flag.NewFlagSet("partners update", flag.ExitOnError)
		id := fs.Int64("id", 0, "partner id (required)")
		name := fs.String("name", "", "new name")
		contact := fs.String("contact", "", "new contact")
		address := fs.String("address", "", "new address")
		_ = fs.Parse(rest)
		req := domain.PartnerUpdateRequest{}
		setIfPassed(fs, "name", &req.Name, name)
		setIfPassed(fs, "contact", &req.Contact, contact)
		setIfPassed(fs, "address", &req.Address, address)
		partner, err := a.svc.UpdatePartner(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated partner %d (%s)\n", partner.ID, partner.Name)
		return nil
	case "deactivate":
		fs := flag.NewFlagSet("partners deactivate", flag.ExitOnError)
		id := fs.Int64("id", 0, "partner id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeactivatePartner(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deactivated partner %d (history kept)\n", *id)
		return nil
	case "day":
		fs := flag.NewFlagSet("partners day", flag.ExitOnError)
		id := fs.Int64("id", 0, "partner id (required)")
		date := fs.String("date", time.Now().Format("2006-01-02"), "day to report")
		_ = fs.Parse(rest)
		day, err := a.svc.PartnerDaySummary(ctx, *id, *date)
		if err != nil {
			return err
		}
		fmt.Printf("%s on %s: allocated %d, delivered %d, remaining %d\n",
			day.PartnerName, day.Date, day.Allocated, day.Delivered, day.Remaining)
		if day.Remaining < 0 {
			fmt.Println("note: delivered more than allocated")
		}
		tw := newTable()
		fmt.Fprintln(tw, "DELIVERY\tCUSTOMER\tITEM\tQTY\tPRICE")
		for _, d := range day.Deliveries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", d.ID, d.CustomerName, d.ItemName, d.Quantity, d.Price.StringFixed(2))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("partners: unknown action %q", verb)
	}
}

func (a *app) items(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		items, err := a.svc.ListItems(ctx)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tNAME\tPRICE")
		for _, item := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", item.ID, item.Name, item.Price.StringFixed(2))
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("items add", flag.ExitOnError)
		name := fs.String("name", "", "item name (required)")
		price := fs.String("price", "", "unit price (required)")
		_ = fs.Parse(rest)
		item, err := a.svc.CreateItem(ctx, domain.ItemCreateRequest{Name: *name, Price: *price})
		if err != nil {
			return err
		}
		fmt.Printf("created item %d (%s @ %s)\n", item.ID, item.Name, item.Price.StringFixed(2))
		return nil
	case "update":
		fs := flag.NewFlagSet("items update", flag.ExitOnError)
		id := fs.Int64("id", 0, "item id (required)")
		name := fs.String("name", "", "new name")
		price := fs.String("price", "", "new unit price")
		_ = fs.Parse(rest)
		req := domain.ItemUpdateRequest{}
		setIfPassed(fs, "name", &req.Name, name)
		setIfPassed(fs, "price", &req.Price, price)
		item, err := a.svc.UpdateItem(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated item %d (%s @ %s)\n", item.ID, item.Name, item.Price.StringFixed(2))
		return nil
	case "delete":
		fs := flag.NewFlagSet("items delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "item id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeleteItem(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted item %d\n", *id)
		return nil
	default:
		return fmt.Errorf("items: unknown action %q", verb)
	}
}

func (a *app) managers(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		managers, err := a.svc.ListManagers(ctx)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tNAME\tCONTACT")
		for _, m := range managers {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.ID, m.Name, m.Contact)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("managers add", flag.ExitOnError)
		name := fs.String("name", "", "manager name (required)")
		contact := fs.String("contact", "", "phone or other contact")
		_ = fs.Parse(rest)
		manager, err := a.svc.CreateManager(ctx, domain.ManagerCreateRequest{Name: *name, Contact: *contact})
		if err != nil {
			return err
		}
		fmt.Printf("created manager %d (%s)\n", manager.ID, manager.Name)
		return nil
	case "update":
		fs := flag.NewFlagSet("managers update", flag.ExitOnError)
		id := fs.Int64("id", 0, "manager id (required)")
		name := fs.String("name", "", "new name")
		contact := fs.String("contact", "", "new contact")
		_ = fs.Parse(rest)
		req := domain.ManagerUpdateRequest{}
		setIfPassed(fs, "name", &req.Name, name)
		setIfPassed(fs, "contact", &req.Contact, contact)
		manager, err := a.svc.UpdateManager(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated manager %d (%s)\n", manager.ID, manager.Name)
		return nil
	case "delete":
		fs := flag.NewFlagSet("managers delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "manager id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeleteManager(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted manager %d\n", *id)
		return nil
	default:
		return fmt.Errorf("managers: unknown action %q", verb)
	}
}

func (a *app) deliveries(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		fs := flag.NewFlagSet("deliveries list", flag.ExitOnError)
		date := fs.String("date", time.Now().Format("2006-01-02"), "day to list")
		all := fs.Bool("all", false, "list every delivery")
		_ = fs.Parse(rest)
		filter := *date
		if *all {
			filter = ""
		}
		deliveries, err := a.svc.ListDeliveries(ctx, filter)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tITEM\tQTY\tPRICE\tPARTNER\tMANAGER")
		for _, d := range deliveries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				d.ID, d.Date, d.CustomerName, d.ItemName, d.Quantity, d.Price.StringFixed(2), d.PartnerName, d.ManagerName)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("deliveries add", flag.ExitOnError)
		date := fs.String("date", time.Now().Format("2006-01-02"), "delivery date")
		customer := fs.Int64("customer", 0, "customer id (required)")
		item := fs.Int64("item", 0, "item id (required)")
		quantity := fs.Int("qty", 0, "quantity (required)")
		price := fs.String("price", "", "unit price; defaults to the item's current price")
		partner := fs.Int64("partner", 0, "delivery partner id (required)")
		manager := fs.Int64("manager", 0, "manager id (required)")
		_ = fs.Parse(rest)

		unitPrice := *price
		if unitPrice == "" && *item > 0 {
			current, err := a.svc.GetItem(ctx, *item)
			if err != nil {
				return err
			}
			unitPrice = current.Price.String()
		}

		delivery, err := a.svc.CreateDelivery(ctx, domain.DeliveryCreateRequest{
			Date:       *date,
			CustomerID: *customer,
			ItemID:     *item,
			Quantity:   *quantity,
			Price:      unitPrice,
			PartnerID:  *partner,
			ManagerID:  *manager,
		})
		if err != nil {
			return err
		}
		fmt.Printf("recorded delivery %d on %s\n", delivery.ID, delivery.Date)
		return nil
	case "delete":
		fs := flag.NewFlagSet("deliveries delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "delivery id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeleteDelivery(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted delivery %d\n", *id)
		return nil
	default:
		return fmt.Errorf("deliveries: unknown action %q", verb)
	}
}

func (a *app) payments(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		fs := flag.NewFlagSet("payments list", flag.ExitOnError)
		date := fs.String("date", "", "day to list; empty lists everything")
		_ = fs.Parse(rest)
		payments, err := a.svc.ListPayments(ctx, *date)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tAMOUNT\tNOTES")
		for _, p := range payments {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Date, p.CustomerName, p.Amount.StringFixed(2), p.Notes)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("payments add", flag.ExitOnError)
		customer := fs.Int64("customer", 0, "customer id (required)")
		amount := fs.String("amount", "", "amount paid (required)")
		date := fs.String("date", time.Now().Format("2006-01-02"), "payment date")
		notes := fs.String("notes", "", "free-form notes")
		_ = fs.Parse(rest)
		payment, err := a.svc.CreatePayment(ctx, domain.PaymentCreateRequest{
			CustomerID: *customer,
			Amount:     *amount,
			Date:       *date,
			Notes:      *notes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("recorded payment %d of %s on %s\n", payment.ID, payment.Amount.StringFixed(2), payment.Date)
		return nil
	case "delete":
		fs := flag.NewFlagSet("payments delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "payment id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeletePayment(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted payment %d\n", *id)
		return nil
	default:
		return fmt.Errorf("payments: unknown action %q", verb)
	}
}

func (a *app) allocations(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list":
		fs := flag.NewFlagSet("allocations list", flag.ExitOnError)
		date := fs.String("date", time.Now().Format("2006-01-02"), "day to list")
		all := fs.Bool("all", false, "list every allocation")
		_ = fs.Parse(rest)
		filter := *date
		if *all {
			filter = ""
		}
		allocations, err := a.svc.ListAllocations(ctx, filter)
		if err != nil {
			return err
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tDATE\tPARTNER\tITEM\tQTY\tMANAGER")
		for _, al := range allocations {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", al.ID, al.Date, al.PartnerName, al.ItemName, al.Quantity, al.ManagerName)
		}
		return tw.Flush()
	case "add":
		fs := flag.NewFlagSet("allocations add", flag.ExitOnError)
		date := fs.String("date", time.Now().Format("2006-01-02"), "allocation date")
		partner := fs.Int64("partner", 0, "delivery partner id (required)")
		manager := fs.Int64("manager", 0, "manager id (required)")
		item := fs.Int64("item", 0, "item id (required)")
		quantity := fs.Int("qty", 0, "quantity handed over (required)")
		_ = fs.Parse(rest)
		allocation, err := a.svc.CreateAllocation(ctx, domain.AllocationCreateRequest{
			Date:      *date,
			PartnerID: *partner,
			ManagerID: *manager,
			ItemID:    *item,
			Quantity:  *quantity,
		})
		if err != nil {
			return err
		}
		fmt.Printf("recorded allocation %d on %s\n", allocation.ID, allocation.Date)
		return nil
	case "delete":
		fs := flag.NewFlagSet("allocations delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "allocation id (required)")
		_ = fs.Parse(rest)
		if err := a.svc.DeleteAllocation(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted allocation %d\n", *id)
		return nil
	default:
		return fmt.Errorf("allocations: unknown action %q", verb)
	}
}

func (a *app) balances(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	search := fs.String("search", "", "filter customers by name substring")
	_ = fs.Parse(args)
	rows, err := a.svc.CustomerBalances(ctx, *search)
	if err != nil {
		return err
	}
	tw := newTable()
	fmt.Fprintln(tw, "ID\tNAME\tCHARGES\tPAID\tDUES\tCREDIT")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.Name, row.Charges.StringFixed(2), row.Paid.StringFixed(2), row.Dues.StringFixed(2), row.Credit.StringFixed(2))
	}
	return tw.Flush()
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	customer := fs.Int64("customer", 0, "customer id (required)")
	start := fs.String("start", "", "range start YYYY-MM-DD (required)")
	end := fs.String("end", "", "range end YYYY-MM-DD (required)")
	_ = fs.Parse(args)
	summary, err := a.svc.CustomerSummary(ctx, *customer, *start, *end)
	if err != nil {
		return err
	}
	fmt.Printf("quantity %d, charges %s, paid %s\n",
		summary.TotalQuantity, summary.TotalAmount.StringFixed(2), summary.TotalPaid.StringFixed(2))
	return nil
}

func (a *app) receipt(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	customer := fs.Int64("customer", 0, "customer id (required)")
	start := fs.String("start", "", "range start YYYY-MM-DD")
	end := fs.String("end", "", "range end YYYY-MM-DD")
	month := fs.String("month", "", "calendar month YYYY-MM; overrides start/end")
	out := fs.String("out", "", "output path; defaults to a name derived from the customer")
	_ = fs.Parse(args)

	from, to := *start, *end
	if *month != "" {
		from, to = *month+"-01", *month+"-31"
	}

	pdf, name, err := a.svc.BuildReceipt(ctx, *customer, from, to)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", path, len(pdf))
	return nil
}

func (a *app) settings(ctx context.Context, args []string) error {
	verb, rest := action(args)
	switch verb {
	case "list", "show":
		settings, err := a.svc.Settings(ctx)
		if err != nil {
			return err
		}
		enabled, err := a.auth.Enabled(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("shop name:    %s\n", settings.ShopName)
		fmt.Printf("address:      %s\n", settings.ShopAddress)
		fmt.Printf("contact:      %s\n", settings.ShopContact)
		fmt.Printf("username:     %s\n", settings.Username)
		fmt.Printf("password set: %v\n", enabled)
		return nil
	case "set":
		fs := flag.NewFlagSet("settings set", flag.ExitOnError)
		shopName := fs.String("shop-name", "", "shop name for receipts")
		address := fs.String("address", "", "shop address for receipts")
		contact := fs.String("contact", "", "shop contact for receipts")
		username := fs.String("username", "", "login username")
		_ = fs.Parse(rest)
		req := domain.SettingsUpdateRequest{}
		setIfPassed(fs, "shop-name", &req.ShopName, shopName)
		setIfPassed(fs, "address", &req.ShopAddress, address)
		setIfPassed(fs, "contact", &req.ShopContact, contact)
		setIfPassed(fs, "username", &req.Username, username)
		if _, err := a.svc.UpdateShopSettings(ctx, req); err != nil {
			return err
		}
		fmt.Println("settings updated")
		return nil
	case "set-password":
		fs := flag.NewFlagSet("settings set-password", flag.ExitOnError)
		password := fs.String("password", "", "new password (required)")
		confirm := fs.String("confirm", "", "repeat the new password (required)")
		_ = fs.Parse(rest)
		if err := a.auth.SetPassword(ctx, *password, *confirm); err != nil {
			return err
		}
		fmt.Println("password set")
		return nil
	case "clear-password":
		if err := a.auth.ClearPassword(ctx); err != nil {
			return err
		}
		fmt.Println("password cleared; the gate is now open")
		return nil
	default:
		return fmt.Errorf("settings: unknown action %q", verb)
	}
}

// setIfPassed copies a flag value into a pointer field only when the flag
// was given on the command line, so empty strings stay distinguishable
// from "not provided".
func setIfPassed(fs *flag.FlagSet, name string, dest **string, value *string) {
	if flagPassed(fs, name) {
		*dest = value
	}
}

func flagPassed(fs *flag.FlagSet, name string) bool {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
