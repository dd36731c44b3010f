package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/pricing"
)

// Master is the global registry kept in master.json: the list of tenant
// companies plus a directory mapping every login to its company.
type Master struct {
	Companies      []Company         `json:"companies"`
	UsersDirectory map[string]string `json:"usersDirectory"`
	Admin          AdminAccount      `json:"admin"`
}

// Company describes a tenant in the master registry.
type Company struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"isActive"`
	Created  time.Time `json:"created"`
}

// AdminAccount holds the super-admin credential hash.
type AdminAccount struct {
	PasswordHash string `json:"passwordHash,omitempty"`
}

// CompanyDB is the whole persisted state of one tenant. Each company lives in
// its own <id>.json document; a write always replaces the full document.
type CompanyDB struct {
	Users         []User         `json:"users"`
	Clients       []Client       `json:"clients"`
	Models        []Model        `json:"models"`
	Orders        []Order        `json:"orders"`
	Notifications []Notification `json:"notifications"`
	Settings      Settings       `json:"settings"`
}

// User is a company staff account provisioned through the admin console.
type User struct {
	ID           string   `json:"id"`
	Login        string   `json:"login"`
	PasswordHash string   `json:"passwordHash"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
}

// Client is a buyer record. Orders keep a denormalized snapshot of these
// fields, refreshed at save time.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city,omitempty"`
}

// Model is a catalog entry. Its price is denominated in the company's main
// currency as configured at the time the model was entered.
type Model struct {
	ID     string          `json:"id"`
	SKU    string          `json:"sku"`
	Color  string          `json:"color"`
	Price  decimal.Decimal `json:"price"`
	GridID int             `json:"gridId,omitempty"`
}

// Payment records an order prepayment in its original currency together with
// its main-currency equivalent computed at save time.
type Payment struct {
	OriginalAmount   decimal.Decimal  `json:"originalAmount"`
	OriginalCurrency pricing.Currency `json:"originalCurrency"`
	PrepaymentInMain decimal.Decimal  `json:"prepaymentInMain"`
}

// Order is an immutable saved order. Edits replace the whole record.
type Order struct {
	ID           string             `json:"id"`
	Number       int                `json:"orderId"`
	ClientID     string             `json:"clientId,omitempty"`
	ClientName   string             `json:"clientName,omitempty"`
	ClientPhone  string             `json:"clientPhone,omitempty"`
	ClientCity   string             `json:"clientCity,omitempty"`
	Note         string             `json:"note,omitempty"`
	Items        []pricing.LineItem `json:"items"`
	LumpDiscount decimal.Decimal    `json:"lumpDiscount"`
	Gross        decimal.Decimal    `json:"gross"`
	Discount     decimal.Decimal    `json:"discount"`
	Total        decimal.Decimal    `json:"total"`
	MainCurrency pricing.Currency   `json:"mainCurrency"`
	Payment      Payment            `json:"payment"`
	CreatedAt    time.Time          `json:"date"`
	UpdatedAt    time.Time          `json:"updatedAt,omitempty"`
}

// Quantity returns the number of pairs across all order lines.
func (o Order) Quantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// SizeGrid is a contiguous numeric range of shoe sizes used to build
// per-model quantity entry forms.
type SizeGrid struct {
	ID   int `json:"id"`
	From int `json:"from"`
	To   int `json:"to"`
}

// BoxTemplate maps a size label to the number of pairs of that size packed in
// one box. Templates are keyed by grid id and then by pairs-per-box.
type BoxTemplate map[string]int

// Settings holds tenant-level configuration.
type Settings struct {
	MainCurrency       pricing.Currency                  `json:"mainCurrency"`
	ExchangeRates      pricing.RateTable                 `json:"exchangeRates"`
	SizeGrids          []SizeGrid                        `json:"sizeGrids,omitempty"`
	DefaultSizeGridID  int                               `json:"defaultSizeGridId,omitempty"`
	BoxTemplates       map[string]map[string]BoxTemplate `json:"boxTemplates,omitempty"`
	DefaultPrintCopies int                               `json:"defaultPrintCopies"`
	BrandName          string                            `json:"brandName,omitempty"`
	BrandLogo          string                            `json:"brandLogo,omitempty"`
}

// Notification is a broadcast message delivered to a tenant.
type Notification struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	Read    bool      `json:"read"`
}

// NextOrderNumber returns the next sequential display number for this
// company: one past the highest number ever assigned.
func (db *CompanyDB) NextOrderNumber() int {
	max := 0
	for _, o := range db.Orders {
		if o.Number > max {
			max = o.Number
		}
	}
	return max + 1
}

// FindClient returns a pointer into the Clients slice or nil.
func (db *CompanyDB) FindClient(id string) *Client {
	for i := range db.Clients {
		if db.Clients[i].ID == id {
			return &db.Clients[i]
		}
	}
	return nil
}

// FindModel returns a pointer into the Models slice or nil.
func (db *CompanyDB) FindModel(id string) *Model {
	for i := range db.Models {
		if db.Models[i].ID == id {
			return &db.Models[i]
		}
	}
	return nil
}

// FindOrder returns a pointer into the Orders slice or nil.
func (db *CompanyDB) FindOrder(id string) *Order {
	for i := range db.Orders {
		if db.Orders[i].ID == id {
			return &db.Orders[i]
		}
	}
	return nil
}

// PricingContext assembles the calculator context from the tenant settings.
func (s Settings) PricingContext() pricing.Context {
	main := s.MainCurrency
	if main == "" {
		main = pricing.USD
	}
	return pricing.Context{MainCurrency: main, Rates: s.ExchangeRates}
}
