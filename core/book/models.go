package book

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core"
)

// Order statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
)

// Order quarters (half-year periods).
const (
	QuarterFirstHalf  = "Q1-Q2"
	QuarterSecondHalf = "Q3-Q4"
)

// Book is a quarterly lesson book offered for ordering.
type Book struct {
	ID        string          `json:"id"`
	ChurchID  string          `json:"-"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"` // UTC
	UpdatedAt time.Time       `json:"-"`          // UTC
}

// NewBook contains information needed to create or update a quarterly book.
type NewBook struct {
	Title    string          `json:"title" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Currency string          `json:"currency" validate:"omitempty,oneof=GHS USD"`
	IsActive *bool           `json:"is_active"`
}

func (nb *NewBook) Validate(validate *validator.Validate) error {
	nb.Title = core.CleanString(nb.Title)
	if nb.Currency == "" {
		nb.Currency = "GHS"
	}
	if err := validate.Struct(nb); err != nil {
		return err
	}
	if nb.Price.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{
			Field: "price", Error: "price cannot be negative",
		})
	}
	return nil
}

// Order is a class's book order for a half-year period. One order exists per
// (class, quarter, year); re-ordering updates it.
type Order struct {
	ID            string          `json:"id"`
	ClassID       string          `json:"action_unit_class"`
	Quarter       string          `json:"quarter"`
	Year          int             `json:"year"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	SubmittedByID string          `json:"submitted_by"`
	SubmittedDate *time.Time      `json:"submitted_date"` // UTC
	CreatedAt     time.Time       `json:"created_at"`     // UTC
	UpdatedAt     time.Time       `json:"-"`              // UTC
}

// Item is one book line of an order; its total is quantity times unit price.
type Item struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"book_order"`
	BookID     string          `json:"quarterly_book"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// ItemDetail is an item enriched with its book title.
type ItemDetail struct {
	Item
	BookTitle string `json:"book_title"`
}

// OrderDetail is an order with its items and names resolved.
type OrderDetail struct {
	Order
	ClassName     string       `json:"class_name"`
	SubmittedName string       `json:"submitted_by_name"`
	Items         []ItemDetail `json:"order_items"`
}

// NewOrderItem is one line of an order request; the unit price always comes
// from the book, never the client.
type NewOrderItem struct {
	BookID   string `json:"quarterly_book" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

// NewOrder creates or updates a class's order for a period.
type NewOrder struct {
	ClassID string         `json:"action_unit_class" validate:"required"`
	Quarter string         `json:"quarter" validate:"required,quarter"`
	Year    int            `json:"year" validate:"required,min=2000,max=2100"`
	Items   []NewOrderItem `json:"order_items" validate:"omitempty,dive"`
}

func (no *NewOrder) Validate(validate *validator.Validate) error {
	return validate.Struct(no)
}

// OrderSummary is one row of the superintendent's orders view.
type OrderSummary struct {
	ClassID       string        `json:"class_id"`
	ClassName     string        `json:"class_name"`
	TeacherName   string        `json:"teacher_name"`
	Quarter       string        `json:"quarter"`
	OrderDate     string        `json:"order_date"`
	TotalValue    float64       `json:"total_order_value"`
	TotalQuantity int           `json:"total_order_qty"`
	Status        string        `json:"status"`
	Books         []SummaryItem `json:"books"`
}

// SummaryItem is one book line of an order summary.
type SummaryItem struct {
	BookTitle  string  `json:"book_title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// OrderFilter narrows order queries.
type OrderFilter struct {
	Quarter string
	Year    int
	ClassID string
}
