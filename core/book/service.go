package book

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	// ErrBookNotFound is returned when a requested quarterly book does not exist.
	ErrBookNotFound = errors.New("book not found")
	// ErrOrderNotFound is returned when a requested order does not exist or
	// belongs to another teacher's class.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDraftOrderNotFound is returned on a submit attempt against an order
	// that is not in draft status.
	ErrDraftOrderNotFound = errors.New("draft order not found")
	// ErrItemNotFound is returned when an order has no line for a book.
	ErrItemNotFound = errors.New("order item not found")
)

type Repository interface {
	CreateBook(bk Book) (Book, error)
	GetBookByID(id string) (Book, error)
	GetChurchBookByID(churchID, id string) (Book, error)
	FilterBooks(churchID string) ([]Book, error)
	FilterActiveBooks() ([]Book, error)
	UpdateBook(bk Book) error
	DeleteBook(id string) error

	CreateOrder(ord Order) error
	GetOrderByID(id string) (Order, error)
	GetOrder(classID, quarter string, year int) (Order, error)
	FilterClassOrders(classID string) ([]Order, error)
	FilterChurchOrders(churchID string, filter OrderFilter) ([]Order, error)
	UpdateOrder(ord Order) error

	CreateItem(itm Item) error
	GetItem(orderID, bookID string) (Item, error)
	FilterOrderItems(orderID string) ([]Item, error)
	UpdateItem(itm Item) error
}

type Service struct {
	repo    Repository
	clsRepo class.Repository
	usrSvc  user.ServiceInterface
}

func NewService(repo Repository, clsRepo class.Repository, usrSvc user.ServiceInterface) *Service {
	return &Service{repo: repo, clsRepo: clsRepo, usrSvc: usrSvc}
}

// CreateBook registers a quarterly book for the church.
func (svc *Service) CreateBook(churchID string, nb NewBook) (Book, error) {
	now := time.Now().UTC()
	bk := Book{
		ChurchID:  churchID,
		Title:     nb.Title,
		Price:     nb.Price,
		Currency:  nb.Currency,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nb.IsActive != nil {
		bk.IsActive = *nb.IsActive
	}
	bk, err := svc.repo.CreateBook(bk)
	if err != nil {
		return Book{}, errors.Wrap(err, "creating book")
	}
	return bk, nil
}

func (svc *Service) GetBook(churchID, id string) (Book, error) {
	return svc.repo.GetChurchBookByID(churchID, id)
}

// ListBooks returns the church's books, newest first.
func (svc *Service) ListBooks(churchID string) ([]Book, error) {
	return svc.repo.FilterBooks(churchID)
}

// ListActiveBooks returns every active book available for ordering.
func (svc *Service) ListActiveBooks() ([]Book, error) {
	return svc.repo.FilterActiveBooks()
}

func (svc *Service) UpdateBook(churchID, id string, nb NewBook) (Book, error) {
	bk, err := svc.repo.GetChurchBookByID(churchID, id)
	if err != nil {
		return Book{}, err
	}
	bk.Title = nb.Title
	bk.Price = nb.Price
	bk.Currency = nb.Currency
	if nb.IsActive != nil {
		bk.IsActive = *nb.IsActive
	}
	bk.UpdatedAt = time.Now().UTC()
	if err = svc.repo.UpdateBook(bk); err != nil {
		return Book{}, errors.Wrap(err, "updating book")
	}
	return bk, nil
}

func (svc *Service) DeleteBook(churchID, id string) error {
	bk, err := svc.repo.GetChurchBookByID(churchID, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteBook(bk.ID), "deleting book")
}

// UpsertOrder creates a class's order for the period, or folds the items into
// the existing one. Unit prices always come from the current book price.
func (svc *Service) UpsertOrder(churchID, submittedByID string, no NewOrder) (OrderDetail, error) {
	if _, err := svc.clsRepo.GetClassByID(churchID, no.ClassID); err != nil {
		return OrderDetail{}, err
	}

	ord, err := svc.repo.GetOrder(no.ClassID, no.Quarter, no.Year)
	switch errors.Cause(err) {
	case nil:
	case ErrOrderNotFound:
		now := time.Now().UTC()
		ord = Order{
			ClassID:       no.ClassID,
			Quarter:       no.Quarter,
			Year:          no.Year,
			Status:        StatusDraft,
			SubmittedByID: submittedByID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err = svc.repo.CreateOrder(ord); err != nil {
			return OrderDetail{}, errors.Wrap(err, "creating order")
		}
		if ord, err = svc.repo.GetOrder(no.ClassID, no.Quarter, no.Year); err != nil {
			return OrderDetail{}, err
		}
	default:
		return OrderDetail{}, err
	}

	if err = svc.applyItems(&ord, no.Items); err != nil {
		return OrderDetail{}, err
	}
	return svc.Detail(ord)
}

// UpdateOrderItems replaces quantities on a teacher's order, creating missing
// lines. Updates are allowed on both draft and submitted orders.
func (svc *Service) UpdateOrderItems(teacherID, orderID string, items []NewOrderItem) (OrderDetail, error) {
	ord, err := svc.orderForTeacher(teacherID, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if err = svc.applyItems(&ord, items); err != nil {
		return OrderDetail{}, err
	}
	return svc.Detail(ord)
}

func (svc *Service) applyItems(ord *Order, items []NewOrderItem) error {
	for _, ni := range items {
		bk, err := svc.repo.GetBookByID(ni.BookID)
		if err != nil {
			return err
		}

		itm, err := svc.repo.GetItem(ord.ID, bk.ID)
		switch errors.Cause(err) {
		case nil:
			itm.Quantity = ni.Quantity
			itm.UnitPrice = bk.Price
			itm.TotalPrice = bk.Price.Mul(decimal.NewFromInt(int64(ni.Quantity)))
			if err = svc.repo.UpdateItem(itm); err != nil {
				return errors.Wrap(err, "updating order item")
			}
		case ErrItemNotFound:
			itm = Item{
				OrderID:    ord.ID,
				BookID:     bk.ID,
				Quantity:   ni.Quantity,
				UnitPrice:  bk.Price,
				TotalPrice: bk.Price.Mul(decimal.NewFromInt(int64(ni.Quantity))),
			}
			if err = svc.repo.CreateItem(itm); err != nil {
				return errors.Wrap(err, "creating order item")
			}
		default:
			return err
		}
	}
	return svc.recomputeTotal(ord)
}

func (svc *Service) recomputeTotal(ord *Order) error {
	items, err := svc.repo.FilterOrderItems(ord.ID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, itm := range items {
		total = total.Add(itm.TotalPrice)
	}
	ord.TotalAmount = total
	ord.UpdatedAt = time.Now().UTC()
	return errors.Wrap(svc.repo.UpdateOrder(*ord), "updating order total")
}

// SubmitOrder moves a teacher's draft order to submitted.
func (svc *Service) SubmitOrder(teacherID, orderID string) (OrderDetail, error) {
	ord, err := svc.orderForTeacher(teacherID, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	if ord.Status != StatusDraft {
		return OrderDetail{}, ErrDraftOrderNotFound
	}

	now := time.Now().UTC()
	ord.Status = StatusSubmitted
	ord.SubmittedDate = &now
	ord.UpdatedAt = now
	if err = svc.repo.UpdateOrder(ord); err != nil {
		return OrderDetail{}, errors.Wrap(err, "submitting order")
	}
	return svc.Detail(ord)
}

// GetOrderForTeacher returns one of the teacher's orders with its items.
func (svc *Service) GetOrderForTeacher(teacherID, orderID string) (OrderDetail, error) {
	ord, err := svc.orderForTeacher(teacherID, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	return svc.Detail(ord)
}

// ListForTeacher returns the orders of the teacher's assigned class.
func (svc *Service) ListForTeacher(teacherID string) ([]OrderDetail, error) {
	asg, err := svc.clsRepo.GetActiveAssignmentByTeacher(teacherID)
	switch errors.Cause(err) {
	case nil:
	case class.ErrAssignmentNotFound:
		return []OrderDetail{}, nil
	default:
		return nil, err
	}

	orders, err := svc.repo.FilterClassOrders(asg.ClassID)
	if err != nil {
		return nil, err
	}
	dtls := make([]OrderDetail, 0, len(orders))
	for _, ord := range orders {
		dtl, err := svc.Detail(ord)
		if err != nil {
			return nil, err
		}
		dtls = append(dtls, dtl)
	}
	return dtls, nil
}

func (svc *Service) orderForTeacher(teacherID, orderID string) (Order, error) {
	ord, err := svc.repo.GetOrderByID(orderID)
	if err != nil {
		return Order{}, err
	}
	asg, err := svc.clsRepo.GetActiveAssignmentByTeacher(teacherID)
	if errors.Cause(err) == class.ErrAssignmentNotFound || (err == nil && asg.ClassID != ord.ClassID) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

// Detail resolves an order's items, class and submitter names.
func (svc *Service) Detail(ord Order) (OrderDetail, error) {
	items, err := svc.repo.FilterOrderItems(ord.ID)
	if err != nil {
		return OrderDetail{}, err
	}

	dtl := OrderDetail{Order: ord, Items: make([]ItemDetail, 0, len(items))}
	for _, itm := range items {
		bk, err := svc.repo.GetBookByID(itm.BookID)
		if err != nil {
			return OrderDetail{}, err
		}
		dtl.Items = append(dtl.Items, ItemDetail{Item: itm, BookTitle: bk.Title})
	}

	usr, err := svc.usrSvc.GetByID(ord.SubmittedByID)
	if err != nil {
		return OrderDetail{}, err
	}
	dtl.SubmittedName = usr.Name

	cls, err := svc.clsRepo.GetClassByID(usr.ChurchID, ord.ClassID)
	if err != nil {
		return OrderDetail{}, err
	}
	dtl.ClassName = cls.Name
	return dtl, nil
}

// ChurchOrders returns every order in the church, flattened for the
// superintendent's overview.
func (svc *Service) ChurchOrders(churchID string, filter OrderFilter) ([]OrderSummary, error) {
	orders, err := svc.repo.FilterChurchOrders(churchID, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, ord := range orders {
		dtl, err := svc.Detail(ord)
		if err != nil {
			return nil, err
		}

		sum := OrderSummary{
			ClassID:     ord.ClassID,
			ClassName:   dtl.ClassName,
			TeacherName: dtl.SubmittedName,
			Quarter:     fmt.Sprintf("%s %d", ord.Quarter, ord.Year),
			OrderDate:   orderDate(ord),
			TotalValue:  ord.TotalAmount.InexactFloat64(),
			Status:      ord.Status,
			Books:       make([]SummaryItem, 0, len(dtl.Items)),
		}
		for _, itm := range dtl.Items {
			sum.TotalQuantity += itm.Quantity
			sum.Books = append(sum.Books, SummaryItem{
				BookTitle:  itm.BookTitle,
				Quantity:   itm.Quantity,
				UnitPrice:  itm.UnitPrice.InexactFloat64(),
				TotalPrice: itm.TotalPrice.InexactFloat64(),
			})
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// Quarters returns the distinct "<quarter> <year>" labels of the church's
// orders, newest first.
func (svc *Service) Quarters(churchID string) ([]string, error) {
	orders, err := svc.repo.FilterChurchOrders(churchID, OrderFilter{})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	labels := []string{}
	for _, ord := range orders { // ordered by -year, -quarter
		label := fmt.Sprintf("%s %d", ord.Quarter, ord.Year)
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels, nil
}

// ReportRow is one row of the submitted-orders report.
type ReportRow struct {
	ClassName   string  `json:"class_name"`
	TeacherName string  `json:"teacher_name"`
	Quarter     string  `json:"quarter"`
	TotalBooks  int     `json:"total_books"`
	TotalValue  float64 `json:"total_value"`
	OrderDate   string  `json:"order_date"`
	Status      string  `json:"status"`
}

// Report summarizes the church's submitted orders.
func (svc *Service) Report(churchID string, filter OrderFilter) ([]ReportRow, error) {
	orders, err := svc.repo.FilterChurchOrders(churchID, filter)
	if err != nil {
		return nil, err
	}

	rows := []ReportRow{}
	for _, ord := range orders {
		if ord.Status != StatusSubmitted {
			continue
		}
		dtl, err := svc.Detail(ord)
		if err != nil {
			return nil, err
		}

		row := ReportRow{
			ClassName:   dtl.ClassName,
			TeacherName: dtl.SubmittedName,
			Quarter:     fmt.Sprintf("%s %d", ord.Quarter, ord.Year),
			TotalValue:  ord.TotalAmount.InexactFloat64(),
			OrderDate:   orderDate(ord),
			Status:      ord.Status,
		}
		for _, itm := range dtl.Items {
			row.TotalBooks += itm.Quantity
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func orderDate(ord Order) string {
	if ord.SubmittedDate != nil {
		return ord.SubmittedDate.Format("2006-01-02")
	}
	return ord.CreatedAt.Format("2006-01-02")
}
