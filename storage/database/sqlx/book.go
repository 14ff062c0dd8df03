package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/actionunitmanager/backend/core/book"
)

type bookRow struct {
	ID        string          `db:"id"`
	ChurchID  string          `db:"church_id"`
	Title     string          `db:"title"`
	Price     decimal.Decimal `db:"price"`
	Currency  string          `db:"currency"`
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r bookRow) book() book.Book {
	return book.Book(r)
}

type orderRow struct {
	ID            string          `db:"id"`
	ClassID       string          `db:"class_id"`
	Quarter       string          `db:"quarter"`
	Year          int             `db:"year"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Status        string          `db:"status"`
	SubmittedByID string          `db:"submitted_by_id"`
	SubmittedDate null.Time       `db:"submitted_date"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r orderRow) order() book.Order {
	ord := book.Order{
		ID:            r.ID,
		ClassID:       r.ClassID,
		Quarter:       r.Quarter,
		Year:          r.Year,
		TotalAmount:   r.TotalAmount,
		Status:        r.Status,
		SubmittedByID: r.SubmittedByID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.SubmittedDate.Valid {
		t := r.SubmittedDate.Time
		ord.SubmittedDate = &t
	}
	return ord
}

func newOrderRow(ord book.Order) orderRow {
	row := orderRow{
		ID:            ord.ID,
		ClassID:       ord.ClassID,
		Quarter:       ord.Quarter,
		Year:          ord.Year,
		TotalAmount:   ord.TotalAmount,
		Status:        ord.Status,
		SubmittedByID: ord.SubmittedByID,
		CreatedAt:     ord.CreatedAt,
		UpdatedAt:     ord.UpdatedAt,
	}
	if ord.SubmittedDate != nil {
		row.SubmittedDate = null.TimeFrom(*ord.SubmittedDate)
	}
	return row
}

type itemRow struct {
	ID         string          `db:"id"`
	OrderID    string          `db:"order_id"`
	BookID     string          `db:"book_id"`
	Quantity   int             `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price"`
}

func (r itemRow) item() book.Item {
	return book.Item(r)
}

type bookRepository struct {
	db *sqlx.DB
}

var _ book.Repository = (*bookRepository)(nil)

func NewBookRepository(db *sqlx.DB) *bookRepository {
	return &bookRepository{db: db}
}

func (repo *bookRepository) CreateBook(bk book.Book) (book.Book, error) {
	bk.ID = uuid.NewString()
	row := bookRow(bk)
	_, err := repo.db.NamedExec(`
		INSERT INTO quarterly_books (id, church_id, title, price, currency, is_active, created_at, updated_at)
		VALUES (:id, :church_id, :title, :price, :currency, :is_active, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return book.Book{}, errors.Wrap(err, "creating book")
	}
	return bk, nil
}

func (repo *bookRepository) getBook(query string, args ...interface{}) (book.Book, error) {
	var row bookRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return book.Book{}, book.ErrBookNotFound
		}
		return book.Book{}, errors.Wrap(err, "getting book")
	}
	return row.book(), nil
}

func (repo *bookRepository) GetBookByID(id string) (book.Book, error) {
	return repo.getBook(`SELECT * FROM quarterly_books WHERE id = ?`, id)
}

func (repo *bookRepository) GetChurchBookByID(churchID, id string) (book.Book, error) {
	return repo.getBook(`SELECT * FROM quarterly_books WHERE church_id = ? AND id = ?`, churchID, id)
}

func (repo *bookRepository) selectBooks(query string, args ...interface{}) ([]book.Book, error) {
	var rows []bookRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering books")
	}
	books := make([]book.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.book())
	}
	return books, nil
}

func (repo *bookRepository) FilterBooks(churchID string) ([]book.Book, error) {
	return repo.selectBooks(`SELECT * FROM quarterly_books WHERE church_id = ? ORDER BY created_at DESC`, churchID)
}

func (repo *bookRepository) FilterActiveBooks() ([]book.Book, error) {
	return repo.selectBooks(`SELECT * FROM quarterly_books WHERE is_active ORDER BY created_at DESC`)
}

func (repo *bookRepository) UpdateBook(bk book.Book) error {
	row := bookRow(bk)
	_, err := repo.db.NamedExec(`
		UPDATE quarterly_books
		SET title = :title, price = :price, currency = :currency, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating book")
}

func (repo *bookRepository) DeleteBook(id string) error {
	_, err := repo.db.Exec(repo.db.Rebind(`DELETE FROM quarterly_books WHERE id = ?`), id)
	return errors.Wrap(err, "deleting book")
}

func (repo *bookRepository) CreateOrder(ord book.Order) error {
	ord.ID = uuid.NewString()
	row := newOrderRow(ord)
	_, err := repo.db.NamedExec(`
		INSERT INTO book_orders (id, class_id, quarter, year, total_amount, status, submitted_by_id, submitted_date, created_at, updated_at)
		VALUES (:id, :class_id, :quarter, :year, :total_amount, :status, :submitted_by_id, :submitted_date, :created_at, :updated_at)`,
		row,
	)
	return errors.Wrap(err, "creating order")
}

func (repo *bookRepository) getOrder(query string, args ...interface{}) (book.Order, error) {
	var row orderRow
	if err := repo.db.Get(&row, repo.db.Rebind(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return book.Order{}, book.ErrOrderNotFound
		}
		return book.Order{}, errors.Wrap(err, "getting order")
	}
	return row.order(), nil
}

func (repo *bookRepository) GetOrderByID(id string) (book.Order, error) {
	return repo.getOrder(`SELECT * FROM book_orders WHERE id = ?`, id)
}

func (repo *bookRepository) GetOrder(classID, quarter string, year int) (book.Order, error) {
	return repo.getOrder(`SELECT * FROM book_orders WHERE class_id = ? AND quarter = ? AND year = ?`, classID, quarter, year)
}

func (repo *bookRepository) selectOrders(query string, args ...interface{}) ([]book.Order, error) {
	var rows []orderRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering orders")
	}
	orders := make([]book.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.order())
	}
	return orders, nil
}

func (repo *bookRepository) FilterClassOrders(classID string) ([]book.Order, error) {
	return repo.selectOrders(`
		SELECT * FROM book_orders WHERE class_id = ?
		ORDER BY year DESC, quarter DESC, created_at DESC`, classID)
}

func (repo *bookRepository) FilterChurchOrders(churchID string, filter book.OrderFilter) ([]book.Order, error) {
	query := `
		SELECT bo.* FROM book_orders bo
		JOIN classes c ON c.id = bo.class_id
		WHERE c.church_id = ?`
	args := []interface{}{churchID}
	if filter.Quarter != "" {
		query += ` AND bo.quarter = ?`
		args = append(args, filter.Quarter)
	}
	if filter.Year != 0 {
		query += ` AND bo.year = ?`
		args = append(args, filter.Year)
	}
	if filter.ClassID != "" {
		query += ` AND bo.class_id = ?`
		args = append(args, filter.ClassID)
	}
	return repo.selectOrders(query+` ORDER BY bo.year DESC, bo.quarter DESC, bo.created_at DESC`, args...)
}

func (repo *bookRepository) UpdateOrder(ord book.Order) error {
	row := newOrderRow(ord)
	_, err := repo.db.NamedExec(`
		UPDATE book_orders
		SET total_amount = :total_amount, status = :status,
		    submitted_date = :submitted_date, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating order")
}

func (repo *bookRepository) CreateItem(itm book.Item) error {
	itm.ID = uuid.NewString()
	row := itemRow(itm)
	_, err := repo.db.NamedExec(`
		INSERT INTO order_items (id, order_id, book_id, quantity, unit_price, total_price)
		VALUES (:id, :order_id, :book_id, :quantity, :unit_price, :total_price)`,
		row,
	)
	return errors.Wrap(err, "creating order item")
}

func (repo *bookRepository) GetItem(orderID, bookID string) (book.Item, error) {
	var row itemRow
	err := repo.db.Get(&row, repo.db.Rebind(`SELECT * FROM order_items WHERE order_id = ? AND book_id = ?`), orderID, bookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return book.Item{}, book.ErrItemNotFound
		}
		return book.Item{}, errors.Wrap(err, "getting order item")
	}
	return row.item(), nil
}

func (repo *bookRepository) FilterOrderItems(orderID string) ([]book.Item, error) {
	var rows []itemRow
	err := repo.db.Select(&rows, repo.db.Rebind(`SELECT * FROM order_items WHERE order_id = ?`), orderID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering order items")
	}
	items := make([]book.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

func (repo *bookRepository) UpdateItem(itm book.Item) error {
	row := itemRow(itm)
	_, err := repo.db.NamedExec(`
		UPDATE order_items
		SET quantity = :quantity, unit_price = :unit_price, total_price = :total_price
		WHERE id = :id`,
		row,
	)
	return errors.Wrap(err, "updating order item")
}
