package inmem

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/actionunitmanager/backend/core/book"
)

type BookRepository struct {
	mu      sync.RWMutex
	books   map[string]book.Book
	orders  map[string]book.Order
	items   map[string]book.Item
	clsRepo *ClassRepository
}

var _ book.Repository = (*BookRepository)(nil)

func NewBookRepository(clsRepo *ClassRepository) *BookRepository {
	repo := &BookRepository{clsRepo: clsRepo}
	repo.Clear()
	return repo
}

func (repo *BookRepository) Clear() {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.books = make(map[string]book.Book)
	repo.orders = make(map[string]book.Order)
	repo.items = make(map[string]book.Item)
}

func (repo *BookRepository) CreateBook(bk book.Book) (book.Book, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	bk.ID = uuid.NewString()
	repo.books[bk.ID] = bk
	return bk, nil
}

func (repo *BookRepository) GetBookByID(id string) (book.Book, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if bk, ok := repo.books[id]; ok {
		return bk, nil
	}
	return book.Book{}, book.ErrBookNotFound
}

func (repo *BookRepository) GetChurchBookByID(churchID, id string) (book.Book, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if bk, ok := repo.books[id]; ok && bk.ChurchID == churchID {
		return bk, nil
	}
	return book.Book{}, book.ErrBookNotFound
}

func sortBooks(books []book.Book) {
	sort.Slice(books, func(i, j int) bool { return books[i].CreatedAt.After(books[j].CreatedAt) })
}

func (repo *BookRepository) FilterBooks(churchID string) ([]book.Book, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var books []book.Book
	for _, bk := range repo.books {
		if bk.ChurchID == churchID {
			books = append(books, bk)
		}
	}
	sortBooks(books)
	return books, nil
}

func (repo *BookRepository) FilterActiveBooks() ([]book.Book, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var books []book.Book
	for _, bk := range repo.books {
		if bk.IsActive {
			books = append(books, bk)
		}
	}
	sortBooks(books)
	return books, nil
}

func (repo *BookRepository) UpdateBook(bk book.Book) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.books[bk.ID]; !ok {
		return book.ErrBookNotFound
	}
	repo.books[bk.ID] = bk
	return nil
}

func (repo *BookRepository) DeleteBook(id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.books, id)
	return nil
}

func (repo *BookRepository) CreateOrder(ord book.Order) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	ord.ID = uuid.NewString()
	repo.orders[ord.ID] = ord
	return nil
}

func (repo *BookRepository) GetOrderByID(id string) (book.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if ord, ok := repo.orders[id]; ok {
		return ord, nil
	}
	return book.Order{}, book.ErrOrderNotFound
}

func (repo *BookRepository) GetOrder(classID, quarter string, year int) (book.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, ord := range repo.orders {
		if ord.ClassID == classID && ord.Quarter == quarter && ord.Year == year {
			return ord, nil
		}
	}
	return book.Order{}, book.ErrOrderNotFound
}

func sortOrders(orders []book.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Year != orders[j].Year {
			return orders[i].Year > orders[j].Year
		}
		if orders[i].Quarter != orders[j].Quarter {
			return orders[i].Quarter > orders[j].Quarter
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func (repo *BookRepository) FilterClassOrders(classID string) ([]book.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var orders []book.Order
	for _, ord := range repo.orders {
		if ord.ClassID == classID {
			orders = append(orders, ord)
		}
	}
	sortOrders(orders)
	return orders, nil
}

func (repo *BookRepository) FilterChurchOrders(churchID string, filter book.OrderFilter) ([]book.Order, error) {
	classes, err := repo.clsRepo.FilterClasses(churchID, false)
	if err != nil {
		return nil, err
	}
	inChurch := make(map[string]bool, len(classes))
	for _, cls := range classes {
		inChurch[cls.ID] = true
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var orders []book.Order
	for _, ord := range repo.orders {
		if !inChurch[ord.ClassID] {
			continue
		}
		if filter.Quarter != "" && ord.Quarter != filter.Quarter {
			continue
		}
		if filter.Year != 0 && ord.Year != filter.Year {
			continue
		}
		if filter.ClassID != "" && ord.ClassID != filter.ClassID {
			continue
		}
		orders = append(orders, ord)
	}
	sortOrders(orders)
	return orders, nil
}

func (repo *BookRepository) UpdateOrder(ord book.Order) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.orders[ord.ID]; !ok {
		return book.ErrOrderNotFound
	}
	repo.orders[ord.ID] = ord
	return nil
}

func (repo *BookRepository) CreateItem(itm book.Item) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	itm.ID = uuid.NewString()
	repo.items[itm.ID] = itm
	return nil
}

func (repo *BookRepository) GetItem(orderID, bookID string) (book.Item, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, itm := range repo.items {
		if itm.OrderID == orderID && itm.BookID == bookID {
			return itm, nil
		}
	}
	return book.Item{}, book.ErrItemNotFound
}

func (repo *BookRepository) FilterOrderItems(orderID string) ([]book.Item, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var items []book.Item
	for _, itm := range repo.items {
		if itm.OrderID == orderID {
			items = append(items, itm)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (repo *BookRepository) UpdateItem(itm book.Item) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.items[itm.ID]; !ok {
		return book.ErrItemNotFound
	}
	repo.items[itm.ID] = itm
	return nil
}
