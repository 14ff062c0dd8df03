package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core/book"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	errBookNotFound       = echo.NewHTTPError(http.StatusNotFound, "Book not found")
	errOrderNotFound      = echo.NewHTTPError(http.StatusNotFound, "Order not found")
	errDraftOrderNotFound = echo.NewHTTPError(http.StatusNotFound, "Draft order not found")
)

type bookApi struct {
	opts *Options
}

func registerBookAPI(ag *echo.Group, opts *Options) {
	api := bookApi{opts: opts}

	ag.GET("/quarterly-books", api.query)
	ag.POST("/quarterly-books", api.create)
	ag.GET("/quarterly-books/active", api.queryActive)
	ag.GET("/quarterly-books/:id", api.retrieve)
	ag.PUT("/quarterly-books/:id", api.update)
	ag.DELETE("/quarterly-books/:id", api.destroy)

	ag.GET("/book-orders", api.queryOrders)
	ag.POST("/book-orders", api.upsertOrder)
	ag.GET("/book-orders/:id", api.retrieveOrder)
	ag.PUT("/book-orders/:id", api.updateOrderItems)
	ag.POST("/book-orders/:id/submit", api.submitOrder)

	super := roleMiddleware(user.RoleSuperintendent)
	ag.GET("/superintendent/book-orders", api.churchOrders, super)
	ag.GET("/superintendent/orders-quarters", api.quarters, super)
	ag.GET("/reports/books", api.report)
}

func (api *bookApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	books, err := api.opts.BookSvc.ListBooks(claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "listing books")
	}
	if books == nil {
		books = []book.Book{}
	}
	return ctx.JSON(http.StatusOK, books)
}

func (api *bookApi) queryActive(ctx echo.Context) error {
	books, err := api.opts.BookSvc.ListActiveBooks()
	if err != nil {
		return errors.Wrap(err, "listing active books")
	}
	if books == nil {
		books = []book.Book{}
	}
	return ctx.JSON(http.StatusOK, books)
}

func (api *bookApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data book.NewBook
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBook")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	bk, err := api.opts.BookSvc.CreateBook(claims.ChurchID, data)
	if err != nil {
		return errors.Wrap(err, "creating book")
	}
	return ctx.JSON(http.StatusCreated, bk)
}

func (api *bookApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	bk, err := api.opts.BookSvc.GetBook(claims.ChurchID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == book.ErrBookNotFound {
			return errBookNotFound
		}
		return errors.Wrap(err, "finding book")
	}
	return ctx.JSON(http.StatusOK, bk)
}

func (api *bookApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data book.NewBook
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBook")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	bk, err := api.opts.BookSvc.UpdateBook(claims.ChurchID, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == book.ErrBookNotFound {
			return errBookNotFound
		}
		return errors.Wrap(err, "updating book")
	}
	return ctx.JSON(http.StatusOK, bk)
}

func (api *bookApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.opts.BookSvc.DeleteBook(claims.ChurchID, ctx.Param("id")); err != nil {
		if errors.Cause(err) == book.ErrBookNotFound {
			return errBookNotFound
		}
		return errors.Wrap(err, "deleting book")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryOrders lists the calling teacher's orders.
func (api *bookApi) queryOrders(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	orders, err := api.opts.BookSvc.ListForTeacher(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing orders")
	}
	if orders == nil {
		orders = []book.OrderDetail{}
	}
	return ctx.JSON(http.StatusOK, orders)
}

// upsertOrder creates the class's order for the period, or folds the items
// into the existing one.
func (api *bookApi) upsertOrder(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data book.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	ord, err := api.opts.BookSvc.UpsertOrder(claims.ChurchID, claims.Subject, data)
	if err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound:
			return errClassNotFound
		case book.ErrBookNotFound:
			return errBookNotFound
		}
		return errors.Wrap(err, "saving order")
	}
	return ctx.JSON(http.StatusCreated, ord)
}

func (api *bookApi) retrieveOrder(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ord, err := api.opts.BookSvc.GetOrderForTeacher(claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == book.ErrOrderNotFound {
			return errOrderNotFound
		}
		return errors.Wrap(err, "finding order")
	}
	return ctx.JSON(http.StatusOK, ord)
}

// updateOrderItems replaces item quantities on a draft or submitted order.
func (api *bookApi) updateOrderItems(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data UpdateOrderItemsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrderItemsRequest")
	}
	for i := range data.Items {
		if err := api.opts.Validate.Struct(&data.Items[i]); err != nil {
			return err
		}
	}

	ord, err := api.opts.BookSvc.UpdateOrderItems(claims.Subject, ctx.Param("id"), data.Items)
	if err != nil {
		switch errors.Cause(err) {
		case book.ErrOrderNotFound:
			return errOrderNotFound
		case book.ErrBookNotFound:
			return errBookNotFound
		}
		return errors.Wrap(err, "updating order items")
	}
	return ctx.JSON(http.StatusOK, ord)
}

func (api *bookApi) submitOrder(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ord, err := api.opts.BookSvc.SubmitOrder(claims.Subject, ctx.Param("id"))
	if err != nil {
		switch errors.Cause(err) {
		case book.ErrOrderNotFound, book.ErrDraftOrderNotFound:
			return errDraftOrderNotFound
		}
		return errors.Wrap(err, "submitting order")
	}
	return ctx.JSON(http.StatusOK, ord)
}

// churchOrders is the superintendent's view over every class's orders.
func (api *bookApi) churchOrders(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	summaries, err := api.opts.BookSvc.ChurchOrders(claims.ChurchID, bindOrderFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "listing church orders")
	}
	if summaries == nil {
		summaries = []book.OrderSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *bookApi) quarters(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	quarters, err := api.opts.BookSvc.Quarters(claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "listing order quarters")
	}
	if quarters == nil {
		quarters = []string{}
	}
	return ctx.JSON(http.StatusOK, quarters)
}

// report lists submitted orders with their totals.
func (api *bookApi) report(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rows, err := api.opts.BookSvc.Report(claims.ChurchID, bindOrderFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "building books report")
	}
	if rows == nil {
		rows = []book.ReportRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func bindOrderFilter(ctx echo.Context) book.OrderFilter {
	return book.OrderFilter{
		Quarter: ctx.QueryParam("quarter"),
		Year:    intQueryParam(ctx, "year", 0),
		ClassID: ctx.QueryParam("class_id"),
	}
}

type UpdateOrderItemsRequest struct {
	Items []book.NewOrderItem `json:"order_items"`
}
