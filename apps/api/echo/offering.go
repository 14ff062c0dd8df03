package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/offering"
)

type offeringApi struct {
	opts *Options
}

func registerOfferingAPI(ag *echo.Group, opts *Options) {
	api := offeringApi{opts: opts}

	ag.GET("/offerings", api.query)
	ag.POST("/offerings", api.create)
	ag.GET("/classes/:class_id/offerings", api.query)
	ag.POST("/classes/:class_id/offerings", api.create)
	ag.GET("/reports/offerings", api.report)
}

// query lists offerings for a class, or for the calling teacher's classes when
// no class is given.
func (api *offeringApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var details []offering.Detail
	if classID := ctx.Param("class_id"); classID != "" {
		details, err = api.opts.OfferingSvc.ListForClass(claims.ChurchID, classID)
	} else {
		details, err = api.opts.OfferingSvc.ListForTeacher(claims.ChurchID, claims.Subject)
	}
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "listing offerings")
	}
	if details == nil {
		details = []offering.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *offeringApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data offering.NewOffering
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOffering")
	}
	if classID := ctx.Param("class_id"); classID != "" {
		data.ClassID = classID
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	detail, err := api.opts.OfferingSvc.Record(claims.ChurchID, claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "recording offering")
	}
	return ctx.JSON(http.StatusCreated, detail)
}

// report aggregates offerings per class over an optional date range.
func (api *offeringApi) report(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter, err := bindOfferingFilter(ctx)
	if err != nil {
		return err
	}
	totals, err := api.opts.OfferingSvc.ClassTotals(claims.ChurchID, filter)
	if err != nil {
		return errors.Wrap(err, "building offerings report")
	}
	if totals == nil {
		totals = []offering.ClassTotal{}
	}
	return ctx.JSON(http.StatusOK, totals)
}

func bindOfferingFilter(ctx echo.Context) (offering.Filter, error) {
	filter := offering.Filter{ClassID: ctx.QueryParam("class_id")}

	start, err := dateQueryParam(ctx, "start_date")
	if err != nil {
		return offering.Filter{}, err
	}
	end, err := dateQueryParam(ctx, "end_date")
	if err != nil {
		return offering.Filter{}, err
	}
	filter.StartDate, filter.EndDate = start, end
	return filter, nil
}

func dateQueryParam(ctx echo.Context, name string) (*core.Date, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: name, Error: "must be a date in YYYY-MM-DD format",
		})
	}
	return &d, nil
}
