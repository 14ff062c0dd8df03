package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/subscription"
)

var errSubscriptionNotFound = echo.NewHTTPError(http.StatusNotFound, "No subscription found for this church")

type subscriptionApi struct {
	opts *Options
}

func registerSubscriptionAPI(ag *echo.Group, opts *Options) {
	api := subscriptionApi{opts: opts}

	sg := ag.Group("/subscription")
	sg.GET("/status", api.status)
	sg.POST("/create", api.create)
	sg.POST("/initiate-payment", api.initiatePayment)
	sg.POST("/verify-payment", api.verifyPayment)
}

func (api *subscriptionApi) status(ctx echo.Context) error {
	clms, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	info, err := api.opts.SubscriptionSvc.Status(clms.ChurchID)
	if err != nil {
		switch errors.Cause(err) {
		case subscription.ErrNotFound:
			return errSubscriptionNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *subscriptionApi) create(ctx echo.Context) error {
	clms, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sub, err := api.opts.SubscriptionSvc.Create(clms.ChurchID)
	if err != nil {
		switch errors.Cause(err) {
		case subscription.ErrAlreadyExists:
			return core.NewValidationError(errors.New("Subscription already exists for this church"))
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subscriptionApi) initiatePayment(ctx echo.Context) error {
	var data subscription.InitiatePayment
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.opts.Validate.Struct(&data); err != nil {
		return err
	}

	intent, err := api.opts.SubscriptionSvc.InitiatePaymentIntent(data)
	if err != nil {
		switch errors.Cause(err) {
		case subscription.ErrInvalidPlan:
			return core.NewValidationError(errors.New("Invalid plan type"))
		}
		return err
	}
	return ctx.JSON(http.StatusOK, intent)
}

func (api *subscriptionApi) verifyPayment(ctx echo.Context) error {
	clms, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data subscription.VerifyPayment
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.opts.Validate.Struct(&data); err != nil {
		return err
	}

	sub, err := api.opts.SubscriptionSvc.VerifyAndActivate(clms.ChurchID, data)
	if err != nil {
		switch errors.Cause(err) {
		case subscription.ErrNotFound:
			return errSubscriptionNotFound
		case subscription.ErrInvalidPlan:
			return core.NewValidationError(errors.New("Invalid plan type"))
		}
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      "Payment verified and subscription updated",
		"subscription": sub,
	})
}
