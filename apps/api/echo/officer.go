package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/user"
)

var errOfficerNotFound = echo.NewHTTPError(http.StatusNotFound, "Officer not found")

type officerApi struct {
	opts *Options
}

func registerOfficerAPI(ag *echo.Group, opts *Options) {
	api := officerApi{opts: opts}

	ag.GET("/officers", api.query)
	ag.POST("/officers", api.create)
	ag.PUT("/officers/:id", api.update)
	ag.DELETE("/officers/:id", api.demote)
}

func (api *officerApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	isOfficer := true
	officers, err := api.opts.UserSvc.Filter(user.QueryFilter{
		ChurchID:  claims.ChurchID,
		IsOfficer: &isOfficer,
	})
	if err != nil {
		return errors.Wrap(err, "filtering officers")
	}
	if officers == nil {
		officers = []user.User{}
	}
	return ctx.JSON(http.StatusOK, officers)
}

// create promotes an existing same-church user to officer, or creates a new
// member account with the officer flag. Either way the account is reset to its
// default password so the officer can sign in by phone.
func (api *officerApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data NewOfficerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOfficerRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	usr, err := api.opts.UserSvc.GetByPhone(data.Phone)
	switch errors.Cause(err) {
	case nil:
		if usr.ChurchID != claims.ChurchID {
			return core.NewValidationError(user.ErrDifferentChurch)
		}
		usr, err = api.opts.UserSvc.Promote(usr.ID)
		if err != nil {
			return errors.Wrap(err, "promoting officer")
		}
	case user.ErrNotFound:
		usr, err = api.opts.UserSvc.Create(claims.ChurchID, user.NewUser{
			Name:      data.Name,
			Email:     data.Email,
			Phone:     data.Phone,
			Role:      user.RoleMember,
			IsOfficer: true,
		})
		if err != nil {
			return errors.Wrap(err, "creating officer")
		}
	default:
		return errors.Wrap(err, "finding user by phone")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *officerApi) getOfficer(ctx echo.Context, churchID string) (user.User, error) {
	usr, err := api.opts.UserSvc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errOfficerNotFound
		}
		return user.User{}, errors.Wrap(err, "finding officer")
	}
	if usr.ChurchID != churchID || !usr.IsOfficer {
		return user.User{}, errOfficerNotFound
	}
	return usr, nil
}

// update toggles an officer's active flag or renames them.
func (api *officerApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	usr, err := api.getOfficer(ctx, claims.ChurchID)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.opts.Validate, api.opts.UserSvc); err != nil {
		return err
	}

	usr, err = api.opts.UserSvc.Update(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating officer")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// demote removes the officer flag but keeps the account.
func (api *officerApi) demote(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	usr, err := api.getOfficer(ctx, claims.ChurchID)
	if err != nil {
		return err
	}
	if _, err := api.opts.UserSvc.Demote(usr.ID); err != nil {
		return errors.Wrap(err, "demoting officer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type NewOfficerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (no *NewOfficerRequest) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	no.Phone = core.CleanPhone(no.Phone)
	no.Email = core.CleanString(no.Email, true /* lower */)
	return validate.Struct(no)
}
