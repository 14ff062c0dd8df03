package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/church"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/subscription"
	"github.com/actionunitmanager/backend/core/user"
)

type authApi struct {
	opts *Options
}

func registerAuthAPI(g, ag *echo.Group, opts *Options) {
	api := authApi{opts: opts}

	// phone logins use guessable default passwords; throttle them
	limiter := rateLimitMiddleware(rate.Every(6*time.Second), 5)

	g.POST("/church/register", api.register)
	g.POST("/auth/superintendent-login", api.superintendentLogin, limiter)
	g.POST("/auth/teacher-member-login", api.teacherMemberLogin, limiter)
	g.POST("/auth/login", api.login, limiter)
	g.POST("/auth/token/refresh", api.refreshToken)

	ag.GET("/auth/me", api.me)
	ag.GET("/church/profile", api.me)
}

func (api *authApi) register(ctx echo.Context) error {
	var data church.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.opts.Validate, api.opts.Translator); err != nil {
		return err
	}
	if err := api.opts.UserSvc.CheckPhoneUniqueness(data.Superintendent.Phone); err != nil {
		return err
	}

	res, err := api.opts.ChurchSvc.Register(data)
	if err != nil {
		if _, ok := errors.Cause(err).(*core.ValidationError); ok {
			return err
		}
		return errors.Wrap(err, "registering church")
	}

	access, refresh, err := GenerateTokenPair(res.Superintendent)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"access":  access,
		"refresh": refresh,
		"user": echo.Map{
			"id":    res.Superintendent.ID,
			"name":  res.Superintendent.Name,
			"email": res.Superintendent.Email,
			"role":  res.Superintendent.Role,
		},
		"church": churchJSON(res.Church),
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var data EmailLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailLoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	usr, err := authenticate(data.Password, func() (user.User, error) {
		return api.opts.UserSvc.GetByEmail(data.Email)
	}, api.opts.UserSvc)
	if err != nil {
		return err
	}

	ch, err := api.opts.ChurchSvc.GetByID(usr.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}

	access, refresh, err := GenerateTokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
		"user": echo.Map{
			"id":         usr.ID,
			"name":       usr.Name,
			"email":      usr.Email,
			"role":       usr.Role,
			"is_officer": usr.IsOfficer,
		},
		"church": churchJSON(ch),
	})
}

func (api *authApi) superintendentLogin(ctx echo.Context) error {
	var data EmailLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailLoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	usr, err := api.opts.UserSvc.GetByEmail(data.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(errors.New("No superintendent found with this email address."))
		}
		return errors.Wrap(err, "finding user by email")
	}
	if !usr.IsSuperintendent() {
		return core.NewValidationError(errors.New("This email is not registered as a superintendent."))
	}
	if !usr.IsActive {
		return core.NewValidationError(errors.New("Account is disabled. Please contact support."))
	}
	if err = usr.CheckPassword(data.Password); err != nil {
		return core.NewValidationError(errors.New("Invalid password."))
	}
	if usr, err = api.opts.UserSvc.SetLastLogin(usr); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	ch, err := api.opts.ChurchSvc.GetByID(usr.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}

	// churches registered before billing went live may have no subscription;
	// report them as trialing
	subPayload := echo.Map{
		"plan":           subscription.PlanFreeTrial,
		"status":         subscription.StatusTrialing,
		"trial_end_date": nil,
	}
	if sub, err := api.opts.SubscriptionSvc.GetByChurchID(ch.ID); err == nil {
		subPayload = echo.Map{
			"plan":           sub.Plan,
			"status":         sub.Status,
			"trial_end_date": sub.TrialEndDate,
		}
	} else if errors.Cause(err) != subscription.ErrNotFound {
		return errors.Wrap(err, "finding subscription")
	}

	access, refresh, err := GenerateTokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
		"user": echo.Map{
			"id":         usr.ID,
			"name":       usr.Name,
			"email":      usr.Email,
			"role":       usr.Role,
			"is_officer": usr.IsOfficer,
		},
		"church":       churchJSON(ch),
		"subscription": subPayload,
	})
}

// teacherMemberLogin is the phone-only login used by teachers, members and
// officers. It resets the account to its default password before signing in.
func (api *authApi) teacherMemberLogin(ctx echo.Context) error {
	var data PhoneLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PhoneLoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	errNoUser := core.NewValidationError(errors.New("No teacher, member, or officer found with this phone number."))

	usr, err := api.opts.UserSvc.GetByPhone(data.Phone)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errNoUser
		}
		return errors.Wrap(err, "finding user by phone")
	}
	if !(usr.IsTeacher() || usr.IsMember() || usr.IsOfficer) {
		return errNoUser
	}
	if !usr.IsActive {
		return core.NewValidationError(errors.New("Account disabled."))
	}
	if usr, err = api.opts.UserSvc.SetPassword(usr, usr.DefaultPassword()); err != nil {
		return errors.Wrap(err, "resetting default password")
	}
	if usr, err = api.opts.UserSvc.SetLastLogin(usr); err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	ch, err := api.opts.ChurchSvc.GetByID(usr.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}

	access, refresh, err := GenerateTokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	resp := echo.Map{
		"access":  access,
		"refresh": refresh,
		"user": echo.Map{
			"id":         usr.ID,
			"name":       usr.Name,
			"email":      usr.Email,
			"phone":      usr.Phone,
			"role":       usr.Role,
			"is_officer": usr.IsOfficer,
		},
		"church": echo.Map{
			"id":   ch.ID,
			"name": ch.Name,
		},
	}

	if usr.IsTeacher() {
		if cls, err := api.opts.ClassSvc.TeacherClass(usr.ID); err == nil {
			resp["assigned_class"] = echo.Map{
				"id":       cls.ID,
				"name":     cls.Name,
				"location": cls.Location,
			}
		} else if errors.Cause(err) != class.ErrAssignmentNotFound {
			return errors.Wrap(err, "finding assigned class")
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := api.opts.Validate.Struct(&data); err != nil {
		return err
	}

	access, err := refreshAccessToken(data.Refresh, api.opts.UserSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"access": access})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ch, err := api.opts.ChurchSvc.GetByID(usr.ChurchID)
	if err != nil {
		return errors.Wrap(err, "finding church")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":    usr.ID,
			"name":  usr.Name,
			"email": usr.Email,
			"role":  usr.Role,
			"phone": usr.Phone,
		},
		"church": churchJSON(ch),
	})
}

func churchJSON(ch church.Church) echo.Map {
	return echo.Map{
		"id":           ch.ID,
		"name":         ch.Name,
		"email":        ch.Email,
		"phone":        ch.Phone,
		"address":      ch.Address,
		"district":     ch.District,
		"country":      ch.Country,
		"denomination": ch.Denomination,
	}
}

type (
	EmailLoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	PhoneLoginRequest struct {
		Phone string `json:"phone" validate:"required"`
	}

	RefreshRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}
)

func (lr *EmailLoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (lr *PhoneLoginRequest) Validate(validate *validator.Validate) error {
	lr.Phone = core.CleanPhone(lr.Phone)
	return validate.Struct(lr)
}
