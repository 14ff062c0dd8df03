package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	errTeacherNotFound = echo.NewHTTPError(http.StatusNotFound, "Teacher not found")
	errNoAssignedClass = echo.NewHTTPError(http.StatusNotFound, "No classes assigned to this teacher")
)

type teacherApi struct {
	opts *Options
}

func registerTeacherAPI(ag *echo.Group, opts *Options) {
	api := teacherApi{opts: opts}

	ag.GET("/teachers", api.query)
	ag.POST("/teachers", api.create)
	ag.GET("/teachers/:id", api.retrieve)
	ag.PUT("/teachers/:id", api.update)
	ag.DELETE("/teachers/:id", api.destroy)
	ag.GET("/teacher-classes", api.queryOwnClasses)
	ag.POST("/teachers-assign-to-class", api.assign)
	ag.POST("/teachers-reassign", api.reassign)
	ag.GET("/teacher/dashboard", api.dashboard)
}

// TeacherPayload is a teacher account together with their current class.
type TeacherPayload struct {
	user.User
	AssignedClass string  `json:"assigned_class"`
	ClassID       *string `json:"class_id"`
}

func (api *teacherApi) teacherPayload(usr user.User) (TeacherPayload, error) {
	p := TeacherPayload{User: usr, AssignedClass: class.NotAssigned}
	cls, err := api.opts.ClassSvc.TeacherClass(usr.ID)
	switch errors.Cause(err) {
	case nil:
		p.AssignedClass = cls.Name
		p.ClassID = &cls.ID
	case class.ErrAssignmentNotFound:
	default:
		return TeacherPayload{}, errors.Wrap(err, "finding assigned class")
	}
	return p, nil
}

func (api *teacherApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	active := true
	teachers, err := api.opts.UserSvc.Filter(user.QueryFilter{
		ChurchID: claims.ChurchID,
		Role:     user.RoleTeacher,
		IsActive: &active,
	})
	if err != nil {
		return errors.Wrap(err, "filtering teachers")
	}

	payloads := make([]TeacherPayload, 0, len(teachers))
	for _, tchr := range teachers {
		p, err := api.teacherPayload(tchr)
		if err != nil {
			return err
		}
		payloads = append(payloads, p)
	}
	return ctx.JSON(http.StatusOK, payloads)
}

func (api *teacherApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data NewTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacherRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}
	if err := api.opts.UserSvc.CheckPhoneUniqueness(data.Phone); err != nil {
		return err
	}

	tchr, err := api.opts.UserSvc.Create(claims.ChurchID, user.NewUser{
		Name:  data.Name,
		Email: data.Email,
		Phone: data.Phone,
		Role:  user.RoleTeacher,
	})
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}

	p, err := api.teacherPayload(tchr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *teacherApi) getTeacher(ctx echo.Context, churchID string) (user.User, error) {
	tchr, err := api.opts.UserSvc.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errTeacherNotFound
		}
		return user.User{}, errors.Wrap(err, "finding teacher")
	}
	if tchr.ChurchID != churchID || !tchr.IsTeacher() {
		return user.User{}, errTeacherNotFound
	}
	return tchr, nil
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tchr, err := api.getTeacher(ctx, claims.ChurchID)
	if err != nil {
		return err
	}
	p, err := api.teacherPayload(tchr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *teacherApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tchr, err := api.getTeacher(ctx, claims.ChurchID)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(tchr, api.opts.Validate, api.opts.UserSvc); err != nil {
		return err
	}

	tchr, err = api.opts.UserSvc.Update(tchr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	p, err := api.teacherPayload(tchr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	tchr, err := api.getTeacher(ctx, claims.ChurchID)
	if err != nil {
		return err
	}
	if _, err := api.opts.UserSvc.Deactivate(tchr.ID); err != nil {
		return errors.Wrap(err, "deactivating teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryOwnClasses lists the classes currently assigned to the calling teacher.
func (api *teacherApi) queryOwnClasses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	details := []class.Detail{}
	cls, err := api.opts.ClassSvc.TeacherClass(claims.Subject)
	switch errors.Cause(err) {
	case nil:
		dtl, err := api.opts.ClassSvc.Detail(cls)
		if err != nil {
			return errors.Wrap(err, "loading class detail")
		}
		details = append(details, dtl)
	case class.ErrAssignmentNotFound:
	default:
		return errors.Wrap(err, "finding assigned class")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *teacherApi) assign(ctx echo.Context) error {
	return api.doAssign(ctx, false, "Teacher assigned to class successfully")
}

func (api *teacherApi) reassign(ctx echo.Context) error {
	return api.doAssign(ctx, true, "Teacher reassigned successfully")
}

func (api *teacherApi) doAssign(ctx echo.Context, releaseTeacher bool, message string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data class.AssignTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacher")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	var asg class.Assignment
	if releaseTeacher {
		asg, err = api.opts.ClassSvc.ReassignTeacher(claims.ChurchID, data)
	} else {
		asg, err = api.opts.ClassSvc.AssignTeacher(claims.ChurchID, data)
	}
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrNotFound:
			return core.NewValidationError(errors.New("Teacher not found or doesn't belong to your church"))
		case class.ErrNotFound:
			return core.NewValidationError(errors.New("Class not found or doesn't belong to your church"))
		}
		return errors.Wrap(err, "assigning teacher")
	}

	tchr, err := api.opts.UserSvc.GetByID(asg.TeacherID)
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	cls, err := api.opts.ClassSvc.GetByID(claims.ChurchID, asg.ClassID)
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": message,
		"assignment": echo.Map{
			"teacher_id":   tchr.ID,
			"teacher_name": tchr.Name,
			"class_id":     cls.ID,
			"class_name":   cls.Name,
		},
	})
}

// dashboard returns headline numbers for the calling teacher's class.
func (api *teacherApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.opts.ClassSvc.TeacherClass(claims.Subject)
	if err != nil {
		if errors.Cause(err) == class.ErrAssignmentNotFound {
			return errNoAssignedClass
		}
		return errors.Wrap(err, "finding assigned class")
	}

	detail, err := api.opts.ClassSvc.Detail(cls)
	if err != nil {
		return errors.Wrap(err, "loading class detail")
	}
	todayAttendance, err := api.opts.AttendanceSvc.TodayPresentCount(cls.ID)
	if err != nil {
		return errors.Wrap(err, "counting today's attendance")
	}
	offerings, err := api.opts.OfferingSvc.MonthTotal(cls.ID)
	if err != nil {
		return errors.Wrap(err, "summing offerings")
	}

	location := cls.Location
	if location == "" {
		location = "Main Church Hall"
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"id":               cls.ID,
		"name":             cls.Name,
		"member_count":     detail.MemberCount,
		"today_attendance": todayAttendance,
		"total_offerings":  offerings.InexactFloat64(),
		"location":         location,
	})
}

type NewTeacherRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (nt *NewTeacherRequest) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Phone = core.CleanPhone(nt.Phone)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	return validate.Struct(nt)
}
