package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/class"
)

type attendanceApi struct {
	opts *Options
}

func registerAttendanceAPI(ag *echo.Group, opts *Options) {
	api := attendanceApi{opts: opts}

	ag.POST("/attendance", api.mark)
	ag.GET("/reports/absent-members", api.absentMembers)
	ag.GET("/classes/:class_id/absent-members", api.absentMembers)
	ag.GET("/officers/at-risk-members", api.atRisk)
}

// mark records attendance for one or more members; existing records for the
// same member and date are overwritten.
func (api *attendanceApi) mark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	marks, err := bindMarks(ctx)
	if err != nil {
		return err
	}
	for i := range marks {
		if err := api.opts.Validate.Struct(&marks[i]); err != nil {
			return err
		}
	}

	res, err := api.opts.AttendanceSvc.BulkMark(claims.ChurchID, claims.Subject, marks)
	if err != nil {
		if errors.Cause(err) == class.ErrMembershipNotFound {
			return errMemberNotFound
		}
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, res)
}

// bindMarks accepts either a single attendance record or a list of them.
func bindMarks(ctx echo.Context) ([]attendance.Mark, error) {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}

	var marks []attendance.Mark
	if err = json.Unmarshal(body, &marks); err == nil {
		return marks, nil
	}
	var one attendance.Mark
	if err = json.Unmarshal(body, &one); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid attendance payload")
	}
	return []attendance.Mark{one}, nil
}

func (api *attendanceApi) absentMembers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	daysBack := intQueryParam(ctx, "days_back", attendance.DefaultAbsenceDaysBack)
	minAbsences := intQueryParam(ctx, "min_absences", attendance.DefaultMinAbsences)

	members, err := api.opts.AttendanceSvc.AbsentMembers(
		claims.ChurchID, claims.Subject, ctx.Param("class_id"), daysBack, minAbsences,
	)
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "building absent members report")
	}
	if members == nil {
		members = []attendance.AbsentMember{}
	}
	return ctx.JSON(http.StatusOK, members)
}

// atRisk scores every active member's attendance pattern over the period.
func (api *attendanceApi) atRisk(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	daysBack := intQueryParam(ctx, "days_back", attendance.DefaultRiskDaysBack)

	members, err := api.opts.AttendanceSvc.AtRisk(claims.ChurchID, daysBack)
	if err != nil {
		return errors.Wrap(err, "analyzing at-risk members")
	}
	if members == nil {
		members = []attendance.AtRiskMember{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func intQueryParam(ctx echo.Context, name string, deflt int) int {
	if raw := ctx.QueryParam(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return deflt
}
