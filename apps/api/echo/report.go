package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core/attendance"
	"github.com/actionunitmanager/backend/core/user"
)

type reportApi struct {
	opts *Options
}

func registerReportAPI(ag *echo.Group, opts *Options) {
	api := reportApi{opts: opts}

	ag.GET("/reports/attendance", api.attendance)
	ag.GET("/superintendent/dashboard-metrics", api.dashboardMetrics, roleMiddleware(user.RoleSuperintendent))
}

// attendance breaks down presence per class over an optional date range.
func (api *reportApi) attendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	start, err := dateQueryParam(ctx, "start_date")
	if err != nil {
		return err
	}
	end, err := dateQueryParam(ctx, "end_date")
	if err != nil {
		return err
	}

	reports, err := api.opts.AttendanceSvc.Reports(claims.ChurchID, attendance.ReportFilter{
		StartDate: start,
		EndDate:   end,
		ClassID:   ctx.QueryParam("class_id"),
	})
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}
	if reports == nil {
		reports = []attendance.ClassReport{}
	}
	return ctx.JSON(http.StatusOK, reports)
}

// dashboardMetrics returns the headline numbers of the superintendent dashboard.
func (api *reportApi) dashboardMetrics(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	stats, err := api.opts.ClassSvc.Stats(claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "loading class stats")
	}
	todayAttendance, err := api.opts.AttendanceSvc.ChurchTodayPresentCount(claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "counting today's attendance")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"total_classes":    stats.TotalClasses,
		"total_members":    stats.TotalMembers,
		"total_teachers":   stats.TotalTeachers,
		"today_attendance": todayAttendance,
	})
}
