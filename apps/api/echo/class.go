package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/actionunitmanager/backend/core"
	"github.com/actionunitmanager/backend/core/class"
	"github.com/actionunitmanager/backend/core/user"
)

var (
	errClassNotFound  = echo.NewHTTPError(http.StatusNotFound, "Class not found")
	errMemberNotFound = echo.NewHTTPError(http.StatusNotFound, "Member not found")
)

type classApi struct {
	opts *Options
}

func registerClassAPI(ag *echo.Group, opts *Options) {
	api := classApi{opts: opts}

	ag.GET("/classes", api.query)
	ag.POST("/classes", api.create)
	ag.GET("/classes/:id", api.retrieve)
	ag.PUT("/classes/:id", api.update)
	ag.DELETE("/classes/:id", api.destroy)
	ag.POST("/classes/assign-teacher", api.assignTeacher)

	ag.GET("/members-classes", api.queryMembers)
	ag.POST("/members-classes", api.addMember)
	ag.GET("/members/:class_id/classes", api.queryClassMembers)
	ag.DELETE("/members-classes/:member_id", api.removeMember)
	ag.POST("/members-bulk-import", api.bulkImport)
}

func (api *classApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	classes, err := api.opts.ClassSvc.Filter(claims.ChurchID, true /* activeOnly */)
	if err != nil {
		return errors.Wrap(err, "filtering classes")
	}
	details, err := api.opts.ClassSvc.Details(classes)
	if err != nil {
		return errors.Wrap(err, "loading class details")
	}
	if details == nil {
		details = []class.Detail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *classApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.opts.Validate, api.opts.Translator); err != nil {
		return err
	}

	cls, err := api.opts.ClassSvc.Create(claims.ChurchID, data)
	if err != nil {
		if errors.Cause(err) == class.ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: class.ErrNameExists.Error()})
		}
		return errors.Wrap(err, "creating class")
	}
	detail, err := api.opts.ClassSvc.Detail(cls)
	if err != nil {
		return errors.Wrap(err, "loading class detail")
	}
	return ctx.JSON(http.StatusCreated, detail)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cls, err := api.opts.ClassSvc.GetByID(claims.ChurchID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "finding class")
	}
	detail, err := api.opts.ClassSvc.Detail(cls)
	if err != nil {
		return errors.Wrap(err, "loading class detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *classApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.opts.Validate, api.opts.Translator); err != nil {
		return err
	}

	cls, err := api.opts.ClassSvc.Update(claims.ChurchID, ctx.Param("id"), data)
	if err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound:
			return errClassNotFound
		case class.ErrNameExists:
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: class.ErrNameExists.Error()})
		}
		return errors.Wrap(err, "updating class")
	}
	detail, err := api.opts.ClassSvc.Detail(cls)
	if err != nil {
		return errors.Wrap(err, "loading class detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *classApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.opts.ClassSvc.Deactivate(claims.ChurchID, ctx.Param("id")); err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "deactivating class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// assignTeacher places a teacher in a class, releasing the class's previous
// teacher. The updated class payload is returned.
func (api *classApi) assignTeacher(ctx echo.Context) error {
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

	asg, err := api.opts.ClassSvc.AssignTeacher(claims.ChurchID, data)
	if err != nil {
		switch errors.Cause(err) {
		case class.ErrNotFound:
			return errClassNotFound
		case user.ErrNotFound:
			return core.NewValidationError(errors.New("Teacher not found"))
		}
		return errors.Wrap(err, "assigning teacher")
	}

	cls, err := api.opts.ClassSvc.GetByID(claims.ChurchID, asg.ClassID)
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	detail, err := api.opts.ClassSvc.Detail(cls)
	if err != nil {
		return errors.Wrap(err, "loading class detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *classApi) queryMembers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	members, err := api.opts.ClassSvc.ChurchMembers(claims.ChurchID)
	if err != nil {
		return errors.Wrap(err, "listing church members")
	}
	if members == nil {
		members = []class.MemberDetail{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *classApi) queryClassMembers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	members, err := api.opts.ClassSvc.Members(claims.ChurchID, ctx.Param("class_id"))
	if err != nil {
		if errors.Cause(err) == class.ErrNotFound {
			return errClassNotFound
		}
		return errors.Wrap(err, "listing class members")
	}
	if members == nil {
		members = []class.MemberDetail{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *classApi) addMember(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data class.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	member, err := api.opts.ClassSvc.AddMember(claims.ChurchID, data)
	if err != nil {
		switch cause := errors.Cause(err); {
		case cause == class.ErrNotFound:
			return errClassNotFound
		case cause == class.ErrAlreadyMember:
			return core.NewValidationError(cause)
		default:
			if _, ok := cause.(*core.ValidationError); ok {
				return err
			}
		}
		return errors.Wrap(err, "adding member")
	}
	return ctx.JSON(http.StatusCreated, member)
}

func (api *classApi) removeMember(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.opts.ClassSvc.RemoveMember(claims.ChurchID, ctx.Param("member_id")); err != nil {
		if errors.Cause(err) == class.ErrMembershipNotFound {
			return errMemberNotFound
		}
		return errors.Wrap(err, "removing member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// bulkImport processes spreadsheet rows of members, creating classes and user
// accounts on the fly. The status code reflects how many rows failed.
func (api *classApi) bulkImport(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data BulkImportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkImportRequest")
	}
	if len(data.Members) == 0 {
		return core.NewValidationError(errors.New("No member data provided"))
	}

	// rows failing validation are reported in the result, not rejected upfront
	var prefailed []class.ImportFailure
	valid := make([]class.ImportMember, 0, len(data.Members))
	validIdx := make([]int, 0, len(data.Members))
	for i := range data.Members {
		row := data.Members[i]
		if err := row.Validate(api.opts.Validate); err != nil {
			prefailed = append(prefailed, class.ImportFailure{Index: i, Data: row, Error: err.Error()})
			continue
		}
		valid = append(valid, row)
		validIdx = append(validIdx, i)
	}

	result, err := api.opts.ClassSvc.BulkImport(claims.ChurchID, valid)
	if err != nil {
		return errors.Wrap(err, "importing members")
	}

	// restore original row indexes and fold the validation failures back in
	for j := range result.Successful {
		result.Successful[j].Index = validIdx[result.Successful[j].Index]
	}
	for j := range result.Failed {
		result.Failed[j].Index = validIdx[result.Failed[j].Index]
	}
	result.Failed = append(result.Failed, prefailed...)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Index < result.Failed[j].Index })
	result.Summary = class.ImportSummary{
		Total:      len(data.Members),
		Successful: len(result.Successful),
		Failed:     len(result.Failed),
	}

	status := http.StatusCreated
	switch {
	case result.Summary.Failed == result.Summary.Total:
		status = http.StatusBadRequest
	case result.Summary.Failed > 0:
		status = http.StatusMultiStatus
	}
	return ctx.JSON(status, result)
}

type BulkImportRequest struct {
	Members []class.ImportMember `json:"members"`
}
