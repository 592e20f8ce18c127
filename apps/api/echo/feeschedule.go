package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
)

type feeScheduleApi struct {
	repo     feeschedule.Repository
	resolver *feeschedule.Resolver
	validate *validator.Validate
}

func registerFeeScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feeScheduleApi{
		repo:     deps.Schedules,
		resolver: deps.Resolver,
		validate: deps.Validate,
	}

	fg := g.Group("/fee-schedules", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create, adminMiddleware())
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id", api.update, adminMiddleware())
	fg.DELETE("/:id", api.destroy, adminMiddleware())

	g.GET("/students/:id/fee-schedule", api.lookup, jwt)
}

// ScheduleFilter applies AND operation on the set fields.
type ScheduleFilter struct {
	Level      string `query:"level"`
	SchoolYear string `query:"school_year"`
}

func (api *feeScheduleApi) query(ctx echo.Context) error {
	var filter ScheduleFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []feeschedule.Schedule{})
	}
	filter.Level = core.CleanString(filter.Level)
	filter.SchoolYear = core.CleanString(filter.SchoolYear)

	all, err := api.repo.QueryAllSchedules(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fee schedules")
	}
	schedules := make([]ScheduleResponse, 0, len(all))
	for _, s := range all {
		if (filter.Level == "" || s.Level == filter.Level) && (filter.SchoolYear == "" || s.SchoolYear == filter.SchoolYear) {
			schedules = append(schedules, newScheduleResponse(s))
		}
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *feeScheduleApi) create(ctx echo.Context) error {
	var data feeschedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.repo.CreateSchedule(ctx.Request().Context(), data.Schedule())
	if err != nil {
		return errors.Wrap(err, "creating fee schedule")
	}
	return ctx.JSON(http.StatusCreated, newScheduleResponse(s))
}

func (api *feeScheduleApi) retrieve(ctx echo.Context) error {
	s, err := api.repo.GetSchedule(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newScheduleResponse(s))
}

// update replaces the schedule; payments already recorded are left as they are.
func (api *feeScheduleApi) update(ctx echo.Context) error {
	s, err := api.repo.GetSchedule(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data feeschedule.NewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	updated := data.Schedule()
	updated.ID = s.ID

	if s, err = api.repo.UpdateSchedule(ctx.Request().Context(), updated); err != nil {
		return errors.Wrap(err, "updating fee schedule")
	}
	return ctx.JSON(http.StatusOK, newScheduleResponse(s))
}

func (api *feeScheduleApi) destroy(ctx echo.Context) error {
	if err := api.repo.DeleteSchedule(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// lookup tells which schedule applies to a student, and why.
func (api *feeScheduleApi) lookup(ctx echo.Context) error {
	lk, err := api.resolver.Lookup(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	resp := LookupResponse{
		StudentID: lk.Student.ID,
		Found:     lk.Found,
		Year:      lk.Year,
	}
	if lk.HasClass {
		resp.ClassID = lk.Class.ID
		resp.Level = lk.Class.Level
	}
	if lk.Found {
		s := newScheduleResponse(lk.Schedule)
		resp.Schedule = &s
	} else if lk.HasClass {
		suggestion, ok, err := api.resolver.SuggestLevel(ctx.Request().Context(), lk.Class.Level, lk.Year)
		if err != nil {
			return errors.Wrap(err, "suggesting level")
		}
		if ok {
			resp.SuggestedLevel = suggestion
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

type (
	// ScheduleResponse adds the computed total to a schedule.
	ScheduleResponse struct {
		feeschedule.Schedule
		Total int64 `json:"total"`
	}

	LookupResponse struct {
		StudentID      string            `json:"student_id"`
		ClassID        string            `json:"class_id,omitempty"`
		Level          string            `json:"level,omitempty"`
		Year           string            `json:"school_year,omitempty"`
		Found          bool              `json:"found"`
		Schedule       *ScheduleResponse `json:"schedule,omitempty"`
		SuggestedLevel string            `json:"suggested_level,omitempty"`
	}
)

func newScheduleResponse(s feeschedule.Schedule) ScheduleResponse {
	return ScheduleResponse{Schedule: s, Total: s.Total()}
}
