package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core/setting"
)

type settingApi struct {
	repo *setting.Repository
}

func registerSettingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := settingApi{repo: deps.Settings}

	sg := g.Group("/settings", jwt)
	sg.GET("/school-year", api.activeSchoolYear)
	sg.PUT("/school-year", api.setActiveSchoolYear, adminMiddleware())
}

type SchoolYearPayload struct {
	SchoolYear string `json:"school_year"`
}

func (api *settingApi) activeSchoolYear(ctx echo.Context) error {
	year, err := api.repo.ActiveSchoolYear(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting active school year")
	}
	return ctx.JSON(http.StatusOK, SchoolYearPayload{SchoolYear: year})
}

func (api *settingApi) setActiveSchoolYear(ctx echo.Context) error {
	var data SchoolYearPayload
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SchoolYearPayload")
	}
	if err := api.repo.SetActiveSchoolYear(ctx.Request().Context(), data.SchoolYear); err != nil {
		return err
	}
	return api.activeSchoolYear(ctx)
}
