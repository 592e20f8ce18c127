package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core/school"
)

type schoolApi struct {
	repo     school.Repository
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{
		repo:     deps.Students,
		validate: deps.Validate,
	}

	cg := g.Group("/classes", jwt)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, adminMiddleware())
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminMiddleware())
	cg.DELETE("/:id", api.destroyClass, adminMiddleware())

	sg := g.Group("/students", jwt)
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent, adminMiddleware())
}

// Classes

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.repo.QueryAllClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.repo.CreateClass(ctx.Request().Context(), school.Class{
		Name:       data.Name,
		Level:      data.Level,
		SchoolYear: data.SchoolYear,
	})
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.repo.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	cls, err := api.repo.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	cls.Name, cls.Level, cls.SchoolYear = data.Name, data.Level, data.SchoolYear

	if cls, err = api.repo.UpdateClass(ctx.Request().Context(), cls); err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	if err := api.repo.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	var filter school.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Student{})
	}
	students, err := api.repo.FilterStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if data.ClassID != "" {
		if _, err := api.repo.GetClass(ctx.Request().Context(), data.ClassID); err != nil {
			return err
		}
	}

	std, err := api.repo.CreateStudent(ctx.Request().Context(), data.Student())
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	std, err := api.repo.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

// updateStudent replaces the editable fields of a student, eg: moving them to another class.
func (api *schoolApi) updateStudent(ctx echo.Context) error {
	std, err := api.repo.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.ClassID != "" && data.ClassID != std.ClassID {
		if _, err = api.repo.GetClass(ctx.Request().Context(), data.ClassID); err != nil {
			return err
		}
	}

	updated := data.Student()
	updated.ID = std.ID
	if data.IsEnrolled == nil {
		updated.IsEnrolled = std.IsEnrolled
	}
	if std, err = api.repo.UpdateStudent(ctx.Request().Context(), updated); err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	if err := api.repo.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
