package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/staff"
)

type staffApi struct {
	svc      *staff.Service
	auth     *jwtAuth
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := staffApi{
		svc:      deps.StaffSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	sg := g.Group("/staff")

	// un-authed endpoints
	sg.POST("/login", api.login)

	// authed endpoints
	ag := sg.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.PUT("/me/password", api.changePassword)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("", api.query, adminMiddleware())
}

// Handlers

func (api *staffApi) login(ctx echo.Context) error {
	var data staff.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	token, err := api.auth.login(ctx, data, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *staffApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *staffApi) me(ctx echo.Context) error {
	acc, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *staffApi) changePassword(ctx echo.Context) error {
	acc, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	var data ChangePasswordRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePasswordRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}
	if acc.CheckPassword(data.OldPassword) != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "old_password", Error: "wrong password"})
	}

	if err = api.svc.ChangePassword(ctx.Request().Context(), acc.ID, data.Password); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *staffApi) query(ctx echo.Context) error {
	accounts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying staff accounts")
	}
	return ctx.JSON(http.StatusOK, accounts)
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ChangePasswordRequest struct {
		OldPassword     string `json:"old_password" validate:"required"`
		Password        string `json:"password" validate:"required,pwdminlen"`
		PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	}
)
