package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
)

type paymentApi struct {
	conf       *core.Config
	engine     *payment.Engine
	settlement *payment.Settlement
	payments   payment.Repository
	students   school.Repository
	mailSvc    core.EmailService
	validate   *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{
		conf:       deps.Conf,
		engine:     deps.Engine,
		settlement: deps.Settlement,
		payments:   deps.Payments,
		students:   deps.Students,
		mailSvc:    deps.MailSvc,
		validate:   deps.Validate,
	}

	// not a group: a group on /students/:id would shadow the student routes
	g.POST("/students/:id/payments", api.allocate, jwt)
	g.GET("/students/:id/payments", api.queryStudentPayments, jwt)
	g.DELETE("/students/:id/payments/zero", api.destroyZeroAmount, jwt, adminMiddleware())
	g.GET("/students/:id/statement", api.statement, jwt)
	g.GET("/students/:id/installments/:ordinal", api.installment, jwt)

	pg := g.Group("/payments", jwt)
	pg.GET("", api.query)
	pg.DELETE("/zero", api.destroyZeroAmount, adminMiddleware())
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.destroy, adminMiddleware())
}

// allocate records a payment made for the student and emails the receipt to their guardian.
func (api *paymentApi) allocate(ctx echo.Context) error {
	var data payment.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to payment Request")
	}
	data.StudentID = ctx.Param("id")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.engine.Allocate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "allocating payment")
	}

	if std, err := api.students.GetStudent(ctx.Request().Context(), data.StudentID); err == nil {
		if msg := payment.NewReceiptMessage(std, res, api.conf); msg != nil {
			api.mailSvc.SendMessages(msg)
		}
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *paymentApi) queryStudentPayments(ctx echo.Context) error {
	if _, err := api.students.GetStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	payments, err := api.payments.QueryStudentPayments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student payments")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	ordering.SortPayments(payments)
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) statement(ctx echo.Context) error {
	if _, err := api.students.GetStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	st, err := api.settlement.Statement(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing statement")
	}
	return ctx.JSON(http.StatusOK, st)
}

// installment reports what was paid and what remains on one installment of the student's schedule.
func (api *paymentApi) installment(ctx echo.Context) error {
	c := ctx.Request().Context()
	studentID := ctx.Param("id")
	ordinal, err := strconv.Atoi(ctx.Param("ordinal"))
	if err != nil || ordinal < 1 {
		return errHttpNotFound
	}

	remaining, err := api.settlement.Remaining(c, studentID, ordinal)
	if err != nil {
		return err
	}
	paid, err := api.settlement.AmountPaidForInstallment(c, studentID, ordinal)
	if err != nil {
		return errors.Wrap(err, "summing installment payments")
	}
	return ctx.JSON(http.StatusOK, InstallmentResponse{Ordinal: ordinal, Paid: paid, Remaining: remaining})
}

func (api *paymentApi) query(ctx echo.Context) error {
	payments, err := api.payments.QueryAllPayments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	ordering.SortPayments(payments)
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	p, err := api.payments.GetPayment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	if err := api.engine.DeletePayment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// destroyZeroAmount removes the zero-amount payments of the student in the path, or of everyone.
func (api *paymentApi) destroyZeroAmount(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if studentID != "" {
		if _, err := api.students.GetStudent(ctx.Request().Context(), studentID); err != nil {
			return err
		}
	}
	n, err := api.engine.DeleteZeroAmount(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "deleting zero-amount payments")
	}
	return ctx.JSON(http.StatusOK, DeletedResponse{Deleted: n})
}

type (
	InstallmentResponse struct {
		Ordinal   int   `json:"ordinal"`
		Paid      int64 `json:"paid"`
		Remaining int64 `json:"remaining"`
	}

	DeletedResponse struct {
		Deleted int `json:"deleted"`
	}
)
