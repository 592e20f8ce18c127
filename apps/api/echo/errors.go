package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/core/staff"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "staff member not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errStoreUnavailable     = "the record store rejected the write"

	// domain errors answered with a 404
	notFoundErrs = []error{
		school.ErrStudentNotFound,
		school.ErrClassNotFound,
		feeschedule.ErrScheduleNotFound,
		feeschedule.ErrInstallmentNotFound,
		payment.ErrPaymentNotFound,
		payment.ErrNoSchedule,
		staff.ErrNotFound,
	}
)

func isNotFound(err error) bool {
	for _, nf := range notFoundErrs {
		if err == nf {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.StoreError:
			code = http.StatusServiceUnavailable
			message = errStoreUnavailable
			logger.Error(errStoreUnavailable, err, contextAccount(ctx))
		default:
			switch {
			case isNotFound(cause):
				code = http.StatusNotFound
				message = cause.Error()
			case cause == payment.ErrInvalidAmount:
				code = http.StatusBadRequest
				message = map[string]string{"amount": cause.Error()}
			case cause == payment.ErrPaymentRecorded:
				code = http.StatusConflict
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				logger.Error(msg, errors.Wrap(err, msg), contextAccount(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// contextAccount is the staff member making the request, for error reports.
func contextAccount(ctx echo.Context) staff.Account {
	if acc, ok := ctx.Get(contextAccountKey).(staff.Account); ok {
		return acc
	}
	if claims, err := getContextClaims(ctx); err == nil {
		return claims.Account()
	}
	return staff.Account{}
}
