package payment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecolage/core"
)

var (
	paymentModeTag  = "paymentmode"
	paymentModeText = "payment mode must be one of cash, mobile, cheque or transfer"
)

// InitValidators registers the payment validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(paymentModeTag, paymentModeValidation)
	core.RegisterCustomTranslation(validate, translator, paymentModeTag, paymentModeText)
}

func paymentModeValidation(fl validator.FieldLevel) bool {
	return Mode(fl.Field().String()).IsValid()
}
