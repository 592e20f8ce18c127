package staff

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ecolage/core"
)

var (
	staffRoleTag  = "staffrole"
	staffRoleText = "role must be one of " + strings.Join(Roles, ", ")

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the account name or email"
)

// InitValidators registers the staff validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(staffRoleTag, staffRoleValidation)
	core.RegisterCustomTranslation(validate, translator, staffRoleTag, staffRoleText)

	_ = validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)

	validate.RegisterStructValidation(accountStructValidation, NewAccount{})
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func staffRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len([]rune(fl.Field().String())) >= pwdMinLen
}

func accountStructValidation(sl validator.StructLevel) {
	na := sl.Current().Interface().(NewAccount)
	if na.Password == "" {
		return
	}
	local := na.Email
	if i := strings.Index(local, "@"); i > 0 {
		local = local[:i]
	}
	if tooSimilar(na.Password, na.Name, local) {
		sl.ReportError(na.Password, "password", "Password", pwdAttrSimTag, "")
	}
}

// tooSimilar reports whether pwd is too similar to one of attrs.
func tooSimilar(pwd string, attrs ...string) bool {
	pwd = strings.ToLower(pwd)
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		m := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, ""))
		if m.QuickRatio() >= pwdMaxSim && m.Ratio() >= pwdMaxSim {
			return true
		}
	}
	return false
}
