// Package validation checks dashboard forms before they reach the lending API.
//
// Errors are reported per field, keyed by the field's JSON name, with
// English messages.
package validation

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"

	"motodash/internal/model"
	"motodash/internal/permission"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag    = "notblank"
	roleTag        = "role"
	dateRangeTag   = "daterange"
	permMatrixTag  = "permmatrix"
	reportKindTag  = "reportkind"
	pwdMinLen      = 8
	customMessages = map[string]string{
		notBlankTag:   "this field cannot be blank",
		roleTag:       "invalid role",
		dateRangeTag:  "from must not be after to",
		permMatrixTag: "unknown resource or action",
		reportKindTag: "unknown report kind",
	}
)

// Error carries field-level validation failures.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals validate as float64 so gt/gte/lte apply to money fields
	Validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(roleTag, roleValidation)
	_ = Validate.RegisterValidation(reportKindTag, reportKindValidation)
	Validate.RegisterStructValidation(dateRangeStructValidation, ReportExportForm{})
	Validate.RegisterStructValidation(permissionsStructValidation, PermissionsForm{})

	for tag := range customMessages {
		registerCustomTranslation(tag)
	}
}

// registerCustomTranslation registers the message of a custom tag. The
// registration func is a noop because the translator is already set up.
func registerCustomTranslation(tag string) {
	registerFn := func(ut.Translator) error { return nil }
	_ = Validate.RegisterTranslation(tag, Translator, registerFn, func(_ ut.Translator, fe validator.FieldError) string {
		return customMessages[fe.Tag()]
	})
}

// Struct validates v and returns *Error when any field fails.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if _, exists := fields[key]; !exists {
			fields[key] = fieldMessage(fe)
		}
	}
	return &Error{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "min" && fe.Field() == "password":
		return "password must contain at least 8 characters"
	case fe.Tag() == "eqfield" && fe.Field() == "confirmPassword":
		return "passwords do not match"
	}
	return fe.Translate(Translator)
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func roleValidation(fl validator.FieldLevel) bool {
	role, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, r := range model.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func reportKindValidation(fl validator.FieldLevel) bool {
	kind, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, k := range model.ReportKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// dateRangeStructValidation rejects report ranges whose start is after the end.
func dateRangeStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(ReportExportForm)
	if !ok {
		return
	}
	from, errFrom := time.Parse(DateLayout, f.From)
	to, errTo := time.Parse(DateLayout, f.To)
	if errFrom != nil || errTo != nil {
		return
	}
	if from.After(to) {
		sl.ReportError(f.From, "from", "From", dateRangeTag, "")
	}
}

// permissionsStructValidation rejects resources or actions outside the matrix.
func permissionsStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(PermissionsForm)
	if !ok {
		return
	}
	for res, actions := range f.Permissions {
		for _, a := range actions {
			if !permission.IsKnown(permission.Resource(res), permission.Action(a)) {
				sl.ReportError(f.Permissions, "permissions", "Permissions", permMatrixTag, "")
				return
			}
		}
	}
}
