// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// now is replaced in tests.
var now = time.Now

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterCustomTypeFunc(dateValue, models.Date{})
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("expense_category", validateCategory)
		_ = v.RegisterValidation("theme", validateTheme)
		_ = v.RegisterValidation("not_future", validateNotFuture)
		_ = v.RegisterValidation("stats_range", validateStatsRange)
		_ = v.RegisterValidation("export_format", validateExportFormat)
		_ = v.RegisterValidation("year_month", validateYearMonth)
	}
}

// jsonFieldName reports fields by their JSON (or form) name so error messages
// line up with what the client sent.
func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func dateValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(models.Date); ok {
		if d.IsZero() {
			return nil
		}
		return d.Time
	}
	return nil
}

func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.IsSupportedCurrency(fl.Field().String())
}

func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateTheme(fl validator.FieldLevel) bool {
	return models.Theme(fl.Field().String()).Valid()
}

func validateNotFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !models.DateOf(t).After(models.Today(now()).Time)
}

func validateStatsRange(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "week", "month", "year":
		return true
	}
	return false
}

func validateExportFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "xlsx", "pdf", "csv":
		return true
	}
	return false
}

func validateYearMonth(fl validator.FieldLevel) bool {
	return monthRegex.MatchString(fl.Field().String())
}

// FieldErrors converts a binding error into per-field messages. It returns nil
// when err is not a validation error (for example malformed JSON).
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	label := displayName(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "currency":
		return "Unsupported currency"
	case "expense_category":
		return "Unknown category"
	case "theme":
		return "Theme must be light or dark"
	case "not_future":
		return label + " cannot be in the future"
	case "stats_range":
		return "Range must be week, month or year"
	case "export_format":
		return "Format must be xlsx, pdf or csv"
	case "year_month":
		return label + " must look like YYYY-MM"
	}
	return label + " is invalid"
}

func displayName(field string) string {
	if field == "" {
		return "Value"
	}
	field = strings.ReplaceAll(field, "_", " ")
	return strings.ToUpper(field[:1]) + field[1:]
}
