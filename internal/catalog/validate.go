package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/contacerta/contacerta/internal/apperr"
)

// newValidator returns a validator that reports fields by their label tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})

	_ = v.RegisterValidation("taxid", validateTaxID)

	return v
}

// validateTaxID accepts a CPF (11 digits) or CNPJ (14 digits).
func validateTaxID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(value) == 11 || len(value) == 14
}

// validationError turns the first field error of err into a user-facing error.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.KindUnexpected, apperr.MsgGeneric, err)
	}

	fe := fieldErrs[0]
	return &apperr.Error{
		Kind:    apperr.KindValidation,
		Field:   fe.Field(),
		Message: fieldMessage(fe),
		Err:     err,
	}
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("%s must have at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s characters.", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have exactly %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("Select a valid %s.", strings.ToLower(label))
	case "numeric":
		return fmt.Sprintf("%s must contain only digits.", label)
	case "alpha":
		return fmt.Sprintf("%s must contain only letters.", label)
	case "taxid":
		return "Enter a valid CPF (11 digits) or CNPJ (14 digits)."
	}
	return fmt.Sprintf("%s is invalid.", label)
}
