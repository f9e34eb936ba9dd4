package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	errors "github.com/frahmantamala/employee-directory/internal"
	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*@([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.AppError {
	return errors.NewValidationFieldError(fv.FieldName, message, code)
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		message := fmt.Sprintf("%s is required", fv.FieldName)
		switch v := value.(type) {
		case nil:
			return fv.fail(message, errors.ErrCodeRequired)
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(fmt.Sprintf("%s may not be blank", fv.FieldName), errors.ErrCodeBlank)
			}
		case *string:
			if v == nil {
				return fv.fail(message, errors.ErrCodeRequired)
			}
			if strings.TrimSpace(*v) == "" {
				return fv.fail(fmt.Sprintf("%s may not be blank", fv.FieldName), errors.ErrCodeBlank)
			}
		case time.Time:
			if v.IsZero() {
				return fv.fail(message, errors.ErrCodeRequired)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(s) > max {
			message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
			return fv.fail(message, errors.ErrCodeMaxLength)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if !ok || s == "" {
			return nil
		}
		if !emailPattern.MatchString(s) {
			return fv.fail(fmt.Sprintf("%s must be a valid email address", fv.FieldName), errors.ErrCodeInvalidEmail)
		}
		return nil
	})
	return fv
}

// RelativePath rejects absolute paths, URLs, and parent-directory segments.
func (fv *FieldValidator) RelativePath() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := stringValue(value)
		if !ok || s == "" {
			return nil
		}
		if strings.HasPrefix(s, "/") || strings.Contains(s, "://") || strings.Contains(s, "\\") {
			return fv.fail(fmt.Sprintf("%s must be a relative reference", fv.FieldName), errors.ErrCodeInvalidReference)
		}
		for _, segment := range strings.Split(s, "/") {
			if segment == ".." {
				return fv.fail(fmt.Sprintf("%s must not traverse parent directories", fv.FieldName), errors.ErrCodeInvalidReference)
			}
		}
		return nil
	})
	return fv
}

// Digits enforces a fixed-point precision: at most maxDigits digits in
// total, at most places of them after the decimal point.
func (fv *FieldValidator) Digits(maxDigits, places int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return nil
		}

		digits := len(strings.TrimPrefix(d.Coefficient().String(), "-"))
		exponent := int(d.Exponent())

		var total, whole, decimalPlaces int
		switch {
		case exponent >= 0:
			total = digits + exponent
			whole = total
		case digits > -exponent:
			total = digits
			decimalPlaces = -exponent
			whole = total - decimalPlaces
		default:
			total = -exponent
			decimalPlaces = total
		}

		switch {
		case total > maxDigits:
			return fv.fail(fmt.Sprintf("%s must have no more than %d digits in total", fv.FieldName, maxDigits), errors.ErrCodeMaxDigits)
		case decimalPlaces > places:
			return fv.fail(fmt.Sprintf("%s must have no more than %d decimal places", fv.FieldName, places), errors.ErrCodeMaxDecimalPlaces)
		case whole > maxDigits-places:
			return fv.fail(fmt.Sprintf("%s must have no more than %d digits before the decimal point", fv.FieldName, maxDigits-places), errors.ErrCodeMaxDigits)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinDecimal(min decimal.Decimal) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return nil
		}
		if d.LessThan(min) {
			message := fmt.Sprintf("%s must be greater than or equal to %s", fv.FieldName, min.String())
			return fv.fail(message, errors.ErrCodeMinValue)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every validator of every field; a field stops at its first
// failing validator.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			if details := err.FieldErrors(); len(details) > 0 {
				validationErrors = append(validationErrors, details...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: err.Message,
					Code:    string(err.Code),
				})
			}
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationFieldErrors(validationErrors)
	}

	return nil
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
