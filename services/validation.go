package services

import (
	"errors"
	"fmt"
	"goldenapp/models"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation входные данные не прошли проверку
var ErrValidation = errors.New("validation failed")

// newValidator создает валидатор, понимающий decimal.Decimal и models.Date
func newValidator() *validator.Validate {
	v := validator.New()

	// Суммы проверяются как float64: gt=0, gte=0
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Пустая дата не проходит required
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok {
			if d.IsZero() {
				return ""
			}
			return d.String()
		}
		return nil
	}, models.Date{})

	return v
}

// validateStruct валидирует DTO и собирает сообщения по тегам
func validateStruct(v *validator.Validate, dto interface{}) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required", "required_without":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" is required")
		case "gt":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must be greater than "+e.Param())
		case "gte":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must be at least "+e.Param())
		case "lte":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must be at most "+e.Param())
		case "min":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must contain at least "+e.Param()+" items")
		case "oneof":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must be one of: "+e.Param())
		case "email":
			errorMessages = append(errorMessages, "field "+e.Namespace()+" must be a valid email")
		default:
			errorMessages = append(errorMessages, "field "+e.Namespace()+" is invalid ("+e.Tag()+")")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errorMessages, "; "))
}
