package service

import (
	"errors"
	"reflect"
	"strings"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/go-playground/validator/v10"
)

// Categories lists the values offered by the product form.
var Categories = []string{"Hygiene", "Food", "Electronics", "Clothing", "Other"}

// FormValues is the user-editable part of a product.
type FormValues struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
}

// Normalize trims name and category. Description is kept as entered.
func (f FormValues) Normalize() FormValues {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)
	return f
}

var fieldMessages = map[string]string{
	"name.required":     "Product name is required",
	"category.required": "Category is required",
	"category.oneof":    "Category must be one of: " + strings.Join(Categories, ", "),
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateForm checks already normalized values and returns a *ValidationError
// keyed by json field name.
func validateForm(v *validator.Validate, f FormValues, strictCategories bool) error {
	fields := make(map[string]string)
	if err := v.Struct(f); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = message(fieldErr.Field(), fieldErr.Tag())
		}
	}
	if strictCategories && f.Category != "" {
		if err := v.Var(f.Category, "oneof="+strings.Join(Categories, " ")); err != nil {
			fields["category"] = message("category", "oneof")
		}
	}
	if len(fields) > 0 {
		return catalogerrors.NewValidationError(fields)
	}
	return nil
}

func message(field, tag string) string {
	if m, ok := fieldMessages[field+"."+tag]; ok {
		return m
	}
	return "failed on rule: " + tag
}
