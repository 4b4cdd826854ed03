package validation

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/storelens/storelens/pkg/pagination"
)

var v *validator.Validate

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: dataset kind must be one of the known dataset names
		_ = v.RegisterValidation("dataset_kind", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "products", "orders", "customers", "inventory":
				return true
			}
			return false
		})
		// Custom: upload filename must have a supported extension
		_ = v.RegisterValidation("upload_ext", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			if s == "" {
				return false
			}
			return strings.HasSuffix(s, ".csv") || strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".xlsm")
		})
		// Custom: expected anomaly share must stay in (0, 0.5]
		_ = v.RegisterValidation("contamination", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			if f == 0 {
				return true // zero means "use the default"
			}
			return f > 0 && f <= 0.5
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			if _, err := pagination.DecodeCursor(s); err != nil {
				return false
			}
			return true
		})
	}
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for API responses. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "dataset_kind":
				return "INVALID_DATASET: dataset must be one of products, orders, customers, inventory"
			case "upload_ext":
				return "UNSUPPORTED_FORMAT: file must be .csv, .xlsx, or .xlsm"
			case "contamination":
				return "VALIDATION: contamination must be greater than 0 and at most 0.5"
			case "cursor":
				return "CURSOR_INVALID: failed to decode cursor; re-request the first page"
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
