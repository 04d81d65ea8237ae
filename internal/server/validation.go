package server

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bindingError converts a gin binding failure into field level validation
// errors. Malformed JSON collapses into invalid_request.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := ValidationErrors{Errors: make([]ValidationError, 0, len(verrs))}
		for _, fe := range verrs {
			field := jsonFieldPath(fe.Namespace())
			out.Errors = append(out.Errors, ValidationError{
				Field:   field,
				Code:    validationTagCode(fe.Tag()),
				Message: validationTagMessage(field, fe),
			})
		}
		return &out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return newValidationError(typeErr.Field, "invalid_type", "invalid "+typeErr.Field)
	}
	return invalidRequestError()
}

// validateStruct runs the gin validator outside of Bind, for bodies that
// were read raw.
func validateStruct(obj any) error {
	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return bindingError(err)
	}
	return nil
}

// jsonFieldPath turns "createInvoiceRequest.Items[0].ItemName" into
// "items[0].itemName".
func jsonFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}

func validationTagCode(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "invalid_email"
	case "url", "http_url":
		return "invalid_url"
	case "gte", "gt", "min":
		return "too_small"
	case "lte", "lt", "max":
		return "too_large"
	default:
		return "invalid_" + tag
	}
}

func validationTagMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url", "http_url":
		return field + " must be a valid url"
	case "gte", "gt", "min":
		return field + " must be at least " + fe.Param()
	case "lte", "lt", "max":
		return field + " must be at most " + fe.Param()
	default:
		return "invalid " + field
	}
}
