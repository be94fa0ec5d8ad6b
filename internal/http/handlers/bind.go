package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds and validates the request body. On failure it writes the
// full ordered list of field-level validation errors and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondValidationErrors(ctx, parseBindError(err, out))
		return false
	}

	return true
}

func parseBindError(err error, out interface{}) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)
	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := jsonFieldName(rootType, fieldError.StructField())

			fields = append(fields, FieldError{
				Msg:   validationMessage(field, fieldError.Tag(), fieldError.Param()),
				Param: field,
			})
		}
		return fields
	}

	// bad JSON syntax, type mismatches, empty body
	return []FieldError{{Msg: "Invalid request body"}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonFieldName(rootType reflect.Type, structField string) string {
	if rootType == nil {
		return strings.ToLower(structField)
	}

	sf, ok := rootType.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}

	tag := sf.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return strings.ToLower(structField)
	}

	return name
}

func validationMessage(field, rule, param string) string {
	switch rule {
	case "required":
		return fmt.Sprintf("%s is required", title(field))
	case "email":
		return "Please include a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", title(field), param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", title(field), param)
	default:
		return fmt.Sprintf("%s failed %s validation", title(field), rule)
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
