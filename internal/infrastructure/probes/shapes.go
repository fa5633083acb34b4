package probes

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// shapes validates decoded response bodies against their required fields.
var shapes = newShapeValidator()

func newShapeValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

func describeShapeError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s missing", fe.Field()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s %v not in [%s]", fe.Field(), fe.Value(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s invalid", fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}
