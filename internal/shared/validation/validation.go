package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"toursApi/internal/shared/apperror"
)

// Messages maps "<jsonField>.<tag>" to the client-facing message.
type Messages map[string]string

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Decode copies a loosely typed document into target using json tag names.
func Decode(doc map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return apperror.BadRequest(fmt.Sprintf("Invalid input data. %s", decodeMessage(err)))
	}
	return nil
}

// Struct runs the validate tags of target and folds failures into a single
// validation error.
func Struct(target any, messages Messages) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Unexpected(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fieldPath(fe)
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = messageFor(fe, name, messages)
	}
	return Failure(fields)
}

// Document decodes doc into target and validates it.
func Document(doc map[string]any, target any, messages Messages) error {
	if err := Decode(doc, target); err != nil {
		return err
	}
	return Struct(target, messages)
}

// Failure builds the validation error for a set of field messages.
func Failure(fields map[string]string) *apperror.Error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fields[name])
	}
	return apperror.Validation("Invalid input data. "+strings.Join(parts, ". "), fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError, name string, messages Messages) string {
	if msg, ok := messages[name+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Path `%s` is required", name)
	case "min", "gte":
		return fmt.Sprintf("Path `%s` must be at least %s", name, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Path `%s` must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid value for path `%s`", fe.Value(), name)
	case "email":
		return "Please provide a valid email"
	default:
		return fmt.Sprintf("Path `%s` failed on %s", name, fe.Tag())
	}
}

func decodeMessage(err error) string {
	var decodeErr *mapstructure.Error
	if errors.As(err, &decodeErr) && len(decodeErr.Errors) > 0 {
		sorted := append([]string(nil), decodeErr.Errors...)
		sort.Strings(sorted)
		return strings.Join(sorted, ". ")
	}
	return err.Error()
}
