package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// FieldError is one offending field in a failed validation, addressed by its
// json path (e.g. "holidays[0].date").
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every violation found in a payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report fields under their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("dateformat", func(fl validator.FieldLevel) bool {
		return reDate.MatchString(fl.Field().String())
	})

	return v
}

// Struct validates a json-tagged payload and returns nil or an *Error
// enumerating every offending field.
func Struct(payload any) *Error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Fields: []FieldError{{Field: "", Message: err.Error()}}}
	}

	out := &Error{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return out
}

// UUID reports whether s is a well-formed UUID. Survey ids and admin tokens
// must pass this before touching the database.
func UUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is "RequestType.holidays[0].date"; drop the root struct name.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email address"
	case "dateformat":
		return "must be a date in YYYY-MM-DD format"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
