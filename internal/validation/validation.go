// Package validation turns request bodies and query strings into checked
// input, reporting failures as field-keyed message lists.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"todo/internal/apperror"
	"todo/internal/model"
)

var (
	colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	registerOnce sync.Once
)

// Register installs the custom rules and json-name reporting on gin's
// validator. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("filled", isFilled)
		_ = v.RegisterValidation("color", isColor)
		_ = v.RegisterValidation("date", isDate)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func isFilled(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isColor(fl validator.FieldLevel) bool {
	return colorPattern.MatchString(fl.Field().String())
}

func isDate(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

// IsColor reports whether s is a #RGB or #RRGGBB hex color.
func IsColor(s string) bool {
	return colorPattern.MatchString(s)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return model.NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q", s)
	}
	return model.NewDate(t), nil
}

// Errors collects field-keyed messages.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Merge(other map[string][]string) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

// Err returns a validation error, or nil when nothing was collected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.Validation(e)
}

// Fields is the set of top-level keys present in a JSON object body.
type Fields map[string]json.RawMessage

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// IsNull reports whether name is present with an explicit JSON null.
func (f Fields) IsNull(name string) bool {
	raw, ok := f[name]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// BindJSON decodes the request body into obj and validates it. An empty body
// is treated as {} so required-field messages are reported instead of a
// decode failure. The returned Fields tell present keys from absent ones.
func BindJSON(c *gin.Context, obj any) (Fields, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, apperror.Wrap(err, "failed to read request body")
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var fields Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, apperror.InvalidField("body", "The request body must be a valid JSON object.")
	}
	if err := json.Unmarshal(body, obj); err != nil {
		if verr := FromBindError(err); apperror.KindOf(verr) == apperror.KindValidation {
			return nil, verr
		}
		return nil, apperror.InvalidField("body", "The request body is invalid.")
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return nil, FromBindError(err)
	}
	return fields, nil
}

// FromBindError converts decoder and validator failures into a validation
// error. Other errors are returned unchanged.
func FromBindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := Errors{}
		for _, fe := range verrs {
			field := fieldKey(fe.Namespace())
			if fe.Tag() == "eqfield" {
				// confirmation mismatches are reported on the confirmed field
				field = strings.TrimSuffix(field, "_confirmation")
			}
			out.Add(field, message(fe, field))
		}
		return out.Err()
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperror.InvalidField(field, fmt.Sprintf("The %s field must be %s.", label(field), kindName(typeErr.Type)))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperror.InvalidField("body", "The request body must be a valid JSON object.")
	}
	return err
}

// fieldKey turns "createTaskRequest.tag_ids[1]" into "tag_ids.1".
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func message(fe validator.FieldError, field string) string {
	name := label(field)
	switch fe.Tag() {
	case "required", "filled":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must not have more than %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "uuid":
		return fmt.Sprintf("The %s field must be a valid UUID.", name)
	case "date":
		return fmt.Sprintf("The %s field must be a valid date.", name)
	case "color":
		return fmt.Sprintf("The %s field format is invalid.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Bool:
		return "true or false"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Float64:
		return "a number"
	default:
		return "valid"
	}
}
