package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kevinaaaquil/library/service"
)

// Validator checks decoded request structs and reports every failing field by its json name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns a validation APIError listing all failing fields, or nil.
func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if i := strings.IndexByte(name, '['); i > 0 {
			name = name[:i]
		}
		if _, ok := fields[name]; !ok {
			fields[name] = fieldMessage(name, fe)
		}
	}
	return service.NewValidationError(fields)
}

func fieldMessage(name string, fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters long", name, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return name + " must be a valid URL"
	default:
		return name + " is invalid"
	}
}

// decodeJSON reads a JSON object into dst, rejecting unknown fields and trailing data.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return service.NewValidationError(map[string]string{"body": "body must contain a single JSON object"})
	}
	return nil
}

func bodyError(err error) error {
	var (
		typeErr  *json.UnmarshalTypeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return service.NewPayloadTooLarge(tooLarge.Limit)
	case errors.Is(err, io.EOF):
		return service.NewValidationError(map[string]string{"body": "body is required"})
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return service.NewValidationError(map[string]string{typeErr.Field: typeErr.Field + " has the wrong type"})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return service.NewValidationError(map[string]string{field: field + " is not allowed"})
	default:
		return service.NewValidationError(map[string]string{"body": "body must be valid JSON"})
	}
}

// queryReader collects per-key problems while reading query parameters.
type queryReader struct {
	values url.Values
	fields map[string]string
}

// newQueryReader flags every key outside allowed.
func newQueryReader(r *http.Request, allowed ...string) *queryReader {
	q := &queryReader{values: r.URL.Query(), fields: map[string]string{}}
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	for k := range q.values {
		if !ok[k] {
			q.fields[k] = k + " is not allowed"
		}
	}
	return q
}

func (q *queryReader) String(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

// Strings returns every non-empty value of a repeatable key.
func (q *queryReader) Strings(key string) []string {
	var out []string
	for _, v := range q.values[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (q *queryReader) Int(key string, fallback int) int {
	raw := q.String(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fields[key] = key + " must be an integer"
		return fallback
	}
	return n
}

// Err merges reader problems with struct validation of dst.
func (q *queryReader) Err(v *Validator, dst interface{}) error {
	if err := v.Validate(dst); err != nil {
		apiErr, ok := service.AsAPIError(err)
		if !ok {
			return err
		}
		for k, msg := range q.fields {
			apiErr.Fields[k] = msg
		}
		return apiErr
	}
	if len(q.fields) > 0 {
		return service.NewValidationError(q.fields)
	}
	return nil
}
