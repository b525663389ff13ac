// Package schema validates raw block props and turns them into the typed
// value a block's render function expects.
//
// Raw props arrive as loosely typed maps decoded from YAML, HCL or JSON.
// For[P] decodes them into P with mapstructure, using the json tag names,
// and then runs go-playground/validator over the result. Problems from
// either step come back as Issues keyed by the JSON path of the field.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Schema validates raw props. On success it returns the typed value and
// no issues.
type Schema interface {
	Validate(raw any) (any, Issues)
}

// Issue is one field-level problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String formats the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}

	return i.Path + ": " + i.Message
}

// Issues is a list of problems. A non-empty Issues is an error.
type Issues []Issue

// Error joins the issues with "; ".
func (is Issues) Error() string {
	return strings.Join(is.Strings(), "; ")
}

// Strings returns each issue formatted as "path: message".
func (is Issues) Strings() []string {
	out := make([]string, len(is))
	for i, issue := range is {
		out[i] = issue.String()
	}

	return out
}

// Err returns nil for an empty list and the list itself otherwise.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}

	return is
}

type structSchema[P any] struct{}

// For returns a schema that decodes raw props into P and validates P's
// `validate` struct tags.
func For[P any]() Schema {
	return structSchema[P]{}
}

func (structSchema[P]) Validate(raw any) (any, Issues) {
	var out P
	if typed, ok := raw.(P); ok {
		out = typed
	} else {
		if raw == nil {
			raw = map[string]any{}
		}
		if issues := decode(raw, &out); len(issues) > 0 {
			return nil, issues
		}
	}

	if issues := Check(out); len(issues) > 0 {
		return nil, issues
	}

	return out, nil
}

type anySchema struct{}

// Any accepts every value unchanged.
func Any() Schema {
	return anySchema{}
}

func (anySchema) Validate(raw any) (any, Issues) {
	return raw, nil
}

type funcSchema[P any] func(raw any) (P, Issues)

// Func adapts a hand-written validation function.
func Func[P any](fn func(raw any) (P, Issues)) Schema {
	return funcSchema[P](fn)
}

func (f funcSchema[P]) Validate(raw any) (any, Issues) {
	v, issues := f(raw)
	if len(issues) > 0 {
		return nil, issues
	}

	return v, nil
}

// decodeMessage matches mapstructure's "'field' problem" error messages.
var decodeMessage = regexp.MustCompile(`^'([^']*)' (.+)$`)

func decode(raw any, out any) Issues {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: false,
		Squash:           true,
	})
	if err != nil {
		return Issues{{Message: err.Error()}}
	}
	if err := dec.Decode(raw); err != nil {
		return decodeIssues(err)
	}

	return nil
}

func decodeIssues(err error) Issues {
	var issues Issues
	for _, e := range flatten(err) {
		msg := e.Error()
		if m := decodeMessage.FindStringSubmatch(msg); m != nil {
			issues = append(issues, Issue{Path: m[1], Message: m[2]})
			continue
		}
		issues = append(issues, Issue{Message: msg})
	}

	return issues
}

// flatten expands errors.Join trees into their leaves. The decoder wraps
// its joined errors in a summary message, so the join is located with
// errors.As rather than a plain type assertion.
func flatten(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}

		return out
	}

	return []error{err}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}

			return name
		})
	})

	return validate
}

// Check runs the validate struct tags of v, or of the struct v points to,
// and reports failures keyed by JSON field path. Non-struct values pass.
func Check(v any) Issues {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := validatorInstance().Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Issues{{Message: err.Error()}}
	}

	issues := make(Issues, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{Path: fieldPath(fe.Namespace()), Message: message(fe)})
	}

	return issues
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}

	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with", "required_without":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit(fe.Kind()))
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit(fe.Kind()))
	case "len":
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit(fe.Kind()))
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "uri":
		return "must be a valid URI"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func unit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
