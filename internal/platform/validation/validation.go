package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roteiro-app/travel-planner-api/internal/domain"
)

var (
	cpfPattern  = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	iataPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Validator wraps go-playground/validator with the project's custom tags:
//
//	cpf     formatted CPF, 000.000.000-00
//	phone   10 or 11 digits once punctuation is removed
//	iata    three-letter airport code
//
// Field names in reports come from the json tag so they match the request body.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		n := len(domain.DigitsOnly(fl.Field().String()))
		return n == 10 || n == 11
	})
	mustRegister(v, "iata", func(fl validator.FieldLevel) bool {
		return iataPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// FieldErrors maps a json field path to a short description of what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Details converts fe for an app-layer error payload.
func (fe FieldErrors) Details() map[string]any {
	out := make(map[string]any, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// Struct returns nil or a FieldErrors describing every failed rule.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range ves {
		out[fieldPath(fe)] = describe(fe)
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace: "Input.voos[0].origem" -> "voos[0].origem".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "cpf":
		return "must match 000.000.000-00"
	case "phone":
		return "must have 10 or 11 digits"
	case "iata":
		return "must be a 3-letter IATA code"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "numeric":
		return "must contain only digits"
	default:
		return "failed " + fe.Tag()
	}
}
