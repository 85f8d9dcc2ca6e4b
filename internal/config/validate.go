package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("flag"); name != "" {
				return name
			}
			return field.Name
		})
	})
	return validate
}

// Validate checks resolved settings and reports violations in terms of CLI flags.
func Validate(cfg any) error {
	err := validatorInstance().Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	flag := "--" + fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be set", flag)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", flag, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", flag, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", flag, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", flag, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", flag, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", flag, fe.Value())
	default:
		return fmt.Sprintf("%s is invalid (%s)", flag, fe.Tag())
	}
}
