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
		validate = validator.New()
		// Use JSON tag names for errors instead of Go struct names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the struct rules and the duration fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var errs []error
	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	for path, raw := range map[string]string{
		"telegram.throttling":  cfg.Telegram.Throttling,
		"telegram.timeout":     cfg.Telegram.Timeout,
		"portal.timeout":       cfg.Portal.Timeout,
		"history.busy_timeout": cfg.History.BusyTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	// Namespace is "Config.telegram.token"; drop the root type name.
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: this field is required", path)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %q", path, fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("%s: must be a URL, got %q", path, fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Errorf("%s: failed %s=%s (got %v)", path, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%s: failed %s (got %v)", path, fe.Tag(), fe.Value())
	}
}
