package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/doeshing/socprobe/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate ensures config structure is consistent.
// Every violation is reported, joined into one error.
func Validate(cfg domain.Config) error {
	var errs []error
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	for _, named := range cfg.NamedEndpoints() {
		if err := validateEndpoint(named); err != nil {
			errs = append(errs, err)
		}
	}
	if err := validateTLS(cfg.TLS); err != nil {
		errs = append(errs, err)
	}
	if cfg.Probes.Timeout > 0 && cfg.HTTP.Timeout > cfg.Probes.Timeout {
		errs = append(errs, fmt.Errorf("http.timeout (%s) must not exceed probes.timeout (%s)", cfg.HTTP.Timeout, cfg.Probes.Timeout))
	}
	return errors.Join(errs...)
}

func validateEndpoint(named domain.NamedEndpoint) error {
	key := endpointKey(named.Component)
	switch named.Endpoint.Scheme() {
	case "http", "https", "":
	default:
		return fmt.Errorf("endpoints.%s.url must use http or https, got %q", key, named.Endpoint.Scheme())
	}
	if named.Endpoint.Username != "" && named.Endpoint.Password == "" {
		return fmt.Errorf("endpoints.%s.password must be set when username is set", key)
	}
	return nil
}

func validateTLS(tls domain.TLSSettings) error {
	if tls.CAFile == "" || tls.Mode != domain.TLSModeVerify {
		return nil
	}
	if _, err := os.Stat(tls.CAFile); err != nil {
		return fmt.Errorf("tls.ca_file invalid: %w", err)
	}
	return nil
}

func endpointKey(c domain.Component) string {
	switch c {
	case domain.ComponentManagerAPI:
		return "manager"
	case domain.ComponentIndexerAPI:
		return "indexer"
	default:
		return string(c)
	}
}

func describeFieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	field = strings.TrimPrefix(field, ".")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s must be set", field)
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", field, fe.Value())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Errorf("%s must be > %s", field, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", field, fe.Tag())
	}
}
