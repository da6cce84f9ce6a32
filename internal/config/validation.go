package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf key, so a message names the same
// key the YAML file and the QUOTER_ variables use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every key and reports all failures at once.
// The server should not start with invalid config.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// describe turns one failure into "<key> <problem> (<env var>)". Values are
// never echoed: the failing key may be auth.session_secret.
func describe(fe validator.FieldError) string {
	key := configKey(fe.Namespace())

	var problem string
	switch fe.Tag() {
	case "required":
		problem = "is required"
	case "required_if":
		// Param is "<Field> <value>", e.g. "Enabled true".
		field, value, _ := strings.Cut(fe.Param(), " ")
		section, _, _ := strings.Cut(key, ".")
		problem = fmt.Sprintf("is required when %s.%s is %s", section, strings.ToLower(field), value)
	case "min":
		problem = "must be at least " + fe.Param()
	case "max":
		problem = "must be at most " + fe.Param()
	case "oneof":
		problem = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		problem = "is invalid (" + fe.Tag() + ")"
	}

	return fmt.Sprintf("%s %s (%s)", key, problem, envName(key))
}

// configKey drops the root type from a namespace: "Config.log.level" → "log.level".
func configKey(namespace string) string {
	_, key, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return key
}

// envName is the inverse of envKey: "server.max_request_size" → "QUOTER_SERVER_MAX_REQUEST_SIZE".
func envName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
