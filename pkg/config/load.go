package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
)

var validate = validator.New()

// Load reads a YAML configuration file, fills unset fields with defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidConfiguration, "failed to read config file"),
			errors.Fields{"path": path},
		)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes over the defaults and validates the
// result. Only keys present in the document override Default(), so an explicit
// zero survives.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidConfiguration, "failed to parse config YAML")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.WithFields(
				errors.New(errors.InvalidConfiguration, "invalid configuration"),
				errors.Fields{"violations": strings.Join(msgs, "; ")},
			)
		}
		return errors.Wrap(err, errors.InvalidConfiguration, "invalid configuration")
	}
	return nil
}
