// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gogama/apiconn/uri"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "APICONN_"

// Config is the assembly configuration of a request manager.
type Config struct {
	// BaseURI is the default base URI. Empty means none. It may be
	// path-only, such as "/api/v2/".
	BaseURI string `koanf:"base_uri" validate:"omitempty,base_uri"`

	// MaxRetries is the default retry budget of every send.
	MaxRetries int `koanf:"max_retries" validate:"gte=0"`

	Authenticator AuthenticatorConfig `koanf:"authenticator"`
	Transport     TransportConfig     `koanf:"transport"`
	Log           LogConfig           `koanf:"log"`
	Auth          AuthConfig          `koanf:"auth"`
}

// AuthenticatorConfig names authenticators by registry identifier.
type AuthenticatorConfig struct {
	// Default is the identifier of the default authenticator.
	Default string `koanf:"default" validate:"required"`

	// Chain lists the identifiers of the authenticators consulted, in
	// order, when a response arrives.
	Chain []string `koanf:"chain" validate:"dive,required"`
}

// TransportConfig configures the HTTP transport.
type TransportConfig struct {
	Timeout     time.Duration `koanf:"timeout" validate:"gte=0"`
	Concurrency int           `koanf:"concurrency" validate:"gte=1"`

	// RateLimit is the sustained request rate per second. Zero
	// disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" validate:"gte=0"`

	Racing RacingConfig `koanf:"racing"`
}

// RacingConfig configures request racing. Racing is off unless Offsets
// is non-empty.
type RacingConfig struct {
	// Offsets are the delays, each relative to the previous copy, after
	// which another copy of an idempotent request is started.
	Offsets []time.Duration `koanf:"offsets" validate:"dive,gt=0"`

	// MaxPerSecond caps the extra copies started per second across the
	// manager. Zero means no cap.
	MaxPerSecond int `koanf:"max_per_second" validate:"gte=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

// AuthConfig holds credentials for the built-in authenticators. The
// basic authenticator is registered when a username is set, and the
// bearer authenticator when a token is set.
type AuthConfig struct {
	Basic  BasicConfig  `koanf:"basic"`
	Bearer BearerConfig `koanf:"bearer"`
}

// BasicConfig holds HTTP Basic credentials.
type BasicConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// BearerConfig holds a static bearer token.
type BearerConfig struct {
	Token  string        `koanf:"token"`
	Leeway time.Duration `koanf:"leeway" validate:"gte=0"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"base_uri":                        "",
		"max_retries":                     3,
		"authenticator.default":           "anonymous",
		"authenticator.chain":             []string{},
		"transport.timeout":               "5s",
		"transport.concurrency":           8,
		"transport.rate_limit":            0,
		"transport.burst":                 1,
		"transport.racing.offsets":        []string{},
		"transport.racing.max_per_second": 0,
		"log.level":                       "info",
		"log.pretty":                      false,
		"auth.bearer.leeway":              "30s",
	}
}

// Load loads the configuration from the built-in defaults, the YAML
// files at paths, and the environment, then validates it.
func Load(paths ...string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("apiconn/config: loading defaults: %w", err)
	}

	for _, path := range paths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("apiconn/config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("apiconn/config: loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("apiconn/config: decoding: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps APICONN_TRANSPORT__RATE_LIMIT to transport.rate_limit.
// Comma-separated values of list keys become lists.
func envKey(k, v string) (string, interface{}) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	k = strings.ReplaceAll(k, "__", ".")
	switch k {
	case "authenticator.chain", "transport.racing.offsets":
		return k, splitList(v)
	}
	return k, v
}

func splitList(v string) []string {
	if v == "" {
		return []string{}
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("base_uri", validateBaseURI); err != nil {
		panic(err)
	}
	return v
}

func validateBaseURI(fl validator.FieldLevel) bool {
	_, err := uri.ParseBase(fl.Field().String())
	return err == nil
}

// Validate checks cfg against its validation tags. The error names
// every invalid field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("apiconn/config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %s", fe.Namespace(), rule(fe))
	}
	return fmt.Errorf("apiconn/config: invalid configuration: %s", strings.Join(msgs, "; "))
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
