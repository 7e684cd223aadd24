// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/AlwangaJanet/NutriWise-Assistant/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the root configuration.
type Config struct {
	Version  string         `toml:"version" json:"version"`
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`
	Client   ClientConfig   `toml:"client" json:"client"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// EndpointConfig locates the answer service.
type EndpointConfig struct {
	// URL receives POST {"question": ...}.
	URL string `toml:"url" json:"url"`

	// HealthURL overrides the derived <scheme://host>/health probe.
	HealthURL string `toml:"health_url" json:"health_url"`
}

// ClientConfig holds the request limits.
type ClientConfig struct {
	TimeoutMS        int `toml:"timeout_ms" json:"timeout_ms"`
	MaxRetries       int `toml:"max_retries" json:"max_retries"`
	RetryDelayMS     int `toml:"retry_delay_ms" json:"retry_delay_ms"`
	MaxMessageLength int `toml:"max_message_length" json:"max_message_length"`
}

// Timeout returns TimeoutMS as a duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RetryDelay returns RetryDelayMS as a duration.
func (c ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// UIConfig holds presentation settings shared by the TUI and the REPL.
type UIConfig struct {
	// Theme is the markdown style: auto, dark, light, notty or plain.
	Theme           string   `toml:"theme" json:"theme"`
	RenderMarkdown  bool     `toml:"render_markdown" json:"render_markdown"`
	ShowSuggestions bool     `toml:"show_suggestions" json:"show_suggestions"`
	Suggestions     []string `toml:"suggestions" json:"suggestions"`
}

// LogConfig controls the zerolog sink.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File is the log path. Empty means ~/.nutriwise/nutriwise.log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultEndpointURL      = "http://127.0.0.1:5000/ask"
	DefaultTimeoutMS        = 30000
	DefaultMaxRetries       = 3
	DefaultRetryDelayMS     = 1000
	DefaultMaxMessageLength = 500
	DefaultTheme            = "auto"
	DefaultLogLevel         = "info"
	currentVersion          = "1"
)

// DefaultSuggestions are the starter questions shown before the first message.
var DefaultSuggestions = []string{
	"What should a pregnant woman eat in her second trimester?",
	"What are healthy snacks for school-going children?",
	"How can I eat healthy on 300 shillings a week?",
	"What should I eat to gain weight in a healthy way?",
	"What are the signs of malnutrition in children?",
}

// Default returns a configuration with all defaults filled in.
func Default() *Config {
	return &Config{
		Version: currentVersion,
		Endpoint: EndpointConfig{
			URL: DefaultEndpointURL,
		},
		Client: ClientConfig{
			TimeoutMS:        DefaultTimeoutMS,
			MaxRetries:       DefaultMaxRetries,
			RetryDelayMS:     DefaultRetryDelayMS,
			MaxMessageLength: DefaultMaxMessageLength,
		},
		UI: UIConfig{
			Theme:           DefaultTheme,
			RenderMarkdown:  true,
			ShowSuggestions: true,
			Suggestions:     append([]string(nil), DefaultSuggestions...),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.nutriwise.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory")
	}
	return filepath.Join(home, ".nutriwise"), nil
}

// ConfigPathTOML returns ~/.nutriwise/config.toml.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns ~/.nutriwise/config.json.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultLogPath returns ~/.nutriwise/nutriwise.log.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nutriwise.log"), nil
}

// ResolvePath returns the file Load would read: config.toml if present,
// else config.json if present, else config.toml.
func ResolvePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads config.toml, then config.json, then falls back to defaults.
// Environment overrides are applied last. A file that fails to parse is
// reported alongside a usable default config.
func Load() (*Config, error) {
	var loadErr error

	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Default(), errors.Wrap(err, "invalid environment overrides")
	}
	return cfg, loadErr
}

// LoadFromPath loads one file (TOML unless it ends in .json) over the
// defaults, applies env overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = decodeJSON(cfg, path)
	} else {
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load config from %s", path)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func decodeTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Wrap(err, "decode TOML")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return errors.Wrap(err, "decode JSON")
	}
	return nil
}

// fillDefaults restores values that cannot legitimately be zero or empty.
// MaxRetries and RetryDelayMS may be zero on purpose and are left alone.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Endpoint.URL == "" {
		c.Endpoint.URL = defaults.Endpoint.URL
	}
	if c.Client.TimeoutMS == 0 {
		c.Client.TimeoutMS = defaults.Client.TimeoutMS
	}
	if c.Client.MaxMessageLength == 0 {
		c.Client.MaxMessageLength = defaults.Client.MaxMessageLength
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTo writes cfg to path, as JSON when path ends in .json.
func SaveTo(cfg *Config, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# NutriWise configuration\n")
	buf.WriteString("# Environment variables NUTRIWISE_* override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

// SaveJSON writes cfg as indented JSON, atomically with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidThemes lists accepted ui.theme values.
var ValidThemes = []string{"auto", "dark", "light", "notty", "plain"}

// ValidLogLevels lists accepted log.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "disabled"}

// Validate checks every field and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if msg := checkURL(c.Endpoint.URL); msg != "" {
		errs = append(errs, ValidationError{Field: "endpoint.url", Message: msg})
	}
	if c.Endpoint.HealthURL != "" {
		if msg := checkURL(c.Endpoint.HealthURL); msg != "" {
			errs = append(errs, ValidationError{Field: "endpoint.health_url", Message: msg})
		}
	}

	if c.Client.TimeoutMS < 1000 || c.Client.TimeoutMS > 300000 {
		errs = append(errs, ValidationError{
			Field:   "client.timeout_ms",
			Message: fmt.Sprintf("must be 1000-300000, got %d", c.Client.TimeoutMS),
		})
	}
	if c.Client.MaxRetries < 0 || c.Client.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "client.max_retries",
			Message: fmt.Sprintf("must be 0-10, got %d", c.Client.MaxRetries),
		})
	}
	if c.Client.RetryDelayMS < 0 || c.Client.RetryDelayMS > 60000 {
		errs = append(errs, ValidationError{
			Field:   "client.retry_delay_ms",
			Message: fmt.Sprintf("must be 0-60000, got %d", c.Client.RetryDelayMS),
		})
	}
	if c.Client.MaxMessageLength < 1 || c.Client.MaxMessageLength > 10000 {
		errs = append(errs, ValidationError{
			Field:   "client.max_message_length",
			Message: fmt.Sprintf("must be 1-10000, got %d", c.Client.MaxMessageLength),
		})
	}

	if !contains(ValidThemes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(ValidThemes, ", ")),
		})
	}
	if !contains(ValidLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(ValidLogLevels, ", ")),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return "missing host"
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - NUTRIWISE_API_URL: endpoint.url
//   - NUTRIWISE_HEALTH_URL: endpoint.health_url
//   - NUTRIWISE_TIMEOUT_MS: client.timeout_ms
//   - NUTRIWISE_MAX_RETRIES: client.max_retries
//   - NUTRIWISE_RETRY_DELAY_MS: client.retry_delay_ms
//   - NUTRIWISE_MAX_MESSAGE_LENGTH: client.max_message_length
//   - NUTRIWISE_LOG_LEVEL: log.level
//   - NUTRIWISE_THEME: ui.theme
//
// Numeric variables that do not parse are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NUTRIWISE_API_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("NUTRIWISE_HEALTH_URL"); v != "" {
		c.Endpoint.HealthURL = v
	}
	envInt("NUTRIWISE_TIMEOUT_MS", &c.Client.TimeoutMS)
	envInt("NUTRIWISE_MAX_RETRIES", &c.Client.MaxRetries)
	envInt("NUTRIWISE_RETRY_DELAY_MS", &c.Client.RetryDelayMS)
	envInt("NUTRIWISE_MAX_MESSAGE_LENGTH", &c.Client.MaxMessageLength)
	if v := os.Getenv("NUTRIWISE_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("NUTRIWISE_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = n
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by dot notation, e.g. "client.max_retries".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot notation. Strings are converted to the field's
// type; a comma-separated string sets a list.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts snake_case or kebab-case to a Go field name.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.TrimSpace(strVal))
			if err != nil {
				switch strings.ToLower(strings.TrimSpace(strVal)) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"endpoint.url",
		"endpoint.health_url",
		"client.timeout_ms",
		"client.max_retries",
		"client.retry_delay_ms",
		"client.max_message_length",
		"ui.theme",
		"ui.render_markdown",
		"ui.show_suggestions",
		"ui.suggestions",
		"log.level",
		"log.file",
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	if c.UI.Suggestions != nil {
		clone.UI.Suggestions = append([]string(nil), c.UI.Suggestions...)
	}
	return &clone
}

// String renders the config as indented JSON with userinfo in URLs
// redacted.
func (c *Config) String() string {
	safe := c.Clone()
	safe.Endpoint.URL = redactURL(safe.Endpoint.URL)
	safe.Endpoint.HealthURL = redactURL(safe.Endpoint.HealthURL)

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.User("REDACTED")
	return u.String()
}
