// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// All matching parameters are validated eagerly: regexes are compiled,
// thresholds are range- and order-checked, and every configured identifier
// type must carry a weight. A run never starts on a bad config.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	if err := cfg.Validate(); err != nil {
//		// config.ErrInvalidConfiguration, fatal
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration marks fatal configuration errors. A run must not
// start while errors.Is(err, ErrInvalidConfiguration) holds.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config represents the entire application configuration
type Config struct {
	Matching      MatchingConfig      `yaml:"matching"`
	Paths         PathsConfig         `yaml:"paths"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PathsConfig holds default input/output locations for the CLI
type PathsConfig struct {
	ClientMap  string `yaml:"client_map"`
	OutputBase string `yaml:"output_base"`
}

// StorageConfig holds run-history database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds API server configuration
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MatchingConfig holds every parameter of the matching engine. Scoring is a
// pure function of (transaction, registry index, this struct): two runs with
// the same inputs and the same MatchingConfig produce identical results.
type MatchingConfig struct {
	// IdentifierPatterns maps identifier type (acn, slk, phone, dex,
	// client_id, ...) to the regex that both validates registry fields and
	// extracts identifier-shaped substrings from transaction text.
	IdentifierPatterns map[string]string `yaml:"identifier_patterns"`

	// RequiredIdentifiers lists identifier types that, when present on a
	// registry record, must match their pattern or index building fails.
	RequiredIdentifiers []string `yaml:"required_identifiers"`

	// ExactWeights maps identifier type to the raw score of an exact hit.
	ExactWeights map[string]float64 `yaml:"exact_weights"`

	ConfidenceThresholds Thresholds    `yaml:"confidence_thresholds"`
	Fuzzy                FuzzyConfig   `yaml:"fuzzy_matching"`
	Pattern              PatternConfig `yaml:"pattern_matching"`

	// CorroborationBonus is added to a client's group score when two or more
	// independent strategies agree on that client (capped at 1.0).
	CorroborationBonus float64 `yaml:"corroboration_bonus"`

	// EnabledStrategies selects the strategy set. Recognized: exact, fuzzy,
	// pattern. Empty means all.
	EnabledStrategies []string `yaml:"enabled_strategies"`

	// Workers bounds batch parallelism. 0 means runtime.NumCPU().
	Workers int `yaml:"workers"`
}

// Thresholds classifies a winning score into matched / review bands.
type Thresholds struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// FuzzyConfig controls the fuzzy name/address strategy.
type FuzzyConfig struct {
	NameThreshold    float64 `yaml:"name_threshold"`
	AddressThreshold float64 `yaml:"address_threshold"`
	BandMin          float64 `yaml:"band_min"`
	BandMax          float64 `yaml:"band_max"`
}

// PatternConfig controls the pattern-extraction strategy.
type PatternConfig struct {
	Patterns []NamedPattern `yaml:"patterns"`
	BandMin  float64        `yaml:"band_min"`
	BandMax  float64        `yaml:"band_max"`
}

// NamedPattern is one configured extraction regex. The first capture group
// (or the whole match when there is none) is the extracted token.
type NamedPattern struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var doc configDoc
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return doc.resolve(), nil
}

// configDoc is the YAML-facing shape of Config. Scalar matching fields are
// pointers so an explicit zero in the file is distinguishable from an absent
// key: `corroboration_bonus: 0.0` disables the bonus, while omitting the key
// keeps the default.
type configDoc struct {
	Matching      matchingDoc         `yaml:"matching"`
	Paths         PathsConfig         `yaml:"paths"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type matchingDoc struct {
	IdentifierPatterns   map[string]string  `yaml:"identifier_patterns"`
	RequiredIdentifiers  []string           `yaml:"required_identifiers"`
	ExactWeights         map[string]float64 `yaml:"exact_weights"`
	ConfidenceThresholds *thresholdsDoc     `yaml:"confidence_thresholds"`
	Fuzzy                *fuzzyDoc          `yaml:"fuzzy_matching"`
	Pattern              *patternDoc        `yaml:"pattern_matching"`
	CorroborationBonus   *float64           `yaml:"corroboration_bonus"`
	EnabledStrategies    []string           `yaml:"enabled_strategies"`
	Workers              *int               `yaml:"workers"`
}

type thresholdsDoc struct {
	High   *float64 `yaml:"high"`
	Medium *float64 `yaml:"medium"`
	Low    *float64 `yaml:"low"`
}

type fuzzyDoc struct {
	NameThreshold    *float64 `yaml:"name_threshold"`
	AddressThreshold *float64 `yaml:"address_threshold"`
	BandMin          *float64 `yaml:"band_min"`
	BandMax          *float64 `yaml:"band_max"`
}

type patternDoc struct {
	Patterns []NamedPattern `yaml:"patterns"`
	BandMin  *float64       `yaml:"band_min"`
	BandMax  *float64       `yaml:"band_max"`
}

func (d *configDoc) resolve() *Config {
	cfg := &Config{
		Matching:      d.Matching.resolve(),
		Paths:         d.Paths,
		Storage:       d.Storage,
		API:           d.API,
		Observability: d.Observability,
	}

	// Unlike the matching scalars, an empty path, zero port, or blank log
	// level is never a deliberate setting, so these default unconditionally.
	if cfg.Paths.ClientMap == "" {
		cfg.Paths.ClientMap = "client_map.json"
	}
	if cfg.Paths.OutputBase == "" {
		cfg.Paths.OutputBase = "output"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "recon_runs.db"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.Observability.Logging.Level == "" {
		cfg.Observability.Logging.Level = "info"
	}
	if cfg.Observability.Logging.Format == "" {
		cfg.Observability.Logging.Format = "text"
	}
	return cfg
}

// resolve overlays the document onto the defaults, field by field.
func (d *matchingDoc) resolve() MatchingConfig {
	m := DefaultMatchingConfig()

	if len(d.IdentifierPatterns) > 0 {
		m.IdentifierPatterns = d.IdentifierPatterns
	}
	if len(d.RequiredIdentifiers) > 0 {
		m.RequiredIdentifiers = d.RequiredIdentifiers
	}
	if len(d.ExactWeights) > 0 {
		m.ExactWeights = d.ExactWeights
	}
	if t := d.ConfidenceThresholds; t != nil {
		overlay(&m.ConfidenceThresholds.High, t.High)
		overlay(&m.ConfidenceThresholds.Medium, t.Medium)
		overlay(&m.ConfidenceThresholds.Low, t.Low)
	}
	if f := d.Fuzzy; f != nil {
		overlay(&m.Fuzzy.NameThreshold, f.NameThreshold)
		overlay(&m.Fuzzy.AddressThreshold, f.AddressThreshold)
		overlay(&m.Fuzzy.BandMin, f.BandMin)
		overlay(&m.Fuzzy.BandMax, f.BandMax)
	}
	if p := d.Pattern; p != nil {
		if len(p.Patterns) > 0 {
			m.Pattern.Patterns = p.Patterns
		}
		overlay(&m.Pattern.BandMin, p.BandMin)
		overlay(&m.Pattern.BandMax, p.BandMax)
	}
	if d.CorroborationBonus != nil {
		m.CorroborationBonus = *d.CorroborationBonus
	}
	if len(d.EnabledStrategies) > 0 {
		m.EnabledStrategies = d.EnabledStrategies
	}
	if d.Workers != nil {
		m.Workers = *d.Workers
	}

	return m
}

func overlay(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Matching: DefaultMatchingConfig(),
		Paths: PathsConfig{
			ClientMap:  getEnv("RECON_CLIENT_MAP", "client_map.json"),
			OutputBase: getEnv("RECON_OUTPUT_BASE", "output"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", "recon_runs.db"),
		},
		API: APIConfig{
			Port: getEnvInt("RECON_API_PORT", 8080),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// DefaultMatchingConfig returns the matching parameters used when the config
// file omits them.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		IdentifierPatterns: map[string]string{
			"client_id": `\bCL\d{5}\b`,
			"acn":       `\bACN\d{8}\b`,
			"slk":       `\b[A-Z2]{5}\d{8}[1-2]\b`,
			"email":     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			"phone":     `\b(?:\+?61|0)[2-478]\d{8}\b`,
			"dex":       `\bDEX-?\d{6}\b`,
		},
		RequiredIdentifiers: []string{"client_id", "acn", "slk"},
		ExactWeights: map[string]float64{
			"client_id": 1.0,
			"acn":       1.0,
			"email":     1.0,
			"slk":       0.95,
			"phone":     0.95,
			"dex":       0.9,
		},
		ConfidenceThresholds: Thresholds{High: 0.85, Medium: 0.60, Low: 0.40},
		Fuzzy: FuzzyConfig{
			NameThreshold:    0.85,
			AddressThreshold: 0.80,
			BandMin:          0.60,
			BandMax:          0.95,
		},
		Pattern: PatternConfig{
			Patterns: []NamedPattern{
				{Name: "invoice_client", Regex: `(?i)\binv(?:oice)?[ #:-]*(CL\d{5})\b`},
				{Name: "ref_client", Regex: `(?i)\bref[ #:-]*([A-Z]{2,3}\d{5,8})\b`},
			},
			BandMin: 0.40,
			BandMax: 0.80,
		},
		CorroborationBonus: 0.05,
	}
}

// Validate checks the full configuration. Every violation is wrapped with
// ErrInvalidConfiguration and names the offending key.
func (c *Config) Validate() error {
	return c.Matching.Validate()
}

// Validate checks all matching parameters eagerly.
func (m *MatchingConfig) Validate() error {
	for name, expr := range m.IdentifierPatterns {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("%w: identifier_patterns.%s: %v", ErrInvalidConfiguration, name, err)
		}
	}

	for _, required := range m.RequiredIdentifiers {
		if _, ok := m.IdentifierPatterns[required]; !ok {
			return fmt.Errorf("%w: required_identifiers names unknown pattern %q", ErrInvalidConfiguration, required)
		}
	}

	for name, weight := range m.ExactWeights {
		if weight < 0.0 || weight > 1.0 {
			return fmt.Errorf("%w: exact_weights.%s must be in [0,1]: %v", ErrInvalidConfiguration, name, weight)
		}
		if _, ok := m.IdentifierPatterns[name]; !ok {
			return fmt.Errorf("%w: exact_weights names unknown pattern %q", ErrInvalidConfiguration, name)
		}
	}
	for name := range m.IdentifierPatterns {
		if _, ok := m.ExactWeights[name]; !ok {
			return fmt.Errorf("%w: missing exact weight for identifier type %q", ErrInvalidConfiguration, name)
		}
	}

	t := m.ConfidenceThresholds
	for key, v := range map[string]float64{"high": t.High, "medium": t.Medium, "low": t.Low} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%w: confidence_thresholds.%s must be in [0,1]: %v", ErrInvalidConfiguration, key, v)
		}
	}
	if !(t.Low <= t.Medium && t.Medium <= t.High) {
		return fmt.Errorf("%w: confidence thresholds must be ordered low <= medium <= high", ErrInvalidConfiguration)
	}

	f := m.Fuzzy
	for key, v := range map[string]float64{
		"name_threshold":    f.NameThreshold,
		"address_threshold": f.AddressThreshold,
		"band_min":          f.BandMin,
		"band_max":          f.BandMax,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%w: fuzzy_matching.%s must be in [0,1]: %v", ErrInvalidConfiguration, key, v)
		}
	}
	if f.BandMin > f.BandMax {
		return fmt.Errorf("%w: fuzzy_matching band_min must not exceed band_max", ErrInvalidConfiguration)
	}
	if f.NameThreshold >= 1.0 {
		return fmt.Errorf("%w: fuzzy_matching.name_threshold must be below 1.0", ErrInvalidConfiguration)
	}

	p := m.Pattern
	if p.BandMin < 0.0 || p.BandMax > 1.0 || p.BandMin > p.BandMax {
		return fmt.Errorf("%w: pattern_matching band must satisfy 0 <= band_min <= band_max <= 1", ErrInvalidConfiguration)
	}
	for _, np := range p.Patterns {
		if np.Name == "" {
			return fmt.Errorf("%w: pattern_matching.patterns entries need a name", ErrInvalidConfiguration)
		}
		if _, err := regexp.Compile(np.Regex); err != nil {
			return fmt.Errorf("%w: pattern_matching.patterns.%s: %v", ErrInvalidConfiguration, np.Name, err)
		}
	}

	if m.CorroborationBonus < 0.0 || m.CorroborationBonus > 1.0 {
		return fmt.Errorf("%w: corroboration_bonus must be in [0,1]: %v", ErrInvalidConfiguration, m.CorroborationBonus)
	}

	for _, s := range m.EnabledStrategies {
		switch s {
		case "exact", "fuzzy", "pattern":
		default:
			return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, s)
		}
	}

	if m.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative: %d", ErrInvalidConfiguration, m.Workers)
	}

	return nil
}

// StrategyEnabled reports whether the named strategy is part of the run.
func (m *MatchingConfig) StrategyEnabled(name string) bool {
	if len(m.EnabledStrategies) == 0 {
		return true
	}
	for _, s := range m.EnabledStrategies {
		if s == name {
			return true
		}
	}
	return false
}

// IdentifierTypes returns the configured identifier types in a stable order.
func (m *MatchingConfig) IdentifierTypes() []string {
	types := make([]string, 0, len(m.IdentifierPatterns))
	for name := range m.IdentifierPatterns {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
