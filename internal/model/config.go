package model

import "time"

// Config is the complete coordinator configuration
type Config struct {
	Services ServicesConfig `yaml:"services" mapstructure:"services"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Health   HealthConfig   `yaml:"health" mapstructure:"health"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Workers  int            `yaml:"workers" mapstructure:"workers"` // Parallel sessions in batch mode
	Verbose  bool           `yaml:"verbose" mapstructure:"verbose"`
}

// ServicesConfig holds the base URLs of the remote services
type ServicesConfig struct {
	Ingestion  string `yaml:"ingestion" mapstructure:"ingestion"`   // parser-produit
	Extraction string `yaml:"extraction" mapstructure:"extraction"` // nlp-ingredients
	Impact     string `yaml:"impact" mapstructure:"impact"`         // lca-lite
	Scoring    string `yaml:"scoring" mapstructure:"scoring"`
	Widget     string `yaml:"widget" mapstructure:"widget"`         // health only
	Provenance string `yaml:"provenance" mapstructure:"provenance"` // health only
}

// HTTPConfig configures the shared HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`             // Per request
	StageTimeout time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"` // Per stage submission
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// HealthConfig configures the service health monitor
type HealthConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// ScoringConfig holds the normalisation references sent to the scoring service
type ScoringConfig struct {
	MaxCO2Ref    float64 `yaml:"max_co2_ref" mapstructure:"max_co2_ref"`
	MaxWaterRef  float64 `yaml:"max_water_ref" mapstructure:"max_water_ref"`
	MaxEnergyRef float64 `yaml:"max_energy_ref" mapstructure:"max_energy_ref"`
}

// CacheConfig configures the in-memory response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// DefaultConfig returns the defaults matching a local docker-compose deployment
func DefaultConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			Ingestion:  "http://localhost:8001",
			Extraction: "http://localhost:8002",
			Impact:     "http://localhost:8003",
			Scoring:    "http://localhost:8004",
			Widget:     "http://localhost:8005",
			Provenance: "http://localhost:8007",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			StageTimeout: 60 * time.Second,
			UserAgent:    "EcoLabel/0.1",
			MaxBodyBytes: 2_000_000,
		},
		Health: HealthConfig{
			Interval:     30 * time.Second,
			ProbeTimeout: 3 * time.Second,
		},
		Scoring: ScoringConfig{
			MaxCO2Ref:    10,
			MaxWaterRef:  500,
			MaxEnergyRef: 50,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     10 * time.Minute,
		},
		Workers: 4,
	}
}
