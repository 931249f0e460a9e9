package domain

import "time"

// Config holds the complete Caracara configuration.
type Config struct {
	Ingest   IngestConfig   `json:"ingest"`
	Features FeatureConfig  `json:"features"`
	Labeling LabelingConfig `json:"labeling"`
	Training TrainingConfig `json:"training"`
	Scoring  ScoringConfig  `json:"scoring"`

	Store    StoreConfig    `json:"store"`
	Cache    CacheConfig    `json:"cache"`
	EventBus EventBusConfig `json:"eventBus"`
	Server   ServerConfig   `json:"server"`

	Logging LoggingConfig `json:"logging"`
}

// IngestConfig holds delimited-file reading settings.
type IngestConfig struct {
	// Separator is the input field separator ("," or ";").
	Separator string `json:"separator"`

	// ReportSeparator is the output report field separator.
	ReportSeparator string `json:"reportSeparator"`
}

// FeatureConfig holds the tunable feature-encoding thresholds.
// These cutoffs are configuration, never inlined literals.
type FeatureConfig struct {
	// PriceAnomalyRatio: an Original listing priced below
	// ratio × reference price scores the anomaly flag.
	PriceAnomalyRatio float64 `json:"priceAnomalyRatio"`

	// CostPerPageFloor: a defined cost-per-page below this is suspicious.
	CostPerPageFloor float64 `json:"costPerPageFloor"`

	// LowReputationFloor: rating counts below this mark low reputation.
	LowReputationFloor int `json:"lowReputationFloor"`
}

// LabelingConfig holds the heuristic pseudo-labeler thresholds.
type LabelingConfig struct {
	// MinRatingCount: an Original listing without an alert but with
	// fewer ratings than this is pseudo-labeled suspicious.
	MinRatingCount int `json:"minRatingCount"`
}

// TrainingConfig holds classifier training settings.
type TrainingConfig struct {
	TestFraction float64 `json:"testFraction"`
	Seed         int64   `json:"seed"`
	LearningRate float64 `json:"learningRate"`
	Epochs       int     `json:"epochs"`
}

// ScoringConfig holds scoring-run settings.
type ScoringConfig struct {
	// AlertRiskPct: scored rows at or above this risk percentage are
	// published as alert events on the bus.
	AlertRiskPct float64 `json:"alertRiskPct"`
}

// ServerConfig holds HTTP viewer settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Separator:       ",",
			ReportSeparator: ";",
		},
		Features: FeatureConfig{
			PriceAnomalyRatio:  0.5,
			CostPerPageFloor:   0.01,
			LowReputationFloor: 5,
		},
		Labeling: LabelingConfig{
			MinRatingCount: 3,
		},
		Training: TrainingConfig{
			TestFraction: 0.25,
			Seed:         42,
			LearningRate: 0.1,
			Epochs:       500,
		},
		Scoring: ScoringConfig{
			AlertRiskPct: 70.0,
		},
		Store: StoreConfig{
			Driver:     "sqlite",
			SQLitePath: "./caracara.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 1000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
