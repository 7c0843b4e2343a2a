// Package config loads and validates the YAML configuration of a validation
// experiment.
package config

// Config represents the complete configuration for one validation run.
type Config struct {
	// Experiment identity and trial layout
	Experiment ExperimentConfig `yaml:"experiment" validate:"required"`

	// Search engine hyperparameters
	Search SearchConfig `yaml:"search,omitempty"`

	// Statistical validation protocol
	Stats StatsConfig `yaml:"stats,omitempty"`

	// Output locations
	Output OutputConfig `yaml:"output,omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ExperimentConfig describes the trial sweep.
type ExperimentConfig struct {
	// Name labels reports and database rows.
	Name string `yaml:"name" validate:"required"`

	// Domain selects the candidate space (neural_architecture is the
	// reference domain).
	Domain string `yaml:"domain" validate:"required"`

	// Trials per arm: the engine and the baseline each run this many times.
	Trials int `yaml:"trials" validate:"min=1"`

	// SeedBase: trial i uses seed SeedBase+i.
	SeedBase int64 `yaml:"seed_base"`

	// BaselineEvals is the random-search budget per baseline trial.
	BaselineEvals int `yaml:"baseline_evals" validate:"min=1"`

	// MaxConcurrentTrials bounds the trial worker pool.
	MaxConcurrentTrials int `yaml:"max_concurrent_trials" validate:"min=1"`
}

// SearchConfig mirrors the engine hyperparameters.
type SearchConfig struct {
	PopSize           int     `yaml:"pop_size" validate:"min=1"`
	Generations       int     `yaml:"generations" validate:"min=0"`
	ForgetRate        float64 `yaml:"forget_rate" validate:"gte=0,lt=1"`
	ParadoxRate       float64 `yaml:"paradox_rate" validate:"gt=0,lte=1"`
	RescueProbability float64 `yaml:"rescue_probability" validate:"gte=0,lte=1"`
	MaxGoroutines     int     `yaml:"max_goroutines" validate:"min=1"`
}

// StatsConfig selects the validation protocol.
type StatsConfig struct {
	SignificanceLevel float64 `yaml:"significance_level" validate:"gt=0,lt=1"`
	Correction        string  `yaml:"correction" validate:"oneof=bonferroni fdr none"`
}

// OutputConfig names the artifacts a run produces.
type OutputConfig struct {
	// DataDir holds the per-seed JSON records the reproducibility checker
	// consumes.
	DataDir string `yaml:"data_dir"`

	// DatabasePath is the SQLite results archive.
	DatabasePath string `yaml:"database_path"`

	// ReportPath is where the JSON validation report is written.
	ReportPath string `yaml:"report_path"`
}

// LoggingConfig configures the run's logger.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Default returns the reference experiment configuration: the published
// CIFAR-10 architecture sweep.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			Name:                "nas-validation",
			Domain:              "neural_architecture",
			Trials:              10,
			SeedBase:            6000,
			BaselineEvals:       500,
			MaxConcurrentTrials: 4,
		},
		Search: SearchConfig{
			PopSize:           50,
			Generations:       100,
			ForgetRate:        0.35,
			ParadoxRate:       0.15,
			RescueProbability: 0.2,
			MaxGoroutines:     4,
		},
		Stats: StatsConfig{
			SignificanceLevel: 0.05,
			Correction:        "bonferroni",
		},
		Output: OutputConfig{
			DataDir:      "data",
			DatabasePath: "results.db",
			ReportPath:   "validation_report.json",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

