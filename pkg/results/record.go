// Package results persists flat trial records so the analysis layer can
// consume them independently of the process that produced them.
package results

import "time"

// Method identifies how a trial's best candidate was found.
const (
	MethodForgettingEngine = "forgetting_engine"
	MethodRandomSearch     = "random_search"
)

// TrialRecord is the flat per-trial record consumed by the statistics and
// reproducibility tooling. One record per (method, seed).
type TrialRecord struct {
	ExperimentID   string    `json:"experiment_id"`
	Domain         string    `json:"domain"`
	Method         string    `json:"method"`
	Seed           int64     `json:"seed"`
	BestFitness    float64   `json:"best_fitness"`
	BestComplexity int       `json:"best_complexity"`
	BestEncoding   []string  `json:"best_encoding"`
	ParadoxCount   int       `json:"paradox_count"`
	Generations    int       `json:"generations_completed"`
	CreatedAt      time.Time `json:"created_at"`

	// Checksum is the MD5 of the record's canonical JSON, excluding this
	// field. Filled in by the reproducibility layer.
	Checksum string `json:"checksum,omitempty"`
}
