// Package reval implements a reproducible validation pipeline for the
// forgetting-engine architecture search.
//
// The forgetting engine evolves a population of layer-sequence encodings by
// eliminating the worst-scoring fraction each generation and refilling from
// mutated survivors. Candidates that score poorly overall but are unusually
// cheap are "paradoxical": they enter a rescue buffer and can be re-admitted
// in later generations, preserving low-complexity lineages that plain
// elimination would discard.
//
// The pipeline compares the engine against a random-search baseline under
// matched seeds and evaluation budgets, and validates the comparison with the
// statistics a reviewer would ask for:
//
//   - Search: the generic population engine and candidate space
//     (pkg/search), plus the neural-architecture domain that instantiates it
//     (pkg/nas).
//
//   - Experiment: seeded concurrent trial sweeps for both methods
//     (pkg/experiment), configured from YAML (pkg/config).
//
//   - Persistence: checksummed per-seed JSON archives (pkg/repro) and a
//     SQLite results database (pkg/results).
//
//   - Analysis: effect sizes, significance tests with multiple-testing
//     correction, bootstrap intervals, and power (pkg/stats), assembled into
//     a validation report (pkg/report).
//
// The revalctl command under cmd/revalctl drives runs and verifies archives.
// Every trial is fully determined by its seed, so any archived result can be
// regenerated and checked bit for bit.
package reval
