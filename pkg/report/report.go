// Package report assembles the cross-domain validation report: corrected
// per-domain statistics, an aggregate summary, and JSON/text renderings for
// the downstream review process.
package report

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
	"github.com/CONEXUS-dev/research-validation/pkg/stats"
)

// Report is the complete validation report for one experiment.
type Report struct {
	ExperimentID      string                          `json:"experiment_id"`
	GeneratedAt       time.Time                       `json:"generated_at"`
	SignificanceLevel float64                         `json:"significance_level"`
	CorrectionMethod  string                          `json:"correction_method"`
	Domains           map[string]stats.DomainAnalysis `json:"domain_results"`
	Summary           Summary                         `json:"summary_statistics"`
}

// Summary aggregates the per-domain tests after correction.
type Summary struct {
	DomainsAnalyzed      int     `json:"domains_analyzed"`
	SignificantDomains   int     `json:"significant_domains"`
	AverageEffectSize    float64 `json:"average_effect_size"`
	MinEffectSize        float64 `json:"min_effect_size"`
	MaxEffectSize        float64 `json:"max_effect_size"`
	MeanPower            float64 `json:"mean_power"`
	UniversalSuperiority bool    `json:"universal_superiority"`
}

// Build applies the validator's multiple-testing correction across domains
// and assembles the report. Domains are processed in name order so corrected
// p-values are assigned deterministically.
func Build(experimentID string, validator *stats.Validator, domains map[string]stats.DomainAnalysis) (*Report, error) {
	if len(domains) == 0 {
		return nil, errors.New(errors.ValidationFailed, "no domain results to report")
	}

	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	sort.Strings(names)

	pValues := make([]float64, len(names))
	for i, name := range names {
		pValues[i] = domains[name].Test.PValue
	}
	corrected := validator.CorrectPValues(pValues)

	report := &Report{
		ExperimentID:      experimentID,
		GeneratedAt:       time.Now().UTC(),
		SignificanceLevel: validator.SignificanceLevel,
		CorrectionMethod:  string(validator.Correction),
		Domains:           make(map[string]stats.DomainAnalysis, len(domains)),
	}

	summary := Summary{
		DomainsAnalyzed:      len(names),
		MinEffectSize:        math.Inf(1),
		MaxEffectSize:        math.Inf(-1),
		UniversalSuperiority: true,
	}

	var effectSum, powerSum float64
	for i, name := range names {
		analysis := domains[name]
		analysis.Test.CorrectedPValue = corrected[i]
		analysis.Test.SignificantCorrected = corrected[i] < validator.SignificanceLevel
		report.Domains[name] = analysis

		effect := math.Abs(analysis.Test.EffectSize.CohensD)
		effectSum += effect
		powerSum += analysis.Test.Power
		summary.MinEffectSize = math.Min(summary.MinEffectSize, effect)
		summary.MaxEffectSize = math.Max(summary.MaxEffectSize, effect)

		if analysis.Test.SignificantCorrected {
			summary.SignificantDomains++
		} else {
			summary.UniversalSuperiority = false
		}
	}
	summary.AverageEffectSize = effectSum / float64(len(names))
	summary.MeanPower = powerSum / float64(len(names))
	report.Summary = summary

	return report, nil
}

// WriteJSON writes the report to path, indented for human diffing.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.RecordMalformed, "report is not serializable")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to write report")
	}
	return nil
}

// Render writes a human-readable summary. Large counts are grouped per the
// English locale so parameter budgets stay readable.
func (r *Report) Render(w io.Writer) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "Validation report %s (generated %s)\n",
		r.ExperimentID, r.GeneratedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	p.Fprintf(w, "Significance level %.3f, correction: %s\n\n",
		r.SignificanceLevel, r.CorrectionMethod)

	names := make([]string, 0, len(r.Domains))
	for name := range r.Domains {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := r.Domains[name]
		p.Fprintf(w, "%s\n", name)
		p.Fprintf(w, "  engine:   mean=%.4f std=%.4f n=%d\n", a.Engine.Mean, a.Engine.Std, a.Engine.N)
		p.Fprintf(w, "  baseline: mean=%.4f std=%.4f n=%d\n", a.Baseline.Mean, a.Baseline.Std, a.Baseline.N)
		p.Fprintf(w, "  improvement: %+.2f%%\n", a.ImprovementPct)
		p.Fprintf(w, "  %s: statistic=%.4f p=%.2e corrected_p=%.2e\n",
			a.Test.TestName, a.Test.Statistic, a.Test.PValue, a.Test.CorrectedPValue)
		p.Fprintf(w, "  effect size: d=%.2f (%s), power=%.2f\n\n",
			a.Test.EffectSize.CohensD, a.Test.EffectSize.Interpretation, a.Test.Power)
	}

	p.Fprintf(w, "Summary: %d/%d domains significant after correction, mean |d|=%.2f, mean power=%.2f\n",
		r.Summary.SignificantDomains, r.Summary.DomainsAnalyzed,
		r.Summary.AverageEffectSize, r.Summary.MeanPower)
	if r.Summary.UniversalSuperiority {
		p.Fprintf(w, "Universal superiority: every domain improved significantly\n")
	}
	return nil
}
