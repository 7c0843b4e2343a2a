package stats

import (
	"math"
	"sort"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
)

// Alternative selects the tail of a hypothesis test.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Greater  Alternative = "greater"
	Less     Alternative = "less"
)

// EffectSize is Cohen's d with its 95% confidence interval and the
// conventional interpretation band.
type EffectSize struct {
	CohensD        float64 `json:"cohens_d"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
	Interpretation string  `json:"interpretation"`
}

// TestResult captures the outcome of a two-sample test.
type TestResult struct {
	TestName    string     `json:"test_name"`
	Statistic   float64    `json:"statistic"`
	PValue      float64    `json:"p_value"`
	Significant bool       `json:"significant"`
	EffectSize  EffectSize `json:"effect_size"`
	Power       float64    `json:"power"`
	N1          int        `json:"n1"`
	N2          int        `json:"n2"`

	// CorrectedPValue is filled in after multiple-testing correction.
	CorrectedPValue      float64 `json:"corrected_p_value,omitempty"`
	SignificantCorrected bool    `json:"significant_corrected,omitempty"`
}

// CohenEffectSize computes Cohen's d between two groups, with a normal
// approximation confidence interval.
func CohenEffectSize(group1, group2 []float64) EffectSize {
	n1, n2 := float64(len(group1)), float64(len(group2))
	mean1, mean2 := Mean(group1), Mean(group2)
	std1, std2 := StdDev(group1), StdDev(group2)

	pooled := math.Sqrt(((n1-1)*std1*std1 + (n2-1)*std2*std2) / (n1 + n2 - 2))

	var d float64
	if pooled > 0 {
		d = (mean1 - mean2) / pooled
	}

	se := math.Sqrt((n1+n2)/(n1*n2) + d*d/(2*(n1+n2)))

	return EffectSize{
		CohensD:        d,
		CILower:        d - 1.96*se,
		CIUpper:        d + 1.96*se,
		Interpretation: interpretEffectSize(math.Abs(d)),
	}
}

func interpretEffectSize(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	case d < 1.2:
		return "large"
	case d < 2.0:
		return "very large"
	default:
		return "reality-defying"
	}
}

// MannWhitneyU performs the Mann-Whitney U test with a tie-corrected normal
// approximation. The statistic is U of the first sample.
func MannWhitneyU(group1, group2 []float64, alternative Alternative) (float64, float64, error) {
	n1, n2 := len(group1), len(group2)
	if n1 == 0 || n2 == 0 {
		return 0, 0, errors.New(errors.ValidationFailed, "both samples must be non-empty")
	}

	type tagged struct {
		value float64
		group int
	}
	combined := make([]tagged, 0, n1+n2)
	for _, v := range group1 {
		combined = append(combined, tagged{v, 1})
	}
	for _, v := range group2 {
		combined = append(combined, tagged{v, 2})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].value < combined[j].value })

	// Average ranks over ties; accumulate the tie correction term.
	ranks := make([]float64, len(combined))
	var tieTerm float64
	for i := 0; i < len(combined); {
		j := i
		for j < len(combined) && combined[j].value == combined[i].value {
			j++
		}
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[k] = avgRank
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}

	var r1 float64
	for i, item := range combined {
		if item.group == 1 {
			r1 += ranks[i]
		}
	}

	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2

	mu := fn1 * fn2 / 2
	n := fn1 + fn2
	variance := fn1 * fn2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		// All observations identical; no evidence either way.
		return u1, 1, nil
	}
	sigma := math.Sqrt(variance)

	var p float64
	switch alternative {
	case Greater:
		z := (u1 - mu - 0.5) / sigma
		p = 1 - NormCDF(z)
	case Less:
		z := (u1 - mu + 0.5) / sigma
		p = NormCDF(z)
	default:
		z := (math.Abs(u1-mu) - 0.5) / sigma
		p = 2 * (1 - NormCDF(z))
		if p > 1 {
			p = 1
		}
	}

	return u1, p, nil
}

// WelchT performs Welch's unequal-variance t-test (two-sided).
func WelchT(group1, group2 []float64) (float64, float64, error) {
	n1, n2 := float64(len(group1)), float64(len(group2))
	if n1 < 2 || n2 < 2 {
		return 0, 0, errors.New(errors.ValidationFailed, "both samples need at least 2 observations")
	}

	mean1, mean2 := Mean(group1), Mean(group2)
	var1 := StdDev(group1) * StdDev(group1)
	var2 := StdDev(group2) * StdDev(group2)

	se := math.Sqrt(var1/n1 + var2/n2)
	if se == 0 {
		return 0, 1, nil
	}
	t := (mean1 - mean2) / se

	// Welch-Satterthwaite degrees of freedom.
	num := (var1/n1 + var2/n2) * (var1/n1 + var2/n2)
	den := var1*var1/(n1*n1*(n1-1)) + var2*var2/(n2*n2*(n2-1))
	df := num / den

	p := 2 * (1 - StudentTCDF(math.Abs(t), df))
	if p > 1 {
		p = 1
	}
	return t, p, nil
}

// ProportionResult captures a two-proportion z-test.
type ProportionResult struct {
	TestName    string  `json:"test_name"`
	ZStatistic  float64 `json:"z_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	P1          float64 `json:"p1"`
	P2          float64 `json:"p2"`
	CohensH     float64 `json:"cohens_h"`
	OddsRatio   float64 `json:"odds_ratio"`
	N1          int     `json:"n1"`
	N2          int     `json:"n2"`
}

// ProportionTest performs a two-proportion z-test with Cohen's h and the
// odds ratio as effect measures.
func ProportionTest(successes1, n1, successes2, n2 int, alpha float64) (ProportionResult, error) {
	if n1 <= 0 || n2 <= 0 {
		return ProportionResult{}, errors.New(errors.ValidationFailed, "sample sizes must be positive")
	}

	p1 := float64(successes1) / float64(n1)
	p2 := float64(successes2) / float64(n2)
	pooled := float64(successes1+successes2) / float64(n1+n2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	var z float64
	if se > 0 {
		z = (p1 - p2) / se
	}

	p := 2 * (1 - NormCDF(math.Abs(z)))

	h := 2*math.Asin(math.Sqrt(p1)) - 2*math.Asin(math.Sqrt(p2))

	odds := math.Inf(1)
	if p1 < 1 && p2 > 0 && p2 < 1 {
		odds = (p1 / (1 - p1)) / (p2 / (1 - p2))
	}

	return ProportionResult{
		TestName:    "Two-proportion z-test",
		ZStatistic:  z,
		PValue:      p,
		Significant: p < alpha,
		P1:          p1,
		P2:          p2,
		CohensH:     h,
		OddsRatio:   odds,
		N1:          n1,
		N2:          n2,
	}, nil
}

// Power approximates the statistical power of a two-sample comparison at
// the given effect size and significance level.
func Power(n1, n2 int, effectSize, alpha float64) float64 {
	if n1 <= 0 || n2 <= 0 {
		return 0
	}
	nHarmonic := 2 * float64(n1) * float64(n2) / float64(n1+n2)
	ncp := effectSize * math.Sqrt(nHarmonic/2)

	zCritical := NormPPF(1 - alpha/2)

	power := 1 - NormCDF(zCritical-ncp) + NormCDF(-zCritical-ncp)
	return math.Max(0, math.Min(1, power))
}
