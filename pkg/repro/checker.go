// Package repro verifies that archived trial results are reproducible:
// every record carries an MD5 checksum over its canonical JSON form, and a
// checker re-derives checksums and required fields across a seed sweep.
package repro

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CONEXUS-dev/research-validation/pkg/errors"
	"github.com/CONEXUS-dev/research-validation/pkg/results"
)

// Checksum computes the MD5 of a record's canonical JSON: keys sorted, the
// checksum field itself excluded. Round-tripping through a map gives the
// sorted-key form regardless of struct field order.
func Checksum(record results.TrialRecord) (string, error) {
	record.Checksum = ""

	data, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, errors.RecordMalformed, "record is not serializable")
	}

	var canonical map[string]interface{}
	if err := json.Unmarshal(data, &canonical); err != nil {
		return "", errors.Wrap(err, errors.RecordMalformed, "record is not valid JSON")
	}
	delete(canonical, "checksum")

	data, err = json.Marshal(canonical)
	if err != nil {
		return "", errors.Wrap(err, errors.RecordMalformed, "canonical form is not serializable")
	}

	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal fills in the record's checksum.
func Seal(record *results.TrialRecord) error {
	sum, err := Checksum(*record)
	if err != nil {
		return err
	}
	record.Checksum = sum
	return nil
}

// TrialPath is the on-disk location of one trial's archived record.
func TrialPath(dataDir, domain, method string, seed int64) string {
	return filepath.Join(dataDir, domain, method, fmt.Sprintf("seed_%d_results.json", seed))
}

// SaveTrial archives a sealed record under the data directory layout.
func SaveTrial(dataDir string, record results.TrialRecord) error {
	if record.Checksum == "" {
		if err := Seal(&record); err != nil {
			return err
		}
	}

	path := TrialPath(dataDir, record.Domain, record.Method, record.Seed)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to create data directory")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.RecordMalformed, "record is not serializable")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to write trial record")
	}
	return nil
}

// LoadTrial reads one archived record.
func LoadTrial(dataDir, domain, method string, seed int64) (results.TrialRecord, error) {
	path := TrialPath(dataDir, domain, method, seed)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return results.TrialRecord{}, errors.WithFields(
				errors.New(errors.ResourceNotFound, "trial record not found"),
				errors.Fields{"domain": domain, "seed": seed})
		}
		return results.TrialRecord{}, errors.Wrap(err, errors.StorageFailed, "failed to read trial record")
	}

	var record results.TrialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return results.TrialRecord{}, errors.Wrap(err, errors.RecordMalformed, "trial record is not valid JSON")
	}
	return record, nil
}

// Status values of a single-trial verification.
const (
	StatusVerified = "verified"
	StatusFailed   = "failed"
	StatusMissing  = "missing"
)

// TrialVerification is the outcome of verifying one archived trial.
type TrialVerification struct {
	Status        string  `json:"status"`
	Domain        string  `json:"domain"`
	Method        string  `json:"method"`
	Seed          int64   `json:"seed"`
	ChecksumValid bool    `json:"checksum_valid"`
	FieldsPresent bool    `json:"fields_present"`
	BestFitness   float64 `json:"best_fitness,omitempty"`
}

// VerifyRecord checks a loaded record's integrity: checksum match and the
// fields downstream statistics cannot do without.
func VerifyRecord(record results.TrialRecord) TrialVerification {
	v := TrialVerification{
		Domain:      record.Domain,
		Method:      record.Method,
		Seed:        record.Seed,
		BestFitness: record.BestFitness,
	}

	expected, err := Checksum(record)
	v.ChecksumValid = err == nil && record.Checksum != "" && expected == record.Checksum

	v.FieldsPresent = record.ExperimentID != "" &&
		record.Domain != "" &&
		record.Method != "" &&
		len(record.BestEncoding) > 0 &&
		record.BestFitness >= 0

	if v.ChecksumValid && v.FieldsPresent {
		v.Status = StatusVerified
	} else {
		v.Status = StatusFailed
	}
	return v
}

// DomainSummary aggregates verification over a seed sweep.
type DomainSummary struct {
	Domain              string              `json:"domain"`
	Method              string              `json:"method"`
	Verified            int                 `json:"verified"`
	Failed              int                 `json:"failed"`
	Missing             int                 `json:"missing"`
	ReproducibilityRate float64             `json:"reproducibility_rate"`
	Trials              []TrialVerification `json:"trials"`
}

// VerifyDomain verifies every seed of one (domain, method) arm under the
// data directory.
func VerifyDomain(dataDir, domain, method string, seeds []int64) DomainSummary {
	summary := DomainSummary{Domain: domain, Method: method}

	for _, seed := range seeds {
		record, err := LoadTrial(dataDir, domain, method, seed)
		if err != nil {
			status := StatusFailed
			if errors.Code(err) == errors.ResourceNotFound {
				status = StatusMissing
			}
			summary.Trials = append(summary.Trials, TrialVerification{
				Status: status, Domain: domain, Method: method, Seed: seed,
			})
			if status == StatusMissing {
				summary.Missing++
			} else {
				summary.Failed++
			}
			continue
		}

		v := VerifyRecord(record)
		summary.Trials = append(summary.Trials, v)
		if v.Status == StatusVerified {
			summary.Verified++
		} else {
			summary.Failed++
		}
	}

	if len(seeds) > 0 {
		summary.ReproducibilityRate = float64(summary.Verified) / float64(len(seeds))
	}
	return summary
}
