package logging

// LogEntry represents a structured log record with fields particularly
// relevant to search experiments and validation runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Experiment-specific fields
	ExperimentID string // The experiment this record belongs to
	Domain       string // Search domain under validation
	Seed         int64  // Trial seed, when logged inside a trial

	// General structured data
	Fields map[string]interface{}
}
