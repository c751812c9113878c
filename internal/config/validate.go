package config

import (
	"fmt"
	"strings"

	"dbetl/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the run
// file, e.g. "target.kind".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks of a run file. It does not connect to
// anything. Backend kinds are checked against the storage registry, so
// callers must import the backends first.
func Validate(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateEndpoint("source", r.Source)...)
	issues = append(issues, validateEndpoint("target", r.Target)...)
	issues = append(issues, validateMapping(r.Mapping)...)
	issues = append(issues, validateLoad(r.Load)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	return issues
}

func validateEndpoint(path string, e Endpoint) []Issue {
	var issues []Issue
	if strings.TrimSpace(e.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
	} else if _, ok := storage.Canonical(e.Kind); !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown kind %q (registered: %s)", e.Kind, strings.Join(storage.Kinds(), ", ")),
		})
	}
	if strings.TrimSpace(e.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".dsn",
			Message:  path + ".dsn must not be empty",
		})
	}
	if e.Password != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".password",
			Message:  "password stored in the run file; prefer environment credentials",
		})
	}
	return issues
}

func validateMapping(m Mapping) []Issue {
	var issues []Issue
	switch strings.ToLower(m.Style) {
	case "", "none", "dialect":
	case "custom":
		switch strings.ToLower(m.Casing) {
		case "", "unchanged", "lower", "lowercase", "upper", "uppercase":
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "mapping.casing",
				Message:  fmt.Sprintf("casing %q must be one of: unchanged, lower, upper", m.Casing),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mapping.style",
			Message:  fmt.Sprintf("style %q must be one of: none, dialect, custom", m.Style),
		})
	}
	for i, p := range append(append([]string(nil), m.ExcludeTables...), m.ExcludeColumns...) {
		if strings.TrimSpace(p) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("mapping.exclude[%d]", i),
				Message:  "empty exclusion pattern is ignored",
			})
		}
	}
	return issues
}

func validateLoad(l LoadOptions) []Issue {
	if l.BatchSize > 0 {
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "load.batch_size",
		Message:  fmt.Sprintf("batch_size=%d; the default of %d is used", l.BatchSize, storage.DefaultBatchSize),
	}}
}

func validateMetrics(m Metrics) []Issue {
	switch strings.ToLower(m.Backend) {
	case "", "none":
		return nil
	case "prometheus", "datadog":
		if strings.TrimSpace(m.Addr) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.addr",
				Message:  fmt.Sprintf("metrics.addr is required for backend %q", m.Backend),
			}}
		}
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Path:     "metrics.backend",
		Message:  fmt.Sprintf("backend %q must be one of: none, prometheus, datadog", m.Backend),
	}}
}
