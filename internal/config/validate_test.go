package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validRun() Run {
	r := Defaults()
	r.Source = Endpoint{Kind: "mssql", DSN: "sales"}
	r.Target = Endpoint{Kind: "postgres", DSN: "sales"}
	return r
}

func TestValidate_ValidRunHasNoIssues(t *testing.T) {
	t.Parallel()

	if issues := Validate(validRun()); len(issues) != 0 {
		t.Fatalf("Validate() = %v, want no issues", issues)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *Run)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(r *Run) { r.Job = " " }, SeverityError, "job", "must not be empty"},
		{"missing source kind", func(r *Run) { r.Source.Kind = "" }, SeverityError, "source.kind", "must not be empty"},
		{"unknown target kind", func(r *Run) { r.Target.Kind = "oracle" }, SeverityError, "target.kind", `unknown kind "oracle"`},
		{"missing target dsn", func(r *Run) { r.Target.DSN = "" }, SeverityError, "target.dsn", "must not be empty"},
		{"password in file", func(r *Run) { r.Source.Password = "x" }, SeverityWarning, "source.password", "prefer environment"},
		{"bad style", func(r *Run) { r.Mapping.Style = "camel" }, SeverityError, "mapping.style", "none, dialect, custom"},
		{"bad casing", func(r *Run) { r.Mapping = Mapping{Style: "custom", Casing: "title"} }, SeverityError, "mapping.casing", "unchanged, lower, upper"},
		{"empty pattern", func(r *Run) { r.Mapping.ExcludeTables = []string{""} }, SeverityWarning, "mapping.exclude[0]", "ignored"},
		{"zero batch", func(r *Run) { r.Load.BatchSize = 0 }, SeverityWarning, "load.batch_size", "default of 10000"},
		{"unknown metrics", func(r *Run) { r.Metrics.Backend = "graphite" }, SeverityError, "metrics.backend", "none, prometheus, datadog"},
		{"metrics without addr", func(r *Run) { r.Metrics.Backend = "datadog" }, SeverityError, "metrics.addr", `backend "datadog"`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := validRun()
			tt.mutate(&r)
			issues := Validate(r)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("Validate() = %v, want %s at %s containing %q", issues, tt.sev, tt.path, tt.msg)
			}
			if got, want := HasErrors(issues), tt.sev == SeverityError; got != want {
				t.Fatalf("HasErrors() = %v, want %v", got, want)
			}
		})
	}
}

func TestValidate_AliasKinds(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Source.Kind = "sqlserver"
	r.Target.Kind = "PG"
	if issues := Validate(r); HasErrors(issues) {
		t.Fatalf("Validate() = %v, want aliases accepted", issues)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "target.kind", Message: "bad"}
	if got, want := iss.Error(), "error at target.kind: bad"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
