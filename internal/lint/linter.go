// Package lint validates diagram specifications before rendering.
//
// Each rule has a stable ID so lint findings can be fed back to the model
// during repair cycles.
package lint

import (
	archsketch "github.com/archsketch/archsketch"
)

// Severity classifies a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single lint finding.
type Issue struct {
	// Rule is the rule ID (e.g. "ASK002").
	Rule string `json:"rule"`
	// Message describes the problem.
	Message string `json:"message"`
	// Suggestion proposes a fix, when one is obvious.
	Suggestion string `json:"suggestion,omitempty"`
	// Severity is error, warning or info.
	Severity Severity `json:"severity"`
}

// Result contains the outcome of linting a spec.
type Result struct {
	Success bool    `json:"success"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Errors returns only the error-severity issues.
func (r Result) Errors() []Issue {
	var errs []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Rule checks one property of a diagram spec.
type Rule interface {
	// ID returns the stable rule identifier.
	ID() string
	// Description returns a short human-readable summary.
	Description() string
	// Check returns the issues found in the spec.
	Check(spec *archsketch.DiagramSpec) []Issue
}

// Options configures the linter.
type Options struct {
	// EnabledRules limits linting to the listed rule IDs. Empty enables all.
	EnabledRules []string
}

// Lint runs all enabled rules against the spec. Success means no
// error-severity issues; warnings and infos do not fail the spec.
func Lint(spec *archsketch.DiagramSpec, opts Options) Result {
	var issues []Issue
	for _, rule := range getRules(opts) {
		issues = append(issues, rule.Check(spec)...)
	}

	success := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			success = false
			break
		}
	}

	return Result{Success: success, Issues: issues}
}

// AllRules returns every registered rule.
func AllRules() []Rule {
	return []Rule{
		DuplicateNodeID{},
		UnknownEdgeEndpoint{},
		EmptyDiagram{},
		UnknownCluster{},
		SelfEdge{},
		UnreferencedNode{},
		LongLabel{},
		DuplicateEdge{},
		InvalidDirection{},
	}
}

func getRules(opts Options) []Rule {
	all := AllRules()
	if len(opts.EnabledRules) == 0 {
		return all
	}

	enabled := make(map[string]bool, len(opts.EnabledRules))
	for _, id := range opts.EnabledRules {
		enabled[id] = true
	}

	var rules []Rule
	for _, rule := range all {
		if enabled[rule.ID()] {
			rules = append(rules, rule)
		}
	}
	return rules
}
