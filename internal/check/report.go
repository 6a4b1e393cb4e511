package check

import (
	"fmt"
	"sort"
	"strings"
)

// Exit codes for check results.
const (
	// ExitCodeSuccess indicates all checks passed.
	ExitCodeSuccess = 0
	// ExitCodeFailure indicates one or more checks failed or a workflow could not run.
	ExitCodeFailure = 2
)

// ScenarioSummary aggregates the checks of one scenario.
type ScenarioSummary struct {
	Name    string
	Passed  int
	Failed  int
	Reasons map[Reason]int
}

// Report holds the results of one or more iterations.
type Report struct {
	Results     []Result
	Scenarios   []ScenarioSummary
	PassedCount int
	FailedCount int
	TotalCount  int
	AllPassed   bool
}

// NewReport computes totals and per-scenario summaries.
func NewReport(results []Result) *Report {
	rep := &Report{Results: results, TotalCount: len(results)}
	byName := make(map[string]*ScenarioSummary)
	var order []string

	for _, res := range results {
		s, ok := byName[res.Scenario]
		if !ok {
			s = &ScenarioSummary{Name: res.Scenario, Reasons: make(map[Reason]int)}
			byName[res.Scenario] = s
			order = append(order, res.Scenario)
		}
		if res.Passed {
			rep.PassedCount++
			s.Passed++
		} else {
			rep.FailedCount++
			s.Failed++
			s.Reasons[res.Reason]++
		}
	}
	for _, name := range order {
		rep.Scenarios = append(rep.Scenarios, *byName[name])
	}
	rep.AllPassed = rep.FailedCount == 0
	return rep
}

// Merge folds several reports into one.
func Merge(reports ...*Report) *Report {
	var results []Result
	for _, r := range reports {
		if r != nil {
			results = append(results, r.Results...)
		}
	}
	return NewReport(results)
}

// FailedResults returns only the failed results.
func (r *Report) FailedResults() []Result {
	failed := make([]Result, 0, r.FailedCount)
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// PassedResults returns only the passed results.
func (r *Report) PassedResults() []Result {
	passed := make([]Result, 0, r.PassedCount)
	for _, res := range r.Results {
		if res.Passed {
			passed = append(passed, res)
		}
	}
	return passed
}

// Summary returns a one-line summary.
func (r *Report) Summary() string {
	if r.TotalCount == 0 {
		return "No checks recorded"
	}
	s := fmt.Sprintf("Checks: %d/%d passed", r.PassedCount, r.TotalCount)
	if r.FailedCount > 0 {
		s += fmt.Sprintf(" (%d FAILED)", r.FailedCount)
	}
	return s
}

// ExitCode maps the report to a process exit code.
func (r *Report) ExitCode() int {
	if r.AllPassed {
		return ExitCodeSuccess
	}
	return ExitCodeFailure
}

const (
	heavyRule = "═══════════════════════════════════════════════════════════════════════════════\n"
	lightRule = "───────────────────────────────────────────────────────────────────────────────\n"
)

// FormatReport renders the report for the console.
func FormatReport(r *Report, verbose bool) string {
	if r == nil || r.TotalCount == 0 {
		return "No checks recorded"
	}

	var sb strings.Builder
	sb.WriteString(heavyRule)
	sb.WriteString("                                CHECK RESULTS\n")
	sb.WriteString(heavyRule + "\n")

	if r.AllPassed {
		fmt.Fprintf(&sb, "✓ All %d checks PASSED\n\n", r.TotalCount)
	} else {
		fmt.Fprintf(&sb, "✗ %d/%d checks FAILED\n\n", r.FailedCount, r.TotalCount)
	}

	sb.WriteString("SCENARIOS:\n")
	sb.WriteString(lightRule)
	for _, s := range r.Scenarios {
		name := s.Name
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(&sb, "  %-40s %5d passed %5d failed%s\n", name, s.Passed, s.Failed, formatReasons(s.Reasons))
	}
	sb.WriteString("\n")

	if r.FailedCount > 0 {
		sb.WriteString("FAILED CHECKS:\n")
		sb.WriteString(lightRule)
		for _, res := range r.FailedResults() {
			fmt.Fprintf(&sb, "  ✗ %s / %s [%s]\n", res.Scenario, res.Name, res.Reason)
			fmt.Fprintf(&sb, "    Expected:    %s\n", res.Expected)
			fmt.Fprintf(&sb, "    Actual:      %s\n", res.Actual)
			if res.Detail != "" {
				fmt.Fprintf(&sb, "    Detail:      %s\n", res.Detail)
			}
			if res.Iteration != "" {
				fmt.Fprintf(&sb, "    Iteration:   %s\n", res.Iteration)
			}
			sb.WriteString("\n")
		}
	}

	if verbose && r.PassedCount > 0 {
		sb.WriteString("PASSED CHECKS:\n")
		sb.WriteString(lightRule)
		for _, res := range r.PassedResults() {
			fmt.Fprintf(&sb, "  ✓ %s / %s\n", res.Scenario, res.Name)
		}
	}

	sb.WriteString(heavyRule)
	return sb.String()
}

func formatReasons(reasons map[Reason]int) string {
	if len(reasons) == 0 {
		return ""
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, reasons[Reason(k)]))
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}
