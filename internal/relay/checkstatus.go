package relay

import "github.com/threadrelay/threadrelay/internal/githubclt"

// CheckSummary is the aggregated result of all check runs for a commit.
// Pending, Success and Failure always sum up to Total.
type CheckSummary struct {
	Total   int
	Pending int
	Success int
	Failure int
}

// Done reports whether no check run is still pending.
func (s *CheckSummary) Done() bool {
	return s.Pending == 0
}

// AggregateCheckRuns summarizes check runs.
// A run counts as succeeded when it completed with the "success" conclusion,
// as failed when it completed with any other conclusion, and as pending
// otherwise. Runs that the API reported in the total but did not return are
// counted as pending.
func AggregateCheckRuns(result *githubclt.CheckRunsResult) *CheckSummary {
	summary := CheckSummary{Total: result.Total}

	for _, run := range result.Runs {
		if run.Status != "completed" {
			summary.Pending++
			continue
		}

		if run.Conclusion == "success" {
			summary.Success++
			continue
		}

		summary.Failure++
	}

	if missing := summary.Total - len(result.Runs); missing > 0 {
		summary.Pending += missing
	}

	return &summary
}
