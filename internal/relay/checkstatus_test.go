package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/threadrelay/threadrelay/internal/githubclt"
)

func TestAggregateCheckRuns(t *testing.T) {
	testcases := []struct {
		name     string
		result   githubclt.CheckRunsResult
		expected CheckSummary
	}{
		{
			name:     "Empty",
			result:   githubclt.CheckRunsResult{},
			expected: CheckSummary{},
		},
		{
			name: "AllPassed",
			result: githubclt.CheckRunsResult{
				Total: 2,
				Runs: []githubclt.CheckRun{
					{Status: "completed", Conclusion: "success"},
					{Status: "completed", Conclusion: "success"},
				},
			},
			expected: CheckSummary{Total: 2, Success: 2},
		},
		{
			name: "Mixed",
			result: githubclt.CheckRunsResult{
				Total: 4,
				Runs: []githubclt.CheckRun{
					{Status: "completed", Conclusion: "success"},
					{Status: "completed", Conclusion: "failure"},
					{Status: "completed", Conclusion: "timed_out"},
					{Status: "in_progress"},
				},
			},
			expected: CheckSummary{Total: 4, Pending: 1, Success: 1, Failure: 2},
		},
		{
			name: "UnrecognizedStatusCountsAsPending",
			result: githubclt.CheckRunsResult{
				Total: 1,
				Runs:  []githubclt.CheckRun{{Status: "somethingelse"}},
			},
			expected: CheckSummary{Total: 1, Pending: 1},
		},
		{
			name: "QueuedCountsAsPending",
			result: githubclt.CheckRunsResult{
				Total: 1,
				Runs:  []githubclt.CheckRun{{Status: "queued"}},
			},
			expected: CheckSummary{Total: 1, Pending: 1},
		},
		{
			name: "MissingRunsCountAsPending",
			result: githubclt.CheckRunsResult{
				Total: 3,
				Runs:  []githubclt.CheckRun{{Status: "completed", Conclusion: "success"}},
			},
			expected: CheckSummary{Total: 3, Pending: 2, Success: 1},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			summary := AggregateCheckRuns(&tc.result)

			assert.Equal(t, &tc.expected, summary)
			assert.Equal(t, summary.Total, summary.Pending+summary.Success+summary.Failure)
		})
	}
}
