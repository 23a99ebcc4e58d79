// internal/judge/judge_test.go
package judge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecollab/codecollab/internal/executor"
	"github.com/codecollab/codecollab/internal/models"
)

// mockGateway replays a scripted sequence of results and records every call.
type mockGateway struct {
	mu      sync.Mutex
	calls   []executor.RunRequest
	results []executor.RunResult
	errs    []error
}

func (m *mockGateway) Run(ctx context.Context, req executor.RunRequest) (executor.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.calls)
	m.calls = append(m.calls, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return executor.RunResult{}, m.errs[i]
	}
	if i < len(m.results) {
		return m.results[i], nil
	}
	return executor.RunResult{}, nil
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func reverseProblem() *models.Problem {
	return &models.Problem{
		ID:          1,
		Title:       "Reverse a String",
		Description: "Return the string reversed.",
		TestCases: []models.TestCase{
			{Input: `"hello"`, ExpectedOutput: "olleh", IsHidden: true},
			{Input: `"world"`, ExpectedOutput: "dlrow", IsHidden: true},
			{Input: `""`, ExpectedOutput: "", IsHidden: true},
		},
	}
}

func TestSubmitAccepted(t *testing.T) {
	gw := &mockGateway{results: []executor.RunResult{
		{Stdout: "olleh\n"},
		{Stdout: "dlrow"},
		{Stdout: ""},
	}}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "def solve(s): return s[::-1]", reverseProblem())
	require.Equal(t, VerdictAccepted, res.Verdict)
	assert.Contains(t, res.Details, "3 test cases passed")
	assert.Equal(t, 3, gw.callCount())
}

func TestSubmitWrongAnswerShortCircuits(t *testing.T) {
	gw := &mockGateway{results: []executor.RunResult{
		{Stdout: "hello"},
		{Stdout: "dlrow"},
	}}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "def solve(s): return s", reverseProblem())
	require.Equal(t, VerdictWrongAnswer, res.Verdict)
	assert.Contains(t, res.Details, "test case 1")
	assert.Contains(t, res.Details, `"olleh"`)
	assert.Contains(t, res.Details, `"hello"`)

	// The gateway must be invoked exactly once: cases 2 and 3 never run.
	assert.Equal(t, 1, gw.callCount())
}

func TestSubmitRuntimeErrorShortCircuits(t *testing.T) {
	gw := &mockGateway{results: []executor.RunResult{
		{Stderr: "Traceback: NameError", ExitCode: 1},
	}}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "solve(", reverseProblem())
	require.Equal(t, VerdictRuntimeError, res.Verdict)
	assert.Contains(t, res.Details, "test case 1")
	assert.Contains(t, res.Details, "NameError")
	assert.Equal(t, 1, gw.callCount())
}

func TestSubmitTrimsOuterWhitespaceOnly(t *testing.T) {
	problem := &models.Problem{
		ID:    2,
		Title: "Echo",
		TestCases: []models.TestCase{
			{Input: "a", ExpectedOutput: "olleh"},
			{Input: "b", ExpectedOutput: "a b"},
		},
	}

	// Trailing newline is forgiven; collapsed internal whitespace is not.
	gw := &mockGateway{results: []executor.RunResult{
		{Stdout: "olleh\n"},
		{Stdout: "a  b"},
	}}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "code", problem)
	require.Equal(t, VerdictWrongAnswer, res.Verdict)
	assert.Contains(t, res.Details, "test case 2")
}

func TestSubmitNoProblem(t *testing.T) {
	gw := &mockGateway{}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "code", nil)
	require.Equal(t, VerdictError, res.Verdict)
	assert.Equal(t, 0, gw.callCount())
}

func TestSubmitNoTestCases(t *testing.T) {
	gw := &mockGateway{}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "code", &models.Problem{ID: 3, Title: "Empty"})
	require.Equal(t, VerdictError, res.Verdict)
	assert.Contains(t, res.Details, "no test cases")
	assert.Equal(t, 0, gw.callCount())
}

func TestSubmitGatewayFault(t *testing.T) {
	gw := &mockGateway{errs: []error{errors.New("execution gateway unavailable: connection refused")}}
	eng := NewEngine(gw)

	res := eng.Submit(context.Background(), "python", "code", reverseProblem())
	require.Equal(t, VerdictError, res.Verdict)
	assert.Contains(t, res.Details, "test case 1")
	assert.Equal(t, 1, gw.callCount())
}

func TestRunPassesThroughOutput(t *testing.T) {
	gw := &mockGateway{results: []executor.RunResult{
		{Stdout: "42\n", Stderr: ""},
	}}
	eng := NewEngine(gw)

	res := eng.Run(context.Background(), "python", "print(42)", "")
	assert.Equal(t, "42\n", res.Output)
	assert.Empty(t, res.Error)
	require.Equal(t, 1, gw.callCount())
	assert.Equal(t, "python", gw.calls[0].Language)
}

func TestRunSurfacesGatewayFault(t *testing.T) {
	gw := &mockGateway{errs: []error{errors.New("timeout")}}
	eng := NewEngine(gw)

	res := eng.Run(context.Background(), "python", "print(42)", "")
	assert.Empty(t, res.Output)
	assert.Contains(t, res.Error, "timeout")
}
