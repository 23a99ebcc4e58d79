// internal/judge/judge.go
package judge

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/executor"
	"github.com/codecollab/codecollab/internal/models"
)

// Verdict classifies the outcome of a submission.
type Verdict string

const (
	VerdictAccepted     Verdict = "Accepted"
	VerdictWrongAnswer  Verdict = "WrongAnswer"
	VerdictRuntimeError Verdict = "RuntimeError"
	VerdictError        Verdict = "Error"
)

// Result pairs a verdict with a human-readable detail string. Details name
// the 1-based failing test index where one exists.
type Result struct {
	Verdict Verdict `json:"verdict"`
	Details string  `json:"details"`
}

// ExecutionResult is the outcome of a free-form run: raw output and error
// text, with no pass/fail judgment.
type ExecutionResult struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// Engine drives the execution gateway across an ordered list of test cases
// to produce exactly one verdict per submission.
type Engine struct {
	gateway executor.Gateway
}

func NewEngine(gw executor.Gateway) *Engine {
	return &Engine{gateway: gw}
}

// Run executes code once with optional free-form stdin and returns the raw
// result. A gateway fault is folded into the error field rather than
// returned: the caller broadcasts whatever happened.
func (e *Engine) Run(ctx context.Context, language, code, stdin string) ExecutionResult {
	res, err := e.gateway.Run(ctx, executor.RunRequest{
		Language: language,
		Code:     code,
		Stdin:    stdin,
	})
	if err != nil {
		log.Warnf("judge: run failed: %v", err)
		return ExecutionResult{Error: err.Error()}
	}
	return ExecutionResult{Output: res.Stdout, Error: res.Stderr}
}

// Submit judges code against the problem's test cases in their fixed order,
// short-circuiting at the first failure. Cases are never reordered or run in
// parallel: latency scales with the case count, in exchange for
// deterministic first-failure reporting.
func (e *Engine) Submit(ctx context.Context, language, code string, problem *models.Problem) Result {
	if problem == nil {
		return Result{
			Verdict: VerdictError,
			Details: "no problem is loaded in this room",
		}
	}
	if len(problem.TestCases) == 0 {
		return Result{
			Verdict: VerdictError,
			Details: fmt.Sprintf("problem %q has no test cases", problem.Title),
		}
	}

	for i, tc := range problem.TestCases {
		res, err := e.gateway.Run(ctx, executor.RunRequest{
			Language: language,
			Code:     code,
			Stdin:    tc.Input,
		})
		if err != nil {
			// Infrastructure fault, not the submission's fault.
			log.Warnf("judge: gateway fault on test case %d: %v", i+1, err)
			return Result{
				Verdict: VerdictError,
				Details: fmt.Sprintf("execution failed on test case %d: %v", i+1, err),
			}
		}
		if res.Failed() {
			return Result{
				Verdict: VerdictRuntimeError,
				Details: fmt.Sprintf("runtime error on test case %d: %s", i+1, res.ErrorText()),
			}
		}

		// Leading/trailing whitespace is forgiven on both sides; internal
		// whitespace and case are not.
		actual := strings.TrimSpace(res.Stdout)
		expected := strings.TrimSpace(tc.ExpectedOutput)
		if actual != expected {
			return Result{
				Verdict: VerdictWrongAnswer,
				Details: fmt.Sprintf("wrong answer on test case %d: expected %q, got %q", i+1, expected, actual),
			}
		}
	}

	return Result{
		Verdict: VerdictAccepted,
		Details: fmt.Sprintf("all %d test cases passed", len(problem.TestCases)),
	}
}
