// internal/models/problem.go
package models

// Problem is a coding exercise with a starter template and an ordered set of
// test cases. Once loaded into a room it is treated as immutable for the
// duration of that room's use of it.
type Problem struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	TemplateCode string     `json:"template_code"`
	TestCases    []TestCase `json:"test_cases,omitempty"`
}

// TestCase order is significant: judging walks the cases in SortOrder and
// stops at the first failure.
type TestCase struct {
	ID             int64  `json:"id"`
	ProblemID      int64  `json:"problem_id"`
	Input          string `json:"input_data"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
	SortOrder      int    `json:"sort_order"`
}

// PublicView strips hidden test cases so the problem can be sent to clients.
func (p *Problem) PublicView() Problem {
	view := Problem{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		TemplateCode: p.TemplateCode,
	}
	for _, tc := range p.TestCases {
		if !tc.IsHidden {
			view.TestCases = append(view.TestCases, tc)
		}
	}
	return view
}
