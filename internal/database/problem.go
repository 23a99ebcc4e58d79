// internal/database/problem.go
package database

import (
	"context"
	"fmt"

	"github.com/codecollab/codecollab/internal/models"
)

// ListProblems returns all problems without their test cases, for the
// problem catalog listing.
func ListProblems(ctx context.Context) ([]models.Problem, error) {
	q := `SELECT id, title, description, template_code FROM problems ORDER BY id`
	rows, err := DB.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	var problems []models.Problem
	for rows.Next() {
		var p models.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.TemplateCode); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// GetProblemByID loads one problem with its test cases in judging order.
func GetProblemByID(ctx context.Context, id int64) (*models.Problem, error) {
	var p models.Problem
	q := `SELECT id, title, description, template_code FROM problems WHERE id=$1`
	if err := DB.QueryRow(ctx, q, id).Scan(&p.ID, &p.Title, &p.Description, &p.TemplateCode); err != nil {
		return nil, err
	}

	tq := `
	SELECT id, problem_id, input_data, expected_output, is_hidden, sort_order
	FROM test_cases
	WHERE problem_id=$1
	ORDER BY sort_order, id`
	rows, err := DB.Query(ctx, tq, id)
	if err != nil {
		return nil, fmt.Errorf("load test cases for problem %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc models.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsHidden, &tc.SortOrder); err != nil {
			return nil, err
		}
		p.TestCases = append(p.TestCases, tc)
	}
	return &p, rows.Err()
}

// CreateProblem inserts a problem and its test cases, returning the new id.
func CreateProblem(ctx context.Context, p *models.Problem) error {
	q := `INSERT INTO problems (title, description, template_code) VALUES ($1, $2, $3) RETURNING id`
	if err := DB.QueryRow(ctx, q, p.Title, p.Description, p.TemplateCode).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert problem: %w", err)
	}

	tq := `
	INSERT INTO test_cases (problem_id, input_data, expected_output, is_hidden, sort_order)
	VALUES ($1, $2, $3, $4, $5)`
	for i := range p.TestCases {
		tc := &p.TestCases[i]
		tc.ProblemID = p.ID
		tc.SortOrder = i
		if _, err := DB.Exec(ctx, tq, tc.ProblemID, tc.Input, tc.ExpectedOutput, tc.IsHidden, tc.SortOrder); err != nil {
			return fmt.Errorf("insert test case %d: %w", i, err)
		}
	}
	return nil
}
