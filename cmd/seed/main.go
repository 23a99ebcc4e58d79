// cmd/seed/main.go
//
// Seeds the database with the starter problem set.
package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/models"
)

func main() {
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx := context.Background()

	if err := database.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	problems := []models.Problem{
		{
			Title:        "Reverse a String",
			Description:  "Write a function `solve(s)` that takes a string `s` and returns the string reversed.",
			TemplateCode: "def solve(s):\n    # Your code here\n    return",
			TestCases: []models.TestCase{
				{Input: `"hello"`, ExpectedOutput: "olleh", IsHidden: true},
				{Input: `"world"`, ExpectedOutput: "dlrow", IsHidden: true},
				{Input: `""`, ExpectedOutput: "", IsHidden: true},
			},
		},
		{
			Title:        "Two Sum",
			Description:  "Write a function `solve(nums, target)` that takes a list of integers `nums` and an integer `target`, and returns the indices of the two numbers that add up to the target.",
			TemplateCode: "def solve(nums, target):\n    # Your code here\n    return",
			TestCases: []models.TestCase{
				{Input: "[2, 7, 11, 15], 9", ExpectedOutput: "[0, 1]", IsHidden: true},
				{Input: "[3, 2, 4], 6", ExpectedOutput: "[1, 2]", IsHidden: true},
				{Input: "[3, 3], 6", ExpectedOutput: "[0, 1]", IsHidden: true},
			},
		},
	}

	for i := range problems {
		if err := database.CreateProblem(ctx, &problems[i]); err != nil {
			log.Fatalf("seed problem %q: %v", problems[i].Title, err)
		}
		log.Printf("seeded problem %d: %s", problems[i].ID, problems[i].Title)
	}
}
