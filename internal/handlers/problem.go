// internal/handlers/problem.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/codecollab/codecollab/internal/database"
)

// ListProblemsHandler returns the problem catalog without test cases.
func (s *Server) ListProblemsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	problems, err := database.ListProblems(r.Context())
	if err != nil {
		s.Log.Warnf("list problems: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list problems")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"problems": problems})
}

// GetProblemHandler returns one problem with its visible test cases only.
// Hidden cases never leave the judge.
func (s *Server) GetProblemHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/problems/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid problem id")
		return
	}

	problem, err := database.GetProblemByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "problem not found")
		return
	}
	writeJSON(w, http.StatusOK, problem.PublicView())
}
