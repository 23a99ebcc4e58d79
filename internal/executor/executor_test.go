// internal/executor/executor_test.go
package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayRun(t *testing.T) {
	var got RunRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(RunResult{Stdout: "olleh\n"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 0)
	res, err := gw.Run(context.Background(), RunRequest{
		Language: "python",
		Code:     "print(input()[::-1])",
		Stdin:    "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "olleh\n", res.Stdout)
	assert.False(t, res.Failed())

	assert.Equal(t, "python", got.Language)
	assert.Equal(t, "hello", got.Stdin)
}

func TestHTTPGatewayRunnerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RunResult{Stderr: "Traceback", ExitCode: 1})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 0)
	res, err := gw.Run(context.Background(), RunRequest{Language: "python", Code: "boom("})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, "Traceback", res.ErrorText())
}

func TestHTTPGatewayBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 0)
	_, err := gw.Run(context.Background(), RunRequest{Language: "python", Code: "print(1)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	gw := NewHTTPGateway(srv.URL, 0)
	_, err := gw.Run(context.Background(), RunRequest{Language: "python", Code: "print(1)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution gateway unavailable")
}

func TestHTTPGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := gw.Run(context.Background(), RunRequest{Language: "python", Code: "while True: pass"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestErrorTextFallsBackToExitCode(t *testing.T) {
	res := RunResult{ExitCode: 137}
	assert.Equal(t, "process exited with code 137", res.ErrorText())
}
