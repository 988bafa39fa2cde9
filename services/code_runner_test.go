package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnstack/config"
	"learnstack/services"
	"learnstack/usecase"
)

func runnerFor(url string, retries int) *services.CodeRunnerClient {
	return services.NewCodeRunnerClient(config.CodeRunnerConfig{URL: url, APIKey: "key", Timeout: time.Second, Retries: retries})
}

func TestCodeRunnerPostsSubmission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		var payload struct {
			Language string `json:"language"`
			Stdin    string `json:"stdin"`
			Files    []struct {
				Name    string `json:"name"`
				Content string `json:"content"`
			} `json:"files"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "python", payload.Language)
		require.Len(t, payload.Files, 1)
		assert.Equal(t, "main.py", payload.Files[0].Name)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"stdout": payload.Stdin + payload.Stdin, "stderr": nil, "exception": nil,
		})
	}))
	defer srv.Close()

	res, err := runnerFor(srv.URL, 0).Run(context.Background(), usecase.RunRequest{
		Language: "python", FileName: "main.py", Code: "print(input()*2)", Stdin: "ab",
	})
	require.NoError(t, err)
	assert.Equal(t, "abab", res.Stdout)
	assert.Empty(t, res.Stderr)
	assert.Empty(t, res.Exception)
}

func TestCodeRunnerRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"stdout":"ok"}`))
	}))
	defer srv.Close()

	res, err := runnerFor(srv.URL, 2).Run(context.Background(), usecase.RunRequest{Language: "c"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCodeRunnerDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := runnerFor(srv.URL, 3).Run(context.Background(), usecase.RunRequest{Language: "c"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCodeRunnerNotConfigured(t *testing.T) {
	_, err := runnerFor("", 0).Run(context.Background(), usecase.RunRequest{})
	assert.ErrorIs(t, err, services.ErrRunnerNotConfigured)
}
