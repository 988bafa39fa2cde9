package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"learnstack/config"
	"learnstack/usecase"
)

var ErrRunnerNotConfigured = errors.New("code runner is not configured")

// CodeRunnerClient talks to a OneCompiler-compatible execution API: one POST
// per run with the language, stdin and a single source file.
type CodeRunnerClient struct {
	url     string
	apiKey  string
	retries int
	http    *http.Client
}

func NewCodeRunnerClient(cfg config.CodeRunnerConfig) *CodeRunnerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CodeRunnerClient{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		retries: cfg.Retries,
		http:    &http.Client{Timeout: timeout},
	}
}

type runFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type runPayload struct {
	Language string    `json:"language"`
	Stdin    string    `json:"stdin"`
	Files    []runFile `json:"files"`
}

type runResponse struct {
	Stdout    *string `json:"stdout"`
	Stderr    *string `json:"stderr"`
	Exception *string `json:"exception"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Run executes one submission. Transport errors and 5xx responses are
// retried with exponential backoff; 4xx responses are not.
func (c *CodeRunnerClient) Run(ctx context.Context, req usecase.RunRequest) (*usecase.RunResult, error) {
	if c.url == "" {
		return nil, ErrRunnerNotConfigured
	}
	body, err := json.Marshal(runPayload{
		Language: req.Language,
		Stdin:    req.Stdin,
		Files:    []runFile{{Name: req.FileName, Content: req.Code}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode run request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (*usecase.RunResult, error) {
		return c.post(ctx, body)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.retries)+1))
}

func (c *CodeRunnerClient) post(ctx context.Context, body []byte) (*usecase.RunResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-RapidAPI-Key", c.apiKey)
		httpReq.Header.Set("X-RapidAPI-Host", httpReq.URL.Host)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("code runner request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read code runner response: %w", err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("code runner returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("code runner rejected request: %d", resp.StatusCode))
	}

	var out runResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode code runner response: %w", err))
	}
	return &usecase.RunResult{
		Stdout:    deref(out.Stdout),
		Stderr:    deref(out.Stderr),
		Exception: deref(out.Exception),
	}, nil
}
