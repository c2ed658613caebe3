package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultReplicateBaseURL = "https://api.replicate.com/v1"
	// DefaultSummaryModel is the hosted model used for the executive summary.
	DefaultSummaryModel = "ibm-granite/granite-3.2-8b-instruct"
)

// ReplicateClient runs predictions against the Replicate HTTP API. Generate
// waits for the prediction to finish and joins the output chunks.
type ReplicateClient struct {
	httpClient   *http.Client
	token        string
	baseURL      string
	retry        retryPolicy
	pollInterval time.Duration
}

// NewReplicateClient returns a client with the given timeout and retry policy.
// retryMax counts attempts, so 1 disables retries.
func NewReplicateClient(token string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *ReplicateClient {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &ReplicateClient{
		httpClient:   &http.Client{Timeout: httpTimeout},
		token:        token,
		baseURL:      DefaultReplicateBaseURL,
		retry:        newRetryPolicy(retryMax, baseDelay, maxDelay),
		pollInterval: time.Second,
	}
}

// NewReplicateClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewReplicateClientWithBaseURL(token string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *ReplicateClient {
	c := NewReplicateClient(token, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// SetPollInterval changes how often an unfinished prediction is re-fetched.
func (c *ReplicateClient) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Stream string `json:"stream"`
	} `json:"urls"`
	Metrics struct {
		InputTokenCount  int `json:"input_token_count"`
		OutputTokenCount int `json:"output_token_count"`
	} `json:"metrics"`
}

func (p *prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// text joins the output, which language models return as a list of chunks.
func (p *prediction) text() (string, error) {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return "", nil
	}
	var chunks []string
	if err := json.Unmarshal(p.Output, &chunks); err == nil {
		return strings.Join(chunks, ""), nil
	}
	var s string
	if err := json.Unmarshal(p.Output, &s); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("unexpected prediction output: %.80s", string(p.Output))
}

func (p *prediction) failure() error {
	detail := ""
	if p.Error != nil {
		detail = fmt.Sprint(p.Error)
	}
	return &PredictionFailedError{ID: p.ID, Status: p.Status, Detail: detail}
}

// Generate creates a prediction, waits for it to finish and returns the joined output.
func (c *ReplicateClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}
	pred, err := c.create(ctx, req, false)
	if err != nil {
		return nil, err
	}
	if pred, err = c.wait(ctx, pred); err != nil {
		return nil, err
	}
	text, err := pred.text()
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{
		ID:      pred.ID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: text}}},
		Usage: Usage{
			PromptTokens:     pred.Metrics.InputTokenCount,
			CompletionTokens: pred.Metrics.OutputTokenCount,
			TotalTokens:      pred.Metrics.InputTokenCount + pred.Metrics.OutputTokenCount,
		},
		RequestID: pred.ID,
	}, nil
}

// wait polls pred until it reaches a terminal state and returns the final
// prediction, or its failure.
func (c *ReplicateClient) wait(ctx context.Context, pred *prediction) (*prediction, error) {
	var err error
	for !pred.terminal() {
		if pred.URLs.Get == "" {
			return nil, fmt.Errorf("prediction %s is %s and has no poll url", pred.ID, pred.Status)
		}
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		if pred, err = c.fetch(ctx, pred.URLs.Get); err != nil {
			return nil, err
		}
	}
	if pred.Status != "succeeded" {
		return nil, pred.failure()
	}
	return pred, nil
}

// GenerateStream creates a streaming prediction and forwards each output event
// to onDelta. Without a stream url it polls the same prediction and forwards
// the whole output once.
func (c *ReplicateClient) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	if err := c.validate(req); err != nil {
		return err
	}
	pred, err := c.create(ctx, req, true)
	if err != nil {
		return err
	}
	if pred.URLs.Stream == "" {
		if pred, err = c.wait(ctx, pred); err != nil {
			return err
		}
		text, err := pred.text()
		if err != nil {
			return err
		}
		onDelta(text)
		return nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pred.URLs.Stream, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-store")
	resp, err := roundTrip(c.httpClient, httpReq)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return classifyAPIError(apiErr, resp)
		}
		return &UnreachableError{Host: httpReq.URL.Host, Err: err}
	}
	defer resp.Body.Close()
	return readSSE(ctx, resp.Body, func(event, data string) (bool, error) {
		switch event {
		case "output":
			onDelta(data)
		case "error":
			return false, &PredictionFailedError{ID: pred.ID, Status: "failed", Detail: data}
		case "done":
			return false, nil
		}
		return true, nil
	})
}

func (c *ReplicateClient) validate(req GenerateRequest) error {
	if c.token == "" {
		return errors.New("REPLICATE_API_TOKEN is missing")
	}
	if req.Model == "" {
		return errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	return nil
}

// create posts a prediction. "owner/name" targets the model's latest version;
// "owner/name:version" or a bare version id targets that version.
func (c *ReplicateClient) create(ctx context.Context, req GenerateRequest, stream bool) (*prediction, error) {
	system, prompt := req.Prompt()
	input := map[string]any{"prompt": prompt}
	if system != "" {
		input["system_prompt"] = system
	}
	if req.MaxTokens > 0 {
		input["max_new_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		input["temperature"] = req.Temperature
	}
	body := map[string]any{"input": input}
	if stream {
		body["stream"] = true
	}

	endpoint := c.baseURL + "/models/" + req.Model + "/predictions"
	if i := strings.IndexByte(req.Model, ':'); i >= 0 {
		endpoint = c.baseURL + "/predictions"
		body["version"] = req.Model[i+1:]
	} else if !strings.Contains(req.Model, "/") {
		endpoint = c.baseURL + "/predictions"
		body["version"] = req.Model
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	raw, _, err := c.retry.do(ctx, c.httpClient, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		c.authorize(r)
		r.Header.Set("Content-Type", "application/json")
		if !stream {
			r.Header.Set("Prefer", "wait")
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return decodePrediction(raw)
}

func (c *ReplicateClient) fetch(ctx context.Context, url string) (*prediction, error) {
	raw, _, err := c.retry.do(ctx, c.httpClient, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return decodePrediction(raw)
}

func (c *ReplicateClient) authorize(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+c.token)
	r.Header.Set("User-Agent", "surveydeck-cli")
}

func decodePrediction(raw []byte) (*prediction, error) {
	var p prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &p, nil
}
