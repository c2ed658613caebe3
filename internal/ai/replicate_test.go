package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testModel = "ibm-granite/granite-3.2-8b-instruct"

func summaryRequest() GenerateRequest {
	return GenerateRequest{
		Model:       testModel,
		Messages:    []Message{{Role: "user", Content: "Summarize the survey"}},
		MaxTokens:   250,
		Temperature: 0.7,
	}
}

func TestReplicateConcatenatesOutputChunks(t *testing.T) {
	var body map[string]any
	var auth, prefer string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/models/"+testModel+"/predictions" {
			http.NotFound(w, r)
			return
		}
		auth, prefer = r.Header.Get("Authorization"), r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "p1",
			"status": "succeeded",
			"output": []string{"Work ", "interference ", "matters."},
			"metrics": map[string]any{
				"input_token_count":  12,
				"output_token_count": 3,
			},
		})
	}))
	defer srv.Close()

	c := NewReplicateClientWithBaseURL("r8_test", 2*time.Second, 1, 0, 0, srv.URL)
	resp, err := c.Generate(context.Background(), summaryRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text() != "Work interference matters." {
		t.Fatalf("unexpected text %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage not mapped: %+v", resp.Usage)
	}
	if auth != "Bearer r8_test" || prefer != "wait" {
		t.Fatalf("headers: auth=%q prefer=%q", auth, prefer)
	}
	input, _ := body["input"].(map[string]any)
	if input["prompt"] != "Summarize the survey" || input["max_new_tokens"] != float64(250) || input["temperature"] != 0.7 {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestReplicatePollsUntilTerminal(t *testing.T) {
	var polls int32
	var srvURL string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "p2", "status": "starting",
				"urls": map[string]any{"get": srvURL + "/predictions/p2"},
			})
		case r.URL.Path == "/predictions/p2":
			status := "processing"
			var output any
			if atomic.AddInt32(&polls, 1) >= 2 {
				status, output = "succeeded", "single string output"
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "p2", "status": status, "output": output,
				"urls": map[string]any{"get": srvURL + "/predictions/p2"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := NewReplicateClientWithBaseURL("tok", 2*time.Second, 1, 0, 0, srv.URL)
	c.SetPollInterval(5 * time.Millisecond)
	resp, err := c.Generate(context.Background(), summaryRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text() != "single string output" {
		t.Fatalf("got %q", resp.Text())
	}
	if n := atomic.LoadInt32(&polls); n != 2 {
		t.Fatalf("expected 2 polls, got %d", n)
	}
}

func TestReplicateUnauthorizedIsAuthError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "Unauthenticated", "detail": "You did not pass a valid authentication token", "status": 401})
	}))
	defer srv.Close()

	c := NewReplicateClientWithBaseURL("bad", 2*time.Second, 1, 0, 0, srv.URL)
	_, err := c.Generate(context.Background(), summaryRequest())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "valid authentication token") {
		t.Fatalf("detail missing from error: %v", err)
	}
}

func TestReplicateFailedPrediction(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "p3", "status": "failed", "error": "CUDA out of memory"})
	}))
	defer srv.Close()

	c := NewReplicateClientWithBaseURL("tok", 2*time.Second, 1, 0, 0, srv.URL)
	_, err := c.Generate(context.Background(), summaryRequest())
	var pf *PredictionFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PredictionFailedError, got %T: %v", err, err)
	}
	if pf.ID != "p3" || pf.Status != "failed" || pf.Detail != "CUDA out of memory" {
		t.Fatalf("unexpected error fields: %+v", pf)
	}
}

func TestReplicateVersionedModel(t *testing.T) {
	var body map[string]any
	var path string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "p4", "status": "succeeded", "output": []string{"ok"}})
	}))
	defer srv.Close()

	c := NewReplicateClientWithBaseURL("tok", 2*time.Second, 1, 0, 0, srv.URL)
	req := summaryRequest()
	req.Model = testModel + ":abc123"
	if _, err := c.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != "/predictions" || body["version"] != "abc123" {
		t.Fatalf("path=%q version=%v", path, body["version"])
	}
}

func TestReplicateStream(t *testing.T) {
	var srvURL string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["stream"] != true {
				t.Errorf("stream flag not sent: %+v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "p5", "status": "starting",
				"urls": map[string]any{"stream": srvURL + "/stream/p5"},
			})
			return
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: output\nid: 1\ndata: Family \n\n")
		fmt.Fprint(w, "event: output\nid: 2\ndata: history\n\n")
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := NewReplicateClientWithBaseURL("tok", 2*time.Second, 1, 0, 0, srv.URL)
	var out string
	if err := c.GenerateStream(context.Background(), summaryRequest(), func(d string) { out += d }); err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if out != "Family history" {
		t.Fatalf("got %q", out)
	}
}

func TestReplicateRequiresToken(t *testing.T) {
	c := NewReplicateClient("", time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), summaryRequest()); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestReplicateStreamWithoutURLPollsSamePrediction(t *testing.T) {
	var posts, polls int32
	var srvURL string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			atomic.AddInt32(&posts, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "p5", "status": "starting",
				"urls": map[string]any{"get": srvURL + "/predictions/p5"},
			})
		case r.URL.Path == "/predictions/p5":
			atomic.AddInt32(&polls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "p5", "status": "succeeded", "output": []string{"one ", "call"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := NewReplicateClientWithBaseURL("tok", 2*time.Second, 1, 0, 0, srv.URL)
	c.SetPollInterval(5 * time.Millisecond)
	var got strings.Builder
	if err := c.GenerateStream(context.Background(), summaryRequest(), func(s string) { got.WriteString(s) }); err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if got.String() != "one call" {
		t.Fatalf("got %q", got.String())
	}
	if n := atomic.LoadInt32(&posts); n != 1 {
		t.Fatalf("expected 1 prediction created, got %d", n)
	}
	if n := atomic.LoadInt32(&polls); n != 1 {
		t.Fatalf("expected 1 poll, got %d", n)
	}
}
