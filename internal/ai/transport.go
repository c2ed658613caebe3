package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy bounds how often a request is attempted and how long to wait
// between attempts. attempts == 1 means a single try.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

func newRetryPolicy(attempts int, base, maxDelay time.Duration) retryPolicy {
	if attempts <= 0 {
		attempts = 1
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return retryPolicy{attempts: attempts, base: base, max: maxDelay}
}

// do sends the request produced by build and returns the response body.
// Timeouts, 429 and 5xx are retried while attempts remain; Retry-After is
// honored. Other failures are classified and returned at once.
func (p retryPolicy) do(ctx context.Context, hc *http.Client, build func() (*http.Request, error)) ([]byte, http.Header, error) {
	backoff := p.base
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		final := attempt == p.attempts
		req, err := build()
		if err != nil {
			return nil, nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := roundTrip(hc, req)
		if err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				if isRetryableNetErr(err) && !final {
					lastErr = err
					if err := sleepCtx(ctx, p.wait(backoff)); err != nil {
						return nil, nil, err
					}
					backoff *= 2
					continue
				}
				return nil, nil, &UnreachableError{Host: req.URL.Host, Err: err}
			}
			lastErr = classifyAPIError(apiErr, resp)
			if retryableStatus(apiErr.StatusCode) && !final {
				wait := p.wait(backoff)
				if ra := retryAfter(resp); ra > 0 {
					wait = ra
				}
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, nil, err
				}
				backoff *= 2
				continue
			}
			return nil, nil, lastErr
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}
		return body, resp.Header, nil
	}
	return nil, nil, lastErr
}

// wait applies jitter to d and caps it at the policy maximum.
func (p retryPolicy) wait(d time.Duration) time.Duration {
	d = withJitter(d)
	if p.max > 0 && d > p.max {
		d = p.max
	}
	return d
}

// roundTrip performs one request. A non-2xx response is drained, closed and
// returned as *APIError; on success the caller owns the body.
func roundTrip(hc *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return resp, readAPIError(resp)
	}
	return resp, nil
}

// readAPIError decodes the common error envelopes: {"error":{"message","code"}},
// {"error":"..."} and problem details {"detail":"..."}.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	e := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
	switch v := raw["error"].(type) {
	case map[string]any:
		e.Message, _ = v["message"].(string)
		e.Code, _ = v["code"].(string)
	case string:
		e.Message = v
	}
	for _, k := range []string{"detail", "message"} {
		if e.Message != "" {
			break
		}
		e.Message, _ = raw[k].(string)
	}
	if e.Code == "" {
		e.Code, _ = raw["code"].(string)
	}
	return e
}

func retryableStatus(sc int) bool {
	return sc == http.StatusTooManyRequests || (sc >= 500 && sc <= 599)
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := parseRetryAfterSeconds(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		return int(max(0, time.Until(t)).Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	out := time.Duration(float64(d) * (0.8 + rand.Float64()*0.4))
	if out <= 0 {
		return d
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// readSSE parses a server-sent event stream and calls fn once per event.
// Multiple data lines of one event are joined with "\n". fn returns false to
// stop reading.
func readSSE(ctx context.Context, r io.Reader, fn func(event, data string) (bool, error)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	event := ""
	var data []string
	dispatch := func() (bool, error) {
		if event == "" && data == nil {
			return true, nil
		}
		if event == "" {
			event = "message"
		}
		more, err := fn(event, strings.Join(data, "\n"))
		event, data = "", nil
		return more, err
	}
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		switch {
		case line == "":
			more, err := dispatch()
			if err != nil || !more {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(v, " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	_, err := dispatch()
	return err
}
