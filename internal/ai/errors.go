package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FailureKind names the class of a summarizer failure. It is recorded in the
// run manifest and used as a log field.
type FailureKind string

const (
	KindAuth             FailureKind = "auth"
	KindRateLimit        FailureKind = "rate_limit"
	KindQuota            FailureKind = "quota"
	KindModelNotFound    FailureKind = "model_not_found"
	KindBadRequest       FailureKind = "bad_request"
	KindServer           FailureKind = "server"
	KindUnreachable      FailureKind = "unreachable"
	KindPredictionFailed FailureKind = "prediction_failed"
	KindTimeout          FailureKind = "timeout"
	KindUnknown          FailureKind = "unknown"
)

// AuthError is a rejected credential (401/403).
type AuthError struct{ *APIError }

// RateLimitError is a 429; RetryAfter is set when the provider sent one.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

// QuotaExceededError is a billing or quota refusal (402 or a quota message).
type QuotaExceededError struct{ *APIError }

// ModelNotFoundError is a 404 that names the model.
type ModelNotFoundError struct{ *APIError }

// BadRequestError is a 400/422 validation failure.
type BadRequestError struct{ *APIError }

// ServerError is any 5xx.
type ServerError struct{ *APIError }

func (e *AuthError) Error() string          { return describe("authentication failed", e.APIError) }
func (e *QuotaExceededError) Error() string { return describe("quota exceeded", e.APIError) }
func (e *ModelNotFoundError) Error() string { return describe("model not found", e.APIError) }
func (e *BadRequestError) Error() string    { return describe("bad request", e.APIError) }
func (e *ServerError) Error() string        { return describe("provider error", e.APIError) }

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return describe(fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter), e.APIError)
	}
	return describe("rate limited", e.APIError)
}

func describe(prefix string, e *APIError) string {
	if e == nil {
		return prefix
	}
	return prefix + ": " + e.Error()
}

// UnreachableError is a transport failure before any HTTP status arrived.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// PredictionFailedError is a hosted prediction that ended failed or canceled.
type PredictionFailedError struct {
	ID     string
	Status string
	Detail string
}

func (e *PredictionFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("prediction %s %s: %s", e.ID, e.Status, e.Detail)
	}
	return fmt.Sprintf("prediction %s %s", e.ID, e.Status)
}

// Kind classifies err. Errors outside this package report KindUnknown.
func Kind(err error) FailureKind {
	var (
		auth    *AuthError
		rate    *RateLimitError
		quota   *QuotaExceededError
		model   *ModelNotFoundError
		bad     *BadRequestError
		server  *ServerError
		unreach *UnreachableError
		pred    *PredictionFailedError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &auth):
		return KindAuth
	case errors.As(err, &rate):
		return KindRateLimit
	case errors.As(err, &quota):
		return KindQuota
	case errors.As(err, &model):
		return KindModelNotFound
	case errors.As(err, &bad):
		return KindBadRequest
	case errors.As(err, &server):
		return KindServer
	case errors.As(err, &unreach):
		return KindUnreachable
	case errors.As(err, &pred):
		return KindPredictionFailed
	}
	return KindUnknown
}

// classifyAPIError maps a non-2xx response onto the typed errors above.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc, msg, code := apiErr.StatusCode, apiErr.Message, apiErr.Code
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(resp)}
	case sc == http.StatusNotFound:
		if code == "model_not_found" || containsAllFold(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusBadRequest || sc == http.StatusUnprocessableEntity:
		return &BadRequestError{APIError: apiErr}
	case sc == http.StatusPaymentRequired || code == "quota_exceeded" || containsAnyFold(msg, "quota", "billing", "limit exceeded"):
		return &QuotaExceededError{APIError: apiErr}
	case sc >= 500 && sc <= 599:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}
