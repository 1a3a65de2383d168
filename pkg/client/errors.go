package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Sternrassler/strava-client/pkg/apierr"
)

// Common errors returned by the client.
var (
	// ErrNoCredential is returned when no cached credential satisfies the requested scopes.
	ErrNoCredential = errors.New("no cached credential with the required scopes")
)

// ErrorClass represents a classification of HTTP errors for metrics.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// faultBody is the error document Strava returns with 4xx/5xx responses.
type faultBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
	} `json:"errors"`
}

// responseError converts an HTTP error response into an *apierr.Error.
// The body is consumed and closed.
func responseError(resp *http.Response) *apierr.Error {
	defer resp.Body.Close()

	apiErr := apierr.FromStatus(resp.StatusCode, resp.Status)
	if apiErr == nil {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var fault faultBody
	if err := json.Unmarshal(body, &fault); err != nil || fault.Message == "" {
		return apiErr
	}

	parts := []string{fault.Message}
	for _, e := range fault.Errors {
		parts = append(parts, strings.Trim(e.Resource+" "+e.Field+" "+e.Code, " "))
	}
	apiErr.Message = strings.Join(parts, "; ")
	return apiErr
}
