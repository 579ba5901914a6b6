package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an upstream failure.
type ErrorKind int

const (
	// KindRejected means the server answered with a non-success status.
	KindRejected ErrorKind = iota
	// KindNoResponse means the request was sent but no response arrived.
	KindNoResponse
	// KindRequestSetup means the request could not be built or dispatched.
	KindRequestSetup
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindNoResponse:
		return "no-response"
	case KindRequestSetup:
		return "request-setup"
	default:
		return "unknown"
	}
}

// Error is returned for every failed upstream call.
type Error struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int
	// Details holds the error strings supplied by the upstream API, if any.
	Details []string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRejected:
		msg := fmt.Sprintf("%s %s: upstream returned status %d", e.Method, e.Path, e.StatusCode)
		if len(e.Details) > 0 {
			msg += ": " + strings.Join(e.Details, "; ")
		}
		return msg
	case KindNoResponse:
		return fmt.Sprintf("%s %s: no response from upstream: %v", e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: could not build request: %v", e.Method, e.Path, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotFound matches rejected errors carrying a 404 status via errors.Is.
var ErrNotFound = errors.New("resource not found")

// Is lets errors.Is(err, ErrNotFound) match 404 rejections.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindRejected && e.StatusCode == 404
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// errorDocument is the JSON:API error envelope.
type errorDocument struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
	// Some endpoints answer with a single message instead.
	Message string `json:"message"`
	Error   string `json:"error"`
}

// parseErrorDetails extracts human-readable details from an error body.
func parseErrorDetails(body []byte) []string {
	if len(body) == 0 {
		return nil
	}

	var doc errorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		return []string{text}
	}

	var details []string
	for _, e := range doc.Errors {
		switch {
		case e.Detail != "":
			details = append(details, e.Detail)
		case e.Title != "":
			details = append(details, e.Title)
		}
	}
	if doc.Message != "" {
		details = append(details, doc.Message)
	}
	if doc.Error != "" {
		details = append(details, doc.Error)
	}
	return details
}
