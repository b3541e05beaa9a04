package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidArgument is returned before any request is sent when an
// argument cannot produce a valid call.
var ErrInvalidArgument = errors.New("invalid argument")

// StatusClass groups HTTP status codes by their first digit.
type StatusClass int

const (
	StatusUnknown StatusClass = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

func (sc StatusClass) String() string {
	switch sc {
	case Status1xx:
		return "informational response"
	case Status2xx:
		return "success"
	case Status3xx:
		return "redirect"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", int(sc))
	}
}

// ClassOf returns the class of an HTTP status code.
func ClassOf(status int) StatusClass {
	switch {
	case status < 100:
		return StatusUnknown
	case status < 200:
		return Status1xx
	case status < 300:
		return Status2xx
	case status < 400:
		return Status3xx
	case status < 500:
		return Status4xx
	case status < 600:
		return Status5xx
	}
	return StatusUnknown
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op        string
	Method    string
	Path      string
	Status    int
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.Path, e.Status, detail)
}

// Class returns the status class of the error.
func (e *APIError) Class() StatusClass {
	return ClassOf(e.Status)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the backend (e.g. a rename
// target that already exists).
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// IsBadRequest reports whether err is a 400 from the backend (e.g. a scan
// that is already running).
func IsBadRequest(err error) bool {
	return statusOf(err) == http.StatusBadRequest
}

// errorBody is the backend's error envelope. Validation failures carry a
// list of objects in detail instead of a string.
type errorBody struct {
	Detail interface{} `json:"detail"`
}

func (b errorBody) message() string {
	switch d := b.Detail.(type) {
	case string:
		return d
	case []interface{}:
		if len(d) == 0 {
			return ""
		}
		if first, ok := d[0].(map[string]interface{}); ok {
			if msg, ok := first["msg"].(string); ok {
				return msg
			}
		}
		return fmt.Sprint(d[0])
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}
