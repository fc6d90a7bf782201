package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusOK is the DataForSEO status code for a successful call
const StatusOK = 20000

// StatusTaskCreated is returned per task by task_post
const StatusTaskCreated = 20100

// Kind tags the decoded shape of a response
type Kind int

const (
	KindSuccess Kind = iota
	KindRejected
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRejected:
		return "rejected"
	default:
		return "malformed"
	}
}

// Envelope is a response decoded once at the API boundary
type Envelope struct {
	Kind          Kind
	HTTPStatus    int
	StatusCode    int
	StatusMessage string
	Tasks         []TaskEnvelope
	decodeErr     error
}

// TaskEnvelope is one element of the tasks array
type TaskEnvelope struct {
	ID            string          `json:"id"`
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Data          TaskData        `json:"data"`
	Result        json.RawMessage `json:"result"`
}

// TaskData echoes the parameters the task was posted with
type TaskData struct {
	Tag       string   `json:"tag"`
	Keywords  []string `json:"keywords"`
	TimeRange string   `json:"time_range"`
}

type rawEnvelope struct {
	StatusCode    int            `json:"status_code"`
	StatusMessage string         `json:"status_message"`
	Tasks         []TaskEnvelope `json:"tasks"`
}

// Decode classifies an HTTP status and body into an Envelope
func Decode(httpStatus int, body []byte) Envelope {
	var raw rawEnvelope
	jsonErr := json.Unmarshal(body, &raw)

	if httpStatus < 200 || httpStatus >= 300 {
		env := Envelope{Kind: KindRejected, HTTPStatus: httpStatus}
		if jsonErr == nil {
			env.StatusCode = raw.StatusCode
			env.StatusMessage = raw.StatusMessage
		}
		if env.StatusMessage == "" {
			env.StatusMessage = truncate(strings.TrimSpace(string(body)), 200)
		}
		return env
	}

	if jsonErr != nil {
		return Envelope{
			Kind:       KindMalformed,
			HTTPStatus: httpStatus,
			decodeErr:  fmt.Errorf("%w: %v", ErrMalformedPayload, jsonErr),
		}
	}
	if raw.StatusCode == 0 {
		return Envelope{
			Kind:       KindMalformed,
			HTTPStatus: httpStatus,
			decodeErr:  fmt.Errorf("%w: missing status_code", ErrMalformedPayload),
		}
	}

	env := Envelope{
		Kind:          KindSuccess,
		HTTPStatus:    httpStatus,
		StatusCode:    raw.StatusCode,
		StatusMessage: raw.StatusMessage,
		Tasks:         raw.Tasks,
	}
	if raw.StatusCode != StatusOK {
		env.Kind = KindRejected
	}
	return env
}

// Err converts a non-success envelope into a typed error
func (e Envelope) Err() error {
	switch e.Kind {
	case KindSuccess:
		return nil
	case KindRejected:
		return &RejectionError{HTTPStatus: e.HTTPStatus, Code: e.StatusCode, Message: e.StatusMessage}
	default:
		if e.decodeErr != nil {
			return e.decodeErr
		}
		return ErrMalformedPayload
	}
}

// HasResult reports a result array with at least one element
func (t TaskEnvelope) HasResult() bool {
	var items []json.RawMessage
	if err := json.Unmarshal(t.Result, &items); err != nil {
		return false
	}
	return len(items) > 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
