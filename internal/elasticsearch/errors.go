package elasticsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	// ErrIndexAlreadyExists is returned when creating an index whose name is taken.
	ErrIndexAlreadyExists = errors.New("index already exists")
	// ErrIndexNotFound is returned when an index does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEngineUnavailable wraps transport failures and unreadable responses.
	ErrEngineUnavailable = errors.New("elasticsearch communication failure")
	// ErrAmbiguousMapping is returned when a mapping lookup resolves to several indices.
	ErrAmbiguousMapping = errors.New("mapping lookup matched more than one index")
)

// Elasticsearch error types the client reacts to.
const (
	errTypeAlreadyExists = "resource_already_exists_exception"
	errTypeIndexNotFound = "index_not_found_exception"
)

// ResponseError is an error response returned by Elasticsearch.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch returned status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch returned status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// errorBody is the JSON error envelope used by Elasticsearch.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// decodeResponseError reads an error response into a *ResponseError.
// The error field is either an object or, for some endpoints, a plain string.
func decodeResponseError(res *esapi.Response) *ResponseError {
	respErr := &ResponseError{Status: res.StatusCode}

	body, err := io.ReadAll(res.Body)
	if err != nil || len(body) == 0 {
		return respErr
	}

	var envelope errorBody
	if json.Unmarshal(body, &envelope) != nil {
		respErr.Reason = string(body)
		return respErr
	}

	var cause errorCause
	if json.Unmarshal(envelope.Error, &cause) == nil {
		respErr.Type = cause.Type
		respErr.Reason = cause.Reason
		return respErr
	}

	var reason string
	if json.Unmarshal(envelope.Error, &reason) == nil {
		respErr.Reason = reason
	}
	return respErr
}
