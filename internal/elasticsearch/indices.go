package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
)

// IndexExists checks if an index (or an alias) with the given name exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, transportError("check index", name, err)
	}
	defer c.closeResponse(res, "IndexExists")

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: check index %s: %w", ErrEngineUnavailable, name, decodeResponseError(res))
	}
}

// CreateIndex creates an index. A nil or empty body creates it with engine
// defaults.
func (c *Client) CreateIndex(ctx context.Context, name string, body map[string]any) error {
	opts := []func(*esapi.IndicesCreateRequest){c.es.Indices.Create.WithContext(ctx)}

	if len(body) > 0 {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("error encoding index body: %w", err)
		}
		opts = append(opts, c.es.Indices.Create.WithBody(&buf))
	}

	res, err := c.es.Indices.Create(name, opts...)
	if err != nil {
		return transportError("create index", name, err)
	}
	defer c.closeResponse(res, "CreateIndex")

	if res.IsError() {
		respErr := decodeResponseError(res)
		if respErr.Type == errTypeAlreadyExists {
			return fmt.Errorf("%w: %s", ErrIndexAlreadyExists, name)
		}
		return fmt.Errorf("%w: create index %s: %w", ErrEngineUnavailable, name, respErr)
	}

	c.logger.Debug("Created index", logger.String("index", name), logger.Bool("with_body", len(body) > 0))
	return nil
}

// DeleteIndex deletes an index.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	res, err := c.es.Indices.Delete([]string{name}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return transportError("delete index", name, err)
	}
	defer c.closeResponse(res, "DeleteIndex")

	if res.IsError() {
		respErr := decodeResponseError(res)
		if res.StatusCode == http.StatusNotFound || respErr.Type == errTypeIndexNotFound {
			return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
		}
		return fmt.Errorf("%w: delete index %s: %w", ErrEngineUnavailable, name, respErr)
	}

	c.logger.Debug("Deleted index", logger.String("index", name))
	return nil
}

// GetMapping returns the mappings object of an index. If name is an alias
// that resolves to exactly one index, that index's mappings are returned.
func (c *Client) GetMapping(ctx context.Context, name string) (map[string]any, error) {
	res, err := c.es.Indices.GetMapping(
		c.es.Indices.GetMapping.WithIndex(name),
		c.es.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return nil, transportError("get mapping", name, err)
	}
	defer c.closeResponse(res, "GetMapping")

	if res.IsError() {
		respErr := decodeResponseError(res)
		if res.StatusCode == http.StatusNotFound || respErr.Type == errTypeIndexNotFound {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
		}
		return nil, fmt.Errorf("%w: get mapping %s: %w", ErrEngineUnavailable, name, respErr)
	}

	var payload map[string]struct {
		Mappings map[string]any `json:"mappings"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&payload); decodeErr != nil {
		return nil, fmt.Errorf("%w: decode mapping %s: %w", ErrEngineUnavailable, name, decodeErr)
	}

	entry, ok := payload[name]
	if !ok {
		switch len(payload) {
		case 0:
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
		case 1:
			for _, only := range payload {
				entry = only
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousMapping, name)
		}
	}

	if entry.Mappings == nil {
		return map[string]any{}, nil
	}
	return entry.Mappings, nil
}
