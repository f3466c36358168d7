package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
)

// AliasActionType is the kind of an _aliases action.
type AliasActionType string

// Supported alias actions.
const (
	AliasAdd    AliasActionType = "add"
	AliasRemove AliasActionType = "remove"
)

// AliasAction is one entry of an _aliases request.
type AliasAction struct {
	Type  AliasActionType
	Index string
	Alias string
}

type aliasTarget struct {
	Index string `json:"index"`
	Alias string `json:"alias"`
}

type aliasesRequest struct {
	Actions []map[AliasActionType]aliasTarget `json:"actions"`
}

// AliasExists checks whether an alias with the given name exists.
func (c *Client) AliasExists(ctx context.Context, alias string) (bool, error) {
	res, err := c.es.Indices.ExistsAlias([]string{alias}, c.es.Indices.ExistsAlias.WithContext(ctx))
	if err != nil {
		return false, transportError("check alias", alias, err)
	}
	defer c.closeResponse(res, "AliasExists")

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: check alias %s: %w", ErrEngineUnavailable, alias, decodeResponseError(res))
	}
}

// GetAlias returns the sorted names of the indices the alias resolves to.
// A missing alias yields an empty slice.
func (c *Client) GetAlias(ctx context.Context, alias string) ([]string, error) {
	res, err := c.es.Indices.GetAlias(
		c.es.Indices.GetAlias.WithName(alias),
		c.es.Indices.GetAlias.WithContext(ctx),
	)
	if err != nil {
		return nil, transportError("get alias", alias, err)
	}
	defer c.closeResponse(res, "GetAlias")

	if res.StatusCode == http.StatusNotFound {
		return []string{}, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: get alias %s: %w", ErrEngineUnavailable, alias, decodeResponseError(res))
	}

	var payload map[string]json.RawMessage
	if decodeErr := json.NewDecoder(res.Body).Decode(&payload); decodeErr != nil {
		return nil, fmt.Errorf("%w: decode alias %s: %w", ErrEngineUnavailable, alias, decodeErr)
	}

	indices := make([]string, 0, len(payload))
	for index := range payload {
		indices = append(indices, index)
	}
	sort.Strings(indices)
	return indices, nil
}

// UpdateAliases applies all actions in one _aliases request. Elasticsearch
// applies the actions atomically: either all of them take effect or none do.
func (c *Client) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	if len(actions) == 0 {
		return nil
	}

	req := aliasesRequest{Actions: make([]map[AliasActionType]aliasTarget, 0, len(actions))}
	for _, action := range actions {
		req.Actions = append(req.Actions, map[AliasActionType]aliasTarget{
			action.Type: {Index: action.Index, Alias: action.Alias},
		})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return fmt.Errorf("error encoding alias actions: %w", err)
	}

	res, err := c.es.Indices.UpdateAliases(&buf, c.es.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		return transportError("update aliases", actions[0].Alias, err)
	}
	defer c.closeResponse(res, "UpdateAliases")

	if res.IsError() {
		return decodeResponseError(res)
	}

	c.logger.Debug("Updated aliases", logger.Int("actions", len(actions)))
	return nil
}
