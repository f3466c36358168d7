// Package manager binds a logical manager identity to the physical index it
// currently addresses and exposes the index and alias operations issued
// against Elasticsearch on its behalf.
package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
)

// ErrAliasSwap is returned when the atomic alias update is rejected or fails.
// The target index is left in place, unaliased.
var ErrAliasSwap = errors.New("alias swap failed")

// Engine is the set of Elasticsearch operations a Manager needs.
type Engine interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, body map[string]any) error
	DeleteIndex(ctx context.Context, name string) error
	GetMapping(ctx context.Context, name string) (map[string]any, error)
	AliasExists(ctx context.Context, alias string) (bool, error)
	GetAlias(ctx context.Context, alias string) ([]string, error)
	UpdateAliases(ctx context.Context, actions []elasticsearch.AliasAction) error
}

// Manager is a logical index manager. Name, base name and mapping are fixed
// at construction; the current index name changes as indices are created or
// rotated in.
type Manager struct {
	name     string
	baseName string
	mapping  map[string]any
	engine   Engine

	currentIndexName string
}

// New creates a Manager. The engine is shared, not owned.
func New(name, baseName string, mapping map[string]any, engine Engine) *Manager {
	return &Manager{
		name:             name,
		baseName:         baseName,
		mapping:          mapping,
		engine:           engine,
		currentIndexName: baseName,
	}
}

// Name returns the logical manager name.
func (m *Manager) Name() string { return m.name }

// BaseName returns the configured base index name. It doubles as the alias
// name in rotation mode.
func (m *Manager) BaseName() string { return m.baseName }

// AliasName returns the alias the manager's rotations publish to.
func (m *Manager) AliasName() string { return m.baseName }

// Mapping returns the configured index body. It may be nil.
func (m *Manager) Mapping() map[string]any { return m.mapping }

// IndexName returns the physical index the manager currently addresses.
func (m *Manager) IndexName() string { return m.currentIndexName }

// SetIndexName points the manager at another physical index.
func (m *Manager) SetIndexName(name string) { m.currentIndexName = name }

// IndexExists reports whether name is registered with the engine.
func (m *Manager) IndexExists(ctx context.Context, name string) (bool, error) {
	return m.engine.IndexExists(ctx, name)
}

// CreateIndex creates name, sending the configured body when withMapping is
// set. An existing name yields elasticsearch.ErrIndexAlreadyExists.
func (m *Manager) CreateIndex(ctx context.Context, name string, withMapping bool) error {
	var body map[string]any
	if withMapping {
		body = m.mapping
	}

	if err := m.engine.CreateIndex(ctx, name, body); err != nil {
		return fmt.Errorf("failed to create index %s for manager %s: %w", name, m.name, err)
	}
	return nil
}

// DropIndex deletes name. A missing index yields elasticsearch.ErrIndexNotFound.
func (m *Manager) DropIndex(ctx context.Context, name string) error {
	if err := m.engine.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("failed to drop index %s for manager %s: %w", name, m.name, err)
	}
	return nil
}

// GetMapping returns the mappings currently stored by the engine for name.
func (m *Manager) GetMapping(ctx context.Context, name string) (map[string]any, error) {
	mapping, err := m.engine.GetMapping(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping of %s: %w", name, err)
	}
	return mapping, nil
}

// AliasExists reports whether alias is registered. Diagnostic only.
func (m *Manager) AliasExists(ctx context.Context, alias string) (bool, error) {
	return m.engine.AliasExists(ctx, alias)
}

// GetAliasedIndices returns the indices alias currently resolves to. Diagnostic only.
func (m *Manager) GetAliasedIndices(ctx context.Context, alias string) ([]string, error) {
	indices, err := m.engine.GetAlias(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("failed to get indices of alias %s: %w", alias, err)
	}
	return indices, nil
}

// SwapAlias moves alias from every index in from to to. Removals and the
// addition must go out in the same _aliases request.
func (m *Manager) SwapAlias(ctx context.Context, alias string, from []string, to string) error {
	actions := make([]elasticsearch.AliasAction, 0, len(from)+1)
	for _, index := range from {
		if index == to {
			continue
		}
		actions = append(actions, elasticsearch.AliasAction{
			Type:  elasticsearch.AliasRemove,
			Index: index,
			Alias: alias,
		})
	}
	actions = append(actions, elasticsearch.AliasAction{
		Type:  elasticsearch.AliasAdd,
		Index: to,
		Alias: alias,
	})

	if err := m.engine.UpdateAliases(ctx, actions); err != nil {
		return fmt.Errorf("%w: alias %s to %s: %w", ErrAliasSwap, alias, to, err)
	}
	return nil
}
