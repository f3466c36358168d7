// Package testutils provides test doubles shared by index-rotator's packages.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
)

// Engine operation names, used for call recording and failure injection.
const (
	OpIndexExists   = "IndexExists"
	OpCreateIndex   = "CreateIndex"
	OpDeleteIndex   = "DeleteIndex"
	OpGetMapping    = "GetMapping"
	OpAliasExists   = "AliasExists"
	OpGetAlias      = "GetAlias"
	OpUpdateAliases = "UpdateAliases"
)

// Call is one recorded engine call.
type Call struct {
	Op   string
	Name string
}

// FakeEngine is an in-memory Elasticsearch stand-in. Alias updates are
// validated in full before any of them is applied, like the _aliases API.
type FakeEngine struct {
	mu sync.Mutex

	indices map[string]map[string]any
	aliases map[string]map[string]struct{}

	calls        []Call
	aliasUpdates [][]elasticsearch.AliasAction
	failures     map[string]error
}

// NewFakeEngine returns an empty engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		indices:  make(map[string]map[string]any),
		aliases:  make(map[string]map[string]struct{}),
		failures: make(map[string]error),
	}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (f *FakeEngine) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Calls returns a copy of the recorded calls.
func (f *FakeEngine) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CountCalls returns how many times op was called.
func (f *FakeEngine) CountCalls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// AliasUpdates returns the action lists of every UpdateAliases request.
func (f *FakeEngine) AliasUpdates() [][]elasticsearch.AliasAction {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]elasticsearch.AliasAction, len(f.aliasUpdates))
	copy(out, f.aliasUpdates)
	return out
}

// Indices returns the sorted names of all physical indices.
func (f *FakeEngine) Indices() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.indices))
	for name := range f.indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seed registers an index directly, bypassing call recording.
func (f *FakeEngine) Seed(name string, mappings map[string]any, aliases ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if mappings == nil {
		mappings = map[string]any{}
	}
	f.indices[name] = mappings
	for _, alias := range aliases {
		f.addAlias(alias, name)
	}
}

func (f *FakeEngine) record(op, name string) error {
	f.calls = append(f.calls, Call{Op: op, Name: name})
	return f.failures[op]
}

func (f *FakeEngine) addAlias(alias, index string) {
	if f.aliases[alias] == nil {
		f.aliases[alias] = make(map[string]struct{})
	}
	f.aliases[alias][index] = struct{}{}
}

func (f *FakeEngine) aliasedIndices(alias string) []string {
	members := f.aliases[alias]
	out := make([]string, 0, len(members))
	for index := range members {
		out = append(out, index)
	}
	sort.Strings(out)
	return out
}

// IndexExists reports whether name is an index or an alias.
func (f *FakeEngine) IndexExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpIndexExists, name); err != nil {
		return false, err
	}
	_, isIndex := f.indices[name]
	return isIndex || len(f.aliases[name]) > 0, nil
}

// CreateIndex registers name, keeping the "mappings" section of body.
func (f *FakeEngine) CreateIndex(_ context.Context, name string, body map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpCreateIndex, name); err != nil {
		return err
	}
	if _, exists := f.indices[name]; exists || len(f.aliases[name]) > 0 {
		return fmt.Errorf("%w: %s", elasticsearch.ErrIndexAlreadyExists, name)
	}

	mappings := map[string]any{}
	if m, ok := body["mappings"].(map[string]any); ok {
		mappings = m
	}
	f.indices[name] = mappings
	return nil
}

// DeleteIndex removes name and its alias memberships. Like Elasticsearch, it
// refuses an alias name with a 400 illegal_argument_exception.
func (f *FakeEngine) DeleteIndex(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpDeleteIndex, name); err != nil {
		return err
	}
	if _, exists := f.indices[name]; !exists {
		if len(f.aliases[name]) > 0 {
			return fmt.Errorf("%w: delete index %s: %w", elasticsearch.ErrEngineUnavailable, name, &elasticsearch.ResponseError{
				Status: 400,
				Type:   "illegal_argument_exception",
				Reason: fmt.Sprintf("The provided expression [%s] matches an alias, specify the corresponding concrete indices instead.", name),
			})
		}
		return fmt.Errorf("%w: %s", elasticsearch.ErrIndexNotFound, name)
	}

	delete(f.indices, name)
	for alias, members := range f.aliases {
		delete(members, name)
		if len(members) == 0 {
			delete(f.aliases, alias)
		}
	}
	return nil
}

// GetMapping returns the mappings of an index, or of the single index an
// alias resolves to.
func (f *FakeEngine) GetMapping(_ context.Context, name string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpGetMapping, name); err != nil {
		return nil, err
	}
	if mappings, ok := f.indices[name]; ok {
		return mappings, nil
	}

	members := f.aliasedIndices(name)
	switch len(members) {
	case 0:
		return nil, fmt.Errorf("%w: %s", elasticsearch.ErrIndexNotFound, name)
	case 1:
		return f.indices[members[0]], nil
	default:
		return nil, fmt.Errorf("%w: %s", elasticsearch.ErrAmbiguousMapping, name)
	}
}

// AliasExists reports whether alias resolves to at least one index.
func (f *FakeEngine) AliasExists(_ context.Context, alias string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpAliasExists, alias); err != nil {
		return false, err
	}
	return len(f.aliases[alias]) > 0, nil
}

// GetAlias returns the sorted indices alias resolves to.
func (f *FakeEngine) GetAlias(_ context.Context, alias string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(OpGetAlias, alias); err != nil {
		return nil, err
	}
	return f.aliasedIndices(alias), nil
}

// UpdateAliases validates every action, then applies all of them.
func (f *FakeEngine) UpdateAliases(_ context.Context, actions []elasticsearch.AliasAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := ""
	if len(actions) > 0 {
		name = actions[0].Alias
	}
	if err := f.record(OpUpdateAliases, name); err != nil {
		return err
	}

	for _, action := range actions {
		if _, ok := f.indices[action.Index]; !ok {
			return &elasticsearch.ResponseError{Status: 404, Type: "index_not_found_exception", Reason: action.Index}
		}
		if _, clash := f.indices[action.Alias]; clash {
			return &elasticsearch.ResponseError{
				Status: 400,
				Type:   "invalid_alias_name_exception",
				Reason: "an index or data stream exists with the same name as the alias",
			}
		}
		if action.Type == elasticsearch.AliasRemove {
			if _, member := f.aliases[action.Alias][action.Index]; !member {
				return &elasticsearch.ResponseError{Status: 404, Type: "aliases_not_found_exception", Reason: action.Alias}
			}
		}
	}

	recorded := make([]elasticsearch.AliasAction, len(actions))
	copy(recorded, actions)
	f.aliasUpdates = append(f.aliasUpdates, recorded)

	for _, action := range actions {
		switch action.Type {
		case elasticsearch.AliasAdd:
			f.addAlias(action.Alias, action.Index)
		case elasticsearch.AliasRemove:
			delete(f.aliases[action.Alias], action.Index)
			if len(f.aliases[action.Alias]) == 0 {
				delete(f.aliases, action.Alias)
			}
		}
	}
	return nil
}
