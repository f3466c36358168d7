package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
)

// ErrUnknownManager is returned for a manager name that is not configured.
var ErrUnknownManager = errors.New("unknown manager")

// Registry maps logical manager names to managers. It is built once at
// startup and not modified afterwards.
type Registry struct {
	managers map[string]*manager.Manager
}

// BuildRegistry creates one manager per configured entry, loading mapping
// files as it goes. All managers share engine.
func BuildRegistry(cfg *Config, engine manager.Engine) (*Registry, error) {
	r := &Registry{managers: make(map[string]*manager.Manager, len(cfg.Managers))}

	for _, name := range cfg.ManagerNames() {
		mc := cfg.Managers[name]

		mapping, err := cfg.resolveMapping(mc)
		if err != nil {
			return nil, fmt.Errorf("manager %s: %w", name, err)
		}
		r.managers[name] = manager.New(name, mc.IndexName, mapping, engine)
	}

	return r, nil
}

// Get returns the manager registered under name.
func (r *Registry) Get(name string) (*manager.Manager, error) {
	m, ok := r.managers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownManager, name)
	}
	return m, nil
}

// resolveMapping returns the inline mapping or the decoded mapping file.
func (c *Config) resolveMapping(mc ManagerConfig) (map[string]any, error) {
	if mc.MappingFile == "" {
		return mc.Mapping, nil
	}

	path := mc.MappingFile
	if !filepath.IsAbs(path) && c.baseDir != "" {
		path = filepath.Join(c.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file %s: %w", path, err)
	}

	var mapping map[string]any
	if unmarshalErr := json.Unmarshal(data, &mapping); unmarshalErr != nil {
		return nil, &ValidationError{
			Field:   "mapping_file",
			Message: fmt.Sprintf("%s is not a JSON object: %v", path, unmarshalErr),
		}
	}
	return mapping, nil
}
