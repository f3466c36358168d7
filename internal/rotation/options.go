package rotation

import (
	"errors"
	"fmt"
)

// DefaultManager is the manager used when none is named.
const DefaultManager = "default"

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid options")

// Modes, used as history and metrics labels.
const (
	ModeDump   = "dump"
	ModeCreate = "create"
	ModeTime   = "time"
	ModeAlias  = "alias"
)

// Options are the flags of one index create invocation.
type Options struct {
	// Manager selects the configured manager.
	Manager string
	// NoMapping creates the index without a body.
	NoMapping bool
	// IfNotExists turns an existing target into a success.
	IfNotExists bool
	// Time suffixes the physical index name with a timestamp.
	Time bool
	// Alias rotates the manager's alias onto the new index. Implies Time.
	Alias bool
	// Dump prints the current mapping and exits without mutation.
	Dump bool
}

// Validate checks the options once, before any engine call.
func (o Options) Validate() error {
	if o.Manager == "" {
		return fmt.Errorf("%w: manager name is required", ErrInvalidOptions)
	}
	return nil
}

// Rotating reports whether a freshly suffixed name is needed.
func (o Options) Rotating() bool {
	return o.Time || o.Alias
}

// Mode returns the label describing what the options do.
func (o Options) Mode() string {
	switch {
	case o.Dump:
		return ModeDump
	case o.Alias:
		return ModeAlias
	case o.Time:
		return ModeTime
	default:
		return ModeCreate
	}
}
