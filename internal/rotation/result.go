package rotation

import (
	"errors"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/config"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/naming"
)

// State is a state of the rotation state machine.
type State string

// States. DumpAndExit, ExistenceShortCircuit, Done and Failed are terminal.
const (
	StateInit                  State = "init"
	StateModeDispatch          State = "mode_dispatch"
	StateDumpAndExit           State = "dump_and_exit"
	StateExistenceShortCircuit State = "existence_short_circuit"
	StateCreate                State = "create"
	StateAliasSwap             State = "alias_swap"
	StateDone                  State = "done"
	StateFailed                State = "failed"
)

// FailureKind classifies a failed run.
type FailureKind string

// Failure kinds.
const (
	KindNone                FailureKind = ""
	KindConfiguration       FailureKind = "configuration"
	KindAlreadyExists       FailureKind = "already_exists"
	KindNotFound            FailureKind = "not_found"
	KindEngineCommunication FailureKind = "engine_communication"
	KindAliasSwap           FailureKind = "alias_swap"
	KindInternal            FailureKind = "internal"
)

// Result is the outcome of Orchestrator.Run.
type Result struct {
	State State
	Kind  FailureKind
	// Index is the physical index the run created, or would have.
	Index string
	// Alias is set for alias rotations.
	Alias string
	// PreviousIndices held the alias before the swap. They are left in place.
	PreviousIndices []string
	// Orphan is an index that was created but could not be aliased.
	Orphan string
	// FailedAt is the state a failed run stopped in.
	FailedAt State
	// Message is the text to show the operator.
	Message string
	Err     error
}

// Success reports whether the run ended in a success state.
func (r Result) Success() bool {
	switch r.State {
	case StateDumpAndExit, StateExistenceShortCircuit, StateDone:
		return true
	default:
		return false
	}
}

// ExitCode is 0 for a success state and 1 otherwise.
func (r Result) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}

// classify maps an error to its failure kind. A swap failure may wrap an
// engine error, so ErrAliasSwap is matched first.
func classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, config.ErrUnknownManager), errors.Is(err, ErrInvalidOptions):
		return KindConfiguration
	case errors.Is(err, manager.ErrAliasSwap):
		return KindAliasSwap
	case errors.Is(err, elasticsearch.ErrIndexAlreadyExists), errors.Is(err, naming.ErrNameExhausted):
		return KindAlreadyExists
	case errors.Is(err, elasticsearch.ErrIndexNotFound):
		return KindNotFound
	case errors.Is(err, elasticsearch.ErrEngineUnavailable), errors.Is(err, elasticsearch.ErrAmbiguousMapping):
		// An alias spanning several indices has no single mapping to report.
		return KindEngineCommunication
	default:
		return KindInternal
	}
}
