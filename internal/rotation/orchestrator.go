// Package rotation sequences name resolution, index creation and the alias
// swap for one index create invocation.
package rotation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/database"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/naming"
)

const dumpIndent = "    "

// Registry resolves logical manager names.
type Registry interface {
	Get(name string) (*manager.Manager, error)
}

// HistoryRecorder persists finished create and rotate runs.
type HistoryRecorder interface {
	RecordRotation(ctx context.Context, rec *database.RotationRecord) error
}

// MetricsObserver receives one observation per run.
type MetricsObserver interface {
	ObserveOperation(manager, mode string, success bool, duration time.Duration)
}

// Orchestrator runs the rotation state machine. It never retries.
type Orchestrator struct {
	registry Registry
	resolver *naming.Resolver
	logger   logger.Logger
	history  HistoryRecorder
	metrics  MetricsObserver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHistory records create and rotate runs. Dumps and short circuits are
// not recorded.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithMetrics observes every run.
func WithMetrics(m MetricsObserver) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator.
func New(registry Registry, resolver *naming.Resolver, log logger.Logger, opts ...Option) *Orchestrator {
	if resolver == nil {
		resolver = naming.NewResolver()
	}
	if log == nil {
		log = logger.NewNop()
	}

	o := &Orchestrator{
		registry: registry,
		resolver: resolver,
		logger:   log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one invocation. Failures are reported in the Result, never
// as a panic or a separate error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) Result {
	start := time.Now()
	res := o.run(ctx, opts)
	o.report(ctx, opts, res, time.Since(start))
	return res
}

func (o *Orchestrator) run(ctx context.Context, opts Options) Result {
	state := StateInit
	log := o.logger.With(logger.String("manager", opts.Manager), logger.String("mode", opts.Mode()))

	if err := opts.Validate(); err != nil {
		return fail(Result{}, state, err)
	}

	m, err := o.registry.Get(opts.Manager)
	if err != nil {
		return fail(Result{}, state, err)
	}

	state = StateModeDispatch
	if opts.Dump {
		return o.dump(ctx, m)
	}

	policy := naming.Plain
	if opts.Rotating() {
		policy = naming.TimeSuffixed
	}
	target, err := o.resolver.Resolve(ctx, m, policy)
	if err != nil {
		return fail(Result{}, state, err)
	}
	res := Result{Index: target}

	if opts.IfNotExists && target == m.IndexName() {
		exists, existsErr := m.IndexExists(ctx, target)
		if existsErr != nil {
			return fail(res, state, existsErr)
		}
		if exists {
			log.Info("Index already exists, skipping create", logger.String("index", target))
			res.State = StateExistenceShortCircuit
			res.Message = fmt.Sprintf("Index `%s` already exists in `%s` manager.", target, m.Name())
			return res
		}
	}

	state = StateCreate
	if createErr := m.CreateIndex(ctx, target, !opts.NoMapping); createErr != nil {
		return fail(res, state, createErr)
	}
	m.SetIndexName(target)
	log.Info("Created index", logger.String("index", target), logger.Bool("with_mapping", !opts.NoMapping))

	if !opts.Alias {
		res.State = StateDone
		res.Message = fmt.Sprintf("Created `%s` index for the `%s` manager.", target, m.Name())
		return res
	}

	state = StateAliasSwap
	res.Alias = m.AliasName()

	previous, err := m.GetAliasedIndices(ctx, res.Alias)
	if err != nil {
		res.Orphan = target
		return fail(res, state, err)
	}
	res.PreviousIndices = previous

	if swapErr := m.SwapAlias(ctx, res.Alias, previous, target); swapErr != nil {
		res.Orphan = target
		return fail(res, state, swapErr)
	}
	log.Info("Alias swapped",
		logger.String("alias", res.Alias),
		logger.String("index", target),
		logger.Strings("previous", previous),
	)

	res.State = StateDone
	res.Message = fmt.Sprintf("Created `%s` index for the `%s` manager and pointed the `%s` alias to it.",
		target, m.Name(), res.Alias)
	return res
}

// dump reads the mapping of the manager's current index. It never mutates.
func (o *Orchestrator) dump(ctx context.Context, m *manager.Manager) Result {
	res := Result{Index: m.IndexName()}

	mapping, err := m.GetMapping(ctx, m.IndexName())
	if err != nil {
		return fail(res, StateModeDispatch, err)
	}

	out, err := json.MarshalIndent(mapping, "", dumpIndent)
	if err != nil {
		return fail(res, StateModeDispatch, fmt.Errorf("failed to encode mapping: %w", err))
	}

	res.State = StateDumpAndExit
	res.Message = string(out)
	return res
}

// report feeds the metrics and history sinks. Their failures are logged only.
func (o *Orchestrator) report(ctx context.Context, opts Options, res Result, elapsed time.Duration) {
	if o.metrics != nil {
		o.metrics.ObserveOperation(opts.Manager, opts.Mode(), res.Success(), elapsed)
	}

	if !res.Success() {
		o.logger.Error("Index create failed",
			logger.String("manager", opts.Manager),
			logger.String("failed_at", string(res.FailedAt)),
			logger.String("kind", string(res.Kind)),
			logger.String("orphan", res.Orphan),
			logger.Error(res.Err),
		)
	}

	if o.history == nil || opts.Dump || res.State == StateExistenceShortCircuit || res.Kind == KindConfiguration {
		return
	}

	rec := &database.RotationRecord{
		ManagerName: opts.Manager,
		AliasName:   res.Alias,
		ToIndex:     res.Index,
		FromIndices: res.PreviousIndices,
		Mode:        opts.Mode(),
		Status:      database.StatusCompleted,
	}
	if !res.Success() {
		rec.Status = database.StatusFailed
		rec.ErrorMessage = sql.NullString{String: res.Err.Error(), Valid: true}
	}

	if err := o.history.RecordRotation(ctx, rec); err != nil {
		o.logger.Warn("Failed to record rotation history",
			logger.String("manager", opts.Manager),
			logger.Error(err),
		)
	}
}

// fail builds a Failed result. at is the state the run was in.
func fail(res Result, at State, err error) Result {
	res.State = StateFailed
	res.FailedAt = at
	res.Kind = classify(err)
	res.Err = err
	res.Message = err.Error()
	return res
}
