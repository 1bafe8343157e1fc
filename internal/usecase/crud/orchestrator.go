// Package crud coordinates the create/edit/view/delete flow of one
// collection and the mutations behind it.
package crud

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
	"github.com/kailas-cloud/colladmin/internal/metrics"
	"github.com/kailas-cloud/colladmin/internal/usecase/validation"
)

// Submission results reported to metrics.
const (
	resultOK       = "ok"
	resultInvalid  = "invalid"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Option configures the Orchestrator.
type Option interface {
	apply(*Orchestrator)
}

type optionFunc func(*Orchestrator)

func (f optionFunc) apply(o *Orchestrator) { f(o) }

// WithLogger enables structured logging of transitions and submissions.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithRefresher sets the list refetch run after each successful mutation.
func WithRefresher(fn Refresher) Option {
	return optionFunc(func(o *Orchestrator) { o.refresh = fn })
}

// Orchestrator owns the CRUD state of one collection. It is safe for
// concurrent use; at most one mutation is in flight at a time.
type Orchestrator struct {
	repo    Mutator
	desc    collection.Descriptor
	form    *validation.Form
	refresh Refresher
	logger  *zap.Logger

	mu        sync.Mutex
	state     State
	epoch     uint64 // bumped on every transition; stale completions leave the state alone
	inflight  bool
	listeners []func(State)
}

// New creates an orchestrator in the Closed state.
func New(repo Mutator, desc collection.Descriptor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:   repo,
		desc:   desc,
		form:   validation.NewRecordForm(desc),
		logger: zap.NewNop(),
		state:  closedState(),
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	o.logger = o.logger.With(zap.String("collection", desc.Identifier()))
	return o
}

// Descriptor returns the collection the orchestrator edits.
func (o *Orchestrator) Descriptor() collection.Descriptor { return o.desc }

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// OnChange registers fn to receive every new state. fn runs outside the
// orchestrator lock and may call State.
func (o *Orchestrator) OnChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// CheckField validates one form input without submitting.
func (o *Orchestrator) CheckField(name string, value any) *validation.Error {
	return o.form.CheckField(name, value)
}

// OpenCreate opens an empty create form.
func (o *Orchestrator) OpenCreate() { o.transition(createState()) }

// OpenEdit opens the edit form of item.
func (o *Orchestrator) OpenEdit(item record.Record) { o.transition(itemState(ModeEdit, item)) }

// OpenView opens the read-only view of item.
func (o *Orchestrator) OpenView(item record.Record) { o.transition(itemState(ModeView, item)) }

// OpenDelete opens the delete confirmation of item.
func (o *Orchestrator) OpenDelete(item record.Record) { o.transition(itemState(ModeDelete, item)) }

// Close returns to Closed and discards unsaved input.
func (o *Orchestrator) Close() { o.transition(closedState()) }

func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	o.epoch++
	next.loading = o.inflight
	o.state = next
	snap, ls := o.state, o.listeners
	o.mu.Unlock()

	o.logger.Debug("crud transition", zap.String("mode", string(next.Mode())))
	notify(ls, snap)
}

// SubmitCreate validates data and creates a record. Valid only in Create.
func (o *Orchestrator) SubmitCreate(ctx context.Context, data map[string]any) error {
	return o.submit(ctx, ModeCreate, data, func(ctx context.Context, _ string) (string, *domain.TransportError) {
		env := o.repo.Create(ctx, data)
		return env.Message, env.Err
	})
}

// SubmitEdit validates data and updates the selected item. Valid only in Edit.
func (o *Orchestrator) SubmitEdit(ctx context.Context, data map[string]any) error {
	return o.submit(ctx, ModeEdit, data, func(ctx context.Context, id string) (string, *domain.TransportError) {
		env := o.repo.Update(ctx, id, data)
		return env.Message, env.Err
	})
}

// ConfirmDelete deletes the selected item. Valid only in Delete.
func (o *Orchestrator) ConfirmDelete(ctx context.Context) error {
	return o.submit(ctx, ModeDelete, nil, func(ctx context.Context, id string) (string, *domain.TransportError) {
		env := o.repo.Delete(ctx, id)
		return env.Message, env.Err
	})
}

type mutation func(ctx context.Context, id string) (string, *domain.TransportError)

func (o *Orchestrator) submit(ctx context.Context, mode Mode, data map[string]any, call mutation) error {
	o.mu.Lock()
	if err := o.admit(mode); err != nil {
		o.mu.Unlock()
		o.record(mode, resultRejected)
		o.logger.Debug("submit rejected", zap.String("mode", string(mode)), zap.Error(err))
		return err
	}

	if mode != ModeDelete {
		if errs := o.form.Validate(data); errs != nil {
			o.state.err, o.state.message = nil, ""
			o.state.fieldErrors = errs.ByField()
			snap, ls := o.state, o.listeners
			o.mu.Unlock()
			o.record(mode, resultInvalid)
			notify(ls, snap)
			return errs
		}
	}

	var id string
	if item, ok := o.state.SelectedItem(); ok {
		id = item.ID()
		if id == "" {
			o.mu.Unlock()
			o.record(mode, resultRejected)
			return fmt.Errorf("%w: selected item has no %s", domain.ErrValidation, o.desc.PrimaryName())
		}
	}

	o.inflight = true
	o.state.loading = true
	o.state.err, o.state.message, o.state.fieldErrors = nil, "", nil
	epoch := o.epoch
	snap, ls := o.state, o.listeners
	o.mu.Unlock()
	notify(ls, snap)

	message, terr := call(ctx, id)

	o.mu.Lock()
	o.inflight = false
	switch {
	case epoch != o.epoch:
		// The user moved on; only the in-flight marker is cleared.
		o.state.loading = false
	case terr != nil:
		o.state.loading = false
		o.state.err, o.state.message = terr, message
	default:
		o.epoch++
		o.state = closedState()
	}
	snap, ls = o.state, o.listeners
	o.mu.Unlock()
	notify(ls, snap)

	if terr != nil {
		o.record(mode, resultFailed)
		o.logger.Warn("submit failed",
			zap.String("mode", string(mode)),
			zap.String("category", string(terr.Category)),
			zap.Int("status", terr.Status),
			zap.String("message", message),
		)
		return terr
	}

	o.record(mode, resultOK)
	o.logger.Info("submit succeeded", zap.String("mode", string(mode)), zap.String("id", id))
	if o.refresh == nil {
		return nil
	}
	if err := o.refresh(ctx); err != nil {
		o.logger.Warn("refresh after mutation failed", zap.Error(err))
		return fmt.Errorf("refresh after %s: %w", mode, err)
	}
	return nil
}

// admit checks mode and single-flight; o.mu must be held.
func (o *Orchestrator) admit(mode Mode) error {
	if o.state.Mode() != mode {
		return fmt.Errorf("%w: cannot submit %s while %s", domain.ErrInvalidTransition, mode, o.state.Mode())
	}
	if o.inflight {
		return domain.ErrBusy
	}
	return nil
}

func (o *Orchestrator) record(mode Mode, result string) {
	metrics.SubmissionsTotal.WithLabelValues(string(mode), result).Inc()
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
