package colladmin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/colladmin/internal/domain/record"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
	"github.com/kailas-cloud/colladmin/internal/usecase/crud"
	"github.com/kailas-cloud/colladmin/internal/usecase/validation"
)

// Collection works with the records of one collection. Mutations are
// single-flight: a mutation started while another one is in flight fails
// with ErrBusy.
type Collection struct {
	name    string
	repo    *items.Repo
	session *browse.Session
	obs     *observer
}

// Name returns the collection name.
func (col *Collection) Name() string { return col.name }

// Describe loads the field metadata and resolves it into a Schema.
func (col *Collection) Describe(ctx context.Context) (_ Schema, err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "describe", start, err) }()

	v, err := col.session.Select(ctx, col.name)
	if err != nil {
		return Schema{}, fmt.Errorf("colladmin: describe %s: %w", col.name, err)
	}
	return schemaFromView(v), nil
}

// List returns one page of records.
func (col *Collection) List(ctx context.Context, opts ListOptions) (_ []Record, err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "list", start, err) }()

	env := col.repo.List(ctx, opts.pagination())
	if err := envelopeErr("list", col.name, env); err != nil {
		return nil, err
	}
	out := make([]Record, len(env.Data))
	for i, row := range env.Data {
		out[i] = Record(row)
	}
	return out, nil
}

// Get returns one record.
func (col *Collection) Get(ctx context.Context, id string) (_ Record, err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "get", start, err) }()

	env := col.repo.Get(ctx, id)
	if err := envelopeErr("get", col.name, env); err != nil {
		return nil, err
	}
	return Record(env.Data), nil
}

// Validate checks data against the collection schema without sending it.
// It returns nil when data is valid.
func (col *Collection) Validate(ctx context.Context, data Record) (*ValidationError, error) {
	if err := col.ensure(ctx); err != nil {
		return nil, err
	}
	v, _ := col.session.View()
	if errs := validation.ValidateRecord(v.Descriptor, data); errs != nil {
		return &ValidationError{Fields: errs.ByField()}, nil
	}
	return nil, nil
}

// Create validates data and creates a record.
func (col *Collection) Create(ctx context.Context, data Record) (err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "create", start, err) }()

	o, err := col.orchestrator(ctx)
	if err != nil {
		return err
	}
	o.OpenCreate()
	return col.submitted("create", o, o.SubmitCreate(ctx, data))
}

// Update validates data and replaces the fields of a record. Fields absent
// from data keep their current values.
func (col *Collection) Update(ctx context.Context, id string, data Record) (err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "update", start, err) }()

	o, err := col.orchestrator(ctx)
	if err != nil {
		return err
	}
	env := col.repo.Get(ctx, id)
	if err := envelopeErr("update", col.name, env); err != nil {
		return err
	}
	item := record.FromMap(o.Descriptor(), env.Data)
	merged := item.ToMap()
	for k, v := range data {
		merged[k] = v
	}
	o.OpenEdit(item)
	return col.submitted("update", o, o.SubmitEdit(ctx, merged))
}

// Delete removes a record.
func (col *Collection) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { col.obs.observe(col.name, "delete", start, err) }()

	o, err := col.orchestrator(ctx)
	if err != nil {
		return err
	}
	desc := o.Descriptor()
	o.OpenDelete(record.FromMap(desc, map[string]any{desc.PrimaryName(): id}))
	return col.submitted("delete", o, o.ConfirmDelete(ctx))
}

func (col *Collection) orchestrator(ctx context.Context) (*crud.Orchestrator, error) {
	if err := col.ensure(ctx); err != nil {
		return nil, err
	}
	o, err := col.session.Orchestrator()
	if err != nil {
		return nil, fmt.Errorf("colladmin: %s: %w", col.name, err)
	}
	if o.State().IsLoading() {
		return nil, fmt.Errorf("colladmin: %s: %w", col.name, ErrBusy)
	}
	return o, nil
}

// submitted converts the result of a submit into the public error shape
// and closes the sheet unless another mutation is still in flight.
func (col *Collection) submitted(op string, o *crud.Orchestrator, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrBusy) {
		o.Close()
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &ValidationError{Fields: verrs.ByField()}
	}
	return fmt.Errorf("colladmin: %s %s: %w", op, col.name, err)
}
