package items

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/metrics"
)

// Envelope is the uniform result of every repository call. Failures are
// folded into Message and Err; they are never returned as Go errors.
type Envelope[T any] struct {
	Data    T
	Success bool
	Message string
	Err     *domain.TransportError
}

func succeeded[T any](data T) Envelope[T] {
	return Envelope[T]{Data: data, Success: true}
}

func failed[T any](terr *domain.TransportError) Envelope[T] {
	return Envelope[T]{Message: foldMessage(terr), Err: terr}
}

// foldMessage renders "<status text> (HTTP <code>): <server message>".
func foldMessage(terr *domain.TransportError) string {
	if terr.Status == 0 {
		return "Network error: " + terr.Message
	}
	return fmt.Sprintf("%s (HTTP %d): %s", http.StatusText(terr.Status), terr.Status, terr.Message)
}

// Pagination holds optional list parameters. Zero values are omitted from
// the query so the backend applies its defaults.
type Pagination struct {
	Limit   int
	Offset  int
	Page    int
	PerPage int
	Sort    string
	Order   string
	Filter  string
}

// Query encodes the set parameters.
func (p Pagination) Query() url.Values {
	q := url.Values{}
	setInt := func(k string, v int) {
		if v > 0 {
			q.Set(k, strconv.Itoa(v))
		}
	}
	setStr := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setInt("limit", p.Limit)
	setInt("offset", p.Offset)
	setInt("page", p.Page)
	setInt("per_page", p.PerPage)
	setStr("sort", p.Sort)
	setStr("order", p.Order)
	setStr("filter", p.Filter)
	return q
}

// Repo is the repository of one named collection.
type Repo struct {
	client     *Client
	collection string
}

// New creates a repository scoped to a collection.
func New(client *Client, collection string) *Repo {
	return &Repo{client: client, collection: collection}
}

// Collection returns the collection identifier.
func (r *Repo) Collection() string { return r.collection }

// List fetches one page of records.
func (r *Repo) List(ctx context.Context, p Pagination) Envelope[[]map[string]any] {
	var rows []map[string]any
	terr := r.call(ctx, "list", request{
		method: http.MethodGet,
		path:   []string{"items", r.collection},
		query:  p.Query(),
	}, &rows)
	if terr != nil {
		return failed[[]map[string]any](terr)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return succeeded(rows)
}

// Get fetches one record by id.
func (r *Repo) Get(ctx context.Context, id string) Envelope[map[string]any] {
	var row map[string]any
	terr := r.call(ctx, "get", request{
		method: http.MethodGet,
		path:   []string{"items", r.collection, id},
	}, &row)
	if terr != nil {
		return failed[map[string]any](terr)
	}
	return succeeded(row)
}

// Create stores a new record and returns it as persisted.
func (r *Repo) Create(ctx context.Context, payload map[string]any) Envelope[map[string]any] {
	var row map[string]any
	terr := r.call(ctx, "create", request{
		method: http.MethodPost,
		path:   []string{"items", r.collection},
		body:   payload,
	}, &row)
	if terr != nil {
		return failed[map[string]any](terr)
	}
	return succeeded(row)
}

// Update replaces the fields of an existing record.
func (r *Repo) Update(ctx context.Context, id string, payload map[string]any) Envelope[map[string]any] {
	var row map[string]any
	terr := r.call(ctx, "update", request{
		method: http.MethodPut,
		path:   []string{"items", r.collection, id},
		body:   payload,
	}, &row)
	if terr != nil {
		return failed[map[string]any](terr)
	}
	return succeeded(row)
}

// Delete removes a record. Deleting a missing id yields a not_found failure.
func (r *Repo) Delete(ctx context.Context, id string) Envelope[struct{}] {
	terr := r.call(ctx, "delete", request{
		method: http.MethodDelete,
		path:   []string{"items", r.collection, id},
	}, nil)
	if terr != nil {
		return failed[struct{}](terr)
	}
	return succeeded(struct{}{})
}

// GetSchema fetches the raw field metadata of the collection.
func (r *Repo) GetSchema(ctx context.Context) Envelope[[]field.Raw] {
	var raws []field.Raw
	terr := r.call(ctx, "schema", request{
		method: http.MethodGet,
		path:   []string{"items", "fields"},
		query:  schemaQuery(r.collection),
	}, &raws)
	if terr != nil {
		return failed[[]field.Raw](terr)
	}
	if raws == nil {
		raws = []field.Raw{}
	}
	return succeeded(raws)
}

// schemaQuery addresses the collection by id when the identifier looks like
// one (numeric or UUID), by name otherwise.
func schemaQuery(identifier string) url.Values {
	q := url.Values{}
	if looksLikeID(identifier) {
		q.Set("collection_id", identifier)
	} else {
		q.Set("name", identifier)
	}
	return q
}

func looksLikeID(s string) bool {
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// call performs exactly one round trip and records it.
func (r *Repo) call(ctx context.Context, op string, req request, out any) *domain.TransportError {
	start := time.Now()
	terr := r.client.do(ctx, req, out)
	dur := time.Since(start)

	outcome := metrics.OutcomeOK
	if terr != nil {
		outcome = string(terr.Category)
	}
	metrics.FacadeRequestsTotal.WithLabelValues(r.collection, op, outcome).Inc()
	metrics.FacadeRequestDuration.WithLabelValues(r.collection, op).Observe(dur.Seconds())

	if terr != nil {
		r.client.logger.Warn("backend call failed",
			zap.String("collection", r.collection),
			zap.String("op", op),
			zap.String("category", string(terr.Category)),
			zap.Int("status", terr.Status),
			zap.Duration("duration", dur),
			zap.Error(terr),
		)
		return terr
	}
	r.client.logger.Debug("backend call completed",
		zap.String("collection", r.collection),
		zap.String("op", op),
		zap.Duration("duration", dur),
	)
	return nil
}
