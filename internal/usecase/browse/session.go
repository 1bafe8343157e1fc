// Package browse tracks the selected collection and keeps its visible list
// consistent when fetches resolve out of order.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/crud"
	"github.com/kailas-cloud/colladmin/internal/usecase/display"
	"github.com/kailas-cloud/colladmin/internal/usecase/inference"
)

var (
	// ErrStale is returned for a fetch that was overtaken by a newer
	// selection or refresh; its data is discarded.
	ErrStale = errors.New("stale response discarded")
	// ErrNoSelection is returned before any collection is selected.
	ErrNoSelection = errors.New("no collection selected")
)

// View is what the table renders for the selected collection.
type View struct {
	Collection  string
	Generation  uint64
	Descriptor  collection.Descriptor
	Columns     []display.Column
	Records     []record.Record
	Synthesized bool // descriptor came from a sample record, not schema metadata
}

// Option configures the Session.
type Option interface {
	apply(*Session)
}

type optionFunc func(*Session)

func (f optionFunc) apply(s *Session) { f(s) }

// WithLogger enables structured logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(s *Session) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithPagination sets the list parameters used for every fetch.
func WithPagination(p items.Pagination) Option {
	return optionFunc(func(s *Session) { s.pagination = p })
}

// WithInference replaces the inference service.
func WithInference(svc *inference.Service) Option {
	return optionFunc(func(s *Session) {
		if svc != nil {
			s.infer = svc
		}
	})
}

// Session is the collection browser. Each Select bumps a generation
// counter; any response whose generation is no longer current is dropped.
type Session struct {
	open       Opener
	infer      *inference.Service
	pagination items.Pagination
	logger     *zap.Logger

	mu      sync.Mutex
	gen     uint64 // bumped per selection
	seq     uint64 // bumped per fetch
	applied uint64 // seq of the fetch the view came from
	name    string
	source  Source
	view    *View
	orch    *crud.Orchestrator
}

// New creates a session with nothing selected.
func New(open Opener, opts ...Option) *Session {
	s := &Session{
		open:   open,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	if s.infer == nil {
		s.infer = inference.New(s.logger)
	}
	return s
}

// fetch identifies one in-flight load.
type fetch struct {
	gen    uint64
	seq    uint64
	name   string
	source Source
}

// Select switches to a collection and loads its schema and first page
// concurrently. In-flight fetches for the previous selection are not
// cancelled; they resolve into ErrStale.
func (s *Session) Select(ctx context.Context, name string) (View, error) {
	s.mu.Lock()
	s.gen++
	s.seq++
	f := fetch{gen: s.gen, seq: s.seq, name: name, source: s.open(name)}
	s.name, s.source = name, f.source
	s.view, s.orch = nil, nil
	s.mu.Unlock()

	s.logger.Debug("select collection", zap.String("collection", name), zap.Uint64("generation", f.gen))
	return s.load(ctx, f, nil)
}

// Refresh refetches the list of the current selection. Before the first
// load completed it loads the schema as well.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return View{}, ErrNoSelection
	}
	s.seq++
	f := fetch{gen: s.gen, seq: s.seq, name: s.name, source: s.source}
	var prev *View
	if s.view != nil {
		v := *s.view
		prev = &v
	}
	s.mu.Unlock()

	return s.load(ctx, f, prev)
}

// View returns the current view, if one has loaded.
func (s *Session) View() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return View{}, false
	}
	return *s.view, true
}

// Orchestrator returns the CRUD orchestrator of the current selection.
// Successful mutations refresh the session. A synthesized schema can change
// between refreshes; the orchestrator is rebuilt to follow it once no
// mutation is in flight.
func (s *Session) Orchestrator() (*crud.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return nil, ErrNoSelection
	}
	if s.orch != nil && s.view.Synthesized && !s.orch.State().IsLoading() &&
		!sameShape(s.orch.Descriptor(), s.view.Descriptor) {
		s.logger.Debug("rebuild orchestrator for synthesized schema",
			zap.String("collection", s.name),
			zap.Int("fields", len(s.view.Descriptor.Fields())),
		)
		s.orch = nil
	}
	if s.orch == nil {
		s.orch = crud.New(s.source, s.view.Descriptor,
			crud.WithLogger(s.logger),
			crud.WithRefresher(func(ctx context.Context) error {
				_, err := s.Refresh(ctx)
				if errors.Is(err, ErrStale) {
					return nil
				}
				return err
			}),
		)
	}
	return s.orch, nil
}

// load fetches the list, plus the schema when prev is nil, and applies the
// result if f is still the newest fetch of the current generation.
func (s *Session) load(ctx context.Context, f fetch, prev *View) (View, error) {
	var (
		raws []field.Raw
		rows []map[string]any
	)
	g, gctx := errgroup.WithContext(ctx)
	if prev == nil {
		g.Go(func() error {
			env := f.source.GetSchema(gctx)
			if !env.Success {
				return envelopeErr("schema", env.Err)
			}
			raws = env.Data
			return nil
		})
	}
	g.Go(func() error {
		env := f.source.List(gctx, s.pagination)
		if !env.Success {
			return envelopeErr("list", env.Err)
		}
		rows = env.Data
		return nil
	})
	err := g.Wait()

	if s.stale(f) {
		s.logger.Debug("discard stale response",
			zap.String("collection", f.name),
			zap.Uint64("generation", f.gen),
		)
		return View{}, ErrStale
	}
	if err != nil {
		return View{}, fmt.Errorf("load %s: %w", f.name, err)
	}

	v, err := s.build(f, prev, raws, rows)
	if err != nil {
		return View{}, fmt.Errorf("load %s: %w", f.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f.gen != s.gen || f.seq <= s.applied {
		return View{}, ErrStale
	}
	s.applied = f.seq
	s.view = &v
	return v, nil
}

func (s *Session) stale(f fetch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.gen != s.gen || f.seq <= s.applied
}

// build derives the descriptor and typed records. With no schema metadata
// the descriptor is synthesized from the first record.
func (s *Session) build(f fetch, prev *View, raws []field.Raw, rows []map[string]any) (View, error) {
	var (
		desc        collection.Descriptor
		synthesized bool
		err         error
	)
	switch {
	case prev != nil && !prev.Synthesized:
		desc = prev.Descriptor
	case len(raws) > 0:
		desc, err = s.infer.Describe(f.name, raws)
	case len(rows) > 0:
		desc, err = s.infer.FromSample(f.name, rows[0])
		synthesized = true
	default:
		desc = collection.Reconstruct(f.name, nil)
		synthesized = true
	}
	if err != nil {
		return View{}, err
	}
	return View{
		Collection:  f.name,
		Generation:  f.gen,
		Descriptor:  desc,
		Columns:     display.Columns(desc),
		Records:     record.FromMaps(desc, rows),
		Synthesized: synthesized,
	}, nil
}

// sameShape reports whether two descriptors have the same fields in the
// same order with the same types.
func sameShape(a, b collection.Descriptor) bool {
	af, bf := a.Fields(), b.Fields()
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i].Name() != bf[i].Name() || af[i].SemanticType() != bf[i].SemanticType() {
			return false
		}
	}
	return true
}

func envelopeErr(op string, terr *domain.TransportError) error {
	if terr == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrServer)
	}
	return fmt.Errorf("%s: %w", op, terr)
}
