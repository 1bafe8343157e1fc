package colladmin

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
)

// Client is the colladmin SDK entry point.
type Client struct {
	facade *items.Client
	obs    *observer

	mu          sync.Mutex
	collections map[string]*Collection
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	facadeOpts := []items.Option{items.WithTimeout(cfg.timeout)}
	switch {
	case cfg.tokenSource != nil:
		facadeOpts = append(facadeOpts, items.WithTokenSource(cfg.tokenSource))
	case cfg.token != "":
		facadeOpts = append(facadeOpts, items.WithToken(cfg.token))
	}
	if cfg.transport != nil {
		facadeOpts = append(facadeOpts, items.WithTransport(cfg.transport))
	}

	facade, err := items.NewClient(baseURL, facadeOpts...)
	if err != nil {
		return nil, fmt.Errorf("colladmin: %w", err)
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{
		facade:      facade,
		obs:         obs,
		collections: make(map[string]*Collection),
	}, nil
}

// Collection returns the handle of a collection. Handles are cached per
// name, so mutations through the same name share one orchestrator.
func (c *Client) Collection(name string) *Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[name]; ok {
		return col
	}
	repo := items.New(c.facade, name)
	col := &Collection{
		name: name,
		repo: repo,
		session: browse.New(func(string) browse.Source { return repo },
			browse.WithPagination(items.Pagination{Limit: 1})),
		obs: c.obs,
	}
	c.collections[name] = col
	return col
}

// envelopeErr turns a failed envelope into an error.
func envelopeErr[T any](op, collection string, env items.Envelope[T]) error {
	if env.Success {
		return nil
	}
	if env.Err == nil {
		return fmt.Errorf("colladmin: %s %s: %w", op, collection, ErrServer)
	}
	return fmt.Errorf("colladmin: %s %s: %w", op, collection, env.Err)
}

// ensure makes sure the session has loaded the collection.
func (col *Collection) ensure(ctx context.Context) error {
	if _, ok := col.session.View(); ok {
		return nil
	}
	if _, err := col.session.Select(ctx, col.name); err != nil {
		return fmt.Errorf("colladmin: load %s: %w", col.name, err)
	}
	return nil
}
