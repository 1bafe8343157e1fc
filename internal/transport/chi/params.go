package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/colladmin/internal/usecase/records"
)

// ListParams are the optional pagination parameters of GET /items/{collection}.
type ListParams struct {
	Limit   *int    `form:"limit"`
	Offset  *int    `form:"offset"`
	Page    *int    `form:"page"`
	PerPage *int    `form:"per_page"`
	Sort    *string `form:"sort"`
	Order   *string `form:"order"`
	Filter  *string `form:"filter"`
}

func (p ListParams) query() records.Query {
	intOf := func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	}
	return records.Query{
		Limit:   intOf(p.Limit),
		Offset:  intOf(p.Offset),
		Page:    intOf(p.Page),
		PerPage: intOf(p.PerPage),
		Sort:    deref(p.Sort),
		Order:   deref(p.Order),
		Filter:  deref(p.Filter),
	}
}

// SchemaParams address a schema by collection id or name.
type SchemaParams struct {
	CollectionID *string `form:"collection_id"`
	Name         *string `form:"name"`
}

// handlers binds path and query parameters before calling the Server.
type handlers struct {
	s           *Server
	onBindError func(w http.ResponseWriter, r *http.Request, err error)
}

func (h *handlers) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		h.onBindError(w, r, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return false
	}
	return true
}

func (h *handlers) queryParams(w http.ResponseWriter, r *http.Request, bindings map[string]any) bool {
	q := r.URL.Query()
	for name, dest := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			h.onBindError(w, r, fmt.Errorf("invalid format for parameter %s: %w", name, err))
			return false
		}
	}
	return true
}

func (h *handlers) listItems(w http.ResponseWriter, r *http.Request) {
	var collection string
	if !h.pathParam(w, r, "collection", &collection) {
		return
	}
	var p ListParams
	if !h.queryParams(w, r, map[string]any{
		"limit":    &p.Limit,
		"offset":   &p.Offset,
		"page":     &p.Page,
		"per_page": &p.PerPage,
		"sort":     &p.Sort,
		"order":    &p.Order,
		"filter":   &p.Filter,
	}) {
		return
	}
	h.s.ListItems(w, r, collection, p)
}

func (h *handlers) createItem(w http.ResponseWriter, r *http.Request) {
	var collection string
	if !h.pathParam(w, r, "collection", &collection) {
		return
	}
	h.s.CreateItem(w, r, collection)
}

func (h *handlers) getItem(w http.ResponseWriter, r *http.Request) {
	var collection, id string
	if !h.pathParam(w, r, "collection", &collection) || !h.pathParam(w, r, "id", &id) {
		return
	}
	h.s.GetItem(w, r, collection, id)
}

func (h *handlers) updateItem(w http.ResponseWriter, r *http.Request) {
	var collection, id string
	if !h.pathParam(w, r, "collection", &collection) || !h.pathParam(w, r, "id", &id) {
		return
	}
	h.s.UpdateItem(w, r, collection, id)
}

func (h *handlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	var collection, id string
	if !h.pathParam(w, r, "collection", &collection) || !h.pathParam(w, r, "id", &id) {
		return
	}
	h.s.DeleteItem(w, r, collection, id)
}

func (h *handlers) getSchema(w http.ResponseWriter, r *http.Request) {
	var p SchemaParams
	if !h.queryParams(w, r, map[string]any{
		"collection_id": &p.CollectionID,
		"name":          &p.Name,
	}) {
		return
	}
	h.s.GetSchema(w, r, p)
}
