package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/dmitrijs2005/tourbook/internal/server/services"
)

// resourceHandler exposes one ResourceService as list/get/create/
// update/delete endpoints. Routes address documents by {id}.
type resourceHandler[T any] struct {
	svc    *services.ResourceService[T]
	schema *query.Schema
	log    logging.Logger

	// expand names relations loaded on every single-document read.
	expand []string
}

func newResourceHandler[T any](svc *services.ResourceService[T], schema *query.Schema, log logging.Logger) *resourceHandler[T] {
	return &resourceHandler[T]{svc: svc, schema: schema, log: log}
}

func (h *resourceHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	h.listScoped(w, r)
}

func (h *resourceHandler[T]) listScoped(w http.ResponseWriter, r *http.Request, scope ...query.Condition) {
	res, err := h.svc.List(r.Context(), r.URL.Query(), scope...)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	docs, err := project(h.schema, res.Descriptor, res.Items)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeList(w, docs, res.Count)
}

func (h *resourceHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetOne(r.Context(), r.PathValue("id"), h.expand...)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeDoc(w, http.StatusOK, doc)
}

func (h *resourceHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	item := new(T)
	if err := decodeJSON(r, item); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	h.insert(w, r, item)
}

func (h *resourceHandler[T]) insert(w http.ResponseWriter, r *http.Request, item *T) {
	doc, err := h.svc.Create(r.Context(), item)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeDoc(w, http.StatusCreated, doc)
}

func (h *resourceHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	doc, err := h.svc.UpdateOne(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeDoc(w, http.StatusOK, doc)
}

func (h *resourceHandler[T]) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteOne(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeNoContent(w)
}

func errRouteNotFound(r *http.Request) error {
	return common.NotFound(fmt.Sprintf("Can't find %s on this server!", r.URL.Path))
}
