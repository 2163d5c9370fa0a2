package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// HandleFind handles GET requests for the first document matching field,
// op and value
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Infof("handleFind called for collection '%s'", collName)

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	if filter == nil {
		WriteJSONError(w, http.StatusBadRequest, "field query parameter is required")
		return
	}

	ref, err := h.reference(collName)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, found, err := ref.GetWhere(r.Context(), *filter)
	if err != nil {
		h.logger.Errorf("Find failed for collection '%s': %v", collName, err)
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, fmt.Errorf("no document in collection '%s' where %s %s %v: %w",
			collName, filter.Field, filter.Operator, filter.Value, domain.ErrNotFound))
		return
	}

	h.logger.Infof("Found document '%s' in collection '%s'", doc.ID(), collName)
	writeJSON(w, http.StatusOK, doc)
}
