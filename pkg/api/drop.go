package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDropCollection handles DELETE requests to remove a whole collection
// and its indexes
func (h *Handler) HandleDropCollection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Infof("handleDropCollection called for collection '%s'", collName)

	ref, err := h.reference(collName)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := ref.Drop(r.Context()); err != nil {
		h.logger.Errorf("Drop failed for collection '%s': %v", collName, err)
		writeError(w, err)
		return
	}

	h.logger.Infof("Dropped collection '%s'", collName)
	w.WriteHeader(http.StatusNoContent)
}
