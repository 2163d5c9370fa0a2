package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// HandleGetById handles GET requests to retrieve a specific document by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docId := vars["id"]

	h.logger.Infof("handleGetById called for collection '%s', document '%s'", collName, docId)

	id, err := uuid.Parse(docId)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid document id '%s'", docId))
		return
	}

	ref, err := h.reference(collName)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, found, err := ref.Get(r.Context(), id)
	if err != nil {
		h.logger.Errorf("Get failed for document '%s' in collection '%s': %v", docId, collName, err)
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, fmt.Errorf("document '%s' in collection '%s': %w", docId, collName, domain.ErrNotFound))
		return
	}

	h.logger.Infof("Retrieved document '%s' from collection '%s'", docId, collName)
	writeJSON(w, http.StatusOK, doc)
}
