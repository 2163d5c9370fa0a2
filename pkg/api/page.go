package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// HandlePage handles GET requests for one page of a collection. Query
// parameters: offset, rows, sort, dir and optionally field, op, value.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Infof("handlePage called for collection '%s'", collName)

	query := r.URL.Query()
	page, err := parsePage(query)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := parseSort(query)
	if err != nil {
		writeError(w, err)
		return
	}
	filter, err := parseFilter(query)
	if err != nil {
		writeError(w, err)
		return
	}

	ref, err := h.reference(collName)
	if err != nil {
		writeError(w, err)
		return
	}

	var result domain.PagedResult[domain.Document]
	if filter == nil {
		result, err = ref.GetPaged(r.Context(), page, order)
	} else {
		result, err = ref.GetPagedWhere(r.Context(), *filter, page, order)
	}
	if err != nil {
		h.logger.Errorf("Paging failed for collection '%s': %v", collName, err)
		writeError(w, err)
		return
	}

	if filter == nil {
		h.logger.Infof("Returning %d of %d documents in collection '%s' (no filter)", len(result.Results), result.TotalRows, collName)
	} else {
		h.logger.Infof("Returning %d of %d documents in collection '%s' with filter %s %s %v",
			len(result.Results), result.TotalRows, collName, filter.Field, filter.Operator, filter.Value)
	}
	writeJSON(w, http.StatusOK, result)
}
