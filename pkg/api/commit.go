package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

// maxCommitChanges caps the changes one request may carry
const maxCommitChanges = 1000

// CommitRequest represents the request body for commit operations
type CommitRequest struct {
	Insert []domain.Document `json:"insert"`
	Update []domain.Document `json:"update"`
	Remove []string          `json:"remove"`
}

// CommitResponse represents the response for commit operations
type CommitResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Collection  string   `json:"collection"`
	Inserted    int      `json:"inserted"`
	Updated     int      `json:"updated"`
	Removed     int      `json:"removed"`
	InsertedIDs []string `json:"inserted_ids"`
}

// HandleCommit handles POST requests that stage a set of inserts, updates and
// removals and commit them together. Inserted documents without an _id get a
// new one.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Infof("handleCommit called for collection '%s'", collName)

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Errorf("Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	total := len(req.Insert) + len(req.Update) + len(req.Remove)
	if total == 0 {
		WriteJSONError(w, http.StatusBadRequest, "No changes provided")
		return
	}
	if total > maxCommitChanges {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d changes allowed per commit", maxCommitChanges))
		return
	}

	insertedIDs := make([]string, len(req.Insert))
	for i, doc := range req.Insert {
		if doc == nil {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("insert %d is not a document", i))
			return
		}
		if _, ok := doc[domain.IDField]; !ok {
			doc[domain.IDField] = uuid.New().String()
		}
		insertedIDs[i] = doc.DocumentID().String()
	}
	removals := make([]uuid.UUID, len(req.Remove))
	for i, raw := range req.Remove {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid document id '%s'", raw))
			return
		}
		removals[i] = id
	}

	ref, err := h.reference(collName)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ref.Add(req.Insert...); err != nil {
		writeError(w, err)
		return
	}
	if err := ref.Modify(req.Update...); err != nil {
		writeError(w, err)
		return
	}
	if err := ref.Remove(removals...); err != nil {
		writeError(w, err)
		return
	}

	if err := ref.Commit(r.Context()); err != nil {
		h.logger.Errorf("Commit failed for collection '%s': %v", collName, err)
		writeError(w, err)
		return
	}

	h.logger.Infof("Commit successful for collection '%s': %d inserted, %d updated, %d removed",
		collName, len(req.Insert), len(req.Update), len(req.Remove))
	writeJSON(w, http.StatusOK, CommitResponse{
		Success:     true,
		Message:     "Commit completed successfully",
		Collection:  collName,
		Inserted:    len(req.Insert),
		Updated:     len(req.Update),
		Removed:     len(req.Remove),
		InsertedIDs: insertedIDs,
	})
}
