package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Collection operations
	router.HandleFunc("/collections/{coll}", h.HandlePage).Methods("GET")
	router.HandleFunc("/collections/{coll}", h.HandleDropCollection).Methods("DELETE")
	router.HandleFunc("/collections/{coll}/commit", h.HandleCommit).Methods("POST")
	router.HandleFunc("/collections/{coll}/find", h.HandleFind).Methods("GET")

	// Document operations (by ID)
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleGetById).Methods("GET")
}
