package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-docref/pkg/domain"
	"github.com/adfharrison1/go-docref/pkg/storage"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	handler := NewHandler(storage.NewMemoryOpener(), "api-test")
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func commit(t *testing.T, router http.Handler, coll string, req CommitRequest) CommitResponse {
	t.Helper()
	w := doRequest(t, router, "POST", "/collections/"+coll+"/commit", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CommitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedUsers(t *testing.T, router http.Handler) []string {
	t.Helper()
	resp := commit(t, router, "users", CommitRequest{Insert: []domain.Document{
		{"name": "Alice", "age": 30, "city": "New York"},
		{"name": "Bob", "age": 25, "city": "San Francisco"},
		{"name": "Charlie", "age": 35, "city": "new york"},
	}})
	require.Len(t, resp.InsertedIDs, 3)
	return resp.InsertedIDs
}

func TestHandler_HandleCommit(t *testing.T) {
	router := newTestRouter(t)
	ids := seedUsers(t, router)

	fixed := uuid.New().String()
	resp := commit(t, router, "users", CommitRequest{
		Insert: []domain.Document{{"_id": fixed, "name": "Diana"}},
		Update: []domain.Document{{"_id": ids[0], "name": "Alicia", "age": 31}},
		Remove: []string{ids[1]},
	})
	assert.True(t, resp.Success)
	assert.Equal(t, []string{fixed}, resp.InsertedIDs)
	assert.Equal(t, 1, resp.Inserted)
	assert.Equal(t, 1, resp.Updated)
	assert.Equal(t, 1, resp.Removed)

	w := doRequest(t, router, "GET", "/collections/users/documents/"+ids[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Alicia", doc["name"])

	w = doRequest(t, router, "GET", "/collections/users/documents/"+ids[1], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_HandleCommit_ReturnsCanonicalIDs(t *testing.T) {
	router := newTestRouter(t)
	id := uuid.New()

	resp := commit(t, router, "users", CommitRequest{Insert: []domain.Document{
		{"_id": "{" + strings.ToUpper(id.String()) + "}", "name": "Erin"},
	}})
	assert.Equal(t, []string{id.String()}, resp.InsertedIDs)

	w := doRequest(t, router, "GET", "/collections/users/documents/"+resp.InsertedIDs[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, id.String(), doc["_id"])
	assert.Equal(t, "Erin", doc["name"])
}

func TestHandler_HandleCommit_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty", body: CommitRequest{}},
		{name: "not json", body: "nope"},
		{name: "update without id", body: CommitRequest{Update: []domain.Document{{"name": "x"}}}},
		{name: "insert with malformed id", body: CommitRequest{Insert: []domain.Document{{"_id": "123"}}}},
		{name: "malformed removal", body: CommitRequest{Remove: []string{"123"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, "POST", "/collections/users/commit", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandler_HandleGetById(t *testing.T) {
	router := newTestRouter(t)
	ids := seedUsers(t, router)

	handler := NewHandler(storage.NewMemoryOpener(), "other")
	req := httptest.NewRequest("GET", "/collections/users/documents/"+ids[0], nil)
	req = mux.SetURLVars(req, map[string]string{"coll": "users", "id": ids[0]})
	w := httptest.NewRecorder()
	handler.HandleGetById(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "stores are not shared across openers")

	w = doRequest(t, router, "GET", "/collections/users/documents/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_HandleFind(t *testing.T) {
	router := newTestRouter(t)
	seedUsers(t, router)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedName   string
	}{
		{name: "equals ignores case", query: "field=name&value=bob", expectedStatus: http.StatusOK, expectedName: "Bob"},
		{name: "greater than", query: "field=age&op=gt&value=32", expectedStatus: http.StatusOK, expectedName: "Charlie"},
		{name: "within", query: "field=name&op=in&value=Zed,Alice", expectedStatus: http.StatusOK, expectedName: "Alice"},
		{name: "no match", query: "field=age&op=lt&value=1", expectedStatus: http.StatusNotFound},
		{name: "missing field", query: "value=1", expectedStatus: http.StatusBadRequest},
		{name: "unknown operator", query: "field=age&op=like&value=1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, "GET", "/collections/users/find?"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var doc domain.Document
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
			assert.Equal(t, tt.expectedName, doc["name"])
		})
	}
}

func TestHandler_HandlePage(t *testing.T) {
	router := newTestRouter(t)

	docs := make([]domain.Document, 25)
	for i := range docs {
		docs[i] = domain.Document{"n": i, "even": i%2 == 0}
	}
	commit(t, router, "numbers", CommitRequest{Insert: docs})

	page := func(query string) domain.PagedResult[domain.Document] {
		w := doRequest(t, router, "GET", "/collections/numbers?"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result domain.PagedResult[domain.Document]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		return result
	}

	result := page("")
	assert.EqualValues(t, 25, result.TotalRows)
	assert.Len(t, result.Results, defaultRows)

	result = page("offset=20&rows=10&sort=n&dir=asc")
	assert.EqualValues(t, 25, result.TotalRows)
	require.Len(t, result.Results, 5)
	assert.EqualValues(t, 20, result.Results[0]["n"])

	result = page("rows=3&sort=n")
	require.Len(t, result.Results, 3)
	assert.EqualValues(t, 24, result.Results[0]["n"])

	result = page("rows=5&sort=n&dir=asc&field=even&value=true")
	assert.EqualValues(t, 13, result.TotalRows)
	require.Len(t, result.Results, 5)
	for i, doc := range result.Results {
		assert.EqualValues(t, i*2, doc["n"])
	}

	for _, query := range []string{"offset=-1", "rows=0", "rows=abc", "dir=sideways"} {
		w := doRequest(t, router, "GET", "/collections/numbers?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestHandler_HandleDropCollection(t *testing.T) {
	router := newTestRouter(t)
	ids := seedUsers(t, router)

	w := doRequest(t, router, "DELETE", "/collections/users", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, router, "GET", "/collections/users/documents/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, "GET", "/collections/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result domain.PagedResult[domain.Document]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.EqualValues(t, 0, result.TotalRows)
}

func TestHandler_HandleHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{err: domain.ErrNotFound, expected: http.StatusNotFound},
		{err: domain.ErrUniqueViolation, expected: http.StatusConflict},
		{err: domain.ErrRange, expected: http.StatusBadRequest},
		{err: domain.ErrInvalidFilter, expected: http.StatusBadRequest},
		{err: &domain.StoreError{Op: "commit", Collection: "c", Err: domain.ErrUniqueViolation}, expected: http.StatusConflict},
		{err: fmt.Errorf("disk full"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.err))
		})
	}
}
