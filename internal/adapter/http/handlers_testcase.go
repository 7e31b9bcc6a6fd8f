package http

import (
	"net/http"

	"github.com/Strob0t/TrailBench/internal/domain/testcase"
)

// ListTestCases handles GET /api/v1/testcases
func (h *Handlers) ListTestCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.Catalog.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if cases == nil {
		cases = []testcase.TestCase{}
	}
	writeJSON(w, http.StatusOK, cases)
}

// GetTestCase handles GET /api/v1/testcases/{id}
func (h *Handlers) GetTestCase(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	tc, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "test case not found")
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

// CreateTestCase handles POST /api/v1/testcases
func (h *Handlers) CreateTestCase(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[testcase.CreateRequest](w, r)
	if !ok {
		return
	}
	tc, err := h.Catalog.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "create test case")
		return
	}
	writeJSON(w, http.StatusCreated, tc)
}

// UpdateTestCase handles PUT /api/v1/testcases/{id}
func (h *Handlers) UpdateTestCase(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[testcase.UpdateRequest](w, r)
	if !ok {
		return
	}
	tc, err := h.Catalog.Update(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, "test case not found")
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

// DeleteTestCase handles DELETE /api/v1/testcases/{id}
func (h *Handlers) DeleteTestCase(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "test case not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
