package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
)

func TestAdminHandler_Create(t *testing.T) {
	catalog := &fakeCatalog{calc: &models.Calculator{ID: "c1", Name: "Mortgage"}}
	h := &AdminHandler{Catalog: catalog}

	rec := httptest.NewRecorder()
	body := `{"name":"Mortgage","type":"mortgage","description":"d","interestRate":9.6,"minAmount":1,"maxAmount":2,"minTerm":1,"maxTerm":30}`
	h.Create(rec, httptest.NewRequest("POST", "/api/admin/calculators", bytes.NewBufferString(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if catalog.created == nil || *catalog.created.InterestRate != 9.6 || catalog.created.IsActive != nil {
		t.Errorf("unexpected input passed to service: %+v", catalog.created)
	}
}

func TestAdminHandler_Create_DuplicateName(t *testing.T) {
	h := &AdminHandler{Catalog: &fakeCatalog{err: common.NewValidationError(
		common.FieldError{Field: "name", Msg: "calculator with this name already exists"})}}

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest("POST", "/api/admin/calculators", bytes.NewBufferString(`{}`)))

	if rec.Code != http.StatusBadRequest || !bytes.Contains(rec.Body.Bytes(), []byte(`"field":"name"`)) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandler_Update_PartialPatch(t *testing.T) {
	catalog := &fakeCatalog{calc: &models.Calculator{ID: "c1", IsActive: false}}
	h := &AdminHandler{Catalog: catalog}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/api/admin/calculators/c1", bytes.NewBufferString(`{"isActive":false}`))
	h.Update(rec, withURLParams(req, "id", "c1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p := catalog.patched
	if p == nil || p.IsActive == nil || *p.IsActive || p.Name != nil || p.InterestRate != nil {
		t.Errorf("unexpected patch: %+v", p)
	}
	if catalog.gotID != "c1" {
		t.Errorf("got id %q", catalog.gotID)
	}
}

func TestAdminHandler_Delete(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"removed", nil, http.StatusOK, `{"msg":"Calculator removed"}`},
		{"missing", common.ErrNotFound, http.StatusNotFound, "Calculator not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AdminHandler{Catalog: &fakeCatalog{err: tt.err}}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("DELETE", "/api/admin/calculators/c1", nil)
			h.Delete(rec, withURLParams(req, "id", "c1"))

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, rec.Code)
			}
			if !bytes.Contains(rec.Body.Bytes(), []byte(tt.expectedBody)) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestAdminHandler_List(t *testing.T) {
	h := &AdminHandler{Catalog: &fakeCatalog{list: []models.Calculator{{ID: "a", IsActive: false}}}}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/admin/calculators", nil))

	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(`"isActive":false`)) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandler_Update_NonNumericBoundIsRejected(t *testing.T) {
	catalog := &fakeCatalog{calc: &models.Calculator{ID: "c1"}}
	h := &AdminHandler{Catalog: catalog}

	rec := httptest.NewRecorder()
	body := `{"minAmount":"zero","minDownPayment":{},"maxTerm":30,"name":7}`
	req := httptest.NewRequest("PUT", "/api/admin/calculators/c1", bytes.NewBufferString(body))
	h.Update(rec, withURLParams(req, "id", "c1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if catalog.patched != nil {
		t.Errorf("stored bounds must not be overwritten, got patch %+v", catalog.patched)
	}
	if got := errorFields(t, rec.Body.Bytes()); !sameFields(got, []string{"minAmount", "minDownPayment", "name"}) {
		t.Errorf("unexpected fields %v", got)
	}
}

func TestAdminHandler_Create_ReportsTypeAndRuleFailuresTogether(t *testing.T) {
	catalog := &fakeCatalog{}
	h := &AdminHandler{Catalog: catalog}

	rec := httptest.NewRecorder()
	body := `{"name":"Mortgage","type":"mortgage","interestRate":"high","minAmount":1,"maxAmount":2,"minTerm":1,"maxTerm":30}`
	h.Create(rec, httptest.NewRequest("POST", "/api/admin/calculators", bytes.NewBufferString(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if catalog.created != nil {
		t.Error("create must not run on a malformed body")
	}
	if got := errorFields(t, rec.Body.Bytes()); !sameFields(got, []string{"interestRate", "description"}) {
		t.Errorf("unexpected fields %v", got)
	}
}
