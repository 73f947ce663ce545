package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
)

func TestListPersonas(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/personas", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != len(persona.Seed()) {
		t.Fatalf("expected %d personas, got %d", len(persona.Seed()), len(body))
	}
	if body["cockney"]["name"] != "Cockney" {
		t.Fatalf("unexpected cockney entry: %v", body["cockney"])
	}
	for id, entry := range body {
		if len(entry) != 1 {
			t.Fatalf("persona %s exposes extra fields: %v", id, entry)
		}
	}
	for _, p := range persona.Seed() {
		if strings.Contains(resp.Body.String(), p.Prompt) {
			t.Fatalf("listing leaked prompt for %s", p.ID)
		}
	}
}
