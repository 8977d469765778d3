package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
)

type onlyDiagram struct{}

func (onlyDiagram) Available(id string) bool { return id == "diagram" }

func TestListProfiles(t *testing.T) {
	r := chi.NewRouter()
	New(profile.NewMemoryStore(profile.Seed(false)), onlyDiagram{}).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profiles", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body []struct {
		ID        string `json:"id"`
		Provider  string `json:"provider"`
		Available bool   `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(body))
	}
	for _, p := range body {
		if p.Available != (p.ID == "diagram") {
			t.Fatalf("unexpected availability for %s: %v", p.ID, p.Available)
		}
	}
}
