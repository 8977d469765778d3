package profile

import (
	"strings"
	"testing"
)

func TestSeedWithoutArk(t *testing.T) {
	items := Seed(false)
	if len(items) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(items))
	}
	for _, item := range items {
		if item.Provider == ProviderArk {
			t.Fatalf("ark profile seeded without credentials")
		}
	}
}

func TestSeedDiagramTemplateReferencesQuery(t *testing.T) {
	store := NewMemoryStore(Seed(true))
	diagram, ok := store.FindByID("diagram")
	if !ok {
		t.Fatal("diagram profile missing")
	}
	if diagram.ReplayHistory {
		t.Fatal("diagram profile must not replay history")
	}
	if !strings.Contains(diagram.PromptTemplate, "{query}") {
		t.Fatalf("template lacks {query}: %q", diagram.PromptTemplate)
	}
	if diagram.ErrorText != "Error: Could not fetch response from Gemini API." {
		t.Fatalf("unexpected error text %q", diagram.ErrorText)
	}
	if _, ok := store.FindByID("ark"); !ok {
		t.Fatal("ark profile missing")
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed(false))
	list := store.List()
	list[0].Name = "mutated"

	got, _ := store.FindByID(list[0].ID)
	if got.Name == "mutated" {
		t.Fatal("List leaked internal slice")
	}
}
