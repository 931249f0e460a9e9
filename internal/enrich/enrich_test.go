package enrich

import (
	"testing"

	"github.com/mercadoguard/caracara/internal/domain"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		title string
		want  domain.Category
	}{
		{"Notebook Dell Inspiron 15", domain.CategoryNotebook},
		{"LAPTOP gamer usado", domain.CategoryNotebook},
		{"Impressora HP DeskJet 2774", domain.CategoryPrinter},
		{"Cartucho HP 664 Preto", domain.CategoryPrintSupply},
		{"", domain.CategoryPrintSupply},
		// notebook wins over impressora: first matching token
		{"Notebook com impressora de brinde", domain.CategoryNotebook},
	}

	for _, tt := range tests {
		if got := Category(tt.title); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCompatibility(t *testing.T) {
	compatible := []string{
		"Cartucho Compatível HP 664",
		"cartucho compativel 662",
		"Cartucho Genérico 662 Preto",
		"Cartucho generico 667",
		"Tinta similar para HP",
		"Cartucho tipo original",
		"Cartucho Remanufaturado 954",
	}
	for _, title := range compatible {
		if got := Compatibility(title); got != domain.CompatibilityCompatible {
			t.Errorf("Compatibility(%q) = %q, want Compatível", title, got)
		}
	}

	original := []string{"Cartucho HP 664 Original Preto", "Cartucho de tinta 122", ""}
	for _, title := range original {
		if got := Compatibility(title); got != domain.CompatibilityOriginal {
			t.Errorf("Compatibility(%q) = %q, want Original", title, got)
		}
	}
}

func TestCapacity(t *testing.T) {
	if got := Capacity("Cartucho HP 664 XL"); got != domain.CapacityHighYield {
		t.Errorf("XL title: got %q", got)
	}
	if got := Capacity("Cartucho HP 664xl preto"); got != domain.CapacityHighYield {
		t.Errorf("lowercase xl: got %q", got)
	}
	if got := Capacity("Cartucho HP 664"); got != domain.CapacityStandard {
		t.Errorf("standard title: got %q", got)
	}
}

func TestCartridgeModel(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Cartucho HP 664 Preto", "664"},
		{"Cartucho 122 colorido", "122"},
		{"Kit 954 + 954", "954"},
		// whole word only: 1664 and 6644 must not match
		{"Produto código 1664", domain.ModelOther},
		{"Ref 6644 tinta", domain.ModelOther},
		{"Cartucho sem modelo", domain.ModelOther},
		// first match wins
		{"Combo 662 e 664", "662"},
	}

	for _, tt := range tests {
		if got := CartridgeModel(tt.title); got != tt.want {
			t.Errorf("CartridgeModel(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestPageYield(t *testing.T) {
	tests := []struct {
		title string
		want  int
		ok    bool
	}{
		{"Cartucho 664 XL 300 páginas", 300, true},
		{"Cartucho 480 paginas preto", 480, true},
		{"Rende 1000pg", 1000, true},
		{"Rende 750 págs coloridas", 750, true},
		{"Cartucho HP 664", 0, false},
		{"300 paginas", 300, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := PageYield(tt.title)
		if ok != tt.ok || got != tt.want {
			t.Errorf("PageYield(%q) = %d, %v; want %d, %v", tt.title, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCostPerPage(t *testing.T) {
	p := 30.0
	y := 300
	zero := 0

	if got := CostPerPage(&p, &y); got == nil || *got != 0.1 {
		t.Errorf("CostPerPage(30, 300) = %v, want 0.1", got)
	}
	if got := CostPerPage(&p, &zero); got != nil {
		t.Error("zero yield must leave cost undefined")
	}
	if got := CostPerPage(nil, &y); got != nil {
		t.Error("missing price must leave cost undefined")
	}
	if got := CostPerPage(&p, nil); got != nil {
		t.Error("missing yield must leave cost undefined")
	}
}

func TestEnrichFullScenario(t *testing.T) {
	p := 45.0
	l := domain.Listing{Title: "Cartucho Compatível HP 664 XL 300 páginas", Price: &p}
	e := Enrich(l)

	if e.Compatibility != domain.CompatibilityCompatible {
		t.Errorf("compatibility = %q", e.Compatibility)
	}
	if e.CartridgeModel != "664" {
		t.Errorf("model = %q", e.CartridgeModel)
	}
	if e.Capacity != domain.CapacityHighYield {
		t.Errorf("capacity = %q", e.Capacity)
	}
	if e.PageYield == nil || *e.PageYield != 300 {
		t.Errorf("pageYield = %v", e.PageYield)
	}
	if e.CostPerPage == nil || *e.CostPerPage != 0.15 {
		t.Errorf("costPerPage = %v", e.CostPerPage)
	}
	if e.Category != domain.CategoryPrintSupply {
		t.Errorf("category = %q", e.Category)
	}
}
