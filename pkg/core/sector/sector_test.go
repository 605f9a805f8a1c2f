package sector

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupKnownSector(t *testing.T) {
	table := DefaultTable()
	p := table.Lookup("Energy")
	if p.Beta != 1.3 || p.TerminalGrowth != 0.02 {
		t.Errorf("Energy params: got %+v", p)
	}
}

func TestLookupUnknownFallsBackToDefault(t *testing.T) {
	table := DefaultTable()
	def := table[DefaultName]

	for _, name := range []string{"", "Quantum Computing", "technology"} {
		if got := table.Lookup(name); got != def {
			t.Errorf("Lookup(%q): got %+v, exp default row", name, got)
		}
	}
}

func TestAllSectorsShareFlatTaxRate(t *testing.T) {
	// The tax rate is currently a constant across sectors; modeled per-row
	// for extensibility but expected flat.
	for name, p := range DefaultTable() {
		if p.TaxRate != 0.25 {
			t.Errorf("%s tax rate: got %v, exp 0.25", name, p.TaxRate)
		}
	}
}

func TestLoadTablePartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors.hjson")
	// HJSON: comments and unquoted keys are fine.
	content := `{
  // bump tech beta for a stress scenario
  Technology: {beta: 1.5, debt_equity: 0.1, tax_rate: 0.25, terminal_growth: 0.04, ev_ebitda: 18}
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if got := table.Lookup("Technology").Beta; got != 1.5 {
		t.Errorf("overridden beta: got %v, exp 1.5", got)
	}
	// Rows absent from the file keep built-in defaults.
	if got := table.Lookup("Utilities").Beta; got != 0.6 {
		t.Errorf("Utilities beta after partial override: got %v, exp 0.6", got)
	}
}

func TestLoadUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.hjson")
	content := `{
  "Test Cap": {
    "AAA.NS": "Alpha Industries"
  }
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	u, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse: %v", err)
	}
	if u["Test Cap"]["AAA.NS"] != "Alpha Industries" {
		t.Errorf("universe content: got %+v", u)
	}
}
