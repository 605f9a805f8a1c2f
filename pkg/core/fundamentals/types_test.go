package fundamentals

import "testing"

func TestSetCellRowGrowsWithPeriods(t *testing.T) {
	// Periods arrive incrementally on the quote-summary path: one label is
	// appended, then its cells are set. Rows created against an earlier,
	// shorter period list must grow instead of indexing out of range.
	stmt := NewStatement()

	stmt.Periods = append(stmt.Periods, "2023-03-31")
	stmt.SetCell("Operating Cash Flow", 0, 500)

	stmt.Periods = append(stmt.Periods, "2022-03-31")
	stmt.SetCell("Operating Cash Flow", 1, 450)

	row := stmt.Row("Operating Cash Flow")
	if len(row) != 2 {
		t.Fatalf("row length: got %d, exp 2", len(row))
	}
	if row[0] == nil || *row[0] != 500 || row[1] == nil || *row[1] != 450 {
		t.Errorf("row content: %v", row)
	}
}

func TestSetCellPadsSkippedRows(t *testing.T) {
	// A row first touched after several periods already exist must pad the
	// earlier columns with nils, keeping alignment with Periods.
	stmt := NewStatement()

	stmt.Periods = append(stmt.Periods, "2023-03-31")
	stmt.SetCell("Operating Cash Flow", 0, 500)

	stmt.Periods = append(stmt.Periods, "2022-03-31")
	stmt.SetCell("Capital Expenditure", 1, -120)

	capex := stmt.Row("Capital Expenditure")
	if len(capex) != 2 {
		t.Fatalf("capex row length: got %d, exp 2", len(capex))
	}
	if capex[0] != nil {
		t.Errorf("untouched cell must stay nil, got %v", *capex[0])
	}
	if capex[1] == nil || *capex[1] != -120 {
		t.Errorf("capex value: %v", capex[1])
	}
}

func TestSetCellIgnoresOutOfRangeColumns(t *testing.T) {
	stmt := NewStatement("2023")
	stmt.SetCell("Total Revenue", -1, 100)
	stmt.SetCell("Total Revenue", 1, 100)
	if _, ok := stmt.Rows["Total Revenue"]; ok {
		t.Errorf("out-of-range writes must not create a row: %v", stmt.Rows["Total Revenue"])
	}
}
