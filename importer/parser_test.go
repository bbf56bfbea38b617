package importer

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

func buildWorkbook(t *testing.T, sheets []sheetFixture) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				t.Fatalf("NewSheet(%q): %v", sheet.name, err)
			}
		}
		width := 0
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
			if len(row) > width {
				width = len(row)
			}
		}
		// Excel records the used range; cells holding only empty strings are
		// part of it even though GetRows trims them
		if width > 0 {
			end, err := excelize.CoordinatesToCellName(width, len(sheet.rows))
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetDimension(sheet.name, "A1:"+end); err != nil {
				t.Fatalf("SetSheetDimension: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestParseWorkbook_CarriesVehicleNameForward(t *testing.T) {
	content := buildWorkbook(t, []sheetFixture{{
		name: "현대",
		rows: [][]interface{}{
			{"", "", "OPTION", "2026 아반떼 가솔린", "스마트", "", "편의", "버림", "500000"},
			{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20000000", "", "", ""},
			{"", "", "TRIM", "2026 아반떼 가솔린", "프리미엄", "23,500,000", "", "", ""},
			{"", "", "", "", "", "", "", "", ""},
			{"3", "", "OPTION", "2026 아반떼 가솔린", "스마트", "", "편의", "선루프", "1,200,000"},
		},
	}})

	sheets, err := ParseWorkbook(content)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Name != "현대" {
		t.Fatalf("expected one sheet named 현대, got %+v", sheets)
	}

	records := sheets[0].Records
	// the leading OPTION row precedes any vehicle name and is dropped, as is
	// the fully empty row
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(records), records)
	}
	for i, record := range records {
		if record.VehicleName != "2026 아반떼" {
			t.Fatalf("record %d vehicle name = %q, want 2026 아반떼", i, record.VehicleName)
		}
	}
	if records[1].RowType != RowTypeTrim || records[1].BasePrice != 23500000 {
		t.Fatalf("carried trim row parsed as %+v", records[1])
	}
	if records[2].RowType != RowTypeOption || records[2].OptionName != "선루프" || records[2].Price != 1200000 {
		t.Fatalf("option row parsed as %+v", records[2])
	}
}

func TestParseWorkbook_EightColumnSheetAlignsWithNine(t *testing.T) {
	wide := [][]interface{}{
		{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20000000", "", "", ""},
		{"2", "", "OPTION", "2026 아반떼 가솔린", "스마트", "", "편의", "선루프", "1200000"},
	}
	var narrow [][]interface{}
	for _, row := range wide {
		narrow = append(narrow, row[1:])
	}

	content := buildWorkbook(t, []sheetFixture{
		{name: "아홉", rows: wide},
		{name: "여덟", rows: narrow},
	})
	sheets, err := ParseWorkbook(content)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(sheets))
	}
	if len(sheets[0].Records) != len(sheets[1].Records) {
		t.Fatalf("record counts differ: %d vs %d", len(sheets[0].Records), len(sheets[1].Records))
	}
	for i := range sheets[0].Records {
		if sheets[0].Records[i] != sheets[1].Records[i] {
			t.Fatalf("record %d differs:\n nine: %+v\neight: %+v", i, sheets[0].Records[i], sheets[1].Records[i])
		}
	}
}

func TestParseWorkbook_TrimOnlySheetKeepsIndexColumn(t *testing.T) {
	// nine-column layout where the trailing option columns hold no value on
	// any row; GetRows trims those cells, so only the declared dimension says
	// the sheet is nine columns wide
	content := buildWorkbook(t, []sheetFixture{{
		name: "현대",
		rows: [][]interface{}{
			{"1", "2026 아반떼", "TRIM", "2026 아반떼 가솔린", "스마트", "20000000", "", "", ""},
			{"2", "", "TRIM", "2026 아반떼 가솔린", "모던", "22,000,000", "", "", ""},
		},
	}})

	sheets, err := ParseWorkbook(content)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}
	records := sheets[0].Records
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	for i, record := range records {
		if record.RowType != RowTypeTrim {
			t.Fatalf("record %d type = %q, want TRIM: %+v", i, record.RowType, record)
		}
		if record.VehicleName != "2026 아반떼" || record.Model != "2026 아반떼 가솔린" {
			t.Fatalf("record %d columns shifted: %+v", i, record)
		}
	}
	if records[0].Trim != "스마트" || records[0].BasePrice != 20000000 {
		t.Fatalf("first trim parsed as %+v", records[0])
	}
	if records[1].Trim != "모던" || records[1].BasePrice != 22000000 {
		t.Fatalf("second trim parsed as %+v", records[1])
	}
}

func TestParseWorkbook_EmptySheetYieldsNoRecords(t *testing.T) {
	content := buildWorkbook(t, []sheetFixture{{name: "볼보", rows: nil}})
	sheets, err := ParseWorkbook(content)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}
	if len(sheets) != 1 || len(sheets[0].Records) != 0 {
		t.Fatalf("expected one empty sheet, got %+v", sheets)
	}
}

func TestParseWorkbook_RejectsUnreadableContent(t *testing.T) {
	if _, err := ParseWorkbook([]byte("not a workbook")); err == nil {
		t.Fatal("expected an error for garbage bytes")
	}
}

func TestCoercePrice(t *testing.T) {
	cases := []struct {
		in       string
		expected int64
	}{
		{"20000000", 20000000},
		{"23,500,000", 23500000},
		{" 1 200 000 ", 1200000},
		{"₩1,200,000", 1200000},
		{"1234.99", 1234},
		{"-1234.99", -1234},
		{"", 0},
		{"nan", 0},
		{"NaN", 0},
		{"none", 0},
		{"null", 0},
		{"-", 0},
		{"가격미정", 0},
	}
	for _, tc := range cases {
		if got := CoercePrice(tc.in); got != tc.expected {
			t.Fatalf("CoercePrice(%q) = %d, want %d", tc.in, got, tc.expected)
		}
	}
}

func TestVehicleYear(t *testing.T) {
	cases := []struct {
		in       string
		expected int
	}{
		{"2026 아반떼", 2026},
		{"  2024 쏘나타", 2024},
		{"아반떼", 0},
		{"202 아반떼", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := VehicleYear(tc.in); got != tc.expected {
			t.Fatalf("VehicleYear(%q) = %d, want %d", tc.in, got, tc.expected)
		}
	}
}

func TestDeriveVehicleLineName(t *testing.T) {
	prefixes := []string{"현대", "제네시스"}
	cases := []struct {
		in       string
		expected string
	}{
		{"2026 아반떼", "아반떼"},
		{"2026 현대 아반떼", "아반떼"},
		{"제네시스 G80", "G80"},
		{"아반떼", "아반떼"},
	}
	for _, tc := range cases {
		if got := DeriveVehicleLineName(tc.in, prefixes); got != tc.expected {
			t.Fatalf("DeriveVehicleLineName(%q) = %q, want %q", tc.in, got, tc.expected)
		}
	}
}

func TestModelCode_IsDeterministicSlug(t *testing.T) {
	cases := []struct {
		brand    string
		line     string
		model    string
		expected string
	}{
		{"Hyundai", "Avante", "2026 Avante Gasoline", "HYUNDAI-AVANTE-2026-AVANTE-GASOLINE"},
		{"현대", "아반떼", "2026 아반떼 가솔린", "현대-아반떼-2026-아반떼-가솔린"},
		{"Kia", "K5 (DL3)", "K5 2.0", "KIA-K5-DL3-K5-2-0"},
	}
	for _, tc := range cases {
		if got := ModelCode(tc.brand, tc.line, tc.model); got != tc.expected {
			t.Fatalf("ModelCode(%q,%q,%q) = %q, want %q", tc.brand, tc.line, tc.model, got, tc.expected)
		}
	}
	first := ModelCode("현대", "아반떼", "2026 아반떼 가솔린")
	second := ModelCode("현대", "아반떼", "2026 아반떼 가솔린")
	if first != second {
		t.Fatalf("ModelCode not stable: %q vs %q", first, second)
	}
}
